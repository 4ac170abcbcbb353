package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
)

const (
	// DefaultOTPTTL is how long an issued code stays valid.
	DefaultOTPTTL = 10 * time.Minute

	otpDigits = 6
)

var otpSpace = big.NewInt(1_000_000)

// OTPLedger issues and verifies single-use login codes. Only a SHA-256 hash
// of each code is stored.
type OTPLedger struct {
	repo OTPRepo
	ttl  time.Duration
	now  func() time.Time
}

// NewOTPLedger returns a ledger whose codes live for ttl.
func NewOTPLedger(repo OTPRepo, ttl time.Duration) *OTPLedger {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPLedger{repo: repo, ttl: ttl, now: time.Now}
}

// TTL returns the validity window of issued codes.
func (l *OTPLedger) TTL() time.Duration { return l.ttl }

// Issue stores a fresh code for email and returns it with its expiry. Codes
// already outstanding for email stay valid.
func (l *OTPLedger) Issue(ctx context.Context, email string) (string, time.Time, error) {
	code, err := generateCode()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate otp: %w", err)
	}
	expiresAt := l.now().UTC().Add(l.ttl)

	rec := &model.OTPRecord{Email: email, CodeHash: hashCode(code), ExpiresAt: expiresAt}
	if err := l.repo.CreateOTP(ctx, rec); err != nil {
		return "", time.Time{}, err
	}
	return code, expiresAt, nil
}

// Verify consumes an unexpired code for email. It reports false for a wrong,
// expired or already used code.
func (l *OTPLedger) Verify(ctx context.Context, email, code string) (bool, error) {
	if !wellFormedCode(code) {
		return false, nil
	}
	return l.repo.ConsumeOTP(ctx, email, hashCode(code), l.now())
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

func wellFormedCode(code string) bool {
	if len(code) != otpDigits {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
