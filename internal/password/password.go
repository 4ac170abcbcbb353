// Package password hashes and verifies admin passwords. New hashes use the
// configured algorithm; verification accepts both bcrypt and argon2id PHC
// strings so accounts imported from either scheme keep working.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported algorithms.
const (
	Bcrypt   = "bcrypt"
	Argon2id = "argon2id"
)

const minLength = 8

var (
	// ErrTooShort is returned when hashing a password below the minimum length.
	ErrTooShort = fmt.Errorf("password must be at least %d characters", minLength)

	// ErrUnknownHash is returned when a stored hash is in no recognised format.
	ErrUnknownHash = errors.New("unrecognised password hash format")
)

// Argon2Params tunes argon2id hashing.
type Argon2Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the RFC 9106 second recommended profile.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Memory: 64 * 1024, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32}
}

// Hasher creates and checks password hashes.
type Hasher struct {
	algorithm  string
	bcryptCost int
	argon      Argon2Params
}

// New returns a Hasher producing hashes with algorithm (bcrypt when empty).
func New(algorithm string) (*Hasher, error) {
	switch algorithm {
	case "", Bcrypt:
		return &Hasher{algorithm: Bcrypt, bcryptCost: bcrypt.DefaultCost, argon: DefaultArgon2Params()}, nil
	case Argon2id:
		return &Hasher{algorithm: Argon2id, bcryptCost: bcrypt.DefaultCost, argon: DefaultArgon2Params()}, nil
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q (want %s or %s)", algorithm, Bcrypt, Argon2id)
	}
}

// WithBcryptCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (h *Hasher) WithBcryptCost(cost int) *Hasher {
	h.bcryptCost = cost
	return h
}

// WithArgon2Params overrides the argon2id parameters.
func (h *Hasher) WithArgon2Params(p Argon2Params) *Hasher {
	h.argon = p
	return h
}

// Hash returns an encoded hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minLength {
		return "", ErrTooShort
	}
	if h.algorithm == Argon2id {
		return h.hashArgon2(password)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches encoded. A mismatch is not an
// error; a malformed hash is.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2(password, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("bcrypt compare: %w", err)
		}
		return true, nil
	default:
		return false, ErrUnknownHash
	}
}

func (h *Hasher) hashArgon2(password string) (string, error) {
	p := h.argon
	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2(password, encoded string) (bool, error) {
	// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, ErrUnknownHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrUnknownHash
	}

	var (
		memory, time uint32
		parallelism  uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return false, ErrUnknownHash
	}

	salt, err := decodeB64(parts[4])
	if err != nil {
		return false, ErrUnknownHash
	}
	want, err := decodeB64(parts[5])
	if err != nil || len(want) == 0 {
		return false, ErrUnknownHash
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// decodeB64 accepts both padded and unpadded standard base64, since PHC
// strings from other tools differ on padding.
func decodeB64(s string) ([]byte, error) {
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
