package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/password"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/store"
)

const testPassword = "s3cret-pass"

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

// fakeNotifier records every message it is asked to send.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, to []string, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{To: append([]string(nil), to...), Subject: subject, Body: body})
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) last() sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentMail{}
	}
	return n.sent[len(n.sent)-1]
}

// fakeLocator answers lookups from fixed values.
type fakeLocator struct {
	ipLoc  string
	gpsLoc string
}

func (l fakeLocator) LookupIP(context.Context, string) (string, error) {
	if l.ipLoc == "" {
		return "", errors.New("ip lookup unavailable")
	}
	return l.ipLoc, nil
}

func (l fakeLocator) ReverseGeocode(context.Context, float64, float64) (string, error) {
	if l.gpsLoc == "" {
		return "", errors.New("reverse geocode unavailable")
	}
	return l.gpsLoc, nil
}

// countingHasher counts Verify calls on top of a real hasher.
type countingHasher struct {
	*password.Hasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(pw, encoded string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.Hasher.Verify(pw, encoded)
}

func (h *countingHasher) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type testEnv struct {
	store    *store.Store
	login    *LoginService
	otps     *OTPLedger
	auth     *AuthService
	notifier *fakeNotifier
	hasher   *password.Hasher
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(store.Config{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestEnv(t *testing.T, limiter OTPLimiter) *testEnv {
	t.Helper()
	s := newTestStore(t)

	hasher, err := password.New(password.Bcrypt)
	if err != nil {
		t.Fatalf("password.New: %v", err)
	}
	hasher.WithBcryptCost(bcrypt.MinCost)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &fakeNotifier{}
	otps := NewOTPLedger(s, DefaultOTPTTL)
	auth := NewAuthService(s, "test-secret-key-for-jwt", DefaultSessionTTL)

	login := NewLoginService(LoginDeps{
		Admins:    s,
		Attempts:  s,
		OTPs:      otps,
		Sessions:  auth,
		Passwords: hasher,
		Notifier:  notifier,
		Locator:   fakeLocator{ipLoc: "Lagos, Nigeria", gpsLoc: "Victoria Island, Lagos"},
		Limiter:   limiter,
		Logger:    logger,
		AppName:   "Masski",
	})

	return &testEnv{store: s, login: login, otps: otps, auth: auth, notifier: notifier, hasher: hasher}
}

func (e *testEnv) seedAdmin(t *testing.T, email string, role model.Role) *model.Admin {
	t.Helper()
	hash, err := e.hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	a := &model.Admin{Name: email, Email: email, PasswordHash: hash, Role: role, IsActive: true}
	if err := e.store.CreateAdmin(context.Background(), a); err != nil {
		t.Fatalf("CreateAdmin(%s): %v", email, err)
	}
	return a
}

// trustDevice records a verified attempt so the device counts as trusted.
func (e *testEnv) trustDevice(t *testing.T, admin *model.Admin, deviceID string) {
	t.Helper()
	ctx := context.Background()
	a := &model.LoginAttempt{AdminID: &admin.ID, Email: admin.Email, DeviceID: deviceID, Status: model.StatusPendingOTP}
	if err := e.store.CreateAttempt(ctx, a); err != nil {
		t.Fatalf("CreateAttempt: %v", err)
	}
	for _, st := range []model.AttemptStatus{model.StatusOTPSent, model.StatusOTPVerified} {
		if err := e.store.UpdateAttemptStatus(ctx, a.ID, st, nil); err != nil {
			t.Fatalf("UpdateAttemptStatus(%s): %v", st, err)
		}
	}
}

// loginWithOTP logs admin in from a trusted device and returns the attempt
// id with the code captured from the outgoing email.
func (e *testEnv) loginWithOTP(t *testing.T, admin *model.Admin, deviceID string) (string, string) {
	t.Helper()
	res, err := e.login.Login(context.Background(), LoginRequest{Email: admin.Email, Password: testPassword, DeviceID: deviceID})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res.AttemptID, extractCode(t, e.notifier.last().Body)
}

func extractCode(t *testing.T, body string) string {
	t.Helper()
	const marker = "Login code: "
	for i := 0; i+len(marker)+6 <= len(body); i++ {
		if body[i:i+len(marker)] == marker {
			return body[i+len(marker) : i+len(marker)+6]
		}
	}
	t.Fatalf("no code in body: %q", body)
	return ""
}

func attemptStatus(t *testing.T, s *store.Store, id string) model.AttemptStatus {
	t.Helper()
	a, err := s.GetAttempt(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAttempt(%s): %v", id, err)
	}
	return a.Status
}

func assertKind(t *testing.T, err error, want Kind) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *service.Error, got %T: %v", err, err)
	}
	if se.Kind != want {
		t.Fatalf("kind: got %s, want %s (%v)", se.Kind, want, err)
	}
	return se
}
