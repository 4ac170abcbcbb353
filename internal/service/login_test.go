package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
)

// ---------------------------------------------------------------------------
// Credential check
// ---------------------------------------------------------------------------

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	alice := env.seedAdmin(t, "alice@x.com", model.RoleManager)
	inactive := env.seedAdmin(t, "old@x.com", model.RoleManager)
	if err := env.store.SetAdminActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetAdminActive: %v", err)
	}

	cases := []struct {
		name      string
		req       LoginRequest
		wantAdmin *int64
	}{
		{"missing email", LoginRequest{Password: testPassword}, nil},
		{"missing password", LoginRequest{Email: "alice@x.com"}, nil},
		{"unknown account", LoginRequest{Email: "nobody@x.com", Password: testPassword}, nil},
		{"inactive account", LoginRequest{Email: "old@x.com", Password: testPassword}, &inactive.ID},
		{"wrong password", LoginRequest{Email: "alice@x.com", Password: "not-the-password"}, &alice.ID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before, _ := env.store.ListAttemptsSince(ctx, time.Now().Add(-time.Hour))

			_, err := env.login.Login(ctx, tc.req)
			se := assertKind(t, err, KindAuthentication)
			if se.Message != msgInvalidCredentials {
				t.Errorf("message: got %q", se.Message)
			}

			after, _ := env.store.ListAttemptsSince(ctx, time.Now().Add(-time.Hour))
			if len(after) != len(before)+1 {
				t.Fatalf("expected one new attempt, got %d -> %d", len(before), len(after))
			}
			latest := after[0]
			if latest.Status != model.StatusFailed {
				t.Errorf("status: got %s, want failed", latest.Status)
			}
			switch {
			case tc.wantAdmin == nil && latest.AdminID != nil:
				t.Errorf("admin_id: got %d, want nil", *latest.AdminID)
			case tc.wantAdmin != nil && (latest.AdminID == nil || *latest.AdminID != *tc.wantAdmin):
				t.Errorf("admin_id: got %v, want %d", latest.AdminID, *tc.wantAdmin)
			}
		})
	}

	if n, _ := env.store.CountOTPs(ctx, "alice@x.com"); n != 0 {
		t.Errorf("no OTP may be issued on credential failure, found %d", n)
	}
	if env.notifier.count() != 0 {
		t.Errorf("no email may be sent on credential failure, sent %d", env.notifier.count())
	}
}

// ---------------------------------------------------------------------------
// Branch B: trusted device or privileged role
// ---------------------------------------------------------------------------

func TestLoginRejectionsAllVerifyAPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedAdmin(t, "alice@x.com", model.RoleManager)
	inactive := env.seedAdmin(t, "old@x.com", model.RoleManager)
	if err := env.store.SetAdminActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetAdminActive: %v", err)
	}

	counter := &countingHasher{Hasher: env.hasher}
	env.login.passwords = counter

	for _, req := range []LoginRequest{
		{Email: "nobody@x.com", Password: testPassword},
		{Email: "old@x.com", Password: testPassword},
		{Email: "alice@x.com", Password: "not-the-password"},
	} {
		before := counter.count()
		_, err := env.login.Login(ctx, req)
		se := assertKind(t, err, KindAuthentication)
		if se.Message != msgInvalidCredentials {
			t.Errorf("%s: message = %q", req.Email, se.Message)
		}
		if counter.count() != before+1 {
			t.Errorf("%s: password verifications = %d, want 1", req.Email, counter.count()-before)
		}
	}
}

func TestLoginTrustedDeviceIssuesOTP(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	alice := env.seedAdmin(t, "alice@x.com", model.RoleManager)
	env.trustDevice(t, alice, "dev-1")

	res, err := env.login.Login(ctx, LoginRequest{Email: "Alice@X.com", Password: testPassword, DeviceID: "dev-1", IP: "8.8.8.8"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AttemptID == "" {
		t.Fatal("expected login_attempt_id")
	}
	if res.Status != model.StatusOTPSent || res.OTPRecipient != RecipientSelf {
		t.Errorf("result: %+v", res)
	}
	if res.ExpiresIn != int(DefaultOTPTTL.Seconds()) {
		t.Errorf("expires_in: got %d", res.ExpiresIn)
	}

	a, err := env.store.GetAttempt(ctx, res.AttemptID)
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if a.Status != model.StatusOTPSent {
		t.Errorf("status: got %s, want otp_sent", a.Status)
	}
	if a.Location != "Lagos, Nigeria" || a.LocationSource != model.LocationIP {
		t.Errorf("location: %q (%s)", a.Location, a.LocationSource)
	}

	mail := env.notifier.last()
	if len(mail.To) != 1 || mail.To[0] != "alice@x.com" {
		t.Errorf("otp recipient: %v", mail.To)
	}
	if n, _ := env.store.CountOTPs(ctx, "alice@x.com"); n != 1 {
		t.Errorf("otp records: got %d, want 1", n)
	}
}

func TestLoginPrivilegedRoleSkipsApproval(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedAdmin(t, "root@x.com", model.RoleSuperAdmin)
	env.seedAdmin(t, "eng@x.com", model.RoleDev)

	for _, email := range []string{"root@x.com", "eng@x.com"} {
		res, err := env.login.Login(ctx, LoginRequest{Email: email, Password: testPassword, DeviceID: "brand-new"})
		if err != nil {
			t.Fatalf("Login(%s): %v", email, err)
		}
		if res.Status != model.StatusOTPSent || res.OTPRecipient != RecipientSelf {
			t.Errorf("%s: %+v", email, res)
		}
	}
}

func TestLoginGPSLocation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedAdmin(t, "root@x.com", model.RoleSuperAdmin)

	res, err := env.login.Login(ctx, LoginRequest{
		Email: "root@x.com", Password: testPassword, IP: "8.8.8.8", Latitude: 6.4281, Longitude: 3.4219,
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	a, _ := env.store.GetAttempt(ctx, res.AttemptID)
	if a.Location != "Victoria Island, Lagos" || a.LocationSource != model.LocationGPS {
		t.Errorf("location: %q (%s)", a.Location, a.LocationSource)
	}
}

func TestLoginLocationFallsBackToUnknown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login.locator = fakeLocator{}
	ctx := context.Background()
	env.seedAdmin(t, "root@x.com", model.RoleSuperAdmin)

	res, err := env.login.Login(ctx, LoginRequest{
		Email: "root@x.com", Password: testPassword, IP: "8.8.8.8", Latitude: 1, Longitude: 1,
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	a, _ := env.store.GetAttempt(ctx, res.AttemptID)
	if a.Location != model.UnknownLocation || a.LocationSource != model.LocationUnknown {
		t.Errorf("location: %q (%s)", a.Location, a.LocationSource)
	}
}

func TestLoginStaffOTPRoutedToApprovers(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedAdmin(t, "root@x.com", model.RoleSuperAdmin)
	env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	bob := env.seedAdmin(t, "bob@x.com", "cashier")
	env.trustDevice(t, bob, "till-3")

	res, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "till-3"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.OTPRecipient != RecipientApprovers {
		t.Errorf("recipient: got %q", res.OTPRecipient)
	}

	mail := env.notifier.last()
	if strings.Join(mail.To, ",") != "mgr@x.com,root@x.com" {
		t.Errorf("routed to %v", mail.To)
	}
	if !strings.Contains(mail.Body, "bob@x.com") {
		t.Errorf("routed mail should name the admin: %s", mail.Body)
	}

	// The routed code still verifies against bob's attempt.
	code := extractCode(t, mail.Body)
	sess, err := env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: res.AttemptID, Code: code})
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if sess.Admin.ID != bob.ID {
		t.Errorf("session admin: got %d, want %d", sess.Admin.ID, bob.ID)
	}
}

// ---------------------------------------------------------------------------
// Branch A: new device
// ---------------------------------------------------------------------------

func TestLoginNewDeviceAwaitsApproval(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedAdmin(t, "root@x.com", model.RoleSuperAdmin)
	env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	env.seedAdmin(t, "eng@x.com", model.RoleDev)
	inactive := env.seedAdmin(t, "old@x.com", model.RoleManager)
	_ = env.store.SetAdminActive(ctx, inactive.ID, false)
	env.seedAdmin(t, "bob@x.com", "cashier")

	_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	se := assertKind(t, err, KindAuthorization)

	id, _ := se.Context["login_attempt_id"].(string)
	if id == "" {
		t.Fatal("error context should carry login_attempt_id")
	}
	if st := attemptStatus(t, env.store, id); st != model.StatusPendingApproval {
		t.Errorf("status: got %s, want pending_approval", st)
	}
	if n, _ := env.store.CountOTPs(ctx, "bob@x.com"); n != 0 {
		t.Errorf("no OTP before approval, found %d", n)
	}

	mail := env.notifier.last()
	if strings.Join(mail.To, ",") != "eng@x.com,mgr@x.com,root@x.com" {
		t.Errorf("approval request sent to %v", mail.To)
	}
	if !strings.Contains(mail.Body, id) {
		t.Errorf("approval request should include attempt id")
	}
}

func TestLoginWithoutDeviceIDIsNew(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedAdmin(t, "root@x.com", model.RoleSuperAdmin)
	bob := env.seedAdmin(t, "bob@x.com", "cashier")
	env.trustDevice(t, bob, "dev-1")

	_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword})
	assertKind(t, err, KindAuthorization)
}

func TestLoginManagerNewDeviceNeedsApproval(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedAdmin(t, "root@x.com", model.RoleSuperAdmin)
	env.seedAdmin(t, "mgr@x.com", model.RoleManager)

	_, err := env.login.Login(ctx, LoginRequest{Email: "mgr@x.com", Password: testPassword, DeviceID: "laptop"})
	assertKind(t, err, KindAuthorization)

	// The requesting manager is not asked to approve their own device.
	if to := env.notifier.last().To; len(to) != 1 || to[0] != "root@x.com" {
		t.Errorf("approval request sent to %v", to)
	}
}

func TestLoginNoApprovers(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	bob := env.seedAdmin(t, "bob@x.com", "cashier")

	_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	se := assertKind(t, err, KindAuthorization)
	if se.Message != msgNoApprovers {
		t.Errorf("message: got %q", se.Message)
	}
	id := se.Context["login_attempt_id"].(string)
	if st := attemptStatus(t, env.store, id); st != model.StatusFailed {
		t.Errorf("status: got %s, want failed", st)
	}

	// Trusted device but nobody to route the OTP to.
	env.trustDevice(t, bob, "dev-1")
	_, err = env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-1"})
	assertKind(t, err, KindAuthorization)
	if n, _ := env.store.CountOTPs(ctx, "bob@x.com"); n != 0 {
		t.Errorf("no OTP without approvers, found %d", n)
	}
}

func TestLoginNotifierFailureDoesNotAbort(t *testing.T) {
	env := newTestEnv(t, nil)
	env.notifier.err = errors.New("smtp down")
	ctx := context.Background()
	env.seedAdmin(t, "root@x.com", model.RoleSuperAdmin)

	res, err := env.login.Login(ctx, LoginRequest{Email: "root@x.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Status != model.StatusOTPSent {
		t.Errorf("status: got %s", res.Status)
	}
}

// ---------------------------------------------------------------------------
// Approval
// ---------------------------------------------------------------------------

// racedAttempts lets a second approver resolve the attempt just before the
// first approver's own update lands.
type racedAttempts struct {
	AttemptRepo
	res *model.Resolution
}

func (r *racedAttempts) UpdateAttemptStatus(ctx context.Context, id string, next model.AttemptStatus, res *model.Resolution) error {
	if err := r.AttemptRepo.UpdateAttemptStatus(ctx, id, next, r.res); err != nil {
		return err
	}
	return r.AttemptRepo.UpdateAttemptStatus(ctx, id, next, res)
}

func TestConcurrentIdenticalApprovalIsAlreadyResolved(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	mgr := env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	dev := env.seedAdmin(t, "dev@x.com", model.RoleDev)
	env.seedAdmin(t, "bob@x.com", "cashier")

	_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	id := assertKind(t, err, KindAuthorization).Context["login_attempt_id"].(string)

	env.login.attempts = &racedAttempts{
		AttemptRepo: env.store,
		res:         &model.Resolution{ApproverID: dev.ID, ApproverRole: model.RoleDev},
	}
	sent := env.notifier.count()

	res, err := env.login.ResolveApproval(ctx, mgr.ID, id, true)
	if err != nil {
		t.Fatalf("ResolveApproval: %v", err)
	}
	if !res.AlreadyResolved || res.Attempt.Status != model.StatusApproved {
		t.Errorf("result = %+v, want already resolved approval", res)
	}
	if env.notifier.count() != sent {
		t.Error("losing approver should not send a second notice")
	}

	// A conflicting decision is still refused.
	_, err = env.login.ResolveApproval(ctx, mgr.ID, id, false)
	assertKind(t, err, KindValidation)
}

func TestApproveThenReLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	mgr := env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	env.seedAdmin(t, "bob@x.com", "cashier")

	_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	id := assertKind(t, err, KindAuthorization).Context["login_attempt_id"].(string)

	sent := env.notifier.count()
	res, err := env.login.ResolveApproval(ctx, mgr.ID, id, true)
	if err != nil {
		t.Fatalf("ResolveApproval: %v", err)
	}
	if res.AlreadyResolved {
		t.Error("first approval should not be already resolved")
	}
	a := res.Attempt
	if a.Status != model.StatusApproved {
		t.Errorf("status: got %s, want approved", a.Status)
	}
	if a.ApprovedBy == nil || *a.ApprovedBy != mgr.ID || a.ApproverRole != string(model.RoleManager) || a.ResolvedAt == nil {
		t.Errorf("resolution not recorded: %+v", a)
	}
	if env.notifier.count() != sent+1 || env.notifier.last().To[0] != "bob@x.com" {
		t.Errorf("bob should be told the device was approved")
	}

	// Idempotent repeat: no second notice.
	again, err := env.login.ResolveApproval(ctx, mgr.ID, id, true)
	if err != nil {
		t.Fatalf("repeat ResolveApproval: %v", err)
	}
	if !again.AlreadyResolved {
		t.Error("repeat approval should report already_resolved")
	}
	if env.notifier.count() != sent+1 {
		t.Errorf("repeat approval sent another email")
	}

	// Now trusted: straight to otp_sent.
	login, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	if err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if login.Status != model.StatusOTPSent {
		t.Errorf("re-login status: got %s", login.Status)
	}
}

func TestRejectCannotBeApproved(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	mgr := env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	env.seedAdmin(t, "bob@x.com", "cashier")

	_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	id := assertKind(t, err, KindAuthorization).Context["login_attempt_id"].(string)

	if _, err := env.login.ResolveApproval(ctx, mgr.ID, id, false); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if st := attemptStatus(t, env.store, id); st != model.StatusRejected {
		t.Fatalf("status: got %s, want rejected", st)
	}

	_, err = env.login.ResolveApproval(ctx, mgr.ID, id, true)
	se := assertKind(t, err, KindValidation)
	if se.Context["status"] != model.StatusRejected {
		t.Errorf("context status: %v", se.Context["status"])
	}

	// Rejected device stays untrusted.
	_, err = env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	assertKind(t, err, KindAuthorization)
}

func TestResolveApprovalAuthorization(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	mgr := env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	env.seedAdmin(t, "root@x.com", model.RoleSuperAdmin)
	staff := env.seedAdmin(t, "carol@x.com", "cashier")

	_, err := env.login.Login(ctx, LoginRequest{Email: "mgr@x.com", Password: testPassword, DeviceID: "laptop"})
	id := assertKind(t, err, KindAuthorization).Context["login_attempt_id"].(string)

	_, err = env.login.ResolveApproval(ctx, staff.ID, id, true)
	assertKind(t, err, KindAuthorization)

	_, err = env.login.ResolveApproval(ctx, 9999, id, true)
	assertKind(t, err, KindAuthorization)

	_, err = env.login.ResolveApproval(ctx, mgr.ID, id, true)
	assertKind(t, err, KindAuthorization)

	_, err = env.login.ResolveApproval(ctx, mgr.ID, "", true)
	assertKind(t, err, KindValidation)
}

func TestResolveApprovalNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	mgr := env.seedAdmin(t, "mgr@x.com", model.RoleManager)

	_, err := env.login.ResolveApproval(context.Background(), mgr.ID, "missing", true)
	assertKind(t, err, KindNotFound)
}

func TestSweptAttemptCannotBeApproved(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	mgr := env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	env.seedAdmin(t, "bob@x.com", "cashier")

	_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	id := assertKind(t, err, KindAuthorization).Context["login_attempt_id"].(string)

	sw := NewSweeper(env.store, env.store, SweeperConfig{}, nil)
	sw.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := sw.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	_, err = env.login.ResolveApproval(ctx, mgr.ID, id, true)
	assertKind(t, err, KindValidation)
	if st := attemptStatus(t, env.store, id); st != model.StatusFailed {
		t.Errorf("late approval overwrote sweep: %s", st)
	}
}

func TestApproveAdminDevices(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	mgr := env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	bob := env.seedAdmin(t, "bob@x.com", "cashier")

	for _, dev := range []string{"dev-1", "dev-1", "dev-2"} {
		_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: dev})
		assertKind(t, err, KindAuthorization)
	}

	res, err := env.login.ApproveAdminDevices(ctx, mgr.ID, bob.ID, true, "dev-1")
	if err != nil {
		t.Fatalf("ApproveAdminDevices: %v", err)
	}
	if len(res.Resolved) != 2 {
		t.Fatalf("resolved: got %d, want 2", len(res.Resolved))
	}
	for _, a := range res.Resolved {
		if a.Status != model.StatusApproved || a.DeviceID != "dev-1" {
			t.Errorf("unexpected resolved attempt: %+v", a)
		}
	}

	pending, _ := env.login.ListPending(ctx, &bob.ID)
	if len(pending) != 1 || pending[0].DeviceID != "dev-2" {
		t.Errorf("remaining pending: %+v", pending)
	}

	res, err = env.login.ApproveAdminDevices(ctx, mgr.ID, bob.ID, false, "")
	if err != nil {
		t.Fatalf("reject rest: %v", err)
	}
	if len(res.Resolved) != 1 || res.Resolved[0].Status != model.StatusRejected {
		t.Errorf("reject rest: %+v", res.Resolved)
	}

	_, err = env.login.ApproveAdminDevices(ctx, mgr.ID, 9999, true, "")
	assertKind(t, err, KindNotFound)

	_, err = env.login.ApproveAdminDevices(ctx, bob.ID, mgr.ID, true, "")
	assertKind(t, err, KindAuthorization)
}

// ---------------------------------------------------------------------------
// OTP verification
// ---------------------------------------------------------------------------

func TestVerifyOTPSuccess(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	alice := env.seedAdmin(t, "alice@x.com", model.RoleManager)
	env.trustDevice(t, alice, "dev-1")

	id, code := env.loginWithOTP(t, alice, "dev-1")

	sess, err := env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: code})
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if sess.Token == "" || sess.Admin == nil || sess.Admin.ID != alice.ID {
		t.Fatalf("session: %+v", sess)
	}
	if sess.Admin.LastLoginAt == nil {
		t.Error("last_login_at should be set")
	}
	if st := attemptStatus(t, env.store, id); st != model.StatusOTPVerified {
		t.Errorf("status: got %s, want otp_verified", st)
	}

	principal, err := env.auth.ValidateJWT(ctx, sess.Token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if principal.AdminID != alice.ID || principal.Role != model.RoleManager {
		t.Errorf("principal: %+v", principal)
	}

	// Replaying the same code against the finished attempt fails.
	_, err = env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: code})
	assertKind(t, err, KindValidation)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	alice := env.seedAdmin(t, "alice@x.com", model.RoleSuperAdmin)

	id, code := env.loginWithOTP(t, alice, "")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err := env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: wrong})
	se := assertKind(t, err, KindExpired)
	if se.Message != msgInvalidOTP {
		t.Errorf("message: got %q", se.Message)
	}
	if st := attemptStatus(t, env.store, id); st != model.StatusOTPFailed {
		t.Errorf("status: got %s, want otp_failed", st)
	}

	// The attempt is over even though the right code is still stored.
	_, err = env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: code})
	assertKind(t, err, KindValidation)
}

func TestVerifyOTPExpired(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	alice := env.seedAdmin(t, "alice@x.com", model.RoleSuperAdmin)

	id, code := env.loginWithOTP(t, alice, "")
	env.otps.now = func() time.Time { return time.Now().Add(DefaultOTPTTL + time.Minute) }

	_, err := env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: code})
	se := assertKind(t, err, KindExpired)
	if se.Message != msgInvalidOTP {
		t.Errorf("expired and wrong codes must share a message, got %q", se.Message)
	}
	if st := attemptStatus(t, env.store, id); st != model.StatusOTPFailed {
		t.Errorf("status: got %s, want otp_failed", st)
	}
}

func TestVerifyOTPValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.login.VerifyOTP(ctx, VerifyRequest{Code: "123456"})
	assertKind(t, err, KindValidation)

	_, err = env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: "nope", Code: "123456"})
	assertKind(t, err, KindNotFound)
}

func TestVerifyOTPPendingApprovalAttempt(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	env.seedAdmin(t, "bob@x.com", "cashier")

	_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	id := assertKind(t, err, KindAuthorization).Context["login_attempt_id"].(string)

	_, err = env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: "123456"})
	assertKind(t, err, KindValidation)
	if st := attemptStatus(t, env.store, id); st != model.StatusPendingApproval {
		t.Errorf("status changed to %s", st)
	}
}

func TestVerifyOTPDeactivatedMidFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	alice := env.seedAdmin(t, "alice@x.com", model.RoleSuperAdmin)

	id, code := env.loginWithOTP(t, alice, "")
	if err := env.store.SetAdminActive(ctx, alice.ID, false); err != nil {
		t.Fatalf("SetAdminActive: %v", err)
	}

	_, err := env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: code})
	assertKind(t, err, KindAuthentication)
	if st := attemptStatus(t, env.store, id); st != model.StatusFailed {
		t.Errorf("status: got %s, want failed", st)
	}
}

func TestVerifyOTPThrottled(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	env := newTestEnv(t, NewRedisLimiter(rdb, LimiterConfig{MaxFailures: 2, Window: time.Minute}))
	ctx := context.Background()
	alice := env.seedAdmin(t, "alice@x.com", model.RoleSuperAdmin)

	for i := 0; i < 2; i++ {
		id, code := env.loginWithOTP(t, alice, "")
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		_, err := env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: wrong})
		assertKind(t, err, KindExpired)
	}

	id, code := env.loginWithOTP(t, alice, "")
	_, err = env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: code})
	assertKind(t, err, KindRateLimited)

	// The throttled call must not consume the code or end the attempt.
	if st := attemptStatus(t, env.store, id); st != model.StatusOTPSent {
		t.Errorf("status: got %s, want otp_sent", st)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := env.login.VerifyOTP(ctx, VerifyRequest{AttemptID: id, Code: code}); err != nil {
		t.Fatalf("VerifyOTP after window: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func TestAttemptQueries(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	mgr := env.seedAdmin(t, "mgr@x.com", model.RoleManager)
	env.seedAdmin(t, "bob@x.com", "cashier")

	_, err := env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: testPassword, DeviceID: "dev-9"})
	id := assertKind(t, err, KindAuthorization).Context["login_attempt_id"].(string)
	_, _ = env.login.Login(ctx, LoginRequest{Email: "bob@x.com", Password: "wrong-password"})

	pending, err := env.login.ListPending(ctx, nil)
	if err != nil || len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("ListPending = %+v, %v", pending, err)
	}
	pending, _ = env.login.ListPending(ctx, &mgr.ID)
	if len(pending) != 0 {
		t.Errorf("manager has no pending attempts, got %d", len(pending))
	}

	today, err := env.login.AttemptsToday(ctx)
	if err != nil || len(today) != 2 {
		t.Fatalf("AttemptsToday = %d, %v", len(today), err)
	}

	st, err := env.login.Status(ctx, id)
	if err != nil || st.Status != model.StatusPendingApproval {
		t.Fatalf("Status = %+v, %v", st, err)
	}

	if err := env.login.DeleteAttempt(ctx, id); err != nil {
		t.Fatalf("DeleteAttempt: %v", err)
	}
	assertKind(t, env.login.DeleteAttempt(ctx, id), KindNotFound)
	_, err = env.login.Status(ctx, id)
	assertKind(t, err, KindNotFound)

	admins, err := env.login.Admins(ctx)
	if err != nil || len(admins) != 2 {
		t.Fatalf("Admins = %d, %v", len(admins), err)
	}
	_, err = env.login.Admin(ctx, 9999)
	assertKind(t, err, KindNotFound)
}

func TestKindOf(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("plain errors are internal")
	}
	wrapped := internalError("op", errors.New("boom"))
	if KindOf(wrapped) != KindInternal || !strings.Contains(wrapped.Error(), "boom") {
		t.Errorf("internal error: %v", wrapped)
	}
	if KindOf(newError(KindNotFound, "x")) != KindNotFound {
		t.Error("KindOf should unwrap *Error")
	}
}
