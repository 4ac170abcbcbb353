package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/notify"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/store"
)

// Where a routed OTP was sent.
const (
	RecipientSelf      = "self"
	RecipientApprovers = "approvers"
)

// PasswordHasher hashes passwords and checks them against stored hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Locator resolves a login's location. Both lookups are best effort.
type Locator interface {
	LookupIP(ctx context.Context, ip string) (string, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// LoginDeps wires a LoginService. Locator and Limiter are optional.
type LoginDeps struct {
	Admins    AdminRepo
	Attempts  AttemptRepo
	OTPs      *OTPLedger
	Sessions  *AuthService
	Passwords PasswordHasher
	Notifier  notify.Notifier
	Locator   Locator
	Limiter   OTPLimiter
	Logger    *slog.Logger
	AppName   string
}

// LoginService runs the login state machine: credential check, device trust,
// approval wait or OTP issuance, OTP verification and session creation.
type LoginService struct {
	admins    AdminRepo
	attempts  AttemptRepo
	otps      *OTPLedger
	trust     *DeviceTrust
	sessions  *AuthService
	passwords PasswordHasher
	notifier  notify.Notifier
	locator   Locator
	limiter   OTPLimiter
	logger    *slog.Logger
	appName   string
	now       func() time.Time

	decoyOnce sync.Once
	decoy     string
}

func NewLoginService(d LoginDeps) *LoginService {
	s := &LoginService{
		admins:    d.Admins,
		attempts:  d.Attempts,
		otps:      d.OTPs,
		trust:     NewDeviceTrust(d.Attempts),
		sessions:  d.Sessions,
		passwords: d.Passwords,
		notifier:  d.Notifier,
		locator:   d.Locator,
		limiter:   d.Limiter,
		logger:    d.Logger,
		appName:   d.AppName,
		now:       time.Now,
	}
	if s.limiter == nil {
		s.limiter = noopLimiter{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.appName == "" {
		s.appName = "Masski"
	}
	return s
}

// LoginRequest is one login submission. Latitude and Longitude are used only
// when both are non-zero.
type LoginRequest struct {
	Email      string
	Password   string
	DeviceID   string
	DeviceInfo string
	IP         string
	Latitude   float64
	Longitude  float64
}

// LoginResult is returned when an OTP has been issued.
type LoginResult struct {
	AttemptID    string              `json:"login_attempt_id"`
	Status       model.AttemptStatus `json:"status"`
	OTPRecipient string              `json:"otp_recipient"`
	ExpiresAt    time.Time           `json:"expires_at"`
	ExpiresIn    int                 `json:"expires_in"`
}

// Login checks credentials and either parks the attempt for device approval
// (returned as an authorization error carrying the attempt id) or issues an
// OTP.
func (s *LoginService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DeviceID = strings.TrimSpace(req.DeviceID)

	admin, err := s.checkCredentials(ctx, req)
	if err != nil {
		return nil, err
	}

	location, source := s.resolveLocation(ctx, req)
	attempt := &model.LoginAttempt{
		AdminID:        &admin.ID,
		Email:          admin.Email,
		DeviceID:       req.DeviceID,
		DeviceInfo:     req.DeviceInfo,
		IPAddress:      req.IP,
		Location:       location,
		LocationSource: source,
	}

	trusted, err := s.trust.IsTrusted(ctx, admin.ID, req.DeviceID)
	if err != nil {
		return nil, internalError("evaluate device trust", err)
	}

	if !trusted && !admin.Role.BypassesDeviceApproval() {
		return nil, s.awaitApproval(ctx, admin, attempt)
	}
	return s.issueOTP(ctx, admin, attempt)
}

// checkCredentials resolves the admin for req. Every failure is logged as a
// failed attempt and reported with the same message.
func (s *LoginService) checkCredentials(ctx context.Context, req LoginRequest) (*model.Admin, error) {
	if req.Email == "" || req.Password == "" {
		return nil, s.rejectCredentials(ctx, req, nil, "missing email or password")
	}

	admin, err := s.admins.GetAdminByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		s.verifyDecoy(ctx, req.Password)
		return nil, s.rejectCredentials(ctx, req, nil, "unknown account")
	}
	if err != nil {
		return nil, internalError("find admin", err)
	}
	if !admin.IsActive {
		s.verifyDecoy(ctx, req.Password)
		return nil, s.rejectCredentials(ctx, req, admin, "inactive account")
	}

	ok, err := s.passwords.Verify(req.Password, admin.PasswordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "password verification failed", "admin_id", admin.ID, "error", err)
	}
	if !ok {
		return nil, s.rejectCredentials(ctx, req, admin, "password mismatch")
	}
	return admin, nil
}

// verifyDecoy runs a password check against a fixed hash so that unknown
// and inactive accounts take as long to reject as a wrong password.
func (s *LoginService) verifyDecoy(ctx context.Context, password string) {
	s.decoyOnce.Do(func() {
		h, err := s.passwords.Hash("masski-decoy-password")
		if err != nil {
			s.logger.ErrorContext(ctx, "build decoy password hash", "error", err)
			return
		}
		s.decoy = h
	})
	if s.decoy != "" {
		_, _ = s.passwords.Verify(password, s.decoy)
	}
}

func (s *LoginService) rejectCredentials(ctx context.Context, req LoginRequest, admin *model.Admin, reason string) error {
	attempt := &model.LoginAttempt{
		Email:          req.Email,
		DeviceID:       req.DeviceID,
		DeviceInfo:     req.DeviceInfo,
		IPAddress:      req.IP,
		Location:       model.UnknownLocation,
		LocationSource: model.LocationUnknown,
		Status:         model.StatusFailed,
	}
	if admin != nil {
		attempt.AdminID = &admin.ID
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return internalError("record failed login", err)
	}
	s.logger.InfoContext(ctx, "login rejected", "reason", reason, "login_attempt_id", attempt.ID, "ip", req.IP)
	return newError(KindAuthentication, msgInvalidCredentials)
}

// resolveLocation prefers reverse geocoding of GPS coordinates, then the IP
// lookup, then "Unknown".
func (s *LoginService) resolveLocation(ctx context.Context, req LoginRequest) (string, string) {
	if s.locator == nil {
		return model.UnknownLocation, model.LocationUnknown
	}
	if req.Latitude != 0 && req.Longitude != 0 {
		loc, err := s.locator.ReverseGeocode(ctx, req.Latitude, req.Longitude)
		if err == nil {
			return loc, model.LocationGPS
		}
		s.logger.WarnContext(ctx, "reverse geocode failed", "error", err)
	}
	if req.IP != "" {
		loc, err := s.locator.LookupIP(ctx, req.IP)
		if err == nil {
			return loc, model.LocationIP
		}
		s.logger.WarnContext(ctx, "ip geolocation failed", "ip", req.IP, "error", err)
	}
	return model.UnknownLocation, model.LocationUnknown
}

// awaitApproval records a pending_approval attempt and asks the approver
// pool to clear the device. It always returns an error for the caller.
func (s *LoginService) awaitApproval(ctx context.Context, admin *model.Admin, attempt *model.LoginAttempt) error {
	attempt.Status = model.StatusPendingApproval
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return internalError("record login attempt", err)
	}

	approvers, err := s.approverPool(ctx, admin.ID)
	if err != nil {
		return internalError("list approvers", err)
	}
	if len(approvers) == 0 {
		s.failAttempt(ctx, attempt.ID)
		return newError(KindAuthorization, msgNoApprovers).
			with("login_attempt_id", attempt.ID).
			with("status", model.StatusFailed)
	}

	msg := notify.ApprovalRequest(s.appName, s.details(admin, attempt))
	s.send(ctx, approvers, msg, "approval request", attempt.ID)

	s.logger.InfoContext(ctx, "login awaiting device approval",
		"login_attempt_id", attempt.ID, "admin_id", admin.ID, "device_id", attempt.DeviceID, "approvers", len(approvers))

	return newError(KindAuthorization, msgWaitingApproval).
		with("login_attempt_id", attempt.ID).
		with("status", model.StatusPendingApproval)
}

// issueOTP records a pending_otp attempt, issues a code for the admin and
// moves the attempt to otp_sent.
func (s *LoginService) issueOTP(ctx context.Context, admin *model.Admin, attempt *model.LoginAttempt) (*LoginResult, error) {
	attempt.Status = model.StatusPendingOTP
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, internalError("record login attempt", err)
	}

	recipient := RecipientSelf
	to := []string{admin.Email}
	if !admin.Role.IsApprover() {
		approvers, err := s.approverPool(ctx, admin.ID)
		if err != nil {
			return nil, internalError("list approvers", err)
		}
		if len(approvers) == 0 {
			s.failAttempt(ctx, attempt.ID)
			return nil, newError(KindAuthorization, msgNoApprovers).
				with("login_attempt_id", attempt.ID).
				with("status", model.StatusFailed)
		}
		recipient = RecipientApprovers
		to = approvers
	}

	code, expiresAt, err := s.otps.Issue(ctx, admin.Email)
	if err != nil {
		s.failAttempt(ctx, attempt.ID)
		return nil, internalError("issue otp", err)
	}
	if err := s.attempts.UpdateAttemptStatus(ctx, attempt.ID, model.StatusOTPSent, nil); err != nil {
		return nil, internalError("mark otp sent", err)
	}

	var msg notify.Message
	if recipient == RecipientSelf {
		msg = notify.LoginOTP(s.appName, code, s.otps.TTL())
	} else {
		msg = notify.RoutedOTP(s.appName, code, s.otps.TTL(), s.details(admin, attempt))
	}
	s.send(ctx, to, msg, "login otp", attempt.ID)

	s.logger.InfoContext(ctx, "login otp issued",
		"login_attempt_id", attempt.ID, "admin_id", admin.ID, "recipient", recipient)

	return &LoginResult{
		AttemptID:    attempt.ID,
		Status:       model.StatusOTPSent,
		OTPRecipient: recipient,
		ExpiresAt:    expiresAt,
		ExpiresIn:    int(s.otps.TTL().Seconds()),
	}, nil
}

// VerifyRequest is an OTP submission for a login attempt.
type VerifyRequest struct {
	AttemptID string
	Code      string
}

// Session is the result of a completed login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Admin     *model.Admin `json:"admin"`
}

// VerifyOTP completes an otp_sent attempt. A wrong or expired code ends the
// attempt as otp_failed; the admin must log in again for a new code.
func (s *LoginService) VerifyOTP(ctx context.Context, req VerifyRequest) (*Session, error) {
	req.AttemptID = strings.TrimSpace(req.AttemptID)
	req.Code = strings.TrimSpace(req.Code)
	if req.AttemptID == "" || req.Code == "" {
		return nil, newError(KindValidation, "login_attempt_id and otp are required")
	}

	attempt, err := s.getAttempt(ctx, req.AttemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.StatusOTPSent {
		return nil, newError(KindValidation, "Login attempt is not awaiting an OTP").
			with("status", attempt.Status)
	}

	if err := s.limiter.Check(ctx, attempt.Email); err != nil {
		if errors.Is(err, ErrThrottled) {
			return nil, newError(KindRateLimited, "Too many failed OTP attempts. Try again later")
		}
		s.logger.WarnContext(ctx, "otp limiter check failed", "error", err)
	}

	ok, err := s.otps.Verify(ctx, attempt.Email, req.Code)
	if err != nil {
		return nil, internalError("verify otp", err)
	}
	if !ok {
		if err := s.attempts.UpdateAttemptStatus(ctx, attempt.ID, model.StatusOTPFailed, nil); err != nil {
			s.logger.ErrorContext(ctx, "mark otp failed", "login_attempt_id", attempt.ID, "error", err)
		}
		if err := s.limiter.RecordFailure(ctx, attempt.Email); err != nil {
			s.logger.WarnContext(ctx, "otp limiter record failed", "error", err)
		}
		s.logger.InfoContext(ctx, "otp rejected", "login_attempt_id", attempt.ID)
		return nil, newError(KindExpired, msgInvalidOTP)
	}
	if err := s.limiter.Reset(ctx, attempt.Email); err != nil {
		s.logger.WarnContext(ctx, "otp limiter reset failed", "error", err)
	}

	admin, err := s.admins.FindActiveAdminByEmail(ctx, attempt.Email)
	if errors.Is(err, store.ErrNotFound) {
		s.failAttempt(ctx, attempt.ID)
		return nil, newError(KindAuthentication, msgInvalidCredentials)
	}
	if err != nil {
		return nil, internalError("find admin", err)
	}

	if err := s.attempts.UpdateAttemptStatus(ctx, attempt.ID, model.StatusOTPVerified, nil); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			return nil, newError(KindExpired, msgInvalidOTP)
		}
		return nil, internalError("mark otp verified", err)
	}

	token, expiresAt, err := s.sessions.IssueJWT(ctx, admin)
	if err != nil {
		return nil, internalError("issue session", err)
	}

	if err := s.admins.UpdateAdminLastLogin(ctx, admin.ID); err != nil {
		s.logger.WarnContext(ctx, "update last login failed", "admin_id", admin.ID, "error", err)
	} else {
		t := s.now().UTC()
		admin.LastLoginAt = &t
	}

	s.logger.InfoContext(ctx, "login completed", "login_attempt_id", attempt.ID, "admin_id", admin.ID)
	return &Session{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// ApprovalResult reports the outcome of a device approval decision.
type ApprovalResult struct {
	Attempt         *model.LoginAttempt `json:"login_attempt"`
	AlreadyResolved bool                `json:"already_resolved"`
}

// ResolveApproval approves or rejects a pending_approval attempt on behalf
// of actorID. Repeating the decision already recorded is a no-op.
func (s *LoginService) ResolveApproval(ctx context.Context, actorID int64, attemptID string, approve bool) (*ApprovalResult, error) {
	attemptID = strings.TrimSpace(attemptID)
	if attemptID == "" {
		return nil, newError(KindValidation, "login_attempt_id is required")
	}

	role, err := s.requireApprover(ctx, actorID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.AdminID != nil && *attempt.AdminID == actorID {
		return nil, newError(KindAuthorization, "You cannot resolve your own login attempt")
	}

	target := decision(approve)
	if attempt.Status == target {
		return &ApprovalResult{Attempt: attempt, AlreadyResolved: true}, nil
	}

	res := &model.Resolution{ApproverID: actorID, ApproverRole: role}
	if err := s.attempts.UpdateAttemptStatus(ctx, attempt.ID, target, res); err != nil {
		// A concurrent approver may have recorded the same decision first.
		if errors.Is(err, store.ErrInvalidTransition) {
			if fresh, gerr := s.attempts.GetAttempt(ctx, attempt.ID); gerr == nil && fresh.Status == target {
				return &ApprovalResult{Attempt: fresh, AlreadyResolved: true}, nil
			}
		}
		return nil, s.transitionError(ctx, err, attempt)
	}

	updated, err := s.attempts.GetAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, internalError("reload login attempt", err)
	}

	s.logger.InfoContext(ctx, "device approval resolved",
		"login_attempt_id", attempt.ID, "status", target, "approver_id", actorID)

	if approve {
		s.notifyApproved(ctx, updated)
	}
	return &ApprovalResult{Attempt: updated}, nil
}

// BulkApprovalResult lists the attempts resolved by ApproveAdminDevices.
type BulkApprovalResult struct {
	Resolved []model.LoginAttempt `json:"resolved"`
}

// ApproveAdminDevices resolves every pending_approval attempt of adminID,
// optionally only those from deviceID.
func (s *LoginService) ApproveAdminDevices(ctx context.Context, actorID, adminID int64, approve bool, deviceID string) (*BulkApprovalResult, error) {
	role, err := s.requireApprover(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if adminID == actorID {
		return nil, newError(KindAuthorization, "You cannot resolve your own login attempts")
	}
	if _, err := s.admins.GetAdmin(ctx, adminID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, "Admin not found")
		}
		return nil, internalError("get admin", err)
	}

	pending, err := s.attempts.ListPendingAttempts(ctx, store.PendingFilter{AdminID: &adminID, DeviceID: strings.TrimSpace(deviceID)})
	if err != nil {
		return nil, internalError("list pending attempts", err)
	}

	target := decision(approve)
	res := &model.Resolution{ApproverID: actorID, ApproverRole: role}
	result := &BulkApprovalResult{Resolved: []model.LoginAttempt{}}
	notified := map[string]bool{}

	for _, a := range pending {
		if err := s.attempts.UpdateAttemptStatus(ctx, a.ID, target, res); err != nil {
			if errors.Is(err, store.ErrInvalidTransition) || errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, internalError("resolve login attempt", err)
		}
		updated, err := s.attempts.GetAttempt(ctx, a.ID)
		if err != nil {
			return nil, internalError("reload login attempt", err)
		}
		result.Resolved = append(result.Resolved, *updated)

		if approve && !notified[updated.DeviceID] {
			notified[updated.DeviceID] = true
			s.notifyApproved(ctx, updated)
		}
	}

	s.logger.InfoContext(ctx, "bulk device approval resolved",
		"admin_id", adminID, "status", target, "count", len(result.Resolved), "approver_id", actorID)
	return result, nil
}

// ListPending returns pending_approval attempts, optionally for one admin.
func (s *LoginService) ListPending(ctx context.Context, adminID *int64) ([]model.LoginAttempt, error) {
	attempts, err := s.attempts.ListPendingAttempts(ctx, store.PendingFilter{AdminID: adminID})
	if err != nil {
		return nil, internalError("list pending attempts", err)
	}
	return attempts, nil
}

// AttemptsToday returns every attempt created since midnight UTC.
func (s *LoginService) AttemptsToday(ctx context.Context) ([]model.LoginAttempt, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	attempts, err := s.attempts.ListAttemptsSince(ctx, midnight)
	if err != nil {
		return nil, internalError("list today's attempts", err)
	}
	return attempts, nil
}

// DeleteAttempt purges a login attempt.
func (s *LoginService) DeleteAttempt(ctx context.Context, id string) error {
	if err := s.attempts.DeleteAttempt(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, "Login attempt not found")
		}
		return internalError("delete login attempt", err)
	}
	s.logger.InfoContext(ctx, "login attempt deleted", "login_attempt_id", id)
	return nil
}

// AttemptStatus is the public view of an attempt used for polling.
type AttemptStatus struct {
	ID        string              `json:"login_attempt_id"`
	Status    model.AttemptStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Status returns the current status of an attempt.
func (s *LoginService) Status(ctx context.Context, id string) (*AttemptStatus, error) {
	a, err := s.getAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AttemptStatus{ID: a.ID, Status: a.Status, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}, nil
}

// Admin returns one admin account.
func (s *LoginService) Admin(ctx context.Context, id int64) (*model.Admin, error) {
	admin, err := s.admins.GetAdmin(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "Admin not found")
	}
	if err != nil {
		return nil, internalError("get admin", err)
	}
	return admin, nil
}

// Admins returns every admin account.
func (s *LoginService) Admins(ctx context.Context) ([]model.Admin, error) {
	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		return nil, internalError("list admins", err)
	}
	return admins, nil
}

func (s *LoginService) requireApprover(ctx context.Context, actorID int64) (model.Role, error) {
	role, err := s.admins.FindAdminRole(ctx, actorID)
	if errors.Is(err, store.ErrNotFound) {
		return "", newError(KindAuthorization, "Not authorized to approve devices")
	}
	if err != nil {
		return "", internalError("find approver role", err)
	}
	if !role.IsApprover() {
		return "", newError(KindAuthorization, "Not authorized to approve devices")
	}
	return role, nil
}

func (s *LoginService) getAttempt(ctx context.Context, id string) (*model.LoginAttempt, error) {
	a, err := s.attempts.GetAttempt(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "Login attempt not found")
	}
	if err != nil {
		return nil, internalError("get login attempt", err)
	}
	return a, nil
}

func (s *LoginService) transitionError(ctx context.Context, err error, attempt *model.LoginAttempt) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(KindNotFound, "Login attempt not found")
	case errors.Is(err, store.ErrInvalidTransition):
		current := attempt.Status
		if fresh, gerr := s.attempts.GetAttempt(ctx, attempt.ID); gerr == nil {
			current = fresh.Status
		}
		return newError(KindValidation, "Login attempt is not pending approval").with("status", current)
	default:
		return internalError("update login attempt", err)
	}
}

// approverPool returns the email addresses of active approvers other than
// excludeID.
func (s *LoginService) approverPool(ctx context.Context, excludeID int64) ([]string, error) {
	approvers, err := s.admins.ListActiveApprovers(ctx)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(approvers))
	for _, a := range approvers {
		if a.ID != excludeID {
			emails = append(emails, a.Email)
		}
	}
	return emails, nil
}

// failAttempt ends an attempt as failed after a mid-flow error. Failures are
// logged; the sweeper will catch anything left behind.
func (s *LoginService) failAttempt(ctx context.Context, id string) {
	if err := s.attempts.UpdateAttemptStatus(ctx, id, model.StatusFailed, nil); err != nil {
		s.logger.ErrorContext(ctx, "mark login attempt failed", "login_attempt_id", id, "error", err)
	}
}

func (s *LoginService) notifyApproved(ctx context.Context, attempt *model.LoginAttempt) {
	if attempt.AdminID == nil {
		return
	}
	admin, err := s.admins.GetAdmin(ctx, *attempt.AdminID)
	if err != nil {
		s.logger.WarnContext(ctx, "approval notice skipped", "login_attempt_id", attempt.ID, "error", err)
		return
	}
	s.send(ctx, []string{admin.Email}, notify.DeviceApproved(s.appName, s.details(admin, attempt)), "device approved", attempt.ID)
}

func (s *LoginService) send(ctx context.Context, to []string, msg notify.Message, kind, attemptID string) {
	if err := s.notifier.Send(ctx, to, msg.Subject, msg.Body); err != nil {
		s.logger.ErrorContext(ctx, "email delivery failed",
			"kind", kind, "login_attempt_id", attemptID, "recipients", len(to), "error", err)
	}
}

func (s *LoginService) details(admin *model.Admin, a *model.LoginAttempt) notify.AttemptDetails {
	at := a.CreatedAt
	if at.IsZero() {
		at = s.now()
	}
	return notify.AttemptDetails{
		AttemptID: a.ID,
		Name:      admin.Name,
		Email:     admin.Email,
		Role:      string(admin.Role),
		DeviceID:  a.DeviceID,
		Device:    a.DeviceInfo,
		IP:        a.IPAddress,
		Location:  a.Location,
		At:        at,
	}
}

func decision(approve bool) model.AttemptStatus {
	if approve {
		return model.StatusApproved
	}
	return model.StatusRejected
}
