package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/server/middleware"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/service"
)

// AuthHandler exposes the admin login flow, device approval and login
// attempt administration.
type AuthHandler struct {
	login  *service.LoginService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(login *service.LoginService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{login: login, logger: logger}
}

// ---------------------------------------------------------------------------
// Login flow
// ---------------------------------------------------------------------------

type loginRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	DeviceID  string   `json:"device_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Login checks credentials and starts the OTP or device approval flow.
// 202 when an OTP was sent, 403 while the device awaits approval.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in := service.LoginRequest{
		Email:      req.Email,
		Password:   req.Password,
		DeviceID:   req.DeviceID,
		DeviceInfo: r.UserAgent(),
		IP:         clientIP(r),
	}
	if in.DeviceID == "" {
		in.DeviceID = r.Header.Get("X-Device-ID")
	}
	if req.Latitude != nil && req.Longitude != nil {
		in.Latitude, in.Longitude = *req.Latitude, *req.Longitude
	}

	res, err := h.login.Login(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	msg := "OTP sent to your email"
	if res.OTPRecipient == service.RecipientApprovers {
		msg = "OTP sent to an administrator. Ask them for your login code"
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":          msg,
		"login_attempt_id": res.AttemptID,
		"status":           res.Status,
		"otp_recipient":    res.OTPRecipient,
		"expires_at":       res.ExpiresAt,
		"expires_in":       res.ExpiresIn,
	})
}

type verifyRequest struct {
	LoginAttemptID string `json:"login_attempt_id"`
	OTP            string `json:"otp"`
}

// VerifyOTP completes a login and returns a session token with the admin
// record. The password hash is never part of the response.
// POST /verify-login-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := h.login.VerifyOTP(r.Context(), service.VerifyRequest{AttemptID: req.LoginAttemptID, Code: req.OTP})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Login successful",
		"session_token": sess.Token,
		"token_type":    "bearer",
		"expires_at":    sess.ExpiresAt,
		"admin":         sess.Admin,
	})
}

// AttemptStatus lets a client waiting for approval poll its attempt.
// GET /login-attempts/{id}/status
func (h *AuthHandler) AttemptStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.login.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Logout ends the client session. Tokens are stateless, so the client
// discards its token.
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out",
	})
}

// Me returns the authenticated admin.
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	admin, err := h.login.Admin(r.Context(), p.AdminID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

// ---------------------------------------------------------------------------
// Device approval (approvers only)
// ---------------------------------------------------------------------------

type approveRequest struct {
	LoginAttemptID string `json:"login_attempt_id"`
	Approve        *bool  `json:"approve"`
	DeviceID       string `json:"device_id"`
}

// ApproveDevice approves or rejects one pending login attempt.
// POST /approve-device
func (h *AuthHandler) ApproveDevice(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	var req approveRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Approve == nil {
		writeError(w, http.StatusBadRequest, "approve is required")
		return
	}

	res, err := h.login.ResolveApproval(r.Context(), p.AdminID, req.LoginAttemptID, *req.Approve)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          decisionMessage(*req.Approve),
		"already_resolved": res.AlreadyResolved,
		"login_attempt":    res.Attempt,
	})
}

// ApproveAdminDevices resolves every pending attempt of one admin,
// optionally limited to device_id.
// POST /approve-device/{admin_id}
func (h *AuthHandler) ApproveAdminDevices(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())

	adminID, err := pathInt64(r, "admin_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req approveRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Approve == nil {
		writeError(w, http.StatusBadRequest, "approve is required")
		return
	}

	res, err := h.login.ApproveAdminDevices(r.Context(), p.AdminID, adminID, *req.Approve, req.DeviceID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  decisionMessage(*req.Approve),
		"resolved": res.Resolved,
		"meta":     map[string]int{"count": len(res.Resolved)},
	})
}

// ListPending returns attempts awaiting approval.
// GET /pending-login-attempts
// GET /pending-login-attempts/{admin_id}
func (h *AuthHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	var adminID *int64
	if chi.URLParam(r, "admin_id") != "" {
		id, err := pathInt64(r, "admin_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		adminID = &id
	}

	attempts, err := h.login.ListPending(r.Context(), adminID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeList(w, attempts, len(attempts))
}

// DeleteAttempt purges one login attempt.
// DELETE /login_attempts/{id}
func (h *AuthHandler) DeleteAttempt(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := h.login.DeleteAttempt(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"login_attempt_id": id,
	})
}

// AttemptsToday lists every attempt created since midnight UTC.
// GET /login_attempts/today
func (h *AuthHandler) AttemptsToday(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.login.AttemptsToday(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeList(w, attempts, len(attempts))
}

// ListAdmins returns every admin account.
// GET /admins
func (h *AuthHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.login.Admins(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeList(w, admins, len(admins))
}

func decisionMessage(approve bool) string {
	if approve {
		return "Device approved"
	}
	return "Device rejected"
}
