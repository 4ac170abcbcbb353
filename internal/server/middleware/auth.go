package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/service"
)

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the authenticated principal.
	AuthPrincipalKey contextKeyAuth = "auth_principal"

	principalHolderKey contextKeyAuth = "principal_holder"
)

// Principal represents the authenticated admin making the request.
type Principal struct {
	AdminID int64
	Email   string
	Role    model.Role
}

// TokenValidator resolves a bearer token to an admin identity.
type TokenValidator interface {
	ValidateJWT(ctx context.Context, token string) (*service.JWTPrincipal, error)
}

// Authenticate returns an HTTP middleware that requires a valid session
// token in the Authorization header ("Bearer <token>"). On success, a
// Principal is attached to the request context. On failure, a 401 JSON error
// response is returned.
func Authenticate(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required. Provide a Bearer token.")
				return
			}

			p, err := tokens.ValidateJWT(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, service.ErrTokenExpired) {
					msg = "Session expired"
				}
				writeAuthError(w, http.StatusUnauthorized, msg)
				return
			}

			principal := &Principal{AdminID: p.AdminID, Email: p.Email, Role: p.Role}
			if h, ok := r.Context().Value(principalHolderKey).(*principalHolder); ok {
				h.p = principal
			}
			ctx := context.WithValue(r.Context(), AuthPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireApprover returns an HTTP middleware that only admits super_admin,
// manager and dev accounts. It must be used after Authenticate.
func RequireApprover() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !principal.Role.IsApprover() {
				writeAuthError(w, http.StatusForbidden, "Approver access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// principalHolder lets an outer middleware see the principal set by an
// inner Authenticate.
type principalHolder struct {
	p *Principal
}

func withPrincipalHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, principalHolderKey, h)
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

// writeAuthError writes the error envelope. The handler package owns the
// envelope helpers but imports this package, so the shape is repeated here.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": message,
		},
	})
}
