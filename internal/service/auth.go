package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
)

const DefaultSessionTTL = 12 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
)

// JWTPrincipal is the identity carried by a session token.
type JWTPrincipal struct {
	AdminID int64
	Email   string
	Role    model.Role
}

// AuthService issues and validates session tokens. A session is established
// only after a successful OTP verification.
type AuthService struct {
	admins    AdminRepo
	jwtSecret []byte
	ttl       time.Duration
}

func NewAuthService(admins AdminRepo, jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{
		admins:    admins,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
	}
}

// ValidateJWT verifies a bearer token and returns the admin it belongs to.
// The admin must still exist and be active; the role is read from the store
// so role changes apply to live sessions.
func (s *AuthService) ValidateJWT(ctx context.Context, tokenStr string) (*JWTPrincipal, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidCredentials
	}
	if !token.Valid {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.admins.GetAdmin(ctx, claims.AdminID)
	if err != nil || !admin.IsActive {
		return nil, ErrInvalidCredentials
	}

	return &JWTPrincipal{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    admin.Role,
	}, nil
}

// IssueJWT creates a signed session token for admin.
func (s *AuthService) IssueJWT(ctx context.Context, admin *model.Admin) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := jwtClaims{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    string(admin.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "masski",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

type jwtClaims struct {
	AdminID int64  `json:"admin_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}
