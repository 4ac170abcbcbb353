package service

import (
	"context"
	"time"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/store"
)

// AdminRepo is the credential store as seen by the services.
type AdminRepo interface {
	GetAdmin(ctx context.Context, id int64) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindActiveAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindAdminRole(ctx context.Context, id int64) (model.Role, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	ListActiveApprovers(ctx context.Context) ([]model.Admin, error)
	UpdateAdminLastLogin(ctx context.Context, id int64) error
}

// OTPRepo stores hashed one-time codes.
type OTPRepo interface {
	CreateOTP(ctx context.Context, rec *model.OTPRecord) error
	ConsumeOTP(ctx context.Context, email, codeHash string, at time.Time) (bool, error)
	DeleteExpiredOTPs(ctx context.Context, at time.Time) (int64, error)
}

// AttemptRepo is the login attempt log.
type AttemptRepo interface {
	CreateAttempt(ctx context.Context, a *model.LoginAttempt) error
	GetAttempt(ctx context.Context, id string) (*model.LoginAttempt, error)
	UpdateAttemptStatus(ctx context.Context, id string, next model.AttemptStatus, res *model.Resolution) error
	HasTrustedAttempt(ctx context.Context, adminID int64, deviceID string) (bool, error)
	ListPendingAttempts(ctx context.Context, f store.PendingFilter) ([]model.LoginAttempt, error)
	ListAttemptsSince(ctx context.Context, since time.Time) ([]model.LoginAttempt, error)
	DeleteAttempt(ctx context.Context, id string) error
	SweepStaleAttempts(ctx context.Context, olderThan time.Time) (int64, error)
}

var (
	_ AdminRepo   = (*store.Store)(nil)
	_ OTPRepo     = (*store.Store)(nil)
	_ AttemptRepo = (*store.Store)(nil)
)
