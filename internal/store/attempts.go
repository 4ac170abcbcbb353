package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
)

// CreateAttempt inserts a login attempt. The ID is generated when empty and
// CreatedAt/UpdatedAt are set. Only initial statuses are accepted.
func (s *Store) CreateAttempt(ctx context.Context, a *model.LoginAttempt) error {
	if !isInitialStatus(a.Status) {
		return fmt.Errorf("%w: cannot create attempt as %q", ErrInvalidTransition, a.Status)
	}
	if a.ID == "" {
		a.ID = uuid.Must(uuid.NewV7()).String()
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	t := now()
	a.CreatedAt = t
	a.UpdatedAt = t

	const q = `INSERT INTO login_attempts
		(id, admin_id, email, device_id, device_info, ip_address, location, location_source,
		 status, approved_by, approver_role, resolved_at, created_at, updated_at)
		VALUES
		(:id, :admin_id, :email, :device_id, :device_info, :ip_address, :location, :location_source,
		 :status, :approved_by, :approver_role, :resolved_at, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, a); err != nil {
		return fmt.Errorf("insert login attempt: %w", err)
	}
	return nil
}

// GetAttempt returns a login attempt by ID.
func (s *Store) GetAttempt(ctx context.Context, id string) (*model.LoginAttempt, error) {
	var a model.LoginAttempt
	if err := s.db.GetContext(ctx, &a, s.rebind("SELECT * FROM login_attempts WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get login attempt: %w", err)
	}
	return &a, nil
}

// UpdateAttemptStatus moves an attempt to next. The update only applies when
// the stored status is a legal source for next, so concurrent writers cannot
// regress a terminal attempt. res, when non-nil, records the approver.
//
// Returns ErrNotFound for an unknown id and ErrInvalidTransition when the
// current status does not allow the move.
func (s *Store) UpdateAttemptStatus(ctx context.Context, id string, next model.AttemptStatus, res *model.Resolution) error {
	sources := model.SourcesOf(next)
	if len(sources) == 0 {
		return fmt.Errorf("%w: nothing transitions to %q", ErrInvalidTransition, next)
	}

	t := now()
	set := "status = ?, updated_at = ?"
	args := []interface{}{next, t}
	if res != nil {
		set += ", approved_by = ?, approver_role = ?, resolved_at = ?"
		args = append(args, res.ApproverID, string(res.ApproverRole), t)
	}
	args = append(args, id, sources)

	q, args, err := s.in("UPDATE login_attempts SET "+set+" WHERE id = ? AND status IN (?)", args...)
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}
	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update login attempt status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update login attempt status rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := s.GetAttempt(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
}

// HasTrustedAttempt reports whether adminID has a prior approved or
// OTP-verified attempt from deviceID.
func (s *Store) HasTrustedAttempt(ctx context.Context, adminID int64, deviceID string) (bool, error) {
	q, args, err := s.in(
		"SELECT COUNT(*) FROM login_attempts WHERE admin_id = ? AND device_id = ? AND status IN (?)",
		adminID, deviceID, model.TrustedStatuses)
	if err != nil {
		return false, fmt.Errorf("build trust query: %w", err)
	}
	var n int
	if err := s.db.GetContext(ctx, &n, q, args...); err != nil {
		return false, fmt.Errorf("find trusted attempt: %w", err)
	}
	return n > 0, nil
}

// PendingFilter narrows ListPendingAttempts.
type PendingFilter struct {
	AdminID  *int64
	DeviceID string
}

// ListPendingAttempts returns attempts awaiting device approval, newest
// first.
func (s *Store) ListPendingAttempts(ctx context.Context, f PendingFilter) ([]model.LoginAttempt, error) {
	q := "SELECT * FROM login_attempts WHERE status = ?"
	args := []interface{}{model.StatusPendingApproval}
	if f.AdminID != nil {
		q += " AND admin_id = ?"
		args = append(args, *f.AdminID)
	}
	if f.DeviceID != "" {
		q += " AND device_id = ?"
		args = append(args, f.DeviceID)
	}
	q += " ORDER BY created_at DESC"

	attempts := []model.LoginAttempt{}
	if err := s.db.SelectContext(ctx, &attempts, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list pending attempts: %w", err)
	}
	return attempts, nil
}

// ListAttemptsSince returns every attempt created at or after since, newest
// first.
func (s *Store) ListAttemptsSince(ctx context.Context, since time.Time) ([]model.LoginAttempt, error) {
	attempts := []model.LoginAttempt{}
	if err := s.db.SelectContext(ctx, &attempts,
		s.rebind("SELECT * FROM login_attempts WHERE created_at >= ? ORDER BY created_at DESC"), since.UTC()); err != nil {
		return nil, fmt.Errorf("list attempts since: %w", err)
	}
	return attempts, nil
}

// DeleteAttempt purges a login attempt.
func (s *Store) DeleteAttempt(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM login_attempts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete login attempt: %w", err)
	}
	return requireRow(result, "delete login attempt")
}

// SweepStaleAttempts force-fails every non-terminal attempt created before
// olderThan and returns how many were changed.
func (s *Store) SweepStaleAttempts(ctx context.Context, olderThan time.Time) (int64, error) {
	q, args, err := s.in(
		"UPDATE login_attempts SET status = ?, updated_at = ? WHERE status IN (?) AND created_at < ?",
		model.StatusFailed, now(), model.StaleStatuses, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("build sweep query: %w", err)
	}
	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep stale attempts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep stale attempts rows affected: %w", err)
	}
	return n, nil
}

func isInitialStatus(st model.AttemptStatus) bool {
	for _, s := range model.InitialStatuses {
		if s == st {
			return true
		}
	}
	return false
}
