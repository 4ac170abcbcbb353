package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
)

// CreateAdmin inserts a new admin account. The ID, CreatedAt and UpdatedAt
// fields are populated after a successful insert. Only one super_admin may
// ever be registered.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))

	if admin.Role == model.RoleSuperAdmin {
		var count int
		if err := s.db.GetContext(ctx, &count,
			s.rebind("SELECT COUNT(*) FROM admins WHERE role = ?"), model.RoleSuperAdmin); err != nil {
			return fmt.Errorf("count super admins: %w", err)
		}
		if count > 0 {
			return ErrSuperAdminExists
		}
	}

	t := now()
	admin.CreatedAt = t
	admin.UpdatedAt = t

	const q = `INSERT INTO admins
		(name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES
		(:name, :email, :password_hash, :role, :is_active, :created_at, :updated_at)`

	id, err := s.insertID(ctx, q, admin)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = id
	return nil
}

// GetAdmin returns an admin by ID.
func (s *Store) GetAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	if err := s.db.GetContext(ctx, &admin, s.rebind("SELECT * FROM admins WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

// GetAdminByEmail returns an admin by email address regardless of its
// active flag.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.db.GetContext(ctx, &admin, s.rebind("SELECT * FROM admins WHERE email = ?"), email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &admin, nil
}

// FindActiveAdminByEmail returns the active admin for email, or ErrNotFound
// when the account is missing or deactivated.
func (s *Store) FindActiveAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	admin, err := s.GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !admin.IsActive {
		return nil, ErrNotFound
	}
	return admin, nil
}

// FindAdminRole returns the role of an admin.
func (s *Store) FindAdminRole(ctx context.Context, id int64) (model.Role, error) {
	var role model.Role
	if err := s.db.GetContext(ctx, &role, s.rebind("SELECT role FROM admins WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("find admin role: %w", err)
	}
	return role, nil
}

// ListAdmins returns all admin accounts.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	admins := []model.Admin{}
	if err := s.db.SelectContext(ctx, &admins, "SELECT * FROM admins ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// ListActiveApprovers returns every active admin in the approver pool.
func (s *Store) ListActiveApprovers(ctx context.Context) ([]model.Admin, error) {
	q, args, err := s.in("SELECT * FROM admins WHERE is_active = ? AND role IN (?) ORDER BY email",
		true, model.ApproverRoles)
	if err != nil {
		return nil, fmt.Errorf("build approvers query: %w", err)
	}

	admins := []model.Admin{}
	if err := s.db.SelectContext(ctx, &admins, q, args...); err != nil {
		return nil, fmt.Errorf("list approvers: %w", err)
	}
	return admins, nil
}

// SetAdminActive toggles an admin's active flag.
func (s *Store) SetAdminActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE admins SET is_active = ?, updated_at = ? WHERE id = ?"), active, now(), id)
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return requireRow(result, "set admin active")
}

// UpdateAdminLastLogin sets the last_login_at timestamp for an admin.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, id int64) error {
	t := now()
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE admins SET last_login_at = ?, updated_at = ? WHERE id = ?"), t, t, id)
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return requireRow(result, "update admin last login")
}

func requireRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
