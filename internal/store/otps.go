package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
)

// CreateOTP inserts a new OTP record. Existing records for the same email
// are left untouched.
func (s *Store) CreateOTP(ctx context.Context, rec *model.OTPRecord) error {
	rec.Email = strings.ToLower(strings.TrimSpace(rec.Email))
	rec.CreatedAt = now()

	const q = `INSERT INTO otps (email, code_hash, expires_at, created_at)
		VALUES (:email, :code_hash, :expires_at, :created_at)`

	id, err := s.insertID(ctx, q, rec)
	if err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	rec.ID = id
	return nil
}

// ConsumeOTP deletes one unexpired record matching email and codeHash and
// reports whether a record was consumed. The delete is the match, so two
// concurrent verifications of the same code cannot both succeed.
func (s *Store) ConsumeOTP(ctx context.Context, email, codeHash string, at time.Time) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	// MySQL refuses a subquery on the table being deleted from, so the
	// candidate id is fetched first and the delete re-checks every condition.
	// No LIMIT: SQL Server spells it differently and matches are rare.
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, s.rebind(
		"SELECT id FROM otps WHERE email = ? AND code_hash = ? AND expires_at > ? ORDER BY id"),
		email, codeHash, at.UTC())
	if err != nil {
		return false, fmt.Errorf("find otp: %w", err)
	}
	if len(ids) == 0 {
		return false, nil
	}

	result, err := s.db.ExecContext(ctx, s.rebind(
		"DELETE FROM otps WHERE id = ? AND email = ? AND code_hash = ? AND expires_at > ?"),
		ids[0], email, codeHash, at.UTC())
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume otp rows affected: %w", err)
	}
	return n == 1, nil
}

// CountOTPs returns the number of stored records for email, expired or not.
func (s *Store) CountOTPs(ctx context.Context, email string) (int, error) {
	var n int
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.db.GetContext(ctx, &n, s.rebind("SELECT COUNT(*) FROM otps WHERE email = ?"), email); err != nil {
		return 0, fmt.Errorf("count otps: %w", err)
	}
	return n, nil
}

// DeleteExpiredOTPs removes every record whose expiry is at or before at.
func (s *Store) DeleteExpiredOTPs(ctx context.Context, at time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM otps WHERE expires_at <= ?"), at.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired otps: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired otps rows affected: %w", err)
	}
	return n, nil
}
