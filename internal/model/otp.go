package model

import "time"

// OTPRecord is a one-time code issued to an email address. Only the SHA-256
// hash of the code is persisted.
type OTPRecord struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CodeHash  string    `json:"-" db:"code_hash"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Expired reports whether the record is no longer valid at now.
func (o *OTPRecord) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
