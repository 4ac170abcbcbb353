package store

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a status update is not legal from
	// the attempt's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrSuperAdminExists is returned when registering a second super_admin.
	ErrSuperAdminExists = errors.New("a super_admin account already exists")

	// ErrEmailTaken is returned when an admin email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)
