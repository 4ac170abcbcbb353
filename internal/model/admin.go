package model

import "time"

// Role names an admin's position. super_admin, manager and dev are built in;
// any other value is a tenant-defined staff role (cashier, attendant, ...).
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleManager    Role = "manager"
	RoleDev        Role = "dev"
)

// ApproverRoles are the roles that form the approver pool: they can resolve
// device approvals and receive OTPs routed on behalf of staff.
var ApproverRoles = []Role{RoleSuperAdmin, RoleManager, RoleDev}

// IsApprover reports whether r belongs to the approver pool.
func (r Role) IsApprover() bool {
	for _, a := range ApproverRoles {
		if r == a {
			return true
		}
	}
	return false
}

// BypassesDeviceApproval reports whether logins with this role skip the
// new-device approval wait. Managers are approvers but still need approval
// for an unknown device.
func (r Role) BypassesDeviceApproval() bool {
	return r == RoleSuperAdmin || r == RoleDev
}

// Admin is an operator account. Password hashes are bcrypt or argon2id PHC
// strings and are never serialized.
type Admin struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
