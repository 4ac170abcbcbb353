package model

import "time"

// AttemptStatus is the state of a single login attempt.
type AttemptStatus string

const (
	StatusPendingApproval AttemptStatus = "pending_approval"
	StatusPendingOTP      AttemptStatus = "pending_otp"
	StatusOTPSent         AttemptStatus = "otp_sent"
	StatusOTPFailed       AttemptStatus = "otp_failed"
	StatusOTPVerified     AttemptStatus = "otp_verified"
	StatusApproved        AttemptStatus = "approved"
	StatusRejected        AttemptStatus = "rejected"
	StatusFailed          AttemptStatus = "failed"
)

// transitions lists, for each non-terminal status, the statuses it may move to.
var transitions = map[AttemptStatus][]AttemptStatus{
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusFailed},
	StatusPendingOTP:      {StatusOTPSent, StatusFailed},
	StatusOTPSent:         {StatusOTPVerified, StatusOTPFailed, StatusFailed},
}

// InitialStatuses are the statuses an attempt may be created with.
var InitialStatuses = []AttemptStatus{StatusFailed, StatusPendingApproval, StatusPendingOTP}

// StaleStatuses are the statuses the expiry sweeper force-fails.
var StaleStatuses = []AttemptStatus{StatusPendingApproval, StatusPendingOTP, StatusOTPSent}

// TrustedStatuses mark a device as trusted for the attempt's admin.
var TrustedStatuses = []AttemptStatus{StatusApproved, StatusOTPVerified}

// Valid reports whether s is a known status.
func (s AttemptStatus) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusPendingOTP, StatusOTPSent, StatusOTPFailed,
		StatusOTPVerified, StatusApproved, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s AttemptStatus) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// CanTransitionTo reports whether s -> next is a legal transition.
func (s AttemptStatus) CanTransitionTo(next AttemptStatus) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// SourcesOf returns every status that may legally transition to next.
func SourcesOf(next AttemptStatus) []AttemptStatus {
	var out []AttemptStatus
	for from, tos := range transitions {
		for _, to := range tos {
			if to == next {
				out = append(out, from)
			}
		}
	}
	return out
}

// Location sources recorded on an attempt.
const (
	LocationGPS     = "gps"
	LocationIP      = "ip"
	LocationUnknown = "unknown"
)

// UnknownLocation is stored when neither GPS nor IP lookup resolves.
const UnknownLocation = "Unknown"

// LoginAttempt records one login submission and its progress through the
// login state machine.
type LoginAttempt struct {
	ID             string        `json:"id" db:"id"`
	AdminID        *int64        `json:"admin_id,omitempty" db:"admin_id"`
	Email          string        `json:"email" db:"email"`
	DeviceID       string        `json:"device_id" db:"device_id"`
	DeviceInfo     string        `json:"device_info" db:"device_info"`
	IPAddress      string        `json:"ip_address" db:"ip_address"`
	Location       string        `json:"location" db:"location"`
	LocationSource string        `json:"location_source" db:"location_source"`
	Status         AttemptStatus `json:"status" db:"status"`
	ApprovedBy     *int64        `json:"approved_by,omitempty" db:"approved_by"`
	ApproverRole   string        `json:"approver_role,omitempty" db:"approver_role"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// Resolution carries the approver fields written alongside an
// approve/reject transition.
type Resolution struct {
	ApproverID   int64
	ApproverRole Role
}
