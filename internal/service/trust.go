package service

import (
	"context"
	"strings"
)

// DeviceTrust decides whether a device has already been cleared for an
// admin. The answer is computed from the attempt log on every call.
type DeviceTrust struct {
	attempts AttemptRepo
}

func NewDeviceTrust(attempts AttemptRepo) *DeviceTrust {
	return &DeviceTrust{attempts: attempts}
}

// IsTrusted reports whether adminID has an approved or OTP-verified attempt
// from deviceID. An empty device id is never trusted.
func (t *DeviceTrust) IsTrusted(ctx context.Context, adminID int64, deviceID string) (bool, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return false, nil
	}
	return t.attempts.HasTrustedAttempt(ctx, adminID, deviceID)
}
