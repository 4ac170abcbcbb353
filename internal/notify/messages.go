package notify

import (
	"fmt"
	"time"
)

// Message is a rendered subject and body.
type Message struct {
	Subject string
	Body    string
}

// AttemptDetails describes the login that triggered a message.
type AttemptDetails struct {
	AttemptID string
	Name      string
	Email     string
	Role      string
	DeviceID  string
	Device    string
	IP        string
	Location  string
	At        time.Time
}

// LoginOTP is sent to the admin logging in.
func LoginOTP(appName, code string, ttl time.Duration) Message {
	return Message{
		Subject: fmt.Sprintf("%s - Your login verification code", appName),
		Body: fmt.Sprintf(
			"Hello,\n\n"+
				"Use the code below to finish signing in to %s:\n\n"+
				"Login code: %s\n\n"+
				"This code expires in %s. If you did not try to sign in, change your password.\n\n"+
				"The %s Team",
			appName, code, humanDuration(ttl), appName),
	}
}

// RoutedOTP is sent to the approver pool when a non-privileged admin logs in
// from a trusted device. The approver relays the code.
func RoutedOTP(appName, code string, ttl time.Duration, d AttemptDetails) Message {
	return Message{
		Subject: fmt.Sprintf("%s - Login code for %s", appName, d.Email),
		Body: fmt.Sprintf(
			"Hello,\n\n"+
				"%s (%s, role %s) is signing in and needs a verification code.\n\n"+
				"Login code: %s\n\n"+
				"%s"+
				"This code expires in %s. Share it only if you recognise this login.\n\n"+
				"The %s Team",
			d.Name, d.Email, d.Role, code, detailsBlock(d), humanDuration(ttl), appName),
	}
}

// ApprovalRequest is sent to the approver pool for a login from an
// unrecognised device.
func ApprovalRequest(appName string, d AttemptDetails) Message {
	return Message{
		Subject: fmt.Sprintf("%s - New device approval needed for %s", appName, d.Email),
		Body: fmt.Sprintf(
			"Hello,\n\n"+
				"%s (%s, role %s) tried to sign in from a device that has not been approved.\n\n"+
				"%s"+
				"Approve or reject the request with login attempt id %s.\n\n"+
				"The %s Team",
			d.Name, d.Email, d.Role, detailsBlock(d), d.AttemptID, appName),
	}
}

// DeviceApproved tells the admin they may sign in again on the device.
func DeviceApproved(appName string, d AttemptDetails) Message {
	return Message{
		Subject: fmt.Sprintf("%s - Your device was approved", appName),
		Body: fmt.Sprintf(
			"Hello %s,\n\n"+
				"Your sign-in from device %q has been approved. Sign in again on that device to receive your login code.\n\n"+
				"The %s Team",
			d.Name, d.DeviceID, appName),
	}
}

func detailsBlock(d AttemptDetails) string {
	return fmt.Sprintf("Device: %s\nDevice ID: %s\nIP address: %s\nLocation: %s\nTime: %s\n\n",
		orDash(d.Device), orDash(d.DeviceID), orDash(d.IP), orDash(d.Location), d.At.UTC().Format(time.RFC1123))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 && d >= time.Minute {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
