package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

var attemptStatuses = []interface{}{
	"pending_approval", "pending_otp", "otp_sent", "otp_failed",
	"otp_verified", "approved", "rejected", "failed",
}

func str() *openapi3.SchemaRef      { return openapi3.NewStringSchema().NewRef() }
func integer() *openapi3.SchemaRef  { return openapi3.NewInt64Schema().NewRef() }
func boolean() *openapi3.SchemaRef  { return openapi3.NewBoolSchema().NewRef() }
func number() *openapi3.SchemaRef   { return openapi3.NewFloat64Schema().NewRef() }
func dateTime() *openapi3.SchemaRef { return openapi3.NewDateTimeSchema().NewRef() }

func object(required []string, props openapi3.Schemas) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Required:   required,
		Properties: props,
	}}
}

// componentSchemas returns the request and response bodies shared by the
// documented routes. Admin carries no password field.
func componentSchemas() openapi3.Schemas {
	status := openapi3.NewStringSchema().WithEnum(attemptStatuses...).NewRef()

	return openapi3.Schemas{
		"ErrorResponse": object([]string{"error"}, openapi3.Schemas{
			"error": object([]string{"code", "message"}, openapi3.Schemas{
				"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
				"message": str(),
				"context": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
			}),
		}),
		"SuccessResponse": object(nil, openapi3.Schemas{
			"success":          boolean(),
			"message":          str(),
			"login_attempt_id": str(),
		}),
		"Admin": object([]string{"id", "email", "role"}, openapi3.Schemas{
			"id":            integer(),
			"name":          str(),
			"email":         str(),
			"role":          str(),
			"is_active":     boolean(),
			"last_login_at": dateTime(),
			"created_at":    dateTime(),
			"updated_at":    dateTime(),
		}),
		"LoginAttempt": object([]string{"id", "status"}, openapi3.Schemas{
			"id":              str(),
			"admin_id":        integer(),
			"email":           str(),
			"device_id":       str(),
			"device_info":     str(),
			"ip_address":      str(),
			"location":        str(),
			"location_source": openapi3.NewStringSchema().WithEnum("gps", "ip", "unknown").NewRef(),
			"status":          status,
			"approved_by":     integer(),
			"approver_role":   str(),
			"resolved_at":     dateTime(),
			"created_at":      dateTime(),
			"updated_at":      dateTime(),
		}),
		"LoginRequest": object([]string{"email", "password"}, openapi3.Schemas{
			"email":     str(),
			"password":  openapi3.NewStringSchema().WithFormat("password").NewRef(),
			"device_id": str(),
			"latitude":  number(),
			"longitude": number(),
		}),
		"LoginResponse": object(nil, openapi3.Schemas{
			"message":          str(),
			"login_attempt_id": str(),
			"status":           status,
			"otp_recipient":    openapi3.NewStringSchema().WithEnum("self", "approvers").NewRef(),
			"expires_at":       dateTime(),
			"expires_in":       integer(),
		}),
		"VerifyRequest": object([]string{"login_attempt_id", "otp"}, openapi3.Schemas{
			"login_attempt_id": str(),
			"otp":              openapi3.NewStringSchema().WithPattern(`^[0-9]{6}$`).NewRef(),
		}),
		"SessionResponse": object(nil, openapi3.Schemas{
			"message":       str(),
			"session_token": str(),
			"token_type":    str(),
			"expires_at":    dateTime(),
			"admin":         componentRef("Admin"),
		}),
		"AttemptStatus": object(nil, openapi3.Schemas{
			"login_attempt_id": str(),
			"status":           status,
			"created_at":       dateTime(),
			"updated_at":       dateTime(),
		}),
		"ApproveRequest": object([]string{"approve"}, openapi3.Schemas{
			"login_attempt_id": str(),
			"approve":          boolean(),
			"device_id":        str(),
		}),
		"ApprovalResponse": object(nil, openapi3.Schemas{
			"message":          str(),
			"already_resolved": boolean(),
			"login_attempt":    componentRef("LoginAttempt"),
		}),
		"BulkApprovalResponse": object(nil, openapi3.Schemas{
			"message": str(),
			"resolved": &openapi3.SchemaRef{Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: componentRef("LoginAttempt"),
			}},
			"meta": metaSchema(),
		}),
	}
}
