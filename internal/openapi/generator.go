package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// route describes one documented endpoint.
type route struct {
	method      string
	path        string
	tag         string
	summary     string
	operationID string
	auth        authLevel
	request     string // component schema name, empty for no body
	status      string
	response    string // component schema name
	list        bool   // response is wrapped in the list envelope
	throttled   bool
	pathParams  []string
}

type authLevel int

const (
	public authLevel = iota
	session
	approver
)

var routes = []route{
	{method: http.MethodPost, path: "/login", tag: "auth", summary: "Check credentials and start the OTP or device approval flow",
		operationID: "login", throttled: true, request: "LoginRequest", status: "202", response: "LoginResponse"},
	{method: http.MethodPost, path: "/verify-login-otp", tag: "auth", summary: "Verify a login code and open a session",
		operationID: "verifyLoginOTP", throttled: true, request: "VerifyRequest", status: "200", response: "SessionResponse"},
	{method: http.MethodGet, path: "/login-attempts/{id}/status", tag: "auth", summary: "Poll the state of a login attempt",
		operationID: "getLoginAttemptStatus", status: "200", response: "AttemptStatus", pathParams: []string{"id"}},
	{method: http.MethodPost, path: "/logout", tag: "auth", summary: "End the client session",
		operationID: "logout", status: "200", response: "SuccessResponse"},
	{method: http.MethodGet, path: "/me", tag: "auth", summary: "Return the authenticated admin",
		operationID: "getMe", auth: session, status: "200", response: "Admin"},
	{method: http.MethodPost, path: "/approve-device", tag: "approval", summary: "Approve or reject one pending login attempt",
		operationID: "approveDevice", auth: approver, request: "ApproveRequest", status: "200", response: "ApprovalResponse"},
	{method: http.MethodPost, path: "/approve-device/{admin_id}", tag: "approval", summary: "Resolve every pending attempt of one admin",
		operationID: "approveAdminDevices", auth: approver, request: "ApproveRequest", status: "200", response: "BulkApprovalResponse", pathParams: []string{"admin_id"}},
	{method: http.MethodGet, path: "/pending-login-attempts", tag: "approval", summary: "List attempts awaiting approval",
		operationID: "listPendingLoginAttempts", auth: approver, status: "200", response: "LoginAttempt", list: true},
	{method: http.MethodGet, path: "/pending-login-attempts/{admin_id}", tag: "approval", summary: "List one admin's attempts awaiting approval",
		operationID: "listAdminPendingLoginAttempts", auth: approver, status: "200", response: "LoginAttempt", list: true, pathParams: []string{"admin_id"}},
	{method: http.MethodDelete, path: "/login_attempts/{id}", tag: "attempts", summary: "Delete a login attempt",
		operationID: "deleteLoginAttempt", auth: approver, status: "200", response: "SuccessResponse", pathParams: []string{"id"}},
	{method: http.MethodGet, path: "/login_attempts/today", tag: "attempts", summary: "List attempts created since midnight UTC",
		operationID: "listLoginAttemptsToday", auth: approver, status: "200", response: "LoginAttempt", list: true},
	{method: http.MethodGet, path: "/admins", tag: "admins", summary: "List admin accounts",
		operationID: "listAdmins", auth: approver, status: "200", response: "Admin", list: true},
}

// Generate builds the OpenAPI 3.1 document for the admin auth API.
func Generate(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Masski Admin Auth API",
			Description: "Admin login with device trust, one-time codes and approver sign-off.",
			Version:     version,
		},
		Servers: openapi3.Servers{{URL: baseURL}},
		Paths:   openapi3.NewPaths(),
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
		},
	}
	doc.Components = &components

	tags := map[string]bool{}
	for _, rt := range routes {
		tags[rt.tag] = true
		addRoute(doc, rt)
	}
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Tags = append(doc.Tags, &openapi3.Tag{Name: name})
	}

	return doc
}

func addRoute(doc *openapi3.T, rt route) {
	op := &openapi3.Operation{
		Tags:        []string{rt.tag},
		Summary:     rt.summary,
		OperationID: rt.operationID,
	}

	for _, name := range rt.pathParams {
		schema := openapi3.NewStringSchema()
		if strings.HasSuffix(name, "_id") && name != "id" {
			schema = openapi3.NewInt64Schema()
		}
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{
			Value: openapi3.NewPathParameter(name).WithSchema(schema),
		})
	}

	if rt.request != "" {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithRequired(true).
				WithJSONSchemaRef(componentRef(rt.request)),
		}
	}

	body := componentRef(rt.response)
	if rt.list {
		body = listEnvelope(body)
	}
	op.Responses = newResponses(rt, body)

	if rt.auth != public {
		op.Security = &openapi3.SecurityRequirements{{"bearerAuth": {}}}
	}

	doc.AddOperation(rt.path, rt.method, op)
}

func componentRef(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

// newResponses builds a Responses map with the success response and the
// error responses the route can produce.
func newResponses(rt route, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	responses.Set(rt.status, &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(rt.summary).
			WithContent(openapi3.NewContentWithJSONSchemaRef(schema)),
	})

	errorRef := componentRef("ErrorResponse")
	errs := map[string]string{
		"400": "Bad request",
		"404": "Not found",
		"500": "Internal server error",
	}
	if rt.auth != public {
		errs["401"] = "Unauthorized"
	}
	if rt.auth == approver || rt.operationID == "login" {
		errs["403"] = "Forbidden"
	}
	if rt.throttled {
		errs["429"] = "Too many requests"
	}
	for code, desc := range errs {
		responses.Set(code, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(desc).
				WithContent(openapi3.NewContentWithJSONSchemaRef(errorRef)),
		})
	}
	return responses
}

// listEnvelope wraps an item schema in {"resource": [...], "meta": {...}}.
func listEnvelope(item *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"resource": &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type:  &openapi3.Types{"array"},
					Items: item,
				}},
				"meta": metaSchema(),
			},
		},
	}
}

// metaSchema returns the schema for the "meta" field in list responses.
func metaSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"count": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:        &openapi3.Types{"integer"},
						Format:      "int64",
						Description: "Number of records returned.",
					},
				},
			},
		},
	}
}
