package handler

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI 3.1 document for the auth API. The
// document is built on first request and reused.
type OpenAPIHandler struct {
	version string

	once sync.Once
	doc  *openapi3.T
}

// NewOpenAPIHandler creates a new OpenAPIHandler.
func NewOpenAPIHandler(version string) *OpenAPIHandler {
	return &OpenAPIHandler{version: version}
}

// ServeSpec returns the API document. The server URL follows the request
// host so the document works behind a proxy.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.doc = openapi.Generate("/", h.version)
	})

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	doc := *h.doc
	doc.Servers = openapi3.Servers{{URL: fmt.Sprintf("%s://%s", scheme, r.Host)}}
	writeJSON(w, http.StatusOK, &doc)
}
