package models

import (
	"net/http"
	"strings"
)

// HTTPMethod is the verb of an outbound request.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = http.MethodGet
	MethodPost   HTTPMethod = http.MethodPost
	MethodPut    HTTPMethod = http.MethodPut
	MethodPatch  HTTPMethod = http.MethodPatch
	MethodDelete HTTPMethod = http.MethodDelete
)

// IsRead reports whether the method only reads server state. Reconciling the
// response of a read never overwrites a locally dirty record.
func (m HTTPMethod) IsRead() bool {
	return strings.EqualFold(string(m), http.MethodGet)
}

// Request describes one round trip against the remote API.
//
// Params are sent as the query string for GET and DELETE and as a JSON body
// otherwise. An empty BaseURL means the transport's configured base URL.
type Request struct {
	BaseURL string            `json:"baseUrl,omitempty"`
	Path    string            `json:"path"`
	Method  HTTPMethod        `json:"method"`
	Params  map[string]any    `json:"params,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// WithParams returns a copy of r whose params are base params overlaid with
// extra.
func (r Request) WithParams(extra map[string]any) Request {
	params := make(map[string]any, len(r.Params)+len(extra))
	for k, v := range r.Params {
		params[k] = v
	}
	for k, v := range extra {
		params[k] = v
	}
	r.Params = params
	return r
}

// Response is the decoded result of a round trip.
//
// Body is the decoded JSON document: map[string]any for an object, []any for
// an array, nil for an empty body.
type Response struct {
	StatusCode int
	Body       any
	Header     http.Header
}

// IsSuccess reports whether the status is in [200, 300).
func (r Response) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}
