// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport layer used by the sync core to talk
// to the remote REST API.
//
// The primary abstraction is [Transport]: one request in, one decoded JSON
// response out, a single attempt with no built-in retry. The package ships a
// resty-based implementation ([NewHTTPTransport]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrConflict] for 409, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-record-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/transport_mock.go -package=mock

// Transport performs HTTP round trips against the remote API.
type Transport interface {
	// SetToken stores the bearer token attached to all subsequent requests.
	// An empty token disables the Authorization header.
	SetToken(token string)

	// Token returns the bearer token currently stored in the transport.
	Token() string

	// Request performs req once. Params are sent as the query string for GET
	// and DELETE and as a JSON body otherwise.
	//
	// A response received from the server is always returned, even when its
	// status is outside [200, 300); in that case the error wraps one of the
	// status sentinels of this package. A network failure returns a zero
	// response.
	Request(ctx context.Context, req models.Request) (models.Response, error)
}
