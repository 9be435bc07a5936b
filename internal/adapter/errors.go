package adapter

import "errors"

// Sentinel errors mapped from HTTP status codes by mapHTTPError.
var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUnprocessable       = errors.New("unprocessable entity")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")
	ErrServiceUnavailable  = errors.New("service unavailable")

	// ErrUnexpectedStatus is returned for any other status outside [200, 300).
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

var (
	// ErrInvalidAddress is returned when the configured base URL cannot be
	// used.
	ErrInvalidAddress = errors.New("invalid adapter http address")

	// ErrInvalidResponse is returned when a successful response carries a
	// body that is not valid JSON.
	ErrInvalidResponse = errors.New("invalid response body")
)
