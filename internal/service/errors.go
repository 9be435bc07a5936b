package service

import "errors"

var (
	// ErrAccessDenied is returned when the server rejects the configured
	// token.
	ErrAccessDenied = errors.New("access denied by server")

	// ErrServerUnavailable is returned when the server cannot take requests
	// right now. The next run retries.
	ErrServerUnavailable = errors.New("server unavailable")

	// ErrSyncIncomplete is returned when some records could not be pushed.
	ErrSyncIncomplete = errors.New("sync incomplete")
)
