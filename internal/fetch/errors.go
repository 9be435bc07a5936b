// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package fetch

import "errors"

var (
	// ErrNotFetchable is returned when a record type cannot be listed from
	// the server.
	ErrNotFetchable = errors.New("record type is not fetchable")

	// ErrPreCheckFailed is returned when the step run before the first page
	// fails. No request is sent in that case.
	ErrPreCheckFailed = errors.New("pre-check failed")

	// ErrPageFailed wraps the failure of one page request.
	ErrPageFailed = errors.New("page request failed")

	// ErrItemsNotFound is returned when an enveloped list response does not
	// carry the item array at the declared keypath.
	ErrItemsNotFound = errors.New("items not found in response")

	// ErrPaginationLoop is returned when a page points at itself as the next
	// page.
	ErrPaginationLoop = errors.New("pagination does not advance")
)
