// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MKhiriev/go-record-sync/models"
)

var (
	// ErrNoServerIdentifier is returned when a record type declares no server
	// id field or a candidate carries neither a server id nor a local id.
	ErrNoServerIdentifier = errors.New("no server identifier")

	// ErrNoPrimaryKeyValue is returned when a candidate carries a server id
	// that cannot be used as a key and no local id to fall back to.
	ErrNoPrimaryKeyValue = errors.New("no primary key value")

	// ErrPersistenceFailure is returned when the store rejects the write
	// transaction of a payload.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrInvalidPayload is returned when a payload or one of its items is not
	// a JSON object.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Error carries the diagnostics of a failed reconciliation. It unwraps to
// ErrNoServerIdentifier or ErrNoPrimaryKeyValue.
type Error struct {
	Kind    error
	Type    string
	JSON    map[string]any
	Mapping map[string]string
	Fields  models.Fields
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: type %q, candidate fields [%s]", e.Kind, e.Type, strings.Join(keys, ", "))
}

func (e *Error) Unwrap() error {
	return e.Kind
}
