// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package schema

import "errors"

var (
	// ErrInvalidDefinition is returned when a record type declaration is
	// incomplete or inconsistent.
	ErrInvalidDefinition = errors.New("invalid record type definition")

	// ErrDuplicateType is returned when two definitions share a type name.
	ErrDuplicateType = errors.New("record type is already registered")

	// ErrUnknownType is returned when a relation or lookup names a type that
	// is not registered.
	ErrUnknownType = errors.New("unknown record type")
)
