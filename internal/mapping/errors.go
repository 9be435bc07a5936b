// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package mapping

import "errors"

var (
	// ErrNoMappingDefined is returned when a type declares no mapping table at
	// all. An empty but present table is valid.
	ErrNoMappingDefined = errors.New("no mapping defined")

	// ErrInvalidMapping is returned when a mapping table cannot be compiled.
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrUnknownTransformer is returned when a transformer name cannot be
	// resolved.
	ErrUnknownTransformer = errors.New("unknown transformer")
)
