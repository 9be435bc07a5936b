// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the command-line client application runtime.
//
// It wires the record schema, local storage, the remote transport and the
// sync services into a single process lifecycle, and exposes one-shot fetch
// and push operations next to the long-running periodic sync.
package client
