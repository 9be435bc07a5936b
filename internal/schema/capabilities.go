// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package schema declares how record types plug into the sync core.
//
// Capabilities are small interfaces composed per record type: a type that can
// be reconciled is [Mappable], a type that can be listed from the server is
// [Fetchable] (and optionally [Pageable]), a type whose local changes are
// pushed is [Syncable]. [Definition] implements all of them from plain data
// and is what [LoadFile] produces from a YAML schema.
package schema

import (
	"github.com/MKhiriev/go-record-sync/internal/mapping"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/models"
)

// Identifiable names a record type and the candidate field carrying its
// server identifier.
type Identifiable interface {
	TypeName() string

	// ServerIDField returns the candidate key holding the server id, or ""
	// when the type declares none.
	ServerIDField() string
}

// Mappable is a type whose JSON can be reconciled into local records.
type Mappable interface {
	Identifiable

	// Mapping returns the type's mapping table, or nil when none is declared.
	Mapping() *mapping.MappingSpec
}

// Fetchable is a type listed from the server with paginated GETs.
type Fetchable interface {
	Mappable

	// FetchRequest returns the base GET request of the collection.
	FetchRequest() models.Request

	// FetchScope narrows the local records a complete fetch is compared
	// against when pruning orphans. nil means every record of the type.
	FetchScope() store.Predicate

	// ItemsKeyPath returns the keypath of the item array inside an enveloped
	// list response, or "" when the body is the array itself.
	ItemsKeyPath() string
}

// Pageable derives pagination metadata from a response.
type Pageable interface {
	// PageInfo describes the page returned by resp for a request sent with
	// params. pageIndex is the 1-based running page counter.
	PageInfo(resp models.Response, params map[string]any, pageIndex int) models.PageInfo
}

// Dependent is a type whose fetch needs other types fetched first, e.g.
// because its items refer to them by server id.
type Dependent interface {
	// Dependencies returns the names of the types fetched before this one.
	Dependencies() []string
}

// Syncable is a type whose local changes are pushed to the server.
type Syncable interface {
	Mappable

	// SyncRequest returns the request that pushes rec, whose outbound JSON
	// document is body. ok is false when there is nothing to send, e.g. for a
	// record created and deleted locally before it ever reached the server.
	SyncRequest(rec *models.Record, body map[string]any) (req models.Request, ok bool)
}
