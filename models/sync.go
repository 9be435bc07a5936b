package models

import (
	"time"
)

// SyncTask is one outbound create, update or delete attempt for one local
// record. It is owned by the scheduler and never persisted.
type SyncTask struct {
	ObjectType string
	LocalID    string
	ServerID   string
	Method     HTTPMethod
	Path       string
	Params     map[string]any
	BaseURL    string

	// Priority orders queued tasks; higher runs first.
	Priority int
}

// TaskKey identifies duplicate submissions.
type TaskKey struct {
	ObjectType string
	LocalID    string
	Method     HTTPMethod
	Path       string
}

// ObjectKey identifies the record a task works on.
type ObjectKey struct {
	ObjectType string
	LocalID    string
}

// Key returns the deduplication key of t.
func (t SyncTask) Key() TaskKey {
	return TaskKey{ObjectType: t.ObjectType, LocalID: t.LocalID, Method: t.Method, Path: t.Path}
}

// Object returns the key of the record t works on.
func (t SyncTask) Object() ObjectKey {
	return ObjectKey{ObjectType: t.ObjectType, LocalID: t.LocalID}
}

// Request returns the HTTP request performed by t.
func (t SyncTask) Request() Request {
	return Request{BaseURL: t.BaseURL, Path: t.Path, Method: t.Method, Params: t.Params}
}

// SyncResult is delivered to the completion callback of a sync task.
type SyncResult struct {
	Success    bool
	Identities []string
	Err        error

	StartedAt  time.Time
	FinishedAt time.Time
}

// SerializeResult is the outcome of reconciling one JSON payload.
//
// ItemErrors holds per-item mapping or reconciliation errors; a failing item
// never aborts its siblings. Err is set when the payload as a whole could not
// be processed, for example when the write transaction failed.
type SerializeResult struct {
	Records    []*Record
	Identities []string
	ItemErrors []error
	Err        error
}

// OK reports whether the payload was reconciled without any error.
func (r SerializeResult) OK() bool {
	return r.Err == nil && len(r.ItemErrors) == 0
}

// PageInfo describes one fetched page.
type PageInfo struct {
	// PageIndex is the 1-based page number reported by the server, or the
	// running page counter when the server reports none.
	PageIndex  int
	TotalPages int
	TotalItems int

	// NextLink and PrevLink hold pagination links when the server sends them.
	NextLink string
	PrevLink string

	// NextParams are the request params of the following page; nil when the
	// page is the last one.
	NextParams map[string]any

	FetchedServerIDs map[string]struct{}
}

// HasNext reports whether another page follows.
func (p PageInfo) HasNext() bool {
	if p.NextParams == nil && p.NextLink == "" {
		return false
	}
	if p.TotalPages > 0 && p.PageIndex >= p.TotalPages {
		return false
	}
	return true
}

// FetchPagedResult is the outcome of a paginated fetch.
type FetchPagedResult struct {
	AllPageResults []SerializeResult
	AllPageInfos   []PageInfo

	// Complete is true when pagination was exhausted without any failure.
	Complete bool

	// Pruned lists the local ids soft-deleted as orphans.
	Pruned []string

	Err error
}
