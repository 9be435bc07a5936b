package models

import (
	"time"
)

// SyncStatus describes where a local record stands relative to the server.
type SyncStatus string

const (
	// SyncStatusPending marks a record changed locally and not yet pushed.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusSyncing marks a record whose sync task is in flight.
	SyncStatusSyncing SyncStatus = "syncing"
	// SyncStatusSynced marks a record that mirrors the server state.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusFailed marks a record whose last sync attempt failed.
	// The pending rescan picks failed records up again.
	SyncStatusFailed SyncStatus = "failed"
)

// IsValid reports whether s is one of the known statuses.
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSyncing, SyncStatusSynced, SyncStatusFailed:
		return true
	}
	return false
}

// Reserved candidate keys. They address the sync columns of a record; every
// other key of a candidate field set is a type-specific field.
const (
	FieldLocalID       = "localId"
	FieldServerID      = "serverId"
	FieldDeletedAt     = "deletedAt"
	FieldSyncStatus    = "syncStatus"
	FieldLastFetchedAt = "lastFetchedAt"
	FieldLastSyncedAt  = "lastSyncedAt"
)

// IsReservedField reports whether name addresses a sync column.
func IsReservedField(name string) bool {
	switch name {
	case FieldLocalID, FieldServerID, FieldDeletedAt, FieldSyncStatus, FieldLastFetchedAt, FieldLastSyncedAt:
		return true
	}
	return false
}

// Record is a persisted syncable entity.
//
// LocalID is generated on the client when the record is created and never
// changes. ServerID stays empty until the server acknowledges the record and
// is assigned at most once.
type Record struct {
	Type    string `json:"type"`
	LocalID string `json:"localId"`

	// ServerID is empty until the server acknowledges the record.
	ServerID string `json:"serverId,omitempty"`

	// DeletedAt is the tombstone marker. The zero value means not deleted.
	DeletedAt time.Time `json:"deletedAt,omitzero"`

	SyncStatus    SyncStatus `json:"syncStatus"`
	LastFetchedAt *time.Time `json:"lastFetchedAt,omitempty"`
	LastSyncedAt  *time.Time `json:"lastSyncedAt,omitempty"`

	// Fields holds the type-specific values declared by the schema mapping.
	Fields Fields `json:"fields"`
}

// Identity returns the identifier used for reconciliation: the server id when
// present, else the local id.
func (r *Record) Identity() string {
	if r.ServerID != "" {
		return r.ServerID
	}
	return r.LocalID
}

// IsDeleted reports whether the record carries a tombstone.
func (r *Record) IsDeleted() bool {
	return !r.DeletedAt.IsZero()
}

// Ref returns a reference to the record.
func (r *Record) Ref() Ref {
	return Ref{Type: r.Type, LocalID: r.LocalID}
}

// Value returns the current value stored under a candidate key, including the
// reserved sync keys. The second return value is false when the record holds
// nothing for key.
func (r *Record) Value(key string) (any, bool) {
	switch key {
	case FieldLocalID:
		return r.LocalID, true
	case FieldServerID:
		if r.ServerID == "" {
			return nil, false
		}
		return r.ServerID, true
	case FieldDeletedAt:
		if r.DeletedAt.IsZero() {
			return nil, false
		}
		return r.DeletedAt, true
	case FieldSyncStatus:
		return r.SyncStatus, true
	case FieldLastFetchedAt:
		if r.LastFetchedAt == nil {
			return nil, false
		}
		return *r.LastFetchedAt, true
	case FieldLastSyncedAt:
		if r.LastSyncedAt == nil {
			return nil, false
		}
		return *r.LastSyncedAt, true
	}

	v, ok := r.Fields[key]
	return v, ok
}

// Ref points at a related record by identity.
type Ref struct {
	Type    string `json:"type"`
	LocalID string `json:"localId"`
}

// IsZero reports whether the reference points nowhere.
func (r Ref) IsZero() bool {
	return r.LocalID == ""
}
