package models

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ── Record ───────────────────────────────────────────────────────────────────

func TestRecord_Identity(t *testing.T) {
	assert.Equal(t, "l1", (&Record{LocalID: "l1"}).Identity())
	assert.Equal(t, "s1", (&Record{LocalID: "l1", ServerID: "s1"}).Identity())
}

func TestRecord_Value(t *testing.T) {
	synced := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := &Record{
		Type:         "note",
		LocalID:      "l1",
		SyncStatus:   SyncStatusPending,
		LastSyncedAt: &synced,
		Fields:       Fields{"title": "t"},
	}

	tests := []struct {
		key     string
		want    any
		present bool
	}{
		{key: FieldLocalID, want: "l1", present: true},
		{key: FieldServerID, present: false},
		{key: FieldDeletedAt, present: false},
		{key: FieldSyncStatus, want: SyncStatusPending, present: true},
		{key: FieldLastFetchedAt, present: false},
		{key: FieldLastSyncedAt, want: synced, present: true},
		{key: "title", want: "t", present: true},
		{key: "body", present: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := rec.Value(tt.key)
			assert.Equal(t, tt.present, ok)
			if tt.present {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRecord_IsDeletedAndRef(t *testing.T) {
	rec := &Record{Type: "note", LocalID: "l1"}
	assert.False(t, rec.IsDeleted())
	assert.Equal(t, Ref{Type: "note", LocalID: "l1"}, rec.Ref())
	assert.True(t, Ref{}.IsZero())

	rec.DeletedAt = time.Now()
	assert.True(t, rec.IsDeleted())
}

func TestSyncStatus_IsValid(t *testing.T) {
	for _, s := range []SyncStatus{SyncStatusPending, SyncStatusSyncing, SyncStatusSynced, SyncStatusFailed} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, SyncStatus("dirty").IsValid())
	assert.True(t, IsReservedField(FieldDeletedAt))
	assert.False(t, IsReservedField("title"))
}

// ── HTTP ─────────────────────────────────────────────────────────────────────

func TestRequest_WithParamsDoesNotShareMap(t *testing.T) {
	base := Request{Path: "/api/notes", Params: map[string]any{"per_page": 50}}
	next := base.WithParams(map[string]any{"page": 2})

	assert.Equal(t, map[string]any{"per_page": 50, "page": 2}, next.Params)
	assert.Equal(t, map[string]any{"per_page": 50}, base.Params)
}

func TestResponse_IsSuccess(t *testing.T) {
	assert.True(t, Response{StatusCode: http.StatusCreated}.IsSuccess())
	assert.False(t, Response{StatusCode: http.StatusNotModified}.IsSuccess())
	assert.False(t, Response{}.IsSuccess())
	assert.True(t, HTTPMethod("get").IsRead())
	assert.False(t, MethodPatch.IsRead())
}

// ── Sync ─────────────────────────────────────────────────────────────────────

func TestSyncTask_Keys(t *testing.T) {
	a := SyncTask{ObjectType: "note", LocalID: "l1", Method: MethodPut, Path: "/api/notes/1", Params: map[string]any{"a": 1}}
	b := a
	b.Params = map[string]any{"a": 2}
	b.Priority = 9

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, ObjectKey{ObjectType: "note", LocalID: "l1"}, a.Object())

	b.Method = MethodDelete
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Object(), b.Object())
}

func TestPageInfo_HasNext(t *testing.T) {
	tests := []struct {
		name string
		info PageInfo
		want bool
	}{
		{name: "no next", info: PageInfo{PageIndex: 1}, want: false},
		{name: "next params", info: PageInfo{PageIndex: 1, NextParams: map[string]any{"page": 2}}, want: true},
		{name: "next link", info: PageInfo{PageIndex: 1, NextLink: "/api/notes?page=2"}, want: true},
		{name: "last of total", info: PageInfo{PageIndex: 3, TotalPages: 3, NextParams: map[string]any{"page": 4}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.HasNext())
		})
	}
}

func TestSerializeResult_OK(t *testing.T) {
	assert.True(t, SerializeResult{}.OK())
	assert.False(t, SerializeResult{ItemErrors: []error{assert.AnError}}.OK())
	assert.False(t, SerializeResult{Err: assert.AnError}.OK())
}
