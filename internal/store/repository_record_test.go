package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-record-sync/internal/config"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/models"
)

func newTestRepository(t *testing.T) RecordRepository {
	t.Helper()

	db, err := NewConnectSQLite(context.Background(), config.ClientDB{DSN: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	return NewRecordRepository(db, logger.Nop())
}

func newMockRepository(t *testing.T) (RecordRepository, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db := &DB{
		DB:                 conn,
		errorClassificator: NewSQLiteErrorClassifier(),
		idGenerator:        seqGenerator(),
		now:                time.Now,
		logger:             logger.Nop(),
	}
	return NewRecordRepository(db, logger.Nop()), mock
}

type idFunc func() string

func (f idFunc) Generate() string { return f() }

func seqGenerator() IDGenerator {
	n := 0
	return idFunc(func() string {
		n++
		return "gen-" + string(rune('0'+n))
	})
}

func create(t *testing.T, repo RecordRepository, typeName string, values models.Fields, update bool) (*models.Record, error) {
	t.Helper()

	var rec *models.Record
	err := repo.Write(context.Background(), func(tx Txn) error {
		var err error
		rec, err = tx.Create(typeName, values, update)
		return err
	})
	return rec, err
}

// ── Create ───────────────────────────────────────────────────────────────────

func TestRecordRepository_Create_GeneratesLocalID(t *testing.T) {
	repo := newTestRepository(t)

	rec, err := create(t, repo, "note", models.Fields{"title": "hello"}, false)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.LocalID)
	assert.Equal(t, models.SyncStatusPending, rec.SyncStatus)

	stored, err := repo.Get(context.Background(), "note", rec.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Fields["title"])
	assert.Empty(t, stored.ServerID)
	assert.False(t, stored.IsDeleted())
}

func TestRecordRepository_Create_ExistingWithoutUpdate(t *testing.T) {
	repo := newTestRepository(t)

	_, err := create(t, repo, "note", models.Fields{models.FieldLocalID: "l1"}, false)
	require.NoError(t, err)

	_, err = create(t, repo, "note", models.Fields{models.FieldLocalID: "l1"}, false)
	assert.ErrorIs(t, err, ErrRecordExists)
}

func TestRecordRepository_Create_MergesFields(t *testing.T) {
	repo := newTestRepository(t)

	_, err := create(t, repo, "note", models.Fields{
		models.FieldLocalID: "l1",
		"title":             "a",
		"body":              "b",
	}, false)
	require.NoError(t, err)

	rec, err := create(t, repo, "note", models.Fields{
		models.FieldLocalID:    "l1",
		"title":                "changed",
		models.FieldSyncStatus: models.SyncStatusSynced,
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "changed", rec.Fields["title"])
	assert.Equal(t, "b", rec.Fields["body"])
	assert.Equal(t, models.SyncStatusSynced, rec.SyncStatus)

	stored, err := repo.Get(context.Background(), "note", "l1")
	require.NoError(t, err)
	assert.Equal(t, rec.Fields, stored.Fields)
}

func TestRecordRepository_Create_TypedFieldsRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	due := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	fetched := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	_, err := create(t, repo, "task", models.Fields{
		models.FieldLocalID:       "l1",
		models.FieldServerID:      "s1",
		models.FieldLastFetchedAt: fetched,
		"dueAt":                   due,
		"owner":                   models.Ref{Type: "user", LocalID: "u1"},
		"tags":                    []models.Ref{},
		"estimate":                int64(3),
		"done":                    false,
	}, false)
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), "task", "l1")
	require.NoError(t, err)
	assert.Equal(t, "s1", stored.ServerID)
	require.NotNil(t, stored.LastFetchedAt)
	assert.True(t, fetched.Equal(*stored.LastFetchedAt))
	assert.True(t, due.Equal(stored.Fields["dueAt"].(time.Time)))
	assert.Equal(t, models.Ref{Type: "user", LocalID: "u1"}, stored.Fields["owner"])
	assert.Equal(t, []models.Ref{}, stored.Fields["tags"])
	assert.Equal(t, int64(3), stored.Fields["estimate"])
	assert.Equal(t, false, stored.Fields["done"])
}

func TestRecordRepository_Create_ServerIDImmutable(t *testing.T) {
	repo := newTestRepository(t)

	_, err := create(t, repo, "note", models.Fields{models.FieldLocalID: "l1", models.FieldServerID: "s1"}, false)
	require.NoError(t, err)

	_, err = create(t, repo, "note", models.Fields{models.FieldLocalID: "l1", models.FieldServerID: "s2"}, true)
	assert.ErrorIs(t, err, ErrServerIDImmutable)

	_, err = create(t, repo, "note", models.Fields{models.FieldLocalID: "l1", models.FieldServerID: nil}, true)
	assert.ErrorIs(t, err, ErrServerIDImmutable)

	// same value is accepted
	_, err = create(t, repo, "note", models.Fields{models.FieldLocalID: "l1", models.FieldServerID: "s1"}, true)
	assert.NoError(t, err)
}

func TestRecordRepository_Create_AssignsServerIDOnce(t *testing.T) {
	repo := newTestRepository(t)

	_, err := create(t, repo, "note", models.Fields{models.FieldLocalID: "l1"}, false)
	require.NoError(t, err)

	rec, err := create(t, repo, "note", models.Fields{models.FieldLocalID: "l1", models.FieldServerID: "s1"}, true)
	require.NoError(t, err)
	assert.Equal(t, "s1", rec.ServerID)
}

func TestRecordRepository_Create_DuplicateServerID(t *testing.T) {
	repo := newTestRepository(t)

	_, err := create(t, repo, "note", models.Fields{models.FieldServerID: "s1"}, false)
	require.NoError(t, err)

	_, err = create(t, repo, "note", models.Fields{models.FieldServerID: "s1"}, false)
	assert.ErrorIs(t, err, ErrDuplicateServerID)

	// other types may reuse the id
	_, err = create(t, repo, "tag", models.Fields{models.FieldServerID: "s1"}, false)
	assert.NoError(t, err)
}

func TestRecordRepository_Create_InvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		values   models.Fields
		wantErr  error
	}{
		{name: "empty type", typeName: "", values: models.Fields{}, wantErr: ErrInvalidRecord},
		{name: "numeric local id", typeName: "note", values: models.Fields{models.FieldLocalID: 1}, wantErr: ErrInvalidRecord},
		{name: "unknown status", typeName: "note", values: models.Fields{models.FieldSyncStatus: "lost"}, wantErr: ErrInvalidRecord},
		{name: "string deletedAt", typeName: "note", values: models.Fields{models.FieldDeletedAt: "yesterday"}, wantErr: ErrInvalidRecord},
		{name: "unsupported field", typeName: "note", values: models.Fields{"ch": make(chan int)}, wantErr: ErrEncodingFields},
	}

	repo := newTestRepository(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := create(t, repo, tt.typeName, tt.values, false)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecordRepository_Create_SoftDeleteAndRestore(t *testing.T) {
	repo := newTestRepository(t)
	deletedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := create(t, repo, "note", models.Fields{models.FieldLocalID: "l1"}, false)
	require.NoError(t, err)

	rec, err := create(t, repo, "note", models.Fields{models.FieldLocalID: "l1", models.FieldDeletedAt: deletedAt}, true)
	require.NoError(t, err)
	assert.True(t, rec.IsDeleted())

	rec, err = create(t, repo, "note", models.Fields{models.FieldLocalID: "l1", models.FieldDeletedAt: nil}, true)
	require.NoError(t, err)
	assert.False(t, rec.IsDeleted())
}

// ── Write ────────────────────────────────────────────────────────────────────

func TestRecordRepository_Write_RollsBackOnError(t *testing.T) {
	repo := newTestRepository(t)
	boom := errors.New("boom")

	err := repo.Write(context.Background(), func(tx Txn) error {
		if _, err := tx.Create("note", models.Fields{models.FieldLocalID: "l1"}, false); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.Get(context.Background(), "note", "l1")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordRepository_Write_CommitFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	err := repo.Write(context.Background(), func(tx Txn) error { return nil })
	assert.ErrorIs(t, err, ErrCommitingTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_Write_BeginFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	called := false
	err := repo.Write(context.Background(), func(tx Txn) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrBeginningTransaction)
	assert.False(t, called)
}

func TestRecordRepository_Write_RetriesBusyDatabase(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin().WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := repo.Write(context.Background(), func(tx Txn) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ── Query ────────────────────────────────────────────────────────────────────

func TestRecordRepository_Query_Predicates(t *testing.T) {
	repo := newTestRepository(t)
	deletedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []models.Fields{
		{models.FieldLocalID: "a", models.FieldServerID: "s-a", models.FieldSyncStatus: models.SyncStatusSynced, "color": "red"},
		{models.FieldLocalID: "b", models.FieldServerID: "s-b", models.FieldSyncStatus: models.SyncStatusSynced, models.FieldDeletedAt: deletedAt},
		{models.FieldLocalID: "c", models.FieldSyncStatus: models.SyncStatusPending, "color": "blue", "pinned": true},
		{models.FieldLocalID: "d", models.FieldServerID: "s-d", models.FieldSyncStatus: models.SyncStatusFailed, "rank": int64(2)},
	}
	require.NoError(t, repo.Write(context.Background(), func(tx Txn) error {
		for _, values := range seed {
			if _, err := tx.Create("note", values, false); err != nil {
				return err
			}
		}
		_, err := tx.Create("tag", models.Fields{models.FieldLocalID: "t"}, false)
		return err
	}))

	tests := []struct {
		name string
		pred Predicate
		want []string
	}{
		{name: "all of type", pred: nil, want: []string{"a", "b", "c", "d"}},
		{name: "server id eq", pred: ServerIDEq("s-d"), want: []string{"d"}},
		{name: "server id in", pred: ServerIDIn("s-a", "s-b", "missing"), want: []string{"a", "b"}},
		{name: "server id in empty", pred: ServerIDIn(), want: nil},
		{name: "has server id", pred: HasServerID(), want: []string{"a", "b", "d"}},
		{name: "not deleted", pred: NotDeleted(), want: []string{"a", "c", "d"}},
		{name: "deleted", pred: Deleted(), want: []string{"b"}},
		{name: "pending or failed", pred: SyncStatusIn(models.SyncStatusPending, models.SyncStatusFailed), want: []string{"c", "d"}},
		{name: "field string", pred: FieldEq("color", "blue"), want: []string{"c"}},
		{name: "field bool", pred: FieldEq("pinned", true), want: []string{"c"}},
		{name: "field int", pred: FieldEq("rank", 2), want: []string{"d"}},
		{name: "and", pred: And(HasServerID(), NotDeleted(), SyncStatusIn(models.SyncStatusSynced)), want: []string{"a"}},
		{name: "local ids", pred: LocalIDIn("c", "a"), want: []string{"a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := repo.Query(context.Background(), "note", tt.pred)
			require.NoError(t, err)

			var got []string
			for _, r := range records {
				got = append(got, r.LocalID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordRepository_Query_UnsupportedFieldFilter(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Query(context.Background(), "note", FieldEq("tags", []string{"x"}))
	assert.ErrorIs(t, err, ErrBuildingSQLQuery)
}

func TestRecordRepository_Get_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(context.Background(), "note", "nope")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

// ── SQLiteErrorClassifier ────────────────────────────────────────────────────

func TestSQLiteErrorClassifier_Classify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{name: "nil", err: nil, want: NonRetryable},
		{name: "busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, want: Retryable},
		{name: "locked wrapped", err: errors.Join(errors.New("ctx"), sqlite3.Error{Code: sqlite3.ErrLocked}), want: Retryable},
		{name: "constraint", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, want: NonRetryable},
		{name: "other", err: errors.New("boom"), want: NonRetryable},
	}

	c := NewSQLiteErrorClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.err))
		})
	}
}
