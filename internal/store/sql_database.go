package store

import (
	"database/sql"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/migrations"
)

// IDGenerator produces local ids for records created without one.
type IDGenerator interface {
	Generate() string
}

// DB wraps the SQLite connection pool shared by all repositories.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	idGenerator        IDGenerator
	now                func() time.Time
	logger             *logger.Logger
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.logger)
}
