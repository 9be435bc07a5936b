package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/models"
)

const (
	writeRetries     = 3
	writeBackoffBase = 20 * time.Millisecond
)

type recordRepository struct {
	*DB
	logger *logger.Logger
}

// NewRecordRepository builds the SQLite-backed [RecordRepository].
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{
		DB:     db,
		logger: logger,
	}
}

func (r *recordRepository) Write(ctx context.Context, fn func(tx Txn) error) error {
	backoff := retry.WithMaxRetries(writeRetries, retry.NewExponential(writeBackoffBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.write(ctx, fn)
		if err != nil && r.errorClassificator.Classify(err) == Retryable {
			r.logger.Warn().Err(err).Str("func", "recordRepository.Write").Msg("database is locked, retrying transaction")
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *recordRepository) write(ctx context.Context, fn func(tx Txn) error) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "recordRepository.write").Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err = fn(&sqlTxn{ctx: ctx, q: tx, db: r.DB}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "recordRepository.write").Msg("failed to commit transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func (r *recordRepository) Query(ctx context.Context, typeName string, pred Predicate) ([]*models.Record, error) {
	return r.reader(ctx).Query(typeName, pred)
}

func (r *recordRepository) Get(ctx context.Context, typeName, localID string) (*models.Record, error) {
	return r.reader(ctx).ObjectForPrimaryKey(typeName, localID)
}

func (r *recordRepository) reader(ctx context.Context) *sqlTxn {
	return &sqlTxn{ctx: ctx, q: r.DB.DB, db: r.DB}
}
