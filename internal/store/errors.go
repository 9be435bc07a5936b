package store

import "errors"

// Sentinel errors returned by the record repository to signal well-known
// failure conditions. Callers should use [errors.Is] to match against these
// values.
var (
	// ErrRecordNotFound is returned when a lookup by local id matches no
	// record of the requested type.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrRecordExists is returned by Create without updateIfExists when a
	// record with the same local id already exists.
	ErrRecordExists = errors.New("record already exists")

	// ErrServerIDImmutable is returned when a write tries to change or clear
	// the server id of a record that already has one.
	ErrServerIDImmutable = errors.New("server id is already assigned")

	// ErrDuplicateServerID is returned when two records of the same type would
	// share one server id.
	ErrDuplicateServerID = errors.New("server id is already used by another record")

	// ErrInvalidRecord is returned when a write carries an empty type name or a
	// reserved key holding a value of the wrong type.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEncodingFields is returned when the field set of a record cannot be
	// encoded for storage.
	ErrEncodingFields = errors.New("failed to encode record fields")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT against the
	// database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing an INSERT or UPDATE
	// fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails.
	ErrScanningRows = errors.New("failed to scan record rows")
)
