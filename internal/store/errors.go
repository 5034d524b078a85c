package store

import "errors"

// Sentinel errors returned by store methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrNotFound is returned when a query or update targets a record that
	// does not exist in the store.
	ErrNotFound = errors.New("record was not found")

	// ErrRevisionConflict is returned when an optimistic-concurrency check
	// fails: the base revision supplied by the caller is not the current
	// head, meaning the record changed since the caller last read it. The
	// caller must re-read and retry.
	ErrRevisionConflict = errors.New("record revision conflict occurred")

	// ErrRecordExists is returned when Create targets an id that is already
	// present in the store.
	ErrRecordExists = errors.New("record already exists")

	// ErrInvalidQuery is returned when a query filter references a
	// non-indexed field or an unknown operator.
	ErrInvalidQuery = errors.New("invalid query filter")
)

// Low-level database operation errors, returned wrapped by repository
// methods when a SQL-level operation fails before any domain logic applies.
var (
	ErrExecutingQuery        = errors.New("error executing sql query")
	ErrExecutingStatement    = errors.New("failed to execute statement")
	ErrScanningRow           = errors.New("failed to scan record row")
	ErrScanningRows          = errors.New("failed to scan record rows")
	ErrBeginningTransaction  = errors.New("failed to begin transaction")
	ErrCommittingTransaction = errors.New("failed to commit transaction")
)
