package store

import (
	"context"

	"github.com/MKhiriev/go-doc-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/record_repository_mock.go -package=mock

// RecordRepository is the replica-side record store. One PostgreSQL database
// serves every collection; rows are keyed by (collection, id) and every
// accepted write advances a global change sequence that drives the
// incremental change feed.
type RecordRepository interface {
	// Ping verifies the database connection; backs the /api/ping probe.
	Ping(ctx context.Context) error

	// Get returns the stored record, tombstones included.
	Get(ctx context.Context, collection string, id string) (models.Record, error)

	// Put applies one record with an optimistic check: the incoming
	// ParentRevision must match the stored head (or the record must be new).
	// Re-putting the stored revision is an idempotent no-op, which makes
	// client push retries safe. Returns [ErrRevisionConflict] on divergence.
	Put(ctx context.Context, collection string, rec models.Record) (models.Record, error)

	// BulkPut applies a batch with per-record outcomes; one failing record
	// never fails the batch.
	BulkPut(ctx context.Context, collection string, recs []models.Record) ([]models.BulkOutcome, error)

	// Changes returns records whose change sequence is greater than the
	// cursor, oldest first, plus the new cursor.
	Changes(ctx context.Context, collection string, cursor string, limit int) ([]models.Record, string, error)

	// Query returns records matching the given indexed filters.
	Query(ctx context.Context, collection string, q models.Query) ([]models.Record, error)
}
