package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-doc-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/local_store_mock.go -package=mock

// LocalStore is the durable per-collection record store on the client. All
// operations are synchronous from the caller's perspective and durable
// before returning success. It is the single source of truth while offline.
type LocalStore interface {
	// Create persists a new record. When rec.ID is empty a new id is
	// assigned; the first revision is generated and SyncStatus is set to
	// pending. Returns [ErrRecordExists] if the id is already taken.
	Create(ctx context.Context, rec models.Record) (models.Record, error)

	// Get returns the head revision of the record, tombstones included.
	// Returns [ErrNotFound] if the record does not exist.
	Get(ctx context.Context, id string) (models.Record, error)

	// Update replaces the record's payload. rec.Revision must carry the base
	// revision the caller read; if it is stale relative to the local head the
	// call fails with [ErrRevisionConflict]. A new descending revision is
	// generated, UpdatedAt strictly increases and SyncStatus becomes pending.
	Update(ctx context.Context, rec models.Record) (models.Record, error)

	// Delete writes a tombstone for the record through the same optimistic
	// path as Update. The tombstone is retained until the deletion is
	// confirmed synced remotely, then removed via Purge.
	Delete(ctx context.Context, id string, baseRevision string) (models.Record, error)

	// Query returns records matching the given indexed filters.
	Query(ctx context.Context, q models.Query) ([]models.Record, error)

	// ListPending returns every record whose local mutations have not been
	// confirmed on the remote replica (sync_status pending or error).
	ListPending(ctx context.Context) ([]models.Record, error)

	// ListConflicts returns all unresolved conflicts, each carrying the
	// local head and the diverged remote branches.
	ListConflicts(ctx context.Context) ([]models.Conflict, error)

	// RegisterConflict stores a diverged remote branch for the record and
	// marks the head conflicted.
	RegisterConflict(ctx context.Context, branch models.Record) error

	// ResolveConflict installs winner as the new head with the given sync
	// status and prunes all stored branches for the record.
	ResolveConflict(ctx context.Context, recordID string, winner models.Record, status models.SyncStatus) error

	// ApplyRemote upserts a record pulled from the remote replica as the new
	// head, marked synced.
	ApplyRemote(ctx context.Context, rec models.Record) error

	// MarkSynced records that the remote replica confirmed the given
	// revision. The status is cleared to synced only when revision still is
	// the local head; a record mutated mid-push stays pending.
	MarkSynced(ctx context.Context, id string, revision string, at time.Time) error

	// MarkError flags a record whose push failed with a per-record outcome.
	MarkError(ctx context.Context, id string) error

	// Purge physically removes a tombstone whose deletion has propagated to
	// the remote replica.
	Purge(ctx context.Context, id string) error

	// Cursor returns the persisted change-feed checkpoint, empty if no pull
	// has completed yet.
	Cursor(ctx context.Context) (string, error)

	// SaveCursor persists the change-feed checkpoint.
	SaveCursor(ctx context.Context, cursor string) error

	// Close releases the underlying database handle.
	Close() error
}
