package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
)

// localRecordStore is the SQLite-backed implementation of [LocalStore] for a
// single collection. Revision tokens and timestamps are generated here so the
// data-model invariants (descending revisions, strictly increasing
// UpdatedAt) hold no matter which caller mutates the store.
type localRecordStore struct {
	db         *sql.DB
	collection string
	logger     *logger.Logger
}

// NewLocalStore constructs a [LocalStore] for one collection backed by the
// given SQLite connection.
func NewLocalStore(db *sql.DB, collection string, log *logger.Logger) LocalStore {
	return &localRecordStore{
		db:         db,
		collection: collection,
		logger:     log,
	}
}

func (l *localRecordStore) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	log := logger.FromContext(ctx)

	if rec.ID == "" {
		rec.ID = utils.NewRecordID()
	}

	now := time.Now().UTC()
	rec.Revision = utils.NewRevision("")
	rec.ParentRevision = ""
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Deleted = false
	rec.SyncStatus = models.StatusPending
	rec.LastSyncedAt = nil

	if rec.Fields == nil {
		rec.Fields = json.RawMessage(`{}`)
	}

	_, err := l.db.ExecContext(ctx, insertRecord,
		rec.ID,
		rec.Revision,
		rec.ParentRevision,
		string(rec.Fields),
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.Deleted,
		string(rec.SyncStatus),
		nil,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Record{}, fmt.Errorf("%w (id=%s)", ErrRecordExists, rec.ID)
		}
		log.Err(err).
			Str("func", "localRecordStore.Create").
			Str("collection", l.collection).
			Str("id", rec.ID).
			Msg("failed to insert record")
		return models.Record{}, fmt.Errorf("failed to create record (id=%s): %w", rec.ID, err)
	}

	return rec, nil
}

func (l *localRecordStore) Get(ctx context.Context, id string) (models.Record, error) {
	row := l.db.QueryRowContext(ctx, selectRecord, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, fmt.Errorf("%w (id=%s)", ErrNotFound, id)
		}
		logger.FromContext(ctx).Err(err).
			Str("func", "localRecordStore.Get").
			Str("collection", l.collection).
			Str("id", id).
			Msg("failed to scan record row")
		return models.Record{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return rec, nil
}

func (l *localRecordStore) Update(ctx context.Context, rec models.Record) (models.Record, error) {
	head, err := l.Get(ctx, rec.ID)
	if err != nil {
		return models.Record{}, err
	}

	base := rec.Revision
	if base != head.Revision {
		return models.Record{}, fmt.Errorf("%w (id=%s, base=%s, head=%s)",
			ErrRevisionConflict, rec.ID, base, head.Revision)
	}

	next := head
	next.Revision = utils.NewRevision(base)
	next.ParentRevision = base
	next.Fields = rec.Fields
	next.UpdatedAt = nextTimestamp(head.UpdatedAt)
	next.Deleted = rec.Deleted
	next.SyncStatus = models.StatusPending

	if err := l.writeHead(ctx, next, base); err != nil {
		return models.Record{}, err
	}

	return next, nil
}

func (l *localRecordStore) Delete(ctx context.Context, id string, baseRevision string) (models.Record, error) {
	head, err := l.Get(ctx, id)
	if err != nil {
		return models.Record{}, err
	}
	if baseRevision != head.Revision {
		return models.Record{}, fmt.Errorf("%w (id=%s, base=%s, head=%s)",
			ErrRevisionConflict, id, baseRevision, head.Revision)
	}

	tombstone := head
	tombstone.Revision = utils.NewRevision(baseRevision)
	tombstone.ParentRevision = baseRevision
	tombstone.UpdatedAt = nextTimestamp(head.UpdatedAt)
	tombstone.Deleted = true
	tombstone.SyncStatus = models.StatusPending

	if err := l.writeHead(ctx, tombstone, baseRevision); err != nil {
		return models.Record{}, err
	}

	return tombstone, nil
}

// writeHead performs the optimistic head swap: the UPDATE is guarded by the
// base revision, so a concurrent writer that advanced the head first makes
// this call fail with ErrRevisionConflict instead of losing their write.
func (l *localRecordStore) writeHead(ctx context.Context, rec models.Record, baseRevision string) error {
	log := logger.FromContext(ctx)

	res, err := l.db.ExecContext(ctx, updateRecordHead,
		rec.Revision,
		rec.ParentRevision,
		string(rec.Fields),
		rec.UpdatedAt,
		rec.Deleted,
		string(rec.SyncStatus),
		lastSyncedArg(rec.LastSyncedAt),
		rec.ID,
		baseRevision,
	)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordStore.writeHead").
			Str("collection", l.collection).
			Str("id", rec.ID).
			Msg("failed to execute head update")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w (id=%s, base=%s)", ErrRevisionConflict, rec.ID, baseRevision)
	}

	return nil
}

func (l *localRecordStore) Query(ctx context.Context, q models.Query) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildRecordQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordStore.Query").
			Str("collection", l.collection).
			Msg("failed to execute record query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (l *localRecordStore) ListPending(ctx context.Context) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	rows, err := l.db.QueryContext(ctx, selectPendingRecords)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordStore.ListPending").
			Str("collection", l.collection).
			Msg("failed to query pending records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (l *localRecordStore) ListConflicts(ctx context.Context) ([]models.Conflict, error) {
	log := logger.FromContext(ctx)

	rows, err := l.db.QueryContext(ctx, selectConflictBranches)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordStore.ListConflicts").
			Str("collection", l.collection).
			Msg("failed to query conflict branches")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	branches := make(map[string][]models.Record)
	var order []string

	for rows.Next() {
		var recordID, branchJSON string
		if err := rows.Scan(&recordID, &branchJSON); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		var branch models.Record
		if err := json.Unmarshal([]byte(branchJSON), &branch); err != nil {
			return nil, fmt.Errorf("failed to decode conflict branch (id=%s): %w", recordID, err)
		}

		if _, seen := branches[recordID]; !seen {
			order = append(order, recordID)
		}
		branches[recordID] = append(branches[recordID], branch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	conflicts := make([]models.Conflict, 0, len(order))
	for _, id := range order {
		conflict := models.Conflict{RecordID: id}

		// The local head participates in resolution alongside the stored
		// remote branches.
		head, err := l.Get(ctx, id)
		if err == nil {
			conflict.Branches = append(conflict.Branches, head)
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		conflict.Branches = append(conflict.Branches, branches[id]...)
		conflicts = append(conflicts, conflict)
	}

	return conflicts, nil
}

func (l *localRecordStore) RegisterConflict(ctx context.Context, branch models.Record) error {
	log := logger.FromContext(ctx)

	branchJSON, err := json.Marshal(branch)
	if err != nil {
		return fmt.Errorf("failed to encode conflict branch (id=%s): %w", branch.ID, err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, insertConflictBranch,
		branch.ID, branch.Revision, string(branchJSON), time.Now().UTC(),
	); err != nil {
		log.Err(err).
			Str("func", "localRecordStore.RegisterConflict").
			Str("collection", l.collection).
			Str("id", branch.ID).
			Msg("failed to insert conflict branch")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if _, err = tx.ExecContext(ctx, markRecordConflicted, branch.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommittingTransaction, err)
	}

	return nil
}

func (l *localRecordStore) ResolveConflict(ctx context.Context, recordID string, winner models.Record, status models.SyncStatus) error {
	log := logger.FromContext(ctx)

	winner.SyncStatus = status

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, replaceRecordHead,
		winner.ID,
		winner.Revision,
		winner.ParentRevision,
		string(winner.Fields),
		winner.CreatedAt,
		winner.UpdatedAt,
		winner.Deleted,
		string(winner.SyncStatus),
		lastSyncedArg(winner.LastSyncedAt),
	); err != nil {
		log.Err(err).
			Str("func", "localRecordStore.ResolveConflict").
			Str("collection", l.collection).
			Str("id", recordID).
			Msg("failed to install conflict winner")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if _, err = tx.ExecContext(ctx, deleteConflictBranches, recordID); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommittingTransaction, err)
	}

	return nil
}

func (l *localRecordStore) ApplyRemote(ctx context.Context, rec models.Record) error {
	log := logger.FromContext(ctx)

	now := time.Now().UTC()
	rec.SyncStatus = models.StatusSynced
	rec.LastSyncedAt = &now
	if rec.Fields == nil {
		rec.Fields = json.RawMessage(`{}`)
	}

	if _, err := l.db.ExecContext(ctx, upsertRemoteRecord,
		rec.ID,
		rec.Revision,
		rec.ParentRevision,
		string(rec.Fields),
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.Deleted,
		string(rec.SyncStatus),
		now,
	); err != nil {
		log.Err(err).
			Str("func", "localRecordStore.ApplyRemote").
			Str("collection", l.collection).
			Str("id", rec.ID).
			Msg("failed to upsert remote record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (l *localRecordStore) MarkSynced(ctx context.Context, id string, revision string, at time.Time) error {
	log := logger.FromContext(ctx)

	// Guarded by revision: a record mutated while its push was in flight
	// keeps its pending status and the newer head is pushed next cycle.
	if _, err := l.db.ExecContext(ctx, markRecordSynced, at.UTC(), id, revision); err != nil {
		log.Err(err).
			Str("func", "localRecordStore.MarkSynced").
			Str("collection", l.collection).
			Str("id", id).
			Msg("failed to mark record synced")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (l *localRecordStore) MarkError(ctx context.Context, id string) error {
	if _, err := l.db.ExecContext(ctx, markRecordError, id); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localRecordStore.MarkError").
			Str("collection", l.collection).
			Str("id", id).
			Msg("failed to mark record errored")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (l *localRecordStore) Purge(ctx context.Context, id string) error {
	if _, err := l.db.ExecContext(ctx, purgeRecord, id); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localRecordStore.Purge").
			Str("collection", l.collection).
			Str("id", id).
			Msg("failed to purge tombstone")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (l *localRecordStore) Cursor(ctx context.Context) (string, error) {
	var cursor string
	err := l.db.QueryRowContext(ctx, selectCursor).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return cursor, nil
}

func (l *localRecordStore) SaveCursor(ctx context.Context, cursor string) error {
	if _, err := l.db.ExecContext(ctx, saveCursor, cursor); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (l *localRecordStore) Close() error {
	return l.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var rec models.Record
	var fields string
	var status string
	var lastSynced sql.NullTime

	err := row.Scan(
		&rec.ID,
		&rec.Revision,
		&rec.ParentRevision,
		&fields,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.Deleted,
		&status,
		&lastSynced,
	)
	if err != nil {
		return models.Record{}, err
	}

	rec.Fields = json.RawMessage(fields)
	rec.SyncStatus = models.SyncStatus(status)
	if lastSynced.Valid {
		at := lastSynced.Time
		rec.LastSyncedAt = &at
	}

	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	var records []models.Record

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

// nextTimestamp guarantees the strictly-increasing UpdatedAt invariant even
// when the wall clock has not advanced past the previous mutation.
func nextTimestamp(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

func lastSyncedArg(at *time.Time) any {
	if at == nil {
		return nil
	}
	return at.UTC()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
