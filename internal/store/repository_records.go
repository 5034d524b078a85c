package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

// recordRepository is the PostgreSQL-backed implementation of
// [RecordRepository].
type recordRepository struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewRecordRepository constructs a [RecordRepository] backed by the given
// database connection.
func NewRecordRepository(db *sql.DB, log *logger.Logger) RecordRepository {
	return &recordRepository{
		db:     db,
		logger: log,
	}
}

func (r *recordRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *recordRepository) Get(ctx context.Context, collection string, id string) (models.Record, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, selectRemoteRecord, collection, id)

	rec, err := scanRemoteRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, fmt.Errorf("%w (collection=%s, id=%s)", ErrNotFound, collection, id)
		}
		log.Err(err).
			Str("func", "recordRepository.Get").
			Str("collection", collection).
			Str("id", id).
			Msg("failed to scan record row")
		return models.Record{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return rec, nil
}

func (r *recordRepository) Put(ctx context.Context, collection string, rec models.Record) (models.Record, error) {
	log := logger.FromContext(ctx)

	stored, err := r.Get(ctx, collection, rec.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		return r.insert(ctx, collection, rec)
	case err != nil:
		return models.Record{}, err
	}

	// Idempotent retry: the pushed revision is already the stored head.
	if stored.Revision == rec.Revision {
		return stored, nil
	}

	if stored.Revision != rec.ParentRevision {
		return models.Record{}, fmt.Errorf("%w (collection=%s, id=%s, head=%s, parent=%s)",
			ErrRevisionConflict, collection, rec.ID, stored.Revision, rec.ParentRevision)
	}

	res, err := r.db.ExecContext(ctx, updateRemoteRecord,
		rec.Revision,
		rec.ParentRevision,
		fieldsArg(rec.Fields),
		rec.UpdatedAt,
		rec.Deleted,
		collection,
		rec.ID,
		stored.Revision,
	)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Put").
			Str("collection", collection).
			Str("id", rec.ID).
			Msg("failed to update record")
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		// Lost the race against a concurrent writer that advanced the head.
		return models.Record{}, fmt.Errorf("%w (collection=%s, id=%s)", ErrRevisionConflict, collection, rec.ID)
	}

	return rec, nil
}

func (r *recordRepository) insert(ctx context.Context, collection string, rec models.Record) (models.Record, error) {
	log := logger.FromContext(ctx)

	_, err := r.db.ExecContext(ctx, insertRemoteRecord,
		collection,
		rec.ID,
		rec.Revision,
		rec.ParentRevision,
		fieldsArg(rec.Fields),
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.Deleted,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			// Concurrent first-insert of the same id: the other writer won.
			return models.Record{}, fmt.Errorf("%w (collection=%s, id=%s)", ErrRevisionConflict, collection, rec.ID)
		}
		log.Err(err).
			Str("func", "recordRepository.insert").
			Str("collection", collection).
			Str("id", rec.ID).
			Msg("failed to insert record")
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return rec, nil
}

func (r *recordRepository) BulkPut(ctx context.Context, collection string, recs []models.Record) ([]models.BulkOutcome, error) {
	outcomes := make([]models.BulkOutcome, 0, len(recs))

	for _, rec := range recs {
		stored, err := r.Put(ctx, collection, rec)
		switch {
		case err == nil:
			outcomes = append(outcomes, models.BulkOutcome{
				ID:       rec.ID,
				Revision: stored.Revision,
				Status:   models.OutcomeOK,
			})
		case errors.Is(err, ErrRevisionConflict):
			outcomes = append(outcomes, models.BulkOutcome{
				ID:      rec.ID,
				Status:  models.OutcomeConflict,
				Message: err.Error(),
			})
		default:
			outcomes = append(outcomes, models.BulkOutcome{
				ID:      rec.ID,
				Status:  models.OutcomeError,
				Message: err.Error(),
			})
		}
	}

	return outcomes, nil
}

func (r *recordRepository) Changes(ctx context.Context, collection string, cursor string, limit int) ([]models.Record, string, error) {
	log := logger.FromContext(ctx)

	since, err := parseCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, selectRemoteChanges, collection, since, limit)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Changes").
			Str("collection", collection).
			Str("cursor", cursor).
			Msg("failed to query change feed")
		return nil, "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.Record
	lastSeq := since

	for rows.Next() {
		var rec models.Record
		var fields []byte
		var seq int64

		if err := rows.Scan(
			&rec.ID,
			&rec.Revision,
			&rec.ParentRevision,
			&fields,
			&rec.CreatedAt,
			&rec.UpdatedAt,
			&rec.Deleted,
			&seq,
		); err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		rec.Fields = json.RawMessage(fields)
		records = append(records, rec)
		lastSeq = seq
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, strconv.FormatInt(lastSeq, 10), nil
}

func (r *recordRepository) Query(ctx context.Context, collection string, q models.Query) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildRemoteRecordQuery(collection, q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Query").
			Str("collection", collection).
			Msg("failed to execute record query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		rec, err := scanRemoteRecord(rows)
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

// remoteIndexedColumns mirrors indexedColumns minus the client-only
// sync_status column.
var remoteIndexedColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"deleted":    true,
}

func buildRemoteRecordQuery(collection string, q models.Query) (string, []any, error) {
	builder := sq.Select(
		"id", "revision", "parent_revision", "fields",
		"created_at", "updated_at", "deleted",
	).From("records").
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"collection": collection}).
		OrderBy("updated_at DESC")

	if !q.IncludeDeleted {
		builder = builder.Where(sq.Eq{"deleted": false})
	}

	for _, f := range q.Filters {
		if !remoteIndexedColumns[f.Field] {
			return "", nil, fmt.Errorf("%w: field %q is not indexed", ErrInvalidQuery, f.Field)
		}

		switch f.Op {
		case models.OpEq:
			builder = builder.Where(sq.Eq{f.Field: f.Value})
		case models.OpLt:
			builder = builder.Where(sq.Lt{f.Field: f.Value})
		case models.OpLte:
			builder = builder.Where(sq.LtOrEq{f.Field: f.Value})
		case models.OpGt:
			builder = builder.Where(sq.Gt{f.Field: f.Value})
		case models.OpGte:
			builder = builder.Where(sq.GtOrEq{f.Field: f.Value})
		default:
			return "", nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, f.Op)
		}
	}

	if q.Limit > 0 {
		builder = builder.Limit(q.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	return query, args, nil
}

func scanRemoteRecord(row rowScanner) (models.Record, error) {
	var rec models.Record
	var fields []byte

	err := row.Scan(
		&rec.ID,
		&rec.Revision,
		&rec.ParentRevision,
		&fields,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.Deleted,
	)
	if err != nil {
		return models.Record{}, err
	}

	rec.Fields = json.RawMessage(fields)
	return rec, nil
}

func parseCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}

	since, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil || since < 0 {
		return 0, fmt.Errorf("%w: bad cursor %q", ErrInvalidQuery, cursor)
	}

	return since, nil
}

func fieldsArg(fields json.RawMessage) []byte {
	if len(fields) == 0 {
		return []byte(`{}`)
	}
	return fields
}
