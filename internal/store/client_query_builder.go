package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-sync/models"
)

// indexedColumns are the only fields a query filter may reference; each one
// is backed by an index in the local schema.
var indexedColumns = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"sync_status": true,
	"deleted":     true,
}

// buildRecordQuery translates a [models.Query] into SQL using squirrel.
// Unknown fields and operators are rejected with ErrInvalidQuery before any
// SQL reaches the database.
func buildRecordQuery(q models.Query) (string, []any, error) {
	builder := sq.Select(
		"id", "revision", "parent_revision", "fields",
		"created_at", "updated_at", "deleted", "sync_status", "last_synced_at",
	).From("records").
		PlaceholderFormat(sq.Dollar).
		OrderBy("updated_at DESC")

	if !q.IncludeDeleted {
		builder = builder.Where(sq.Eq{"deleted": false})
	}

	for _, f := range q.Filters {
		if !indexedColumns[f.Field] {
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
