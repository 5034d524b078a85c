package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-sync/models"
)

func TestBuildRecordQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    models.Query
		wantSQL  []string
		wantArgs []any
	}{
		{
			name:     "no filters hides tombstones",
			query:    models.Query{},
			wantSQL:  []string{"FROM records", "deleted = $1", "ORDER BY updated_at DESC"},
			wantArgs: []any{false},
		},
		{
			name:     "include deleted drops the tombstone guard",
			query:    models.Query{IncludeDeleted: true},
			wantSQL:  []string{"FROM records"},
			wantArgs: nil,
		},
		{
			name:     "equality filter",
			query:    models.Query{IncludeDeleted: true}.Where("sync_status", models.OpEq, "pending"),
			wantSQL:  []string{"sync_status = $1"},
			wantArgs: []any{"pending"},
		},
		{
			name: "range filters combine",
			query: models.Query{IncludeDeleted: true}.
				Where("updated_at", models.OpGte, "2026-01-01").
				Where("updated_at", models.OpLt, "2026-02-01"),
			wantSQL:  []string{"updated_at >= $1", "updated_at < $2"},
			wantArgs: []any{"2026-01-01", "2026-02-01"},
		},
		{
			name:    "limit is applied",
			query:   models.Query{IncludeDeleted: true, Limit: 5},
			wantSQL: []string{"LIMIT 5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildRecordQuery(tt.query)
			require.NoError(t, err)

			for _, fragment := range tt.wantSQL {
				assert.Contains(t, sql, fragment)
			}
			if tt.wantArgs != nil {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestBuildRecordQueryRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		query models.Query
	}{
		{
			name:  "non-indexed field",
			query: models.Query{}.Where("fields", models.OpEq, "x"),
		},
		{
			name:  "unknown operator",
			query: models.Query{}.Where("id", models.FilterOp("like"), "x"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildRecordQuery(tt.query)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}
