package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

// OpenLocalStore opens the SQLite-backed [LocalStore] for one collection.
// Each collection owns its own database file, <dir>/<collection>.db, so a
// corrupted or locked collection never affects another.
func OpenLocalStore(ctx context.Context, dir string, collection string, log *logger.Logger) (LocalStore, error) {
	dbFile := filepath.Join(dir, collection+".db")

	db, err := NewConnectSQLite(ctx, dbFile, log)
	if err != nil {
		return nil, fmt.Errorf("open local store for collection %q: %w", collection, err)
	}

	return NewLocalStore(db, collection, log), nil
}
