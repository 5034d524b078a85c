package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	localmigrations "github.com/MKhiriev/go-doc-sync/migrations/local"
)

// NewConnectSQLite opens (creating if needed) the SQLite database file backing
// one collection's local store, verifies the connection and runs pending
// schema migrations.
func NewConnectSQLite(ctx context.Context, dbFile string, log *logger.Logger) (*sql.DB, error) {
	if err := createLocalDBFileIfNotExists(dbFile); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file: %w", err)
	}

	// busy_timeout keeps concurrent gateway and coordinator writes from
	// failing with SQLITE_BUSY; foreign keys are on for the conflicts table.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", dbFile)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, err
	}

	if err = localmigrations.Migrate(conn); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("migration failed")
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	log.Debug().Str("func", "NewConnectSQLite").Str("db_file", dbFile).Msg("connected to local database")

	return conn, nil
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); !os.IsNotExist(err) {
		return nil
	}

	if dir := filepath.Dir(dbFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating DB dir: %w", err)
		}
	}

	f, err := os.Create(dbFile)
	if err != nil {
		return fmt.Errorf("error creating DB file: %w", err)
	}

	return f.Close()
}
