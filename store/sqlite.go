package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// DefaultSQLitePath is used when no database path is configured.
const DefaultSQLitePath = "hrref.db"

// SQLiteStore reads records from a SQLite database file.
type SQLiteStore struct {
	sqlStore
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the records table exists.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, NewStoreError("sqlite", "open", "", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS records (
		category TEXT NOT NULL,
		id TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (category, id)
	)`); err != nil {
		_ = db.Close()
		return nil, NewStoreError("sqlite", "migrate", "", err)
	}

	return &SQLiteStore{
		sqlStore: sqlStore{
			db:        db,
			backend:   "sqlite",
			selectSQL: `SELECT payload FROM records WHERE category = ? ORDER BY rowid`,
			upsertSQL: `INSERT INTO records(category, id, payload) VALUES(?, ?, ?)
				ON CONFLICT(category, id) DO UPDATE SET payload = excluded.payload`,
		},
		path: path,
	}, nil
}

// Query implements Client.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	return s.query(ctx, q)
}

// Seed upserts the fixture into the records table.
func (s *SQLiteStore) Seed(ctx context.Context, fx Fixture) error {
	return s.seed(ctx, fx)
}

// Ping implements Pinger.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close implements Client.
func (s *SQLiteStore) Close() error {
	return s.close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *SQLiteStore) Path() string { return s.path }
