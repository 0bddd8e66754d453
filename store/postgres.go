package store

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	postgresDriver = "pgx"
	// DefaultPostgresDSN is used when no DSN is configured.
	DefaultPostgresDSN = "postgres://localhost/hrref?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// PostgresStore reads records from a Postgres table with JSONB payloads.
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore connects to dsn (falls back to DefaultPostgresDSN), pings
// the server and ensures the records table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		dsn = DefaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, NewStoreError("postgres", "open", "", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, NewStoreError("postgres", "ping", "", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS records (
		category TEXT NOT NULL,
		id TEXT NOT NULL,
		payload JSONB NOT NULL,
		seq BIGSERIAL,
		PRIMARY KEY (category, id)
	)`); err != nil {
		_ = db.Close()
		return nil, NewStoreError("postgres", "migrate", "", err)
	}

	return &PostgresStore{
		sqlStore: sqlStore{
			db:        db,
			backend:   "postgres",
			selectSQL: `SELECT payload FROM records WHERE category = $1 ORDER BY seq`,
			upsertSQL: `INSERT INTO records(category, id, payload) VALUES($1, $2, $3)
				ON CONFLICT(category, id) DO UPDATE SET payload = excluded.payload`,
		},
	}, nil
}

// Query implements Client.
func (s *PostgresStore) Query(ctx context.Context, q Query) ([]Record, error) {
	return s.query(ctx, q)
}

// Seed upserts the fixture into the records table.
func (s *PostgresStore) Seed(ctx context.Context, fx Fixture) error {
	return s.seed(ctx, fx)
}

// Ping implements Pinger.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close implements Client.
func (s *PostgresStore) Close() error {
	return s.close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *PostgresStore) DB() *sql.DB { return s.db }
