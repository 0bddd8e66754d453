package store

import (
	"context"
	"database/sql"
	"fmt"
)

// sqlStore serves bulk reads from a single records table shared by the sqlite
// and postgres backends. Only the dialect-specific statements differ.
type sqlStore struct {
	db      *sql.DB
	backend string

	selectSQL string
	upsertSQL string
}

func (s *sqlStore) query(ctx context.Context, q Query) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.selectSQL, string(q.Category))
	if err != nil {
		return nil, NewStoreError(s.backend, "query", q.Category, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, NewStoreError(s.backend, "scan", q.Category, err)
		}
		out = append(out, Record{Category: q.Category, Data: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, NewStoreError(s.backend, "query", q.Category, err)
	}
	return out, nil
}

// seed upserts every fixture payload inside one transaction.
func (s *sqlStore) seed(ctx context.Context, fx Fixture) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStoreError(s.backend, "seed", "", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for c, items := range fx {
		for _, item := range items {
			id, err := RecordID(item)
			if err != nil {
				return NewStoreError(s.backend, "seed", c, err)
			}
			if _, err := tx.ExecContext(ctx, s.upsertSQL, string(c), id, []byte(item)); err != nil {
				return NewStoreError(s.backend, "seed", c, fmt.Errorf("upsert %s: %w", id, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError(s.backend, "seed", "", err)
	}
	return nil
}

func (s *sqlStore) ping(ctx context.Context) error {
	return NewStoreError(s.backend, "ping", "", s.db.PingContext(ctx))
}

func (s *sqlStore) close() error {
	return s.db.Close()
}
