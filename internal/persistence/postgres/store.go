// Package postgres persists model snapshots in a PostgreSQL table,
// mirroring the sqlite backend's one-row-per-model layout.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"geomcore/internal/persistence"
)

// Compile-time contract assertion.
var _ persistence.Store = (*Store)(nil)

const (
	driverName = "pgx"
	defaultDSN = "postgres://localhost/geomcore?sslmode=disable"
)

// sqlOpen is swapped out by tests that stub the database.
var sqlOpen = sql.Open

// Store is a snapshotting Postgres-backed model store.
type Store struct {
	db *sql.DB
}

// New opens a Postgres store using dsn (falling back to a localhost
// default) and ensures the snapshot table exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS models (
		name TEXT PRIMARY KEY,
		snapshot BYTEA NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create models table: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveSnapshot upserts the JSON-encoded snapshot under its model name.
func (s *Store) SaveSnapshot(ctx context.Context, snap persistence.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO models(name,snapshot) VALUES($1,$2) ON CONFLICT(name) DO UPDATE SET snapshot=excluded.snapshot`,
		snap.Name, data)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", snap.Name, err)
	}
	return nil
}

// LoadSnapshot decodes the stored snapshot for name.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (persistence.Snapshot, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM models WHERE name=$1`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Snapshot{}, false, nil
	}
	if err != nil {
		return persistence.Snapshot{}, false, fmt.Errorf("select snapshot: %w", err)
	}
	var snap persistence.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return persistence.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return snap, true, nil
}

// ListModels returns the stored model names in name order.
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM models ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select models: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteModel removes the snapshot stored under name.
func (s *Store) DeleteModel(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE name=$1`, name)
	if err != nil {
		return false, fmt.Errorf("delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DB exposes the underlying handle for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
