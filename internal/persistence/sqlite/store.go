// Package sqlite persists model snapshots in a single SQLite table as
// JSON blobs, one row per model, snapshotting after every save.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"geomcore/internal/persistence"
)

// Compile-time contract assertion.
var _ persistence.Store = (*Store)(nil)

// Store is a snapshotting SQLite-backed model store.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database file at path and ensures the
// snapshot table exists. An empty path defaults to ./geomcore.db.
func New(path string) (*Store, error) {
	if path == "" {
		path = "geomcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS models (
		name TEXT PRIMARY KEY,
		snapshot BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create models table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// SaveSnapshot upserts the JSON-encoded snapshot under its model name.
func (s *Store) SaveSnapshot(ctx context.Context, snap persistence.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO models(name,snapshot) VALUES(?,?) ON CONFLICT(name) DO UPDATE SET snapshot=excluded.snapshot`,
		snap.Name, data)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", snap.Name, err)
	}
	return nil
}

// LoadSnapshot decodes the stored snapshot for name.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (persistence.Snapshot, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM models WHERE name=?`, name).Scan(&data)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE name=?`, name)
	if err != nil {
		return false, fmt.Errorf("delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
