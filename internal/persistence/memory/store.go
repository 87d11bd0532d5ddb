// Package memory provides the in-process snapshot store used by tests
// and ephemeral tooling.
package memory

import (
	"context"
	"sort"

	"geomcore/internal/persistence"
)

// Compile-time contract assertion.
var _ persistence.Store = (*Store)(nil)

// Store keeps snapshots in a map keyed by model name.
type Store struct {
	models map[string]persistence.Snapshot
}

// New returns an empty in-memory snapshot store.
func New() *Store {
	return &Store{models: make(map[string]persistence.Snapshot)}
}

// SaveSnapshot stores a deep copy of snap under its model name.
func (s *Store) SaveSnapshot(_ context.Context, snap persistence.Snapshot) error {
	s.models[snap.Name] = cloneSnapshot(snap)
	return nil
}

// LoadSnapshot returns a deep copy of the stored snapshot for name.
func (s *Store) LoadSnapshot(_ context.Context, name string) (persistence.Snapshot, bool, error) {
	snap, ok := s.models[name]
	if !ok {
		return persistence.Snapshot{}, false, nil
	}
	return cloneSnapshot(snap), true, nil
}

// ListModels returns the stored model names, sorted.
func (s *Store) ListModels(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteModel removes the snapshot stored under name.
func (s *Store) DeleteModel(_ context.Context, name string) (bool, error) {
	if _, ok := s.models[name]; !ok {
		return false, nil
	}
	delete(s.models, name)
	return true, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func cloneSnapshot(snap persistence.Snapshot) persistence.Snapshot {
	out := persistence.Snapshot{Name: snap.Name}
	out.Objects = make([]persistence.ObjectRecord, len(snap.Objects))
	for i, rec := range snap.Objects {
		cp := rec
		cp.Payload = append([]byte(nil), rec.Payload...)
		if rec.Strings != nil {
			cp.Strings = make(map[string]string, len(rec.Strings))
			for k, v := range rec.Strings {
				cp.Strings[k] = v
			}
		}
		out.Objects[i] = cp
	}
	return out
}
