// Package memory provides the in-process blob backend used by tests and
// ephemeral tooling.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"geomcore/internal/blob/core"
)

// Store keeps blobs in a map. Safe for the single-threaded contract of
// the kernel; no internal locking is provided.
type Store struct {
	blobs map[string]entry
}

type entry struct {
	data []byte
	info core.Info
}

// New returns an empty in-memory blob store.
func New() *Store {
	return &Store{blobs: make(map[string]entry)}
}

// Driver reports core.DriverMemory.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores the reader's bytes under key, refusing overwrites.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if _, ok := s.blobs[key]; ok {
		return core.Info{}, core.ErrExists
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return core.Info{}, err
	}
	info := core.Info{
		Key:          key,
		Size:         int64(buf.Len()),
		ContentType:  opts.ContentType,
		Metadata:     cloneMeta(opts.Metadata),
		LastModified: time.Now().UTC(),
	}
	s.blobs[key] = entry{data: buf.Bytes(), info: info}
	return info, nil
}

// Get returns the blob stored under key.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	e, ok := s.blobs[key]
	if !ok {
		return core.Info{}, nil, core.ErrNotFound
	}
	return e.info, io.NopCloser(bytes.NewReader(e.data)), nil
}

// Head returns the metadata of the blob stored under key.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	e, ok := s.blobs[key]
	if !ok {
		return core.Info{}, core.ErrNotFound
	}
	return e.info, nil
}

// Delete removes the blob under key, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	if _, ok := s.blobs[key]; !ok {
		return false, nil
	}
	delete(s.blobs, key)
	return true, nil
}

// List returns metadata for every blob whose key has the given prefix,
// sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var out []core.Info
	for key, e := range s.blobs {
		if strings.HasPrefix(key, prefix) {
			out = append(out, e.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func cloneMeta(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
