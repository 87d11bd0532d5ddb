// Package persistence defines the snapshot contract the kernel uses to
// keep serialized models across process restarts. A snapshot is the full
// set of object records of one model; backends persist it wholesale
// after every successful mutation, mirroring a write-behind cache.
package persistence

import (
	"context"

	"github.com/google/uuid"

	"geomcore/pkg/status"
)

// ObjectRecord is one serialized object: the stable class identifier the
// registry resolves at load time, the archive payload the object's Write
// hook produced, and the model-level component identity (id, name, kind
// and structural index). Strings mirrors the object's user strings so a
// store can be inspected without decoding payloads; the authoritative
// copy rides inside Payload and is restored by the object's Read hook.
type ObjectRecord struct {
	Class   uuid.UUID            `json:"class"`
	ID      uuid.UUID            `json:"id"`
	Name    string               `json:"name,omitempty"`
	Kind    status.ComponentKind `json:"kind,omitempty"`
	Index   int                  `json:"index"`
	Payload []byte               `json:"payload"`
	CRC     uint32               `json:"crc"`
	Strings map[string]string    `json:"strings,omitempty"`
}

// Snapshot is the persisted form of one model.
type Snapshot struct {
	Name    string         `json:"name"`
	Objects []ObjectRecord `json:"objects"`
}

// Store persists model snapshots keyed by model name.
type Store interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LoadSnapshot(ctx context.Context, name string) (Snapshot, bool, error)
	ListModels(ctx context.Context) ([]string, error)
	DeleteModel(ctx context.Context, name string) (bool, error)
	Close() error
}
