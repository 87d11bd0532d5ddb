// Package manifest models the component bookkeeping a model keeps while
// merging content from another model. Objects that hold indices or ids of
// other components consult a manifest map to rewrite those references
// when the destination model renumbers them. The core treats the mapping
// as an opaque service; only the lookup surface is defined here.
package manifest

import (
	"github.com/google/uuid"

	"geomcore/pkg/status"
)

// Record describes one addressable component of a model.
type Record struct {
	Kind  status.ComponentKind
	Index int
	ID    uuid.UUID
	Name  string
}

// Manifest is an ordered catalog of the components of one model context.
// The zero value is empty and usable.
type Manifest struct {
	records []Record
}

// Empty is the manifest callers pass when no source or destination
// context is available.
var Empty = &Manifest{}

// Add appends a component record.
func (m *Manifest) Add(r Record) { m.records = append(m.records, r) }

// Len returns the number of records.
func (m *Manifest) Len() int { return len(m.records) }

// FindID returns the record with the given component id.
func (m *Manifest) FindID(id uuid.UUID) (Record, bool) {
	for _, r := range m.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// FindIndex returns the record with the given kind and index.
func (m *Manifest) FindIndex(kind status.ComponentKind, index int) (Record, bool) {
	for _, r := range m.records {
		if r.Kind == kind && r.Index == index {
			return r, true
		}
	}
	return Record{}, false
}

// Map translates component references from a source context into the
// destination context chosen during a model merge.
type Map struct {
	ids     map[uuid.UUID]uuid.UUID
	indices map[indexKey]int
}

type indexKey struct {
	kind  status.ComponentKind
	index int
}

// NewMap constructs an empty remap table.
func NewMap() *Map {
	return &Map{
		ids:     make(map[uuid.UUID]uuid.UUID),
		indices: make(map[indexKey]int),
	}
}

// MapID records that source component id src becomes dst.
func (m *Map) MapID(src, dst uuid.UUID) { m.ids[src] = dst }

// MapIndex records that the source component (kind, src) becomes index dst.
func (m *Map) MapIndex(kind status.ComponentKind, src, dst int) {
	m.indices[indexKey{kind, src}] = dst
}

// RemapID resolves a source component id, reporting whether a mapping
// exists. Callers reset unresolved references to a default value.
func (m *Map) RemapID(src uuid.UUID) (uuid.UUID, bool) {
	if m == nil {
		return uuid.Nil, false
	}
	dst, ok := m.ids[src]
	return dst, ok
}

// RemapIndex resolves a source component index within its kind.
func (m *Map) RemapIndex(kind status.ComponentKind, src int) (int, bool) {
	if m == nil {
		return 0, false
	}
	dst, ok := m.indices[indexKey{kind, src}]
	return dst, ok
}
