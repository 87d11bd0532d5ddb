// Package status tracks per-sub-component state flags for objects built
// from many addressable parts, and maintains a lazily recomputed summary
// of those flags. Sub-components are addressed by structural index, never
// by pointer, so the flags survive storage reallocation inside the owner.
package status

// Status is a bit set of per-component state flags.
type Status uint32

const (
	// Selected marks a component picked by an interactive selection.
	Selected Status = 1 << iota
	// Highlighted marks a component drawn with highlight appearance.
	Highlighted
	// Hidden marks a component excluded from display.
	Hidden
	// Locked marks a component excluded from modification.
	Locked
	// Damaged marks a component whose data failed an integrity check.
	Damaged
)

// None is the empty flag set.
const None Status = 0

// AllSet reports whether every bit of mask is set on s. An empty mask
// matches nothing.
func (s Status) AllSet(mask Status) bool {
	return mask != None && s&mask == mask
}

// SomeSet reports whether at least one bit of mask is set on s.
func (s Status) SomeSet(mask Status) bool {
	return s&mask != None
}

// Set returns s with the bits of mask added.
func (s Status) Set(mask Status) Status { return s | mask }

// Clear returns s with the bits of mask removed.
func (s Status) Clear(mask Status) Status { return s &^ mask }

// ComponentKind partitions the structural index space of a composite
// object, e.g. vertices, edges and faces each form their own kind.
type ComponentKind uint8

const (
	// KindUnset is the zero kind for callers that address a flat space.
	KindUnset ComponentKind = iota
	// KindVertex addresses point-like sub-components.
	KindVertex
	// KindEdge addresses curve-like sub-components.
	KindEdge
	// KindFace addresses surface-like sub-components.
	KindFace
)

// ComponentIndex is the structural address of a sub-component within its
// owner. It stays valid across reallocation of the owner's storage.
type ComponentIndex struct {
	Kind  ComponentKind
	Index int
}

// Less orders component indices by kind, then index, giving query results
// a deterministic order.
func (c ComponentIndex) Less(o ComponentIndex) bool {
	if c.Kind != o.Kind {
		return c.Kind < o.Kind
	}
	return c.Index < o.Index
}
