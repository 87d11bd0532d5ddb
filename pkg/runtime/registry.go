// Package runtime implements the class catalog that gives modeled objects
// an identity independent of the Go type system. Class definitions can be
// contributed by dynamically loaded plugins and revoked again when the
// plugin unloads, so identity, derivation and construction all route
// through an explicit registry instead of reflection.
//
// A Registry is not safe for concurrent mutation. Register, Purge and
// AdvanceGeneration must be externally synchronized when used from more
// than one goroutine.
package runtime

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNilDescriptor is returned when a nil descriptor is registered.
	ErrNilDescriptor = errors.New("runtime: nil class descriptor")
	// ErrEmptyName is returned when a descriptor carries no class name.
	ErrEmptyName = errors.New("runtime: empty class name")
	// ErrNilID is returned when a descriptor carries the nil identifier.
	ErrNilID = errors.New("runtime: nil class identifier")
	// ErrDuplicateID indicates a second live descriptor with the same
	// stable identifier. This is a caller defect, not a runtime condition,
	// but it is surfaced as an error so process init can abort cleanly.
	ErrDuplicateID = errors.New("runtime: duplicate class identifier")
	// ErrDerivationCycle indicates the registration would close a cycle in
	// the parent-name chain, which would make derivation checks
	// non-terminating.
	ErrDerivationCycle = errors.New("runtime: class derivation cycle")
)

// Registry is an append-mostly catalog of class descriptors. Name lookups
// return the most recently registered match, so a plugin may shadow a host
// class by name; identifier lookups are unique by construction.
type Registry struct {
	ordered []*ClassDescriptor
	byID    map[uuid.UUID]*ClassDescriptor
	mark    int
}

// NewRegistry constructs an empty class catalog. Generation marks start at
// zero, reserved for the core library's own classes.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[uuid.UUID]*ClassDescriptor),
	}
}

// Register appends a descriptor to the catalog, stamping it with the
// current generation mark. Duplicate names are permitted (the newest wins
// for name lookup); duplicate identifiers and parent-name cycles are
// refused.
func (r *Registry) Register(d *ClassDescriptor) error {
	if d == nil {
		return ErrNilDescriptor
	}
	if d.name == "" {
		return ErrEmptyName
	}
	if d.id == uuid.Nil {
		return ErrNilID
	}
	if prev, ok := r.byID[d.id]; ok {
		return fmt.Errorf("%w: %s already registered as %s", ErrDuplicateID, d.id, prev.name)
	}
	if r.wouldCycle(d) {
		return fmt.Errorf("%w: %s -> %s", ErrDerivationCycle, d.name, d.baseName)
	}
	d.mark = r.mark
	r.ordered = append(r.ordered, d)
	r.byID[d.id] = d
	return nil
}

// wouldCycle walks the parent-name chain that would exist after inserting
// d and reports whether it revisits d's own name. Unknown base names
// terminate the walk; they are tolerated, not errors.
func (r *Registry) wouldCycle(d *ClassDescriptor) bool {
	seen := map[string]bool{d.name: true}
	next := d.baseName
	for next != "" {
		if seen[next] {
			return true
		}
		seen[next] = true
		parent := r.ResolveName(next)
		if parent == nil {
			return false
		}
		next = parent.baseName
	}
	return false
}

// ResolveName returns the most recently registered descriptor with the
// given name, or nil if none is live. The newest-wins rule is deliberate:
// it lets a plugin override a host class for the duration of its load.
func (r *Registry) ResolveName(name string) *ClassDescriptor {
	if name == "" {
		return nil
	}
	for i := len(r.ordered) - 1; i >= 0; i-- {
		if r.ordered[i].name == name {
			return r.ordered[i]
		}
	}
	return nil
}

// ResolveID returns the descriptor with the given stable identifier, or
// nil if none is live.
func (r *Registry) ResolveID(id uuid.UUID) *ClassDescriptor {
	if id == uuid.Nil {
		return nil
	}
	return r.byID[id]
}

// IsDerivedFrom walks the parent-name chain from d upward and reports
// whether ancestor is reached. The check is reflexive: a descriptor
// derives from itself. A dangling parent name (its class was purged, or
// never registered) terminates the walk and the check reports false.
// The walk is bounded by a visited set: registration refuses cycles
// against the name holders live at the time, but a later Purge can
// uncover a shadowed descriptor that closes one.
func (r *Registry) IsDerivedFrom(d, ancestor *ClassDescriptor) bool {
	if d == nil || ancestor == nil {
		return false
	}
	seen := make(map[uuid.UUID]bool)
	for d != nil && !seen[d.id] {
		if d == ancestor || d.id == ancestor.id {
			return true
		}
		seen[d.id] = true
		d = r.ResolveName(d.baseName)
	}
	return false
}

// AdvanceGeneration increments and returns the generation mark stamped on
// every subsequent registration. Call it immediately before loading a
// dynamic module so the module's classes can later be purged as a batch.
func (r *Registry) AdvanceGeneration() int {
	r.mark++
	return r.mark
}

// CurrentGeneration returns the mark applied to new registrations.
func (r *Registry) CurrentGeneration() int { return r.mark }

// Purge removes every descriptor whose generation mark equals mark and
// returns the number removed. Call it immediately before unloading the
// module that registered them. Descriptors whose parent chain referenced
// a purged class are left in place; their derivation checks simply
// terminate at the dangling name.
func (r *Registry) Purge(mark int) int {
	kept := r.ordered[:0]
	purged := 0
	for _, d := range r.ordered {
		if d.mark == mark {
			delete(r.byID, d.id)
			purged++
			continue
		}
		kept = append(kept, d)
	}
	for i := len(kept); i < len(r.ordered); i++ {
		r.ordered[i] = nil
	}
	r.ordered = kept
	return purged
}

// Create default-constructs an instance of the class d describes, or
// returns nil when the class is abstract (no factory).
func (r *Registry) Create(d *ClassDescriptor) Object {
	if d == nil || d.factory == nil {
		return nil
	}
	return d.factory()
}

// Descriptors returns a registration-order snapshot of the live catalog.
func (r *Registry) Descriptors() []*ClassDescriptor {
	out := make([]*ClassDescriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of live descriptors.
func (r *Registry) Len() int { return len(r.ordered) }
