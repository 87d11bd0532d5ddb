// Package extension implements typed side-data that can be attached to any
// modeled object. Items carry their own stable identity and a signed
// propagation count that controls whether they survive copies and merges;
// the store resolves identifier conflicts between two objects' item sets
// with an explicit policy table.
//
// A Store is owned exclusively by one object and is not safe for
// concurrent mutation.
package extension

import (
	"github.com/google/uuid"

	"geomcore/pkg/runtime"
)

// Xform is a row-major homogeneous transform applied to transform
// sensitive items when the owning object's geometry changes. The actual
// geometric interpretation belongs to the caller.
type Xform [4][4]float64

// IdentityXform returns the identity transform.
func IdentityXform() Xform {
	var x Xform
	for i := 0; i < 4; i++ {
		x[i][i] = 1
	}
	return x
}

// Item is the contract attached side-data satisfies. Concrete items embed
// ItemBase, which supplies identity, propagation bookkeeping and the
// owner back-reference; only Clone must be provided by the concrete type.
type Item interface {
	// ID is the item's stable identifier, unique within one object's set.
	ID() uuid.UUID
	// PropagationCount controls copy/merge survival. Only items with a
	// strictly positive count propagate to copies and merge targets.
	PropagationCount() int
	// SetPropagationCount replaces the propagation count.
	SetPropagationCount(int)
	// Owner returns the object the item is attached to, or nil when
	// detached. The reference is non-owning and lookup-only.
	Owner() runtime.Object
	// TransformSensitive reports whether the item tracks geometry and
	// must be notified when the owner is transformed.
	TransformSensitive() bool
	// ApplyTransform updates geometric payload for a transform of the
	// owning object. Items that are not transform sensitive ignore it.
	ApplyTransform(Xform)
	// Clone returns a deep copy of the item, detached from any owner.
	Clone() Item

	bindOwner(runtime.Object)
}

// ItemBase carries the bookkeeping every item needs. Embed it by value in
// concrete item types; the unexported owner hook forces that embedding so
// the store can manage attachment state.
type ItemBase struct {
	id          uuid.UUID
	propagation int
	owner       runtime.Object
}

// NewItemBase seeds an item's identity and propagation count.
func NewItemBase(id uuid.UUID, propagation int) ItemBase {
	return ItemBase{id: id, propagation: propagation}
}

// ID returns the item's stable identifier.
func (b *ItemBase) ID() uuid.UUID { return b.id }

// PropagationCount returns the signed copy/merge survival counter.
func (b *ItemBase) PropagationCount() int { return b.propagation }

// SetPropagationCount replaces the survival counter.
func (b *ItemBase) SetPropagationCount(n int) { b.propagation = n }

// Owner returns the attached-to object, nil while detached.
func (b *ItemBase) Owner() runtime.Object { return b.owner }

// TransformSensitive reports false; geometric items override it.
func (b *ItemBase) TransformSensitive() bool { return false }

// ApplyTransform is a no-op for non-geometric items.
func (b *ItemBase) ApplyTransform(Xform) {}

func (b *ItemBase) bindOwner(o runtime.Object) { b.owner = o }
