package extension

import (
	"github.com/google/uuid"

	"geomcore/pkg/runtime"
)

// Store is the ordered set of extension items attached to one object.
// Index 0 is the most recently attached item; lookups scan in that order.
// The zero value is ready to use once BindOwner has been called.
type Store struct {
	owner runtime.Object
	items []Item
}

// BindOwner records the object the store belongs to. Items attached from
// then on carry it as their back-reference. Constructors of object types
// call this once; rebinding after a move transfer is also done here.
func (s *Store) BindOwner(o runtime.Object) {
	s.owner = o
	for _, it := range s.items {
		it.bindOwner(o)
	}
}

// Owner returns the object the store is bound to.
func (s *Store) Owner() runtime.Object { return s.owner }

// Attach adds item to the store. It fails, leaving the store unchanged,
// when the item is nil, carries the nil identifier, or an item with the
// same identifier is already attached. On success the store owns the item.
func (s *Store) Attach(item Item) bool {
	if item == nil || item.ID() == uuid.Nil {
		return false
	}
	if s.Lookup(item.ID()) != nil {
		return false
	}
	item.bindOwner(s.owner)
	s.items = append([]Item{item}, s.items...)
	return true
}

// Detach unlinks item from the store, returning true when it was
// attached. Ownership rests with the caller afterwards in every case, and
// the item's owner back-reference is cleared.
func (s *Store) Detach(item Item) bool {
	if item == nil {
		return false
	}
	for i, it := range s.items {
		if it == item {
			s.items = append(s.items[:i], s.items[i+1:]...)
			item.bindOwner(nil)
			return true
		}
	}
	item.bindOwner(nil)
	return false
}

// Lookup returns the attached item with the given identifier, or nil.
func (s *Store) Lookup(id uuid.UUID) Item {
	if id == uuid.Nil {
		return nil
	}
	for _, it := range s.items {
		if it.ID() == id {
			return it
		}
	}
	return nil
}

// Count returns the number of attached items.
func (s *Store) Count() int { return len(s.items) }

// Items returns a snapshot of the attached items, most recent first.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// PurgeAll destroys every attached item.
func (s *Store) PurgeAll() {
	for _, it := range s.items {
		it.bindOwner(nil)
	}
	s.items = nil
}

// Transform notifies every transform sensitive item that the owning
// object's geometry changed. Object types apply this from their own
// transform entry points.
func (s *Store) Transform(x Xform) {
	for _, it := range s.items {
		if it.TransformSensitive() {
			it.ApplyTransform(x)
		}
	}
}

// MoveAll transfers ownership of source's entire item set to s without
// per-item conflict checks, leaving source empty. Existing items on s are
// destroyed first. This is the move-construction/assignment path.
func (s *Store) MoveAll(source *Store) {
	if source == nil || source == s {
		return
	}
	s.PurgeAll()
	s.items = source.items
	source.items = nil
	for _, it := range s.items {
		it.bindOwner(s.owner)
	}
}
