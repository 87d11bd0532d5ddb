package extension

import (
	"github.com/google/uuid"
)

// ConflictResolution selects which of two same-identified items survives
// when a source object's item set is merged into a destination.
type ConflictResolution uint8

const (
	// KeepDestination keeps the destination item unconditionally.
	KeepDestination ConflictResolution = iota
	// TakeSource takes the source item unconditionally.
	TakeSource
	// TakeSourceIfCountGreater takes the source item only when its
	// propagation count is strictly greater than the destination's.
	TakeSourceIfCountGreater
	// TakeSourceIfCountGreaterOrEqual takes the source item when its
	// propagation count is greater than or equal to the destination's.
	TakeSourceIfCountGreaterOrEqual
	// KeepDestinationIfCountGreater keeps the destination item only when
	// its propagation count is strictly greater than the source's.
	KeepDestinationIfCountGreater
	// KeepDestinationIfCountGreaterOrEqual keeps the destination item when
	// its propagation count is greater than or equal to the source's.
	KeepDestinationIfCountGreaterOrEqual
	// DeleteDestination removes the destination item regardless of the
	// source item, which is not transferred.
	DeleteDestination
)

// Merge copies items from source into s. Only source items with a
// strictly positive propagation count are considered; when filter is not
// the nil identifier, only the item with that identifier is considered.
// Identifier conflicts are resolved by policy. Transferred items are deep
// copies; source is never modified. The return value counts items copied
// or deleted on the destination.
//
// Plain object copy-construction and assignment use policy TakeSource
// after purging the destination set.
func (s *Store) Merge(source *Store, filter uuid.UUID, policy ConflictResolution) int {
	return s.merge(source, filter, policy, false, false)
}

// MergeMove moves items from source into s under the same selection and
// conflict rules as Merge. Transferred items change owner instead of
// being copied. When deleteUnmatched is true, every source item that was
// not selected for transfer is destroyed, leaving source empty. The
// return value counts items moved or deleted.
func (s *Store) MergeMove(source *Store, filter uuid.UUID, policy ConflictResolution, deleteUnmatched bool) int {
	return s.merge(source, filter, policy, true, deleteUnmatched)
}

func (s *Store) merge(source *Store, filter uuid.UUID, policy ConflictResolution, move, deleteUnmatched bool) int {
	if source == nil || source == s {
		return 0
	}
	count := 0
	discard := func(it Item) {
		if move && deleteUnmatched {
			source.Detach(it)
			count++
		}
	}
	for _, it := range source.Items() {
		if filter != uuid.Nil && it.ID() != filter {
			discard(it)
			continue
		}
		if it.PropagationCount() <= 0 {
			discard(it)
			continue
		}
		existing := s.Lookup(it.ID())
		if policy == DeleteDestination {
			if existing != nil {
				s.Detach(existing)
				count++
			}
			discard(it)
			continue
		}
		if !takeSource(policy, it, existing) {
			discard(it)
			continue
		}
		if existing != nil {
			s.Detach(existing)
		}
		transferred := it
		if move {
			source.Detach(it)
		} else {
			transferred = it.Clone()
		}
		transferred.bindOwner(s.owner)
		s.items = append([]Item{transferred}, s.items...)
		count++
	}
	return count
}

// takeSource applies the conflict table for one source/destination pair.
// A missing destination item always admits the source item.
func takeSource(policy ConflictResolution, src, dst Item) bool {
	if dst == nil {
		return true
	}
	switch policy {
	case KeepDestination:
		return false
	case TakeSource:
		return true
	case TakeSourceIfCountGreater:
		return src.PropagationCount() > dst.PropagationCount()
	case TakeSourceIfCountGreaterOrEqual:
		return src.PropagationCount() >= dst.PropagationCount()
	case KeepDestinationIfCountGreater:
		return dst.PropagationCount() <= src.PropagationCount()
	case KeepDestinationIfCountGreaterOrEqual:
		return dst.PropagationCount() < src.PropagationCount()
	default:
		return false
	}
}
