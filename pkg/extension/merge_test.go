package extension

import (
	"testing"

	"github.com/google/uuid"
)

func storeWithNote(id uuid.UUID, propagation int, text string) (*Store, *noteItem) {
	s := &Store{}
	it := newNote(id, propagation, text)
	s.Attach(it)
	return s, it
}

func TestMergePropagationGate(t *testing.T) {
	for _, tc := range []struct {
		propagation int
		copied      bool
	}{
		{2, true},
		{1, true},
		{0, false},
		{-1, false},
	} {
		src, _ := storeWithNote(uuid.New(), tc.propagation, "x")
		dst := &Store{}
		n := dst.Merge(src, uuid.Nil, TakeSource)
		if copied := n == 1; copied != tc.copied {
			t.Fatalf("propagation %d: transferred=%v, want %v", tc.propagation, copied, tc.copied)
		}
		if src.Count() != 1 {
			t.Fatalf("propagation %d: source was modified by copy merge", tc.propagation)
		}
	}
}

func TestMergeCopiesAreIndependent(t *testing.T) {
	id := uuid.New()
	src, original := storeWithNote(id, 2, "payload")
	dst := &Store{}
	if n := dst.Merge(src, uuid.Nil, TakeSource); n != 1 {
		t.Fatalf("merge transferred %d, want 1", n)
	}
	copied := dst.Lookup(id).(*noteItem)
	if copied == original {
		t.Fatal("merge transferred the source item instead of a clone")
	}
	copied.text = "mutated"
	if original.text != "payload" {
		t.Fatal("mutating the copy changed the source item")
	}
	if copied.PropagationCount() != 2 {
		t.Fatalf("copy propagation count = %d, want 2", copied.PropagationCount())
	}
}

func TestMergeFilterSelectsOneItem(t *testing.T) {
	src := &Store{}
	want := uuid.New()
	src.Attach(newNote(want, 1, "wanted"))
	src.Attach(newNote(uuid.New(), 1, "other"))
	dst := &Store{}
	if n := dst.Merge(src, want, TakeSource); n != 1 {
		t.Fatalf("filtered merge transferred %d, want 1", n)
	}
	if dst.Lookup(want) == nil || dst.Count() != 1 {
		t.Fatal("filter selected the wrong item")
	}
}

func TestMergeConflictTable(t *testing.T) {
	id := uuid.New()
	for _, tc := range []struct {
		name       string
		policy     ConflictResolution
		srcCount   int
		dstCount   int
		wantSource bool
	}{
		{"keep destination", KeepDestination, 9, 1, false},
		{"take source", TakeSource, 1, 9, true},
		{"take if greater, greater", TakeSourceIfCountGreater, 5, 3, true},
		{"take if greater, equal", TakeSourceIfCountGreater, 3, 3, false},
		{"take if greater, less", TakeSourceIfCountGreater, 2, 3, false},
		{"take if at least, equal", TakeSourceIfCountGreaterOrEqual, 3, 3, true},
		{"take if at least, less", TakeSourceIfCountGreaterOrEqual, 2, 3, false},
		{"keep if greater, dest greater", KeepDestinationIfCountGreater, 3, 5, false},
		{"keep if greater, equal", KeepDestinationIfCountGreater, 3, 3, true},
		{"keep if at least, equal", KeepDestinationIfCountGreaterOrEqual, 3, 3, false},
		{"keep if at least, dest less", KeepDestinationIfCountGreaterOrEqual, 5, 3, true},
	} {
		src, _ := storeWithNote(id, tc.srcCount, "src")
		dst, _ := storeWithNote(id, tc.dstCount, "dst")
		dst.Merge(src, uuid.Nil, tc.policy)
		got := dst.Lookup(id).(*noteItem)
		if tookSource := got.text == "src"; tookSource != tc.wantSource {
			t.Fatalf("%s: survivor is %q", tc.name, got.text)
		}
		if dst.Count() != 1 {
			t.Fatalf("%s: destination has %d items, want 1", tc.name, dst.Count())
		}
	}
}

func TestMergeNoConflictAlwaysAdmits(t *testing.T) {
	// With no destination item, every policy except DeleteDestination
	// transfers the source item.
	for _, policy := range []ConflictResolution{
		KeepDestination, TakeSource,
		TakeSourceIfCountGreater, TakeSourceIfCountGreaterOrEqual,
		KeepDestinationIfCountGreater, KeepDestinationIfCountGreaterOrEqual,
	} {
		src, _ := storeWithNote(uuid.New(), 1, "x")
		dst := &Store{}
		if n := dst.Merge(src, uuid.Nil, policy); n != 1 {
			t.Fatalf("policy %d: transferred %d, want 1", policy, n)
		}
	}
}

func TestMergeDeleteDestination(t *testing.T) {
	id := uuid.New()
	src, _ := storeWithNote(id, 5, "src")
	dst, _ := storeWithNote(id, 1, "dst")
	if n := dst.Merge(src, uuid.Nil, DeleteDestination); n != 1 {
		t.Fatalf("delete merge counted %d, want 1", n)
	}
	if dst.Count() != 0 {
		t.Fatal("destination item survived DeleteDestination")
	}
	if src.Count() != 1 {
		t.Fatal("source was modified by DeleteDestination copy merge")
	}
}

func TestMergeMoveTransfersOwnership(t *testing.T) {
	owner := &ownerStub{}
	id := uuid.New()
	src, item := storeWithNote(id, 3, "payload")
	dst := &Store{}
	dst.BindOwner(owner)
	if n := dst.MergeMove(src, uuid.Nil, TakeSource, false); n != 1 {
		t.Fatalf("move merge transferred %d, want 1", n)
	}
	if src.Count() != 0 {
		t.Fatal("moved item still attached to source")
	}
	if got := dst.Lookup(id); got != Item(item) {
		t.Fatal("move transferred a clone instead of the item")
	}
	if item.Owner() != owner {
		t.Fatal("moved item does not point at the destination owner")
	}
}

func TestMergeMoveDeleteUnmatched(t *testing.T) {
	src := &Store{}
	kept := uuid.New()
	src.Attach(newNote(kept, 2, "kept"))
	src.Attach(newNote(uuid.New(), 0, "gated"))     // fails the propagation gate
	src.Attach(newNote(uuid.New(), 5, "filtered"))  // fails the id filter
	dst := &Store{}

	n := dst.MergeMove(src, kept, TakeSource, true)
	// One moved, two destroyed.
	if n != 3 {
		t.Fatalf("move merge counted %d, want 3", n)
	}
	if src.Count() != 0 {
		t.Fatalf("source still has %d items, want 0", src.Count())
	}
	if dst.Count() != 1 || dst.Lookup(kept) == nil {
		t.Fatal("destination does not hold exactly the selected item")
	}
}

func TestMergeMoveKeepsUnmatchedWithoutDeleteFlag(t *testing.T) {
	src := &Store{}
	selected := uuid.New()
	src.Attach(newNote(selected, 1, "selected"))
	src.Attach(newNote(uuid.New(), 1, "unselected"))
	dst := &Store{}

	if n := dst.MergeMove(src, selected, TakeSource, false); n != 1 {
		t.Fatalf("move merge counted %d, want 1", n)
	}
	if src.Count() != 1 {
		t.Fatalf("source has %d items, want the unselected one", src.Count())
	}
}

func TestMergeSelfAndNilAreNoOps(t *testing.T) {
	s, _ := storeWithNote(uuid.New(), 1, "x")
	if s.Merge(s, uuid.Nil, TakeSource) != 0 {
		t.Fatal("self merge transferred items")
	}
	if s.Merge(nil, uuid.Nil, TakeSource) != 0 {
		t.Fatal("nil merge transferred items")
	}
	if s.Count() != 1 {
		t.Fatalf("count = %d, want 1", s.Count())
	}
}

func TestMergedItemIsMostRecent(t *testing.T) {
	dst := &Store{}
	dst.Attach(newNote(uuid.New(), 1, "old"))
	src, _ := storeWithNote(uuid.New(), 1, "new")
	dst.Merge(src, uuid.Nil, TakeSource)
	if got := dst.Items()[0].(*noteItem).text; got != "new" {
		t.Fatalf("most recent item is %q, want the merged one", got)
	}
}
