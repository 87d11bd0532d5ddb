package runtime

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

type stubObject struct {
	desc *ClassDescriptor
}

func (o *stubObject) Descriptor() *ClassDescriptor { return o.desc }

func newDescriptor(name, base string) *ClassDescriptor {
	d := NewClassDescriptor(name, base, uuid.New(), nil, CloneModeAbstract)
	return d
}

func newConcreteDescriptor(name, base string) *ClassDescriptor {
	var d *ClassDescriptor
	d = NewClassDescriptor(name, base, uuid.New(), func() Object {
		return &stubObject{desc: d}
	}, CloneModeCopy)
	return d
}

func mustRegister(t *testing.T, r *Registry, d *ClassDescriptor) {
	t.Helper()
	if err := r.Register(d); err != nil {
		t.Fatalf("register %s: %v", d.Name(), err)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); !errors.Is(err, ErrNilDescriptor) {
		t.Fatalf("nil descriptor: got %v", err)
	}
	if err := r.Register(NewClassDescriptor("", "", uuid.New(), nil, CloneModeAbstract)); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("empty name: got %v", err)
	}
	if err := r.Register(NewClassDescriptor("A", "", uuid.Nil, nil, CloneModeAbstract)); !errors.Is(err, ErrNilID) {
		t.Fatalf("nil id: got %v", err)
	}
}

func TestRegisterRefusesDuplicateID(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()
	mustRegister(t, r, NewClassDescriptor("A", "", id, nil, CloneModeAbstract))
	err := r.Register(NewClassDescriptor("B", "", id, nil, CloneModeAbstract))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate id: got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("registry grew on refused registration: %d", r.Len())
	}
}

func TestRegisterRefusesDerivationCycle(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, newDescriptor("B", "A"))
	mustRegister(t, r, newDescriptor("C", "B"))
	err := r.Register(newDescriptor("A", "C"))
	if !errors.Is(err, ErrDerivationCycle) {
		t.Fatalf("cycle: got %v", err)
	}
	// Self-cycle.
	if err := r.Register(newDescriptor("D", "D")); !errors.Is(err, ErrDerivationCycle) {
		t.Fatalf("self cycle: got %v", err)
	}
}

func TestResolveNameNewestWins(t *testing.T) {
	r := NewRegistry()
	host := newDescriptor("Surface", "")
	mustRegister(t, r, host)
	r.AdvanceGeneration()
	override := newDescriptor("Surface", "")
	mustRegister(t, r, override)

	if got := r.ResolveName("Surface"); got != override {
		t.Fatalf("ResolveName returned %v, want plugin override", got)
	}
	// Both stay resolvable by identity.
	if r.ResolveID(host.ID()) != host || r.ResolveID(override.ID()) != override {
		t.Fatal("identifier lookup lost a shadowed descriptor")
	}
	// Purging the override uncovers the host class again.
	r.Purge(override.Mark())
	if got := r.ResolveName("Surface"); got != host {
		t.Fatalf("after purge ResolveName returned %v, want host class", got)
	}
}

func TestResolveEmptyInputs(t *testing.T) {
	r := NewRegistry()
	if r.ResolveName("") != nil {
		t.Fatal("empty name resolved")
	}
	if r.ResolveID(uuid.Nil) != nil {
		t.Fatal("nil id resolved")
	}
}

func TestIsDerivedFromWalksChain(t *testing.T) {
	r := NewRegistry()
	root := newDescriptor("Object", "")
	geom := newDescriptor("Geometry", "Object")
	curve := newDescriptor("Curve", "Geometry")
	other := newDescriptor("Material", "Object")
	for _, d := range []*ClassDescriptor{root, geom, curve, other} {
		mustRegister(t, r, d)
	}

	if !r.IsDerivedFrom(curve, curve) {
		t.Fatal("derivation is not reflexive")
	}
	if !r.IsDerivedFrom(curve, geom) || !r.IsDerivedFrom(curve, root) {
		t.Fatal("transitive derivation failed")
	}
	if r.IsDerivedFrom(root, curve) {
		t.Fatal("derivation ran downward")
	}
	if r.IsDerivedFrom(curve, other) {
		t.Fatal("sibling chains reported derivation")
	}
	if r.IsDerivedFrom(nil, root) || r.IsDerivedFrom(curve, nil) {
		t.Fatal("nil argument reported derivation")
	}
}

func TestIsDerivedFromDanglingParent(t *testing.T) {
	r := NewRegistry()
	root := newDescriptor("Object", "")
	mustRegister(t, r, root)
	// Orphan's parent was never registered.
	orphan := newDescriptor("Orphan", "Ghost")
	mustRegister(t, r, orphan)
	if r.IsDerivedFrom(orphan, root) {
		t.Fatal("dangling parent chain reached the root")
	}
	if !r.IsDerivedFrom(orphan, orphan) {
		t.Fatal("reflexive check failed on orphan")
	}
}

// A purge can uncover a shadowed descriptor whose parent name closes a
// cycle registration never saw; the walk must still terminate.
func TestIsDerivedFromTerminatesOnUncoveredCycle(t *testing.T) {
	r := NewRegistry()
	// Parent "C" dangles at registration time, so this is admitted.
	shadowed := newDescriptor("B", "C")
	mustRegister(t, r, shadowed)

	mark := r.AdvanceGeneration()
	mustRegister(t, r, newDescriptor("B", ""))

	r.AdvanceGeneration()
	c := newDescriptor("C", "B")
	// Cycle check resolves the acyclic newest holder of "B" and passes.
	mustRegister(t, r, c)
	other := newDescriptor("D", "")
	mustRegister(t, r, other)

	// Removing the newest "B" uncovers the shadowed one: C -> B -> C.
	if purged := r.Purge(mark); purged != 1 {
		t.Fatalf("purge removed %d descriptors, want 1", purged)
	}
	if r.IsDerivedFrom(c, other) {
		t.Fatal("cyclic chain reported derivation")
	}
	if !r.IsDerivedFrom(c, shadowed) {
		t.Fatal("ancestor on the cycle not reached")
	}
	if !r.IsDerivedFrom(c, c) {
		t.Fatal("reflexive check lost on the cycle")
	}
}

func TestPurgeRemovesExactGeneration(t *testing.T) {
	r := NewRegistry()
	core := newDescriptor("Object", "")
	mustRegister(t, r, core)

	m1 := r.AdvanceGeneration()
	a := newDescriptor("PluginA", "Object")
	mustRegister(t, r, a)

	m2 := r.AdvanceGeneration()
	b := newDescriptor("PluginB", "Object")
	c := newDescriptor("PluginB2", "PluginB")
	mustRegister(t, r, b)
	mustRegister(t, r, c)

	if got := r.Purge(m2); got != 2 {
		t.Fatalf("purge(m2) removed %d, want 2", got)
	}
	if r.ResolveID(b.ID()) != nil || r.ResolveID(c.ID()) != nil {
		t.Fatal("purged descriptors still resolvable")
	}
	if r.ResolveID(a.ID()) != a || r.ResolveID(core.ID()) != core {
		t.Fatal("purge removed descriptors from other generations")
	}
	if got := r.Purge(m2); got != 0 {
		t.Fatalf("second purge removed %d, want 0", got)
	}
	if got := r.Purge(m1); got != 1 {
		t.Fatalf("purge(m1) removed %d, want 1", got)
	}
	if r.Len() != 1 {
		t.Fatalf("registry has %d descriptors, want 1", r.Len())
	}
}

func TestDerivationSurvivesPurgedParentAsDangling(t *testing.T) {
	r := NewRegistry()
	root := newDescriptor("Object", "")
	mustRegister(t, r, root)
	mark := r.AdvanceGeneration()
	mid := newDescriptor("Mid", "Object")
	mustRegister(t, r, mid)
	r.AdvanceGeneration()
	leaf := newDescriptor("Leaf", "Mid")
	mustRegister(t, r, leaf)

	if !r.IsDerivedFrom(leaf, root) {
		t.Fatal("full chain did not reach root")
	}
	r.Purge(mark)
	// Leaf survives but its chain now dangles at "Mid".
	if r.ResolveID(leaf.ID()) != leaf {
		t.Fatal("leaf was purged with its parent's generation")
	}
	if r.IsDerivedFrom(leaf, root) {
		t.Fatal("dangling chain still reported derivation from root")
	}
}

func TestCreateUsesFactory(t *testing.T) {
	r := NewRegistry()
	concrete := newConcreteDescriptor("Point", "")
	abstract := newDescriptor("Object", "")
	mustRegister(t, r, concrete)
	mustRegister(t, r, abstract)

	obj := r.Create(concrete)
	if obj == nil {
		t.Fatal("factory produced nil")
	}
	if obj.Descriptor() != concrete {
		t.Fatal("created instance reports wrong descriptor")
	}
	if r.Create(abstract) != nil {
		t.Fatal("abstract class produced an instance")
	}
	if r.Create(nil) != nil {
		t.Fatal("nil descriptor produced an instance")
	}
	if !concrete.HasFactory() || abstract.HasFactory() {
		t.Fatal("HasFactory mismatch")
	}
}

func TestDescriptorsSnapshotIsolated(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, newDescriptor("A", ""))
	snap := r.Descriptors()
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d entries, want 1", len(snap))
	}
	snap[0] = nil
	if r.Descriptors()[0] == nil {
		t.Fatal("mutating the snapshot changed the registry")
	}
}

func TestGenerationCounting(t *testing.T) {
	r := NewRegistry()
	if r.CurrentGeneration() != 0 {
		t.Fatalf("fresh registry mark = %d, want 0", r.CurrentGeneration())
	}
	if m := r.AdvanceGeneration(); m != 1 || r.CurrentGeneration() != 1 {
		t.Fatalf("advance returned %d (current %d), want 1", m, r.CurrentGeneration())
	}
	d := newDescriptor("A", "")
	mustRegister(t, r, d)
	if d.Mark() != 1 {
		t.Fatalf("descriptor stamped with mark %d, want 1", d.Mark())
	}
}
