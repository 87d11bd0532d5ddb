package object

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/uuid"

	"geomcore/pkg/archive"
	"geomcore/pkg/extension"
	"geomcore/pkg/runtime"
)

// Test class hierarchy: Widget (copy-cloneable) and Gauge (assign-
// cloneable) both derive from the abstract root.

var (
	widgetClassID = uuid.MustParse("4f0c2c2b-8f7f-4a41-a6a1-93d2f1d08f11")
	gaugeClassID  = uuid.MustParse("9d7e66f1-21ce-4c7f-9c83-5e10ab4d22a0")
	sealedClassID = uuid.MustParse("c3d9a47e-0b5e-49d2-a3f4-7781c95e6b38")
)

var widgetDescriptor = runtime.NewClassDescriptor(
	"Widget", RootClassName, widgetClassID,
	func() runtime.Object { return newWidget() },
	runtime.CloneModeCopy,
)

var gaugeDescriptor = runtime.NewClassDescriptor(
	"Gauge", RootClassName, gaugeClassID,
	func() runtime.Object { return newGauge() },
	runtime.CloneModeAssign,
)

var sealedDescriptor = runtime.NewClassDescriptor(
	"Sealed", RootClassName, sealedClassID,
	func() runtime.Object { return newSealed() },
	runtime.CloneModeNone,
)

type widget struct {
	Base
	label string
}

func newWidget() *widget {
	w := &widget{}
	w.Init(w)
	return w
}

func (w *widget) Descriptor() *runtime.ClassDescriptor { return widgetDescriptor }

func (w *widget) DeepCopy() runtime.Object {
	dup := newWidget()
	dup.label = w.label
	dup.AssignFrom(&w.Base)
	return dup
}

func (w *widget) CopyFrom(src runtime.Object) bool {
	s, ok := src.(*widget)
	if !ok || s == nil {
		return false
	}
	w.label = s.label
	w.AssignFrom(&s.Base)
	return true
}

type gauge struct {
	Base
	level int
}

func newGauge() *gauge {
	g := &gauge{}
	g.Init(g)
	return g
}

func (g *gauge) Descriptor() *runtime.ClassDescriptor { return gaugeDescriptor }

func (g *gauge) CopyFrom(src runtime.Object) bool {
	s, ok := src.(*gauge)
	if !ok || s == nil {
		return false
	}
	g.level = s.level
	g.AssignFrom(&s.Base)
	return true
}

type sealed struct {
	Base
}

func newSealed() *sealed {
	s := &sealed{}
	s.Init(s)
	return s
}

func (s *sealed) Descriptor() *runtime.ClassDescriptor { return sealedDescriptor }

func newTestRegistry(t *testing.T) (*runtime.Registry, *runtime.ClassDescriptor) {
	t.Helper()
	reg := runtime.NewRegistry()
	root, err := RegisterRootClass(reg)
	if err != nil {
		t.Fatalf("register root: %v", err)
	}
	for _, d := range []*runtime.ClassDescriptor{widgetDescriptor, gaugeDescriptor, sealedDescriptor} {
		if err := reg.Register(d); err != nil {
			t.Fatalf("register %s: %v", d.Name(), err)
		}
	}
	return reg, root
}

// markerItem carries an int payload for propagation tests.
type markerItem struct {
	extension.ItemBase
	payload int
}

func newMarker(id uuid.UUID, propagation, payload int) *markerItem {
	return &markerItem{ItemBase: extension.NewItemBase(id, propagation), payload: payload}
}

func (m *markerItem) Clone() extension.Item {
	dup := *m
	dup.ItemBase = extension.NewItemBase(m.ID(), m.PropagationCount())
	return &dup
}

func TestIsKindOfAndCast(t *testing.T) {
	reg, root := newTestRegistry(t)
	w := newWidget()

	if !IsKindOf(reg, w, widgetDescriptor) {
		t.Fatal("IsKindOf failed reflexively")
	}
	if !IsKindOf(reg, w, root) {
		t.Fatal("widget does not derive from root")
	}
	if IsKindOf(reg, w, gaugeDescriptor) {
		t.Fatal("widget derives from sibling class")
	}
	if IsKindOf(nil, w, root) || IsKindOf(reg, nil, root) {
		t.Fatal("nil arguments reported derivation")
	}

	got, ok := Cast[*widget](reg, w, root)
	if !ok || got != w {
		t.Fatalf("Cast = %v, %v", got, ok)
	}
	if _, ok := Cast[*gauge](reg, w, root); ok {
		t.Fatal("Cast converted widget to gauge")
	}
	if _, ok := Cast[*widget](reg, w, gaugeDescriptor); ok {
		t.Fatal("Cast ignored the derivation check")
	}
}

func TestDuplicateDispatch(t *testing.T) {
	reg, _ := newTestRegistry(t)

	w := newWidget()
	w.label = "original"
	dup, ok := Duplicate(reg, w).(*widget)
	if !ok || dup == nil || dup == w {
		t.Fatalf("copy-clone returned %v", dup)
	}
	if dup.label != "original" {
		t.Fatalf("copy lost payload: %q", dup.label)
	}

	g := newGauge()
	g.level = 42
	gdup, ok := Duplicate(reg, g).(*gauge)
	if !ok || gdup == nil || gdup == g {
		t.Fatalf("assign-clone returned %v", gdup)
	}
	if gdup.level != 42 {
		t.Fatalf("assignment lost payload: %d", gdup.level)
	}

	if Duplicate(reg, newSealed()) != nil {
		t.Fatal("non-cloneable class was duplicated")
	}
	if Duplicate(reg, nil) != nil || Duplicate(nil, w) != nil {
		t.Fatal("nil arguments produced a duplicate")
	}
}

func TestDeepCopyHonorsPropagationCounts(t *testing.T) {
	w := newWidget()
	carried := uuid.New()
	gatedZero := uuid.New()
	gatedNeg := uuid.New()
	w.Extensions().Attach(newMarker(carried, 2, 1))
	w.Extensions().Attach(newMarker(gatedZero, 0, 2))
	w.Extensions().Attach(newMarker(gatedNeg, -1, 3))

	dup := w.DeepCopy().(*widget)
	if dup.Extensions().Lookup(carried) == nil {
		t.Fatal("positive-count item did not propagate")
	}
	if dup.Extensions().Lookup(gatedZero) != nil || dup.Extensions().Lookup(gatedNeg) != nil {
		t.Fatal("gated items propagated to the copy")
	}
	// The source keeps all three.
	if w.Extensions().Count() != 3 {
		t.Fatalf("source extension count = %d, want 3", w.Extensions().Count())
	}
}

func TestAssignFromReplacesDestinationSet(t *testing.T) {
	src := newWidget()
	dst := newWidget()
	kept := uuid.New()
	src.Extensions().Attach(newMarker(kept, 1, 1))
	stale := uuid.New()
	dst.Extensions().Attach(newMarker(stale, 1, 9))

	dst.CopyFrom(src)
	if dst.Extensions().Lookup(stale) != nil {
		t.Fatal("assignment kept the destination's old items")
	}
	if dst.Extensions().Lookup(kept) == nil {
		t.Fatal("assignment dropped the source's items")
	}
}

func TestMoveFromEmptiesSource(t *testing.T) {
	src := newWidget()
	dst := newWidget()
	id := uuid.New()
	item := newMarker(id, -5, 1) // moves survive any count
	src.Extensions().Attach(item)

	dst.MoveFrom(&src.Base)
	if src.Extensions().Count() != 0 {
		t.Fatal("move left items on the source")
	}
	if dst.Extensions().Lookup(id) != extension.Item(item) {
		t.Fatal("move did not transfer the item itself")
	}
	if item.Owner() != runtime.Object(dst) {
		t.Fatal("moved item does not point at the destination")
	}
}

func TestBaseDefaults(t *testing.T) {
	w := newWidget()
	if !w.IsValid(io.Discard) {
		t.Fatal("default IsValid failed")
	}
	if w.IsCorrupt(false, true, nil) {
		t.Fatal("default IsCorrupt reported corruption")
	}
	var b Base
	if b.Write(nil) || b.Read(nil) {
		t.Fatal("base object claims a serialized form")
	}
	if b.DataCRC(77) != 77 {
		t.Fatal("base DataCRC altered the running value")
	}
	if !b.UpdateReferencedComponents(nil, nil, nil) {
		t.Fatal("base UpdateReferencedComponents failed")
	}
	if b.SizeOf() == 0 {
		t.Fatal("base SizeOf reported zero")
	}
}

func TestNotValidHook(t *testing.T) {
	fired := 0
	SetNotValidHook(func() { fired++ })
	defer SetNotValidHook(nil)
	if NotValid() {
		t.Fatal("NotValid returned true")
	}
	if fired != 1 {
		t.Fatalf("hook fired %d times, want 1", fired)
	}
	SetNotValidHook(nil)
	if NotValid() {
		t.Fatal("NotValid without hook returned true")
	}
}

func TestUserStrings(t *testing.T) {
	w := newWidget()
	if _, ok := w.UserString("missing"); ok {
		t.Fatal("empty list resolved a key")
	}
	if w.SetUserString("", "x") {
		t.Fatal("empty key accepted")
	}
	if !w.SetUserString("material", "steel") || !w.SetUserString("grade", "a36") {
		t.Fatal("set failed")
	}
	if !w.SetUserString("material", "bronze") {
		t.Fatal("overwrite failed")
	}
	if v, ok := w.UserString("material"); !ok || v != "bronze" {
		t.Fatalf("material = %q, %v", v, ok)
	}
	if w.UserStringCount() != 2 {
		t.Fatalf("count = %d, want 2", w.UserStringCount())
	}
	keys := w.UserStringKeys()
	if len(keys) != 2 || keys[0] != "material" || keys[1] != "grade" {
		t.Fatalf("keys = %v, want insertion order", keys)
	}

	// Empty value removes; removing the last entry removes the item.
	if !w.SetUserString("grade", "") {
		t.Fatal("remove failed")
	}
	if w.SetUserString("grade", "") {
		t.Fatal("removing a missing key reported a change")
	}
	if !w.SetUserString("material", "") {
		t.Fatal("removing last entry failed")
	}
	if w.Extensions().Count() != 0 {
		t.Fatal("empty string list item still attached")
	}
}

func TestUserStringsSurviveCopy(t *testing.T) {
	w := newWidget()
	w.SetUserString("origin", "survey")
	dup := w.DeepCopy().(*widget)
	if v, ok := dup.UserString("origin"); !ok || v != "survey" {
		t.Fatalf("copy lost user string: %q, %v", v, ok)
	}
	dup.SetUserString("origin", "changed")
	if v, _ := w.UserString("origin"); v != "survey" {
		t.Fatal("copies share the string list")
	}
}

func TestUserStringsArchiveRoundTrip(t *testing.T) {
	w := newWidget()
	w.SetUserString("material", "steel")
	w.SetUserString("note", "hand-trimmed")

	var buf bytes.Buffer
	aw := archive.NewWriter(&buf)
	if !w.WriteUserStrings(aw) {
		t.Fatalf("write: %v", aw.Err())
	}

	restored := newWidget()
	restored.SetUserString("stale", "gone") // must be replaced by the read
	ar := archive.NewReader(bytes.NewReader(buf.Bytes()))
	if !restored.ReadUserStrings(ar) {
		t.Fatalf("read: %v", ar.Err())
	}
	if _, ok := restored.UserString("stale"); ok {
		t.Fatal("read kept the previous entries")
	}
	if v, ok := restored.UserString("material"); !ok || v != "steel" {
		t.Fatalf("material = %q, %v", v, ok)
	}
	if restored.UserStringCount() != 2 {
		t.Fatalf("count = %d, want 2", restored.UserStringCount())
	}
}

func TestWriteUserStringsEmptyList(t *testing.T) {
	var buf bytes.Buffer
	aw := archive.NewWriter(&buf)
	w := newWidget()
	if !w.WriteUserStrings(aw) {
		t.Fatalf("write: %v", aw.Err())
	}
	restored := newWidget()
	ar := archive.NewReader(bytes.NewReader(buf.Bytes()))
	if !restored.ReadUserStrings(ar) {
		t.Fatalf("read: %v", ar.Err())
	}
	if restored.Extensions().Count() != 0 {
		t.Fatal("empty list attached an item on read")
	}
}

func TestTransformExtensionsReachesItems(t *testing.T) {
	w := newWidget()
	probe := &transformProbe{ItemBase: extension.NewItemBase(uuid.New(), 1)}
	w.Extensions().Attach(probe)
	w.TransformExtensions(extension.IdentityXform())
	if probe.calls != 1 {
		t.Fatalf("transform reached the item %d times, want 1", probe.calls)
	}
}

type transformProbe struct {
	extension.ItemBase
	calls int
}

func (p *transformProbe) TransformSensitive() bool { return true }

func (p *transformProbe) ApplyTransform(extension.Xform) { p.calls++ }

func (p *transformProbe) Clone() extension.Item { dup := *p; return &dup }

func TestEmergencyDestroyAbandonsItems(t *testing.T) {
	w := newWidget()
	w.Extensions().Attach(newMarker(uuid.New(), 1, 1))
	w.EmergencyDestroy()
	if w.Extensions().Count() != 0 {
		t.Fatal("emergency destroy kept the item list")
	}
}
