// Package object defines the root abstraction every modeled entity
// derives from: registry-backed identity, checked downcasting,
// polymorphic cloning, attachable extension data, and the validation and
// serialization hooks shared by the whole kernel.
//
// Concrete types embed Base, implement Descriptor, and override the hook
// methods they care about. Nothing in this package is safe for concurrent
// mutation; callers synchronize externally.
package object

import (
	"io"

	"github.com/google/uuid"

	"geomcore/pkg/archive"
	"geomcore/pkg/extension"
	"geomcore/pkg/manifest"
	"geomcore/pkg/runtime"
)

// Object is the full polymorphic surface of a modeled entity. All hook
// methods have conservative defaults on Base; Descriptor is always
// supplied by the concrete type.
type Object interface {
	runtime.Object

	// Extensions returns the object's attached side-data set.
	Extensions() *extension.Store

	// IsValid checks that the object's data members are correctly
	// initialized. On failure a short human-readable reason is appended
	// to sink when sink is non-nil.
	IsValid(sink io.Writer) bool

	// IsCorrupt checks for data values likely to cause crashes. With
	// repair set the object is mutated in place to a safer state even
	// though the check is logically a read; with silent set no diagnostic
	// is emitted to sink.
	IsCorrupt(repair, silent bool, sink io.Writer) bool

	// SizeOf estimates the number of bytes the object uses.
	SizeOf() uint64

	// DataCRC folds the object's defining state into a running CRC so a
	// single checksum can cover a composite structure.
	DataCRC(current uint32) uint32

	// Write serializes only the object's own defining state, without
	// framing, and reports success. The default implementation writes
	// nothing and reports false.
	Write(w *archive.Writer) bool

	// Read reconstructs the state produced by Write and reports success.
	// On false the caller must abandon the read.
	Read(r *archive.Reader) bool

	// UpdateReferencedComponents rewrites any component indices or ids
	// this object holds into another model's manifest, using m to
	// translate from the source to the destination context. It reports
	// false when a reference could not be resolved and was reset to a
	// default value instead.
	UpdateReferencedComponents(src, dst *manifest.Manifest, m *manifest.Map) bool
}

// notValidHook is invoked whenever a validity check fails, so a debug
// session can break at the exact failure point.
var notValidHook func()

// SetNotValidHook installs f as the trap called on every validity check
// failure. Pass nil to remove it.
func SetNotValidHook(f func()) { notValidHook = f }

// NotValid fires the validity trap and returns false. Implementations of
// IsValid return through it on every failure path.
func NotValid() bool {
	if notValidHook != nil {
		notValidHook()
	}
	return false
}

// Base supplies the shared state and default hook behavior for concrete
// object types. Embed it by value and call Init from the constructor so
// attached extension items can point back at the outer object.
type Base struct {
	ext extension.Store
}

// Init binds the extension store's owner back-reference to the outer
// object. self is the concrete object embedding this Base.
func (b *Base) Init(self runtime.Object) { b.ext.BindOwner(self) }

// Extensions returns the object's extension store.
func (b *Base) Extensions() *extension.Store { return &b.ext }

// IsValid reports true; concrete types override with real checks.
func (b *Base) IsValid(io.Writer) bool { return true }

// IsCorrupt reports false; concrete types override with real checks.
func (b *Base) IsCorrupt(repair, silent bool, sink io.Writer) bool { return false }

// SizeOf returns a coarse baseline estimate covering the extension list.
func (b *Base) SizeOf() uint64 {
	return uint64(24 + 48*b.ext.Count())
}

// DataCRC returns current unchanged; objects without defining state
// contribute nothing to a composite checksum.
func (b *Base) DataCRC(current uint32) uint32 { return current }

// Write reports false: the base object has no serialized form.
func (b *Base) Write(*archive.Writer) bool { return false }

// Read reports false: the base object has no serialized form.
func (b *Base) Read(*archive.Reader) bool { return false }

// UpdateReferencedComponents reports true: the base object references no
// other components.
func (b *Base) UpdateReferencedComponents(src, dst *manifest.Manifest, m *manifest.Map) bool {
	return true
}

// AssignFrom implements copy semantics for the extension list: the
// destination set is purged, then every source item with a positive
// propagation count is copied over (policy: source wins). Concrete
// CopyFrom implementations call this after assigning their own payload.
func (b *Base) AssignFrom(src *Base) {
	if src == nil || src == b {
		return
	}
	b.ext.PurgeAll()
	b.ext.Merge(&src.ext, uuid.Nil, extension.TakeSource)
}

// MoveFrom implements move semantics: the source's entire item set is
// transferred without per-item comparison, leaving the source empty.
func (b *Base) MoveFrom(src *Base) {
	if src == nil || src == b {
		return
	}
	b.ext.MoveAll(&src.ext)
}

// TransformExtensions forwards a geometric transform to every transform
// sensitive extension item. Geometric object types call this whenever
// their own geometry changes.
func (b *Base) TransformExtensions(x extension.Xform) { b.ext.Transform(x) }

// EmergencyDestroy abandons the extension list without releasing items.
// It exists for teardown paths where the items' memory is already gone.
func (b *Base) EmergencyDestroy() { *b = Base{} }
