package object

import (
	"geomcore/pkg/runtime"
)

// CopyCloner is the capability trait of classes registered with
// runtime.CloneModeCopy: they duplicate themselves through a deep copy.
type CopyCloner interface {
	runtime.Object
	// DeepCopy returns a fully independent duplicate of the receiver.
	DeepCopy() runtime.Object
}

// Assigner is the capability trait of classes that support assignment
// from a compatible source. Classes registered with
// runtime.CloneModeAssign must implement it; copy-cloneable classes
// usually do as well.
type Assigner interface {
	runtime.Object
	// CopyFrom checked-downcasts src and, on success, assigns its state
	// to the receiver. It reports false when src is nil or of an
	// incompatible type, leaving the receiver unchanged.
	CopyFrom(src runtime.Object) bool
}

// IsKindOf reports whether obj's concrete class derives from ancestor,
// walking the registry's parent chain. It is reflexive.
func IsKindOf(reg *runtime.Registry, obj runtime.Object, ancestor *runtime.ClassDescriptor) bool {
	if reg == nil || obj == nil {
		return false
	}
	return reg.IsDerivedFrom(obj.Descriptor(), ancestor)
}

// Cast returns obj as T when obj's class derives from ancestor and the
// value satisfies T. It is the checked downcast: both the registry
// derivation check and the Go-level conversion must hold.
func Cast[T runtime.Object](reg *runtime.Registry, obj runtime.Object, ancestor *runtime.ClassDescriptor) (T, bool) {
	var zero T
	if !IsKindOf(reg, obj, ancestor) {
		return zero, false
	}
	t, ok := obj.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Duplicate clones obj according to the clone mode its class declared:
// copy-cloneable classes duplicate through DeepCopy, assign-cloneable
// classes are default-constructed and assigned, and non-cloneable or
// abstract classes yield nil.
func Duplicate(reg *runtime.Registry, obj runtime.Object) runtime.Object {
	if reg == nil || obj == nil {
		return nil
	}
	d := obj.Descriptor()
	if d == nil {
		return nil
	}
	switch d.CloneMode() {
	case runtime.CloneModeCopy:
		if c, ok := obj.(CopyCloner); ok {
			return c.DeepCopy()
		}
	case runtime.CloneModeAssign:
		fresh := reg.Create(d)
		if fresh == nil {
			return nil
		}
		if a, ok := fresh.(Assigner); ok && a.CopyFrom(obj) {
			return fresh
		}
	}
	return nil
}
