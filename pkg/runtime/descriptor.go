package runtime

import (
	"github.com/google/uuid"
)

// CloneMode selects the duplication capability a registered class declares.
// Exactly one mode applies per concrete type; the dispatcher in pkg/object
// consults it instead of reflecting over the value.
type CloneMode uint8

const (
	// CloneModeCopy marks classes that implement a deep-copy method.
	CloneModeCopy CloneMode = iota
	// CloneModeAssign marks classes without a deep-copy method that can be
	// default-constructed and then assigned from a source instance.
	CloneModeAssign
	// CloneModeNone marks classes that must never be duplicated or
	// assigned, typically because they own unique external resources.
	CloneModeNone
	// CloneModeAbstract marks pure-interface classes. Identity and
	// derivation checks work, but no instance can be created.
	CloneModeAbstract
)

// descriptorVersion tags the descriptor layout itself so archives written
// by newer toolchains can be recognised by older readers.
const descriptorVersion = 1

// Object is the minimal contract every modeled entity satisfies. The full
// polymorphic surface (cloning, validation, serialization) lives in
// pkg/object; this package only needs enough to hand instances back from
// factories and walk their class identity.
type Object interface {
	// Descriptor returns the concrete runtime class of the instance. It is
	// supplied by the type itself, never stored per instance.
	Descriptor() *ClassDescriptor
}

// Factory default-constructs an instance of a registered class.
type Factory func() Object

// ClassDescriptor is the immutable per-type metadata record the registry
// catalogs. Parent linkage is by name, resolved lazily through the
// registry, so registration order is independent of inheritance order.
type ClassDescriptor struct {
	name      string
	baseName  string
	id        uuid.UUID
	factory   Factory
	cloneMode CloneMode
	mark      int
	version   uint32
}

// NewClassDescriptor builds a descriptor for registration. A nil factory
// is valid only together with CloneModeAbstract.
func NewClassDescriptor(name, baseName string, id uuid.UUID, factory Factory, mode CloneMode) *ClassDescriptor {
	return &ClassDescriptor{
		name:      name,
		baseName:  baseName,
		id:        id,
		factory:   factory,
		cloneMode: mode,
		version:   descriptorVersion,
	}
}

// Name returns the display name of the class.
func (d *ClassDescriptor) Name() string { return d.name }

// BaseName returns the display name of the parent class, or "" for roots.
func (d *ClassDescriptor) BaseName() string { return d.baseName }

// ID returns the stable 128-bit identifier of the class. It is the
// identity that survives module load/unload cycles and archive round
// trips; pointer identity does not.
func (d *ClassDescriptor) ID() uuid.UUID { return d.id }

// CloneMode returns the duplication capability the class declared.
func (d *ClassDescriptor) CloneMode() CloneMode { return d.cloneMode }

// Mark returns the generation mark assigned at registration time. The
// core library registers under mark 0, the host application under low
// positive marks, dynamically loaded plugins under higher marks.
func (d *ClassDescriptor) Mark() int { return d.mark }

// Version returns the descriptor layout version.
func (d *ClassDescriptor) Version() uint32 { return d.version }

// HasFactory reports whether the class can be default-constructed.
func (d *ClassDescriptor) HasFactory() bool { return d.factory != nil }
