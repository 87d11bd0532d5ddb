package meshdata

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"geomcore/pkg/archive"
	"geomcore/pkg/manifest"
	"geomcore/pkg/object"
	"geomcore/pkg/runtime"
)

// PatchGroupClassID is the stable class identity of PatchGroup.
var PatchGroupClassID = uuid.MustParse("b4e87d12-30cf-4f5a-a6d8-2c9e51b7f043")

var patchGroupDescriptor = runtime.NewClassDescriptor(
	"PatchGroup", object.RootClassName, PatchGroupClassID,
	func() runtime.Object { return NewPatchGroup() },
	runtime.CloneModeAssign,
)

var (
	_ object.Object   = (*PatchGroup)(nil)
	_ object.Assigner = (*PatchGroup)(nil)
)

// PatchGroup names a set of patches by their component ids. It has no
// deep-copy method; duplication default-constructs and assigns.
type PatchGroup struct {
	object.Base

	Label   string
	Members []uuid.UUID
}

// NewPatchGroup constructs an empty group.
func NewPatchGroup() *PatchGroup {
	g := &PatchGroup{}
	g.Init(g)
	return g
}

// Descriptor returns the PatchGroup class descriptor.
func (g *PatchGroup) Descriptor() *runtime.ClassDescriptor { return patchGroupDescriptor }

// IsValid checks for nil member ids.
func (g *PatchGroup) IsValid(sink io.Writer) bool {
	for i, id := range g.Members {
		if id == uuid.Nil {
			if sink != nil {
				fmt.Fprintf(sink, "member %d has a nil id\n", i)
			}
			return object.NotValid()
		}
	}
	return true
}

// SizeOf estimates the group's memory footprint.
func (g *PatchGroup) SizeOf() uint64 {
	return g.Base.SizeOf() + uint64(len(g.Label)) + uint64(16*len(g.Members))
}

// DataCRC folds the label and member ids into current.
func (g *PatchGroup) DataCRC(current uint32) uint32 {
	current = archive.CRCString(current, g.Label)
	for _, id := range g.Members {
		current = archive.CRCUUID(current, id)
	}
	return current
}

// Write serializes the group's defining state.
func (g *PatchGroup) Write(w *archive.Writer) bool {
	w.WriteString(g.Label)
	w.WriteUint32(uint32(len(g.Members)))
	for _, id := range g.Members {
		w.WriteUUID(id)
	}
	return g.WriteUserStrings(w) && w.Ok()
}

// Read reconstructs the state produced by Write.
func (g *PatchGroup) Read(r *archive.Reader) bool {
	g.Label = r.ReadString()
	n := r.ReadUint32()
	if !r.Ok() {
		return false
	}
	g.Members = make([]uuid.UUID, 0, n)
	for i := uint32(0); i < n && r.Ok(); i++ {
		g.Members = append(g.Members, r.ReadUUID())
	}
	return g.ReadUserStrings(r) && r.Ok()
}

// UpdateReferencedComponents rewrites the member ids into the
// destination model. Unresolvable members are dropped from the group and
// reported as false.
func (g *PatchGroup) UpdateReferencedComponents(src, dst *manifest.Manifest, m *manifest.Map) bool {
	ok := true
	kept := g.Members[:0]
	for _, id := range g.Members {
		if mapped, found := m.RemapID(id); found {
			kept = append(kept, mapped)
			continue
		}
		ok = false
	}
	g.Members = kept
	return ok
}

// CopyFrom assigns src's state to the receiver when src is a PatchGroup.
func (g *PatchGroup) CopyFrom(src runtime.Object) bool {
	s, ok := src.(*PatchGroup)
	if !ok || s == nil {
		return false
	}
	g.Label = s.Label
	g.Members = append([]uuid.UUID(nil), s.Members...)
	g.AssignFrom(&s.Base)
	return true
}
