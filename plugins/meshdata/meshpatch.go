package meshdata

import (
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"

	"geomcore/pkg/archive"
	"geomcore/pkg/extension"
	"geomcore/pkg/manifest"
	"geomcore/pkg/object"
	"geomcore/pkg/runtime"
	"geomcore/pkg/status"
)

// MeshPatchClassID is the stable class identity of MeshPatch.
var MeshPatchClassID = uuid.MustParse("7c1f4bb6-9e3a-4d9c-8b62-f0a5d1c3e8a9")

var meshPatchDescriptor = runtime.NewClassDescriptor(
	"MeshPatch", object.RootClassName, MeshPatchClassID,
	func() runtime.Object { return NewMeshPatch() },
	runtime.CloneModeCopy,
)

// Compile-time contract assertions.
var (
	_ object.Object     = (*MeshPatch)(nil)
	_ object.CopyCloner = (*MeshPatch)(nil)
	_ object.Assigner   = (*MeshPatch)(nil)
)

// MeshPatch is a concrete geometric object: a triangle patch with
// per-vertex selection state and an optional reference to the component
// it was trimmed from.
type MeshPatch struct {
	object.Base

	Vertices [][3]float64
	Faces    [][3]int32

	// ParentID and ParentIndex reference the model component this patch
	// derives from. uuid.Nil / -1 mean no parent.
	ParentID    uuid.UUID
	ParentIndex int

	marks status.AggregateCache
}

// NewMeshPatch constructs an empty patch with no parent reference.
func NewMeshPatch() *MeshPatch {
	p := &MeshPatch{ParentIndex: -1}
	p.Init(p)
	return p
}

// Descriptor returns the MeshPatch class descriptor.
func (p *MeshPatch) Descriptor() *runtime.ClassDescriptor { return meshPatchDescriptor }

// Marks returns the per-vertex status cache.
func (p *MeshPatch) Marks() *status.AggregateCache { return &p.marks }

// SetVertexStatus replaces the stored status of vertex i.
func (p *MeshPatch) SetVertexStatus(i int, s status.Status) bool {
	return p.marks.SetComponentStatus(status.ComponentIndex{Kind: status.KindVertex, Index: i}, s)
}

// IsValid checks vertex coordinates for NaN and face indices for range.
func (p *MeshPatch) IsValid(sink io.Writer) bool {
	for i, v := range p.Vertices {
		for _, c := range v {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				if sink != nil {
					fmt.Fprintf(sink, "vertex %d has a non-finite coordinate\n", i)
				}
				return object.NotValid()
			}
		}
	}
	for i, f := range p.Faces {
		for _, vi := range f {
			if vi < 0 || int(vi) >= len(p.Vertices) {
				if sink != nil {
					fmt.Fprintf(sink, "face %d references vertex %d of %d\n", i, vi, len(p.Vertices))
				}
				return object.NotValid()
			}
		}
	}
	return true
}

// IsCorrupt treats out-of-range face indices as crash hazards. With
// repair set the offending faces are dropped.
func (p *MeshPatch) IsCorrupt(repair, silent bool, sink io.Writer) bool {
	corrupt := false
	kept := p.Faces[:0]
	for i, f := range p.Faces {
		bad := false
		for _, vi := range f {
			if vi < 0 || int(vi) >= len(p.Vertices) {
				bad = true
			}
		}
		if bad {
			corrupt = true
			if !silent && sink != nil {
				fmt.Fprintf(sink, "face %d is out of range\n", i)
			}
			if repair {
				continue
			}
		}
		kept = append(kept, f)
	}
	if repair {
		p.Faces = kept
	}
	return corrupt
}

// SizeOf estimates the patch's memory footprint.
func (p *MeshPatch) SizeOf() uint64 {
	return p.Base.SizeOf() + uint64(24*len(p.Vertices)) + uint64(12*len(p.Faces))
}

// DataCRC folds the geometry and the parent reference into current.
func (p *MeshPatch) DataCRC(current uint32) uint32 {
	current = archive.CRCUint32(current, uint32(len(p.Vertices)))
	for _, v := range p.Vertices {
		for _, c := range v {
			current = archive.CRCUint32(current, uint32(math.Float64bits(c)))
			current = archive.CRCUint32(current, uint32(math.Float64bits(c)>>32))
		}
	}
	current = archive.CRCUint32(current, uint32(len(p.Faces)))
	for _, f := range p.Faces {
		for _, vi := range f {
			current = archive.CRCInt32(current, vi)
		}
	}
	current = archive.CRCUUID(current, p.ParentID)
	current = archive.CRCInt32(current, int32(p.ParentIndex))
	return current
}

// Write serializes the patch's defining state and its user strings.
func (p *MeshPatch) Write(w *archive.Writer) bool {
	w.WriteUint32(uint32(len(p.Vertices)))
	for _, v := range p.Vertices {
		for _, c := range v {
			w.WriteFloat64(c)
		}
	}
	w.WriteUint32(uint32(len(p.Faces)))
	for _, f := range p.Faces {
		for _, vi := range f {
			w.WriteInt32(vi)
		}
	}
	w.WriteUUID(p.ParentID)
	w.WriteInt32(int32(p.ParentIndex))
	return p.WriteUserStrings(w) && w.Ok()
}

// Read reconstructs the state produced by Write.
func (p *MeshPatch) Read(r *archive.Reader) bool {
	nv := r.ReadUint32()
	if !r.Ok() {
		return false
	}
	p.Vertices = make([][3]float64, 0, nv)
	for i := uint32(0); i < nv && r.Ok(); i++ {
		var v [3]float64
		for j := range v {
			v[j] = r.ReadFloat64()
		}
		p.Vertices = append(p.Vertices, v)
	}
	nf := r.ReadUint32()
	if !r.Ok() {
		return false
	}
	p.Faces = make([][3]int32, 0, nf)
	for i := uint32(0); i < nf && r.Ok(); i++ {
		var f [3]int32
		for j := range f {
			f[j] = r.ReadInt32()
		}
		p.Faces = append(p.Faces, f)
	}
	p.ParentID = r.ReadUUID()
	p.ParentIndex = int(r.ReadInt32())
	return p.ReadUserStrings(r) && r.Ok()
}

// UpdateReferencedComponents rewrites the parent reference into the
// destination model's numbering. An unresolvable parent is reset to
// none and reported as false.
func (p *MeshPatch) UpdateReferencedComponents(src, dst *manifest.Manifest, m *manifest.Map) bool {
	ok := true
	if p.ParentID != uuid.Nil {
		if id, found := m.RemapID(p.ParentID); found {
			p.ParentID = id
		} else {
			p.ParentID = uuid.Nil
			ok = false
		}
	}
	if p.ParentIndex >= 0 {
		if idx, found := m.RemapIndex(status.KindUnset, p.ParentIndex); found {
			p.ParentIndex = idx
		} else {
			p.ParentIndex = -1
			ok = false
		}
	}
	return ok
}

// DeepCopy duplicates the patch, carrying over the extension items whose
// propagation count permits it. Transient status marks do not copy.
func (p *MeshPatch) DeepCopy() runtime.Object {
	dup := NewMeshPatch()
	dup.Vertices = append([][3]float64(nil), p.Vertices...)
	dup.Faces = append([][3]int32(nil), p.Faces...)
	dup.ParentID = p.ParentID
	dup.ParentIndex = p.ParentIndex
	dup.AssignFrom(&p.Base)
	return dup
}

// CopyFrom assigns src's state to the receiver when src is a MeshPatch.
func (p *MeshPatch) CopyFrom(src runtime.Object) bool {
	s, ok := src.(*MeshPatch)
	if !ok || s == nil {
		return false
	}
	p.Vertices = append([][3]float64(nil), s.Vertices...)
	p.Faces = append([][3]int32(nil), s.Faces...)
	p.ParentID = s.ParentID
	p.ParentIndex = s.ParentIndex
	p.AssignFrom(&s.Base)
	return true
}

// ApplyTransform transforms every vertex and forwards the transform to
// the transform sensitive extension items.
func (p *MeshPatch) ApplyTransform(x extension.Xform) {
	for i, v := range p.Vertices {
		px := x[0][0]*v[0] + x[0][1]*v[1] + x[0][2]*v[2] + x[0][3]
		py := x[1][0]*v[0] + x[1][1]*v[1] + x[1][2]*v[2] + x[1][3]
		pz := x[2][0]*v[0] + x[2][1]*v[1] + x[2][2]*v[2] + x[2][3]
		p.Vertices[i] = [3]float64{px, py, pz}
	}
	p.TransformExtensions(x)
	p.marks.MarkStale()
}
