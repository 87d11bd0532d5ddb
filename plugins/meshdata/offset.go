package meshdata

import (
	"github.com/google/uuid"

	"geomcore/pkg/extension"
)

// OffsetItemID identifies the offset extension item. One offset can be
// attached per object.
var OffsetItemID = uuid.MustParse("5d2a9f60-c4b1-4e3d-97a8-6b0e83d4f1c2")

var _ extension.Item = (*OffsetItem)(nil)

// OffsetItem records a displacement applied to the owning patch, as a
// direction and distance. It is transform sensitive: when the owner's
// geometry is transformed the direction is rotated along with it.
type OffsetItem struct {
	extension.ItemBase

	Direction [3]float64
	Distance  float64
}

// NewOffsetItem constructs an offset item that survives the given number
// of copies.
func NewOffsetItem(direction [3]float64, distance float64, propagation int) *OffsetItem {
	return &OffsetItem{
		ItemBase:  extension.NewItemBase(OffsetItemID, propagation),
		Direction: direction,
		Distance:  distance,
	}
}

// TransformSensitive reports true: the direction tracks the geometry.
func (o *OffsetItem) TransformSensitive() bool { return true }

// ApplyTransform rotates the direction by the linear part of x.
func (o *OffsetItem) ApplyTransform(x extension.Xform) {
	d := o.Direction
	o.Direction = [3]float64{
		x[0][0]*d[0] + x[0][1]*d[1] + x[0][2]*d[2],
		x[1][0]*d[0] + x[1][1]*d[1] + x[1][2]*d[2],
		x[2][0]*d[0] + x[2][1]*d[1] + x[2][2]*d[2],
	}
}

// Clone returns a detached copy of the item.
func (o *OffsetItem) Clone() extension.Item {
	dup := *o
	dup.ItemBase = extension.NewItemBase(o.ID(), o.PropagationCount())
	return &dup
}
