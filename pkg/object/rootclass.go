package object

import (
	"github.com/google/uuid"

	"geomcore/pkg/runtime"
)

// RootClassName is the display name of the abstract class every modeled
// type ultimately derives from.
const RootClassName = "Object"

// RootClassID is the stable identity of the root class. It never changes
// across releases; archives and plugins rely on it.
var RootClassID = uuid.MustParse("1311adcb-d89e-4051-a3f8-4c25b4cd5f27")

// RegisterRootClass installs the abstract root descriptor under the
// registry's current generation and returns it. Host applications call
// it once, before any plugin classes register.
func RegisterRootClass(reg *runtime.Registry) (*runtime.ClassDescriptor, error) {
	d := runtime.NewClassDescriptor(RootClassName, "", RootClassID, nil, runtime.CloneModeAbstract)
	if err := reg.Register(d); err != nil {
		return nil, err
	}
	return d, nil
}
