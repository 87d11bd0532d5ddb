// Package meshdata is a sample plugin: it contributes a concrete
// geometric object class, an assign-cloneable grouping class and a
// transform sensitive extension item, all registered under whatever
// generation mark the host advances to before loading.
package meshdata

import (
	"geomcore/pkg/runtime"
)

// Plugin registers the meshdata classes with a host kernel.
type Plugin struct{}

// Name returns the plugin identifier.
func (Plugin) Name() string { return "meshdata" }

// Version returns the plugin release version.
func (Plugin) Version() string { return "1.2.0" }

// RegisterClasses installs the meshdata class descriptors. The registry
// stamps them with its current generation mark, so unloading the plugin
// purges exactly these classes.
func (Plugin) RegisterClasses(reg *runtime.Registry) error {
	for _, d := range []*runtime.ClassDescriptor{meshPatchDescriptor, patchGroupDescriptor} {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}
