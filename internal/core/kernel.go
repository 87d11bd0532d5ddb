// Package core wires the object system together: a kernel owns the class
// registry, the snapshot store and the archive blob store, and exposes
// the model-level operations built on them — plugin class lifecycle,
// model persistence and model insertion with reference remapping.
package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	blobcore "geomcore/internal/blob/core"
	"geomcore/internal/persistence"
	"geomcore/pkg/archive"
	"geomcore/pkg/extension"
	"geomcore/pkg/manifest"
	"geomcore/pkg/object"
	"geomcore/pkg/runtime"
	"geomcore/pkg/status"
)

var (
	// ErrUnknownClass indicates a snapshot referenced a class identifier
	// with no live descriptor, typically because its plugin is unloaded.
	ErrUnknownClass = errors.New("core: unknown class in snapshot")
	// ErrNotSerializable indicates an object's Write hook reported
	// failure or the class has no serialized form.
	ErrNotSerializable = errors.New("core: object not serializable")
	// ErrSnapshotCorrupt indicates a payload failed to read back or its
	// checksum did not match the recorded value.
	ErrSnapshotCorrupt = errors.New("core: snapshot corrupt")
	// ErrPluginLoaded indicates a plugin with the same name is live.
	ErrPluginLoaded = errors.New("core: plugin already loaded")
	// ErrPluginNotLoaded indicates no live plugin has the given name.
	ErrPluginNotLoaded = errors.New("core: plugin not loaded")
)

// Component is one addressable entry of a model: a polymorphic object
// plus the model-level identity other components reference it by.
type Component struct {
	Kind   status.ComponentKind
	Index  int
	ID     uuid.UUID
	Name   string
	Object object.Object
}

// Model is an ordered collection of components.
type Model struct {
	Name       string
	Components []Component
}

// Manifest builds the component manifest of the model's current state.
func (m *Model) Manifest() *manifest.Manifest {
	out := &manifest.Manifest{}
	for _, c := range m.Components {
		out.Add(manifest.Record{Kind: c.Kind, Index: c.Index, ID: c.ID, Name: c.Name})
	}
	return out
}

// find returns the component with the given id, or -1.
func (m *Model) find(id uuid.UUID) int {
	for i, c := range m.Components {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Plugin contributes class descriptors to the registry for the duration
// of its load.
type Plugin interface {
	Name() string
	Version() string
	RegisterClasses(reg *runtime.Registry) error
}

// PluginHandle records a loaded plugin and the generation mark its
// classes were registered under.
type PluginHandle struct {
	Name    string
	Version string
	Mark    int
	Classes int
}

// Kernel owns the registry and storage backends. Like everything in this
// module it is single-threaded by contract.
type Kernel struct {
	registry *runtime.Registry
	store    persistence.Store
	blobs    blobcore.Store
	metrics  MetricsRecorder
	logger   Logger
	plugins  map[string]PluginHandle
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger installs a logger for lifecycle events.
func WithLogger(l Logger) Option {
	return func(k *Kernel) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithMetrics installs a metrics recorder for kernel operations.
func WithMetrics(m MetricsRecorder) Option {
	return func(k *Kernel) {
		if m != nil {
			k.metrics = m
		}
	}
}

// WithPersistentStore installs the snapshot backend.
func WithPersistentStore(s persistence.Store) Option {
	return func(k *Kernel) { k.store = s }
}

// WithBlobStore installs the archive blob backend.
func WithBlobStore(b blobcore.Store) Option {
	return func(k *Kernel) { k.blobs = b }
}

// NewKernel constructs a kernel around reg. Storage backends are
// optional; operations needing an absent backend fail with a clear
// error.
func NewKernel(reg *runtime.Registry, opts ...Option) *Kernel {
	k := &Kernel{
		registry: reg,
		metrics:  noopMetrics{},
		logger:   noopLogger{},
		plugins:  make(map[string]PluginHandle),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Registry returns the kernel's class catalog.
func (k *Kernel) Registry() *runtime.Registry { return k.registry }

func (k *Kernel) observe(ctx context.Context, op string, start time.Time, err error) {
	k.metrics.Observe(ctx, op, err == nil, time.Since(start))
}

// LoadPlugin advances the registry generation and registers the plugin's
// classes under the new mark. On registration failure the mark is purged
// so no partial class set stays live.
func (k *Kernel) LoadPlugin(ctx context.Context, p Plugin) (PluginHandle, error) {
	start := time.Now()
	var err error
	defer func() { k.observe(ctx, "load_plugin", start, err) }()

	if _, ok := k.plugins[p.Name()]; ok {
		err = fmt.Errorf("%w: %s", ErrPluginLoaded, p.Name())
		return PluginHandle{}, err
	}
	mark := k.registry.AdvanceGeneration()
	before := k.registry.Len()
	if err = p.RegisterClasses(k.registry); err != nil {
		k.registry.Purge(mark)
		err = fmt.Errorf("register classes for %s: %w", p.Name(), err)
		return PluginHandle{}, err
	}
	handle := PluginHandle{
		Name:    p.Name(),
		Version: p.Version(),
		Mark:    mark,
		Classes: k.registry.Len() - before,
	}
	k.plugins[p.Name()] = handle
	k.logger.Infof("loaded plugin %s@%s: %d classes under mark %d", handle.Name, handle.Version, handle.Classes, handle.Mark)
	return handle, nil
}

// UnloadPlugin purges every class the named plugin registered and
// returns the number removed.
func (k *Kernel) UnloadPlugin(ctx context.Context, name string) (int, error) {
	start := time.Now()
	var err error
	defer func() { k.observe(ctx, "unload_plugin", start, err) }()

	handle, ok := k.plugins[name]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrPluginNotLoaded, name)
		return 0, err
	}
	purged := k.registry.Purge(handle.Mark)
	delete(k.plugins, name)
	k.logger.Infof("unloaded plugin %s: purged %d classes", name, purged)
	return purged, nil
}

// Plugins returns the handles of the live plugins.
func (k *Kernel) Plugins() []PluginHandle {
	out := make([]PluginHandle, 0, len(k.plugins))
	for _, h := range k.plugins {
		out = append(out, h)
	}
	return out
}

// userStringer is satisfied by every object embedding object.Base.
type userStringer interface {
	UserStrings() []object.UserString
}

// SaveModel serializes every component through its Write hook and stores
// the snapshot in the persistent store.
func (k *Kernel) SaveModel(ctx context.Context, m *Model) error {
	start := time.Now()
	var err error
	defer func() { k.observe(ctx, "save_model", start, err) }()

	if k.store == nil {
		err = errors.New("core: no persistent store configured")
		return err
	}
	var snap persistence.Snapshot
	snap, err = k.snapshot(m)
	if err != nil {
		return err
	}
	if err = k.store.SaveSnapshot(ctx, snap); err != nil {
		err = fmt.Errorf("save model %s: %w", m.Name, err)
		return err
	}
	k.logger.Infof("saved model %s: %d objects", m.Name, len(snap.Objects))
	return nil
}

// LoadModel reconstructs a model from the persistent store, resolving
// every class through the registry and verifying payload checksums.
func (k *Kernel) LoadModel(ctx context.Context, name string) (*Model, error) {
	start := time.Now()
	var err error
	defer func() { k.observe(ctx, "load_model", start, err) }()

	if k.store == nil {
		err = errors.New("core: no persistent store configured")
		return nil, err
	}
	snap, ok, loadErr := k.store.LoadSnapshot(ctx, name)
	if loadErr != nil {
		err = fmt.Errorf("load model %s: %w", name, loadErr)
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var m *Model
	m, err = k.restore(snap)
	if err != nil {
		return nil, err
	}
	k.logger.Infof("loaded model %s: %d objects", name, len(m.Components))
	return m, nil
}

// ExportModelArchive frames the model's snapshot into a single binary
// archive and stores it in the blob store under key.
func (k *Kernel) ExportModelArchive(ctx context.Context, m *Model, key string) (blobcore.Info, error) {
	start := time.Now()
	var err error
	defer func() { k.observe(ctx, "export_archive", start, err) }()

	if k.blobs == nil {
		err = errors.New("core: no blob store configured")
		return blobcore.Info{}, err
	}
	var snap persistence.Snapshot
	snap, err = k.snapshot(m)
	if err != nil {
		return blobcore.Info{}, err
	}
	var buf bytes.Buffer
	aw := archive.NewWriter(&buf)
	aw.WriteString(snap.Name)
	aw.WriteUint32(uint32(len(snap.Objects)))
	for _, rec := range snap.Objects {
		aw.WriteUUID(rec.Class)
		aw.WriteUUID(rec.ID)
		aw.WriteString(rec.Name)
		aw.WriteUint32(uint32(rec.Kind))
		aw.WriteInt32(int32(rec.Index))
		aw.WriteUint32(rec.CRC)
		aw.WriteBytes(rec.Payload)
	}
	if err = aw.Err(); err != nil {
		return blobcore.Info{}, fmt.Errorf("frame archive: %w", err)
	}
	var info blobcore.Info
	info, err = k.blobs.Put(ctx, key, &buf, blobcore.PutOptions{
		ContentType: "application/octet-stream",
		Metadata:    map[string]string{"model": snap.Name},
	})
	if err != nil {
		return blobcore.Info{}, err
	}
	return info, nil
}

// ImportModelArchive reads a framed archive back from the blob store and
// reconstructs the model.
func (k *Kernel) ImportModelArchive(ctx context.Context, key string) (*Model, error) {
	start := time.Now()
	var err error
	defer func() { k.observe(ctx, "import_archive", start, err) }()

	if k.blobs == nil {
		err = errors.New("core: no blob store configured")
		return nil, err
	}
	_, rc, getErr := k.blobs.Get(ctx, key)
	if getErr != nil {
		err = getErr
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	ar := archive.NewReader(rc)
	snap := persistence.Snapshot{Name: ar.ReadString()}
	n := ar.ReadUint32()
	for i := uint32(0); i < n && ar.Ok(); i++ {
		rec := persistence.ObjectRecord{
			Class: ar.ReadUUID(),
			ID:    ar.ReadUUID(),
			Name:  ar.ReadString(),
			Kind:  status.ComponentKind(ar.ReadUint32()),
			Index: int(ar.ReadInt32()),
			CRC:   ar.ReadUint32(),
		}
		rec.Payload = ar.ReadBytes()
		snap.Objects = append(snap.Objects, rec)
	}
	if err = ar.Err(); err != nil {
		err = fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
		return nil, err
	}
	var m *Model
	m, err = k.restore(snap)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// InsertModel merges src's components into dst, the model-insert
// operation. Components whose id already exists in dst keep the
// destination object and merge the source's extension set under policy;
// new components are duplicated in, their component references remapped
// from src's manifest to dst's. It reports false when some reference
// could not be remapped and was reset to a default.
func (k *Kernel) InsertModel(ctx context.Context, dst, src *Model, policy extension.ConflictResolution) (bool, error) {
	start := time.Now()
	var err error
	defer func() { k.observe(ctx, "insert_model", start, err) }()

	srcManifest := src.Manifest()
	remap := manifest.NewMap()
	type pending struct {
		src Component
		dup object.Object
	}
	var added []pending
	for _, c := range src.Components {
		if i := dst.find(c.ID); i >= 0 {
			remap.MapID(c.ID, c.ID)
			remap.MapIndex(c.Kind, c.Index, dst.Components[i].Index)
			dst.Components[i].Object.Extensions().Merge(c.Object.Extensions(), uuid.Nil, policy)
			continue
		}
		dup, ok := object.Duplicate(k.registry, c.Object).(object.Object)
		if !ok || dup == nil {
			err = fmt.Errorf("core: component %s (%s) is not duplicable", c.Name, c.ID)
			return false, err
		}
		newIndex := len(dst.Components) + len(added)
		remap.MapID(c.ID, c.ID)
		remap.MapIndex(c.Kind, c.Index, newIndex)
		added = append(added, pending{src: c, dup: dup})
	}
	for _, p := range added {
		dst.Components = append(dst.Components, Component{
			Kind:   p.src.Kind,
			Index:  len(dst.Components),
			ID:     p.src.ID,
			Name:   p.src.Name,
			Object: p.dup,
		})
	}
	dstManifest := dst.Manifest()
	ok := true
	for _, p := range added {
		if !p.dup.UpdateReferencedComponents(srcManifest, dstManifest, remap) {
			ok = false
		}
	}
	return ok, nil
}

// snapshot serializes every component of m.
func (k *Kernel) snapshot(m *Model) (persistence.Snapshot, error) {
	snap := persistence.Snapshot{Name: m.Name}
	for _, c := range m.Components {
		var buf bytes.Buffer
		aw := archive.NewWriter(&buf)
		if !c.Object.Write(aw) || aw.Err() != nil {
			return persistence.Snapshot{}, fmt.Errorf("%w: component %s (%s)", ErrNotSerializable, c.Name, c.ID)
		}
		rec := persistence.ObjectRecord{
			Class:   c.Object.Descriptor().ID(),
			ID:      c.ID,
			Name:    c.Name,
			Kind:    c.Kind,
			Index:   c.Index,
			Payload: buf.Bytes(),
			CRC:     c.Object.DataCRC(0),
		}
		if us, ok := c.Object.(userStringer); ok {
			for _, e := range us.UserStrings() {
				if rec.Strings == nil {
					rec.Strings = make(map[string]string)
				}
				rec.Strings[e.Key] = e.Value
			}
		}
		snap.Objects = append(snap.Objects, rec)
	}
	return snap, nil
}

// restore rebuilds a model from a snapshot.
func (k *Kernel) restore(snap persistence.Snapshot) (*Model, error) {
	m := &Model{Name: snap.Name}
	for _, rec := range snap.Objects {
		d := k.registry.ResolveID(rec.Class)
		if d == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClass, rec.Class)
		}
		created := k.registry.Create(d)
		obj, ok := created.(object.Object)
		if created == nil || !ok {
			return nil, fmt.Errorf("%w: class %s is abstract", ErrNotSerializable, d.Name())
		}
		ar := archive.NewReader(bytes.NewReader(rec.Payload))
		if !obj.Read(ar) || ar.Err() != nil {
			return nil, fmt.Errorf("%w: component %s (%s)", ErrSnapshotCorrupt, rec.Name, rec.ID)
		}
		if crc := obj.DataCRC(0); crc != rec.CRC {
			return nil, fmt.Errorf("%w: component %s checksum mismatch", ErrSnapshotCorrupt, rec.Name)
		}
		m.Components = append(m.Components, Component{
			Kind:   rec.Kind,
			Index:  rec.Index,
			ID:     rec.ID,
			Name:   rec.Name,
			Object: obj,
		})
	}
	return m, nil
}
