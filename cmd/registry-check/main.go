// Command registry-check loads the built-in class catalog plus the
// meshdata plugin and verifies the registry invariants a host relies on:
// derivation walks, clone dispatch, exact-generation purge and archive
// round trips. It exits non-zero when any check fails.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"geomcore/pkg/archive"
	"geomcore/pkg/object"
	"geomcore/pkg/runtime"
	"geomcore/plugins/meshdata"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("registry-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var verbose bool
	fs.BoolVar(&verbose, "v", false, "print each check as it passes")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := run(stdout, verbose); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "Registry check failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	if _, writeErr := fmt.Fprintln(stdout, "Registry check passed."); writeErr != nil {
		return 1
	}
	return 0
}

// run performs every check against a fresh registry.
func run(stdout io.Writer, verbose bool) error {
	report := func(format string, args ...any) {
		if verbose {
			fmt.Fprintf(stdout, format+"\n", args...)
		}
	}

	reg := runtime.NewRegistry()
	root, err := object.RegisterRootClass(reg)
	if err != nil {
		return fmt.Errorf("register root class: %w", err)
	}
	report("root class %s registered under mark %d", root.Name(), root.Mark())

	mark := reg.AdvanceGeneration()
	if err := (meshdata.Plugin{}).RegisterClasses(reg); err != nil {
		return fmt.Errorf("register meshdata classes: %w", err)
	}
	report("meshdata classes registered under mark %d", mark)

	if err := checkDerivation(reg, root); err != nil {
		return err
	}
	report("derivation checks passed")

	if err := checkCloneDispatch(reg); err != nil {
		return err
	}
	report("clone dispatch checks passed")

	if err := checkRoundTrip(reg); err != nil {
		return err
	}
	report("archive round trip checks passed")

	if err := checkPurge(reg, mark, root); err != nil {
		return err
	}
	report("generation purge checks passed")

	return nil
}

// checkDerivation verifies identity resolution and the parent-chain walk.
func checkDerivation(reg *runtime.Registry, root *runtime.ClassDescriptor) error {
	patch := reg.ResolveID(meshdata.MeshPatchClassID)
	if patch == nil {
		return errors.New("MeshPatch class not resolvable by id")
	}
	if byName := reg.ResolveName("MeshPatch"); byName != patch {
		return errors.New("name and id resolution disagree for MeshPatch")
	}
	if !reg.IsDerivedFrom(patch, patch) {
		return errors.New("derivation is not reflexive")
	}
	if !reg.IsDerivedFrom(patch, root) {
		return errors.New("MeshPatch does not derive from the root class")
	}
	group := reg.ResolveID(meshdata.PatchGroupClassID)
	if group == nil {
		return errors.New("PatchGroup class not resolvable by id")
	}
	if reg.IsDerivedFrom(patch, group) {
		return errors.New("sibling classes report derivation")
	}
	return nil
}

// checkCloneDispatch verifies Duplicate honors the declared clone modes.
func checkCloneDispatch(reg *runtime.Registry) error {
	patch := meshdata.NewMeshPatch()
	patch.Vertices = [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	patch.Faces = [][3]int32{{0, 1, 2}}
	dup, ok := object.Duplicate(reg, patch).(*meshdata.MeshPatch)
	if !ok || dup == nil {
		return errors.New("copy-cloneable MeshPatch did not duplicate")
	}
	if dup == patch || len(dup.Vertices) != 3 {
		return errors.New("MeshPatch duplicate is not independent")
	}

	group := meshdata.NewPatchGroup()
	group.Label = "walls"
	group.Members = []uuid.UUID{uuid.New()}
	gdup, ok := object.Duplicate(reg, group).(*meshdata.PatchGroup)
	if !ok || gdup == nil {
		return errors.New("assign-cloneable PatchGroup did not duplicate")
	}
	if gdup.Label != "walls" || len(gdup.Members) != 1 {
		return errors.New("PatchGroup duplicate lost state")
	}
	return nil
}

// checkRoundTrip writes a patch through the archive codec, reads it back
// through a factory-created instance and compares checksums.
func checkRoundTrip(reg *runtime.Registry) error {
	patch := meshdata.NewMeshPatch()
	patch.Vertices = [][3]float64{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {2, 2, 0}}
	patch.Faces = [][3]int32{{0, 1, 2}, {1, 3, 2}}
	patch.SetUserString("material", "steel")

	var buf bytes.Buffer
	w := archive.NewWriter(&buf)
	if !patch.Write(w) || w.Err() != nil {
		return fmt.Errorf("write patch: %v", w.Err())
	}

	created := reg.Create(reg.ResolveID(meshdata.MeshPatchClassID))
	restored, ok := created.(*meshdata.MeshPatch)
	if !ok || restored == nil {
		return errors.New("factory did not produce a MeshPatch")
	}
	r := archive.NewReader(bytes.NewReader(buf.Bytes()))
	if !restored.Read(r) || r.Err() != nil {
		return fmt.Errorf("read patch: %v", r.Err())
	}
	if restored.DataCRC(0) != patch.DataCRC(0) {
		return errors.New("round trip changed the data checksum")
	}
	if v, ok := restored.UserString("material"); !ok || v != "steel" {
		return errors.New("round trip lost user strings")
	}
	return nil
}

// checkPurge verifies unloading removes exactly the plugin's generation.
func checkPurge(reg *runtime.Registry, mark int, root *runtime.ClassDescriptor) error {
	purged := reg.Purge(mark)
	if purged != 2 {
		return fmt.Errorf("purge removed %d classes, want 2", purged)
	}
	if reg.ResolveID(meshdata.MeshPatchClassID) != nil {
		return errors.New("MeshPatch survived its generation purge")
	}
	if reg.ResolveID(object.RootClassID) != root {
		return errors.New("purge removed the root class")
	}
	return nil
}
