// Package validation enforces the repository's import layering: the
// runtime package stays a leaf, the public pkg tree never reaches into
// internal, and plugins use only the public surface.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Violation records one forbidden import edge.
type Violation struct {
	Package string
	Import  string
	Rule    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s imports %s (%s)", v.Package, v.Import, v.Rule)
}

// Rule names one layering constraint: packages it applies to must not
// import packages the predicate forbids.
type Rule struct {
	Name      string
	AppliesTo func(pkgPath string) bool
	Forbidden func(importPath string) bool
}

// DefaultRules returns the layering contract for the module rooted at
// modulePath.
func DefaultRules(modulePath string) []Rule {
	inModule := func(p string) bool { return strings.HasPrefix(p, modulePath+"/") }
	return []Rule{
		{
			// pkg/runtime is the identity leaf every other layer builds on.
			Name:      "runtime-is-leaf",
			AppliesTo: func(p string) bool { return p == modulePath+"/pkg/runtime" },
			Forbidden: inModule,
		},
		{
			Name:      "pkg-no-internal",
			AppliesTo: func(p string) bool { return strings.HasPrefix(p, modulePath+"/pkg/") },
			Forbidden: func(p string) bool { return strings.HasPrefix(p, modulePath+"/internal/") },
		},
		{
			Name:      "plugins-public-surface-only",
			AppliesTo: func(p string) bool { return strings.HasPrefix(p, modulePath+"/plugins/") },
			Forbidden: func(p string) bool { return strings.HasPrefix(p, modulePath+"/internal/") },
		},
	}
}

// Check loads the packages matching patterns from dir and reports every
// import edge the rules forbid, sorted for stable output.
func Check(dir string, rules []Rule, patterns ...string) ([]Violation, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	var viols []Violation
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("load %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
		for _, rule := range rules {
			if !rule.AppliesTo(pkg.PkgPath) {
				continue
			}
			for imp := range pkg.Imports {
				if rule.Forbidden(imp) {
					viols = append(viols, Violation{Package: pkg.PkgPath, Import: imp, Rule: rule.Name})
				}
			}
		}
	}
	sort.Slice(viols, func(i, j int) bool {
		if viols[i].Package != viols[j].Package {
			return viols[i].Package < viols[j].Package
		}
		return viols[i].Import < viols[j].Import
	})
	return viols, nil
}
