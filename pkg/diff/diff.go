// Package diff builds the raw operation list fed to the policy engine.
// It groups the installed and desired inventories by package name and
// classifies each name into one of the four operation shapes; all
// policy decisions are left to pkg/policy.
package diff

import (
	"sort"

	"github.com/pkgdrift/pkgdrift/pkg/pkgset"
)

// Compute compares the installed package inventory against the desired
// one and returns one operation per distinct package name, in name
// order:
//
//   - a name present only on the installed side becomes a delete
//   - a name present only on the desired side becomes an install
//   - a name whose two lists are set-equal becomes a no-change
//     operation, carrying any override-flag differences
//   - anything else becomes a replace spanning all versions and
//     architectures of that name
func Compute(installed, desired []pkgset.Package) []pkgset.Operation {
	byName := make(map[string]*group)
	var names []string

	add := func(p pkgset.Package, installedSide bool) {
		g, ok := byName[p.Name]
		if !ok {
			g = &group{}
			byName[p.Name] = g
			names = append(names, p.Name)
		}
		if installedSide {
			g.sources = append(g.sources, p)
		} else {
			g.targets = append(g.targets, p)
		}
	}
	for _, p := range installed {
		add(p, true)
	}
	for _, p := range desired {
		add(p, false)
	}
	sort.Strings(names)

	ops := make([]pkgset.Operation, 0, len(names))
	for _, name := range names {
		g := byName[name]
		switch {
		case len(g.targets) == 0:
			ops = append(ops, pkgset.NewDelete(g.sources...))
		case len(g.sources) == 0:
			ops = append(ops, pkgset.NewInstall(g.targets...))
		case setEqual(g.sources, g.targets):
			ops = append(ops, pkgset.NewNothing(g.sources, g.targets))
		default:
			ops = append(ops, pkgset.NewReplace(g.sources, g.targets))
		}
	}
	return ops
}

type group struct {
	sources []pkgset.Package
	targets []pkgset.Package
}

// setEqual reports whether the two lists hold the same packages under
// package equality, flags ignored. Duplicates must pair up one-to-one.
func setEqual(a, b []pkgset.Package) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, p := range a {
		found := false
		for i, q := range b {
			if !used[i] && p.Equal(q) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
