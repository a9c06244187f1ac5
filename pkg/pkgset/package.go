// Package pkgset defines the package and operation model shared by the
// inventory, diff, and policy layers.
//
// A Package is a value: once built by an inventory source it is never
// mutated. The reconciliation pipeline only regroups packages between
// operations; it never edits them in place.
package pkgset

import "fmt"

// Package identifies one installed or desired software package.
type Package struct {
	// Name is the package name (e.g., "kernel-smp", "bash").
	Name string `json:"name" yaml:"name"`

	// Version is the upstream version (e.g., "3.10.0").
	Version string `json:"version" yaml:"version"`

	// Release is the distribution release tag (e.g., "123.el7").
	Release string `json:"release" yaml:"release"`

	// Arch is the hardware architecture (e.g., "x86_64", "noarch").
	Arch string `json:"arch" yaml:"arch"`

	// Mandatory marks an administrator override: the package must end up
	// installed regardless of other policy.
	Mandatory bool `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`

	// Unwanted marks an administrator override: though the package appears
	// in a list, it is to be treated as not actually desired/installed.
	Unwanted bool `json:"unwanted,omitempty" yaml:"unwanted,omitempty"`

	// Local marks a user-managed package, exempt from automatic removal
	// and replacement under the corresponding policy flags.
	Local bool `json:"local,omitempty" yaml:"local,omitempty"`
}

// Equal reports whether two packages refer to the same name, version,
// release, and architecture. The override flags never participate:
// two copies of a package that differ only in flags are equal.
func (p Package) Equal(o Package) bool {
	return p.Name == o.Name &&
		p.Version == o.Version &&
		p.Release == o.Release &&
		p.Arch == o.Arch
}

// EVR returns the combined "version-release" string.
func (p Package) EVR() string {
	return p.Version + "-" + p.Release
}

// String renders the package in NEVRA-ish form for logs and scripts.
func (p Package) String() string {
	return fmt.Sprintf("%s-%s-%s.%s", p.Name, p.Version, p.Release, p.Arch)
}

// ContainsEqual reports whether pkgs holds a package equal to p.
func ContainsEqual(pkgs []Package, p Package) bool {
	for _, q := range pkgs {
		if q.Equal(p) {
			return true
		}
	}
	return false
}
