package policy

import (
	"regexp"
	"strings"

	"github.com/pkgdrift/pkgdrift/pkg/pkgset"
)

// KernelIdentity is the running kernel snapshot the engine compares
// packages against. Version holds the full version-release string as
// reported by the kernel, with the flavour suffix already stripped off.
type KernelIdentity struct {
	// Version is the running kernel's version-release string
	// (e.g., "2.6.18-128.el5").
	Version string `json:"version"`

	// Flavour is the kernel flavour stripped from the release string
	// (e.g., "smp", "xen"); empty for the default kernel.
	Flavour string `json:"flavour,omitempty"`
}

// kernelFlavours are the known flavour suffixes a kernel release string
// may carry. Longer suffixes come first so "largesmp" is not read as
// "smp" and "xenU" is not read as "xen".
var kernelFlavours = []string{"largesmp", "hugemem", "xenU", "smp", "xen", "PAE"}

// archQualifiers are hardware qualifiers a release string may end with.
var archQualifiers = map[string]bool{
	"i386": true, "i486": true, "i586": true, "i686": true,
	"athlon": true, "x86_64": true, "ia64": true,
	"ppc": true, "ppc64": true, "s390": true, "s390x": true,
	"sparc64": true, "noarch": true,
}

// ParseKernelRelease derives a KernelIdentity from the host's reported
// running-kernel release string (uname -r form). It strips a trailing
// architecture qualifier, then a known flavour suffix; whatever is left
// is the version-release identity of the kernel package.
func ParseKernelRelease(release string) KernelIdentity {
	v := release
	if i := strings.LastIndex(v, "."); i >= 0 && archQualifiers[v[i+1:]] {
		v = v[:i]
	}
	for _, flavour := range kernelFlavours {
		if strings.HasSuffix(v, flavour) {
			return KernelIdentity{
				Version: strings.TrimSuffix(v, flavour),
				Flavour: flavour,
			}
		}
	}
	return KernelIdentity{Version: v}
}

// KernelPackageName returns the package name the running kernel is
// expected to be installed under: "kernel", or "kernel-<flavour>" for a
// flavoured kernel.
func (k KernelIdentity) KernelPackageName() string {
	if k.Flavour == "" {
		return "kernel"
	}
	return "kernel-" + k.Flavour
}

// kernelModuleRE matches the naming convention for out-of-tree kernel
// module packages. This is string matching, not dependency metadata; it
// is a known approximation kept deliberately unchanged.
var kernelModuleRE = regexp.MustCompile(`^(kernel-module-|kmod-)[A-Za-z0-9_.+-]+$`)

// protectedKernel reports whether the package must not be deleted while
// the identified kernel is running. In kernel-only mode just the kernel
// package proper is protected; otherwise packages matching the
// kernel-module naming pattern for this kernel are protected too.
func (k KernelIdentity) protectedKernel(p pkgset.Package, kernelOnly bool) bool {
	if p.Name == k.KernelPackageName() && p.EVR() == k.Version {
		return true
	}
	if kernelOnly {
		return false
	}
	return kernelModuleRE.MatchString(p.Name) &&
		strings.HasSuffix(p.Name, "-"+k.Version+k.Flavour)
}
