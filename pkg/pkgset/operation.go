package pkgset

import "fmt"

// OperationKind identifies the shape of a reconciliation operation.
type OperationKind string

const (
	// OperationDelete removes currently installed packages.
	OperationDelete OperationKind = "delete"

	// OperationInstall installs packages not currently present.
	OperationInstall OperationKind = "install"

	// OperationReplace atomically swaps installed packages for new ones.
	// The pairing matters for pre/post script ordering in the underlying
	// package system, so a replace is not equivalent to delete+install.
	OperationReplace OperationKind = "replace"

	// OperationNothing is a degenerate replace whose sources and targets
	// are set-equal; it exists only to carry override-flag differences
	// between the installed and desired copies of the same packages.
	OperationNothing OperationKind = "nothing"
)

// Validate checks if the operation kind is valid.
func (k OperationKind) Validate() error {
	switch k {
	case OperationDelete, OperationInstall, OperationReplace, OperationNothing:
		return nil
	default:
		return fmt.Errorf("invalid operation kind: %s", k)
	}
}

// Operation is a tagged variant over the four reconciliation shapes.
//
// Delete carries only Sources, Install carries only Targets, and
// Replace/Nothing carry both. A Replace's lists may span several
// architectures and several versions of the same name.
type Operation struct {
	// Kind is the operation shape.
	Kind OperationKind `json:"kind"`

	// Sources are the currently installed packages the operation acts on.
	Sources []Package `json:"sources,omitempty"`

	// Targets are the desired packages the operation should produce.
	Targets []Package `json:"targets,omitempty"`
}

// NewDelete builds a delete operation over installed packages.
func NewDelete(pkgs ...Package) Operation {
	return Operation{Kind: OperationDelete, Sources: pkgs}
}

// NewInstall builds an install operation over desired packages.
func NewInstall(pkgs ...Package) Operation {
	return Operation{Kind: OperationInstall, Targets: pkgs}
}

// NewReplace builds a replace operation pairing installed sources with
// desired targets.
func NewReplace(sources, targets []Package) Operation {
	return Operation{Kind: OperationReplace, Sources: sources, Targets: targets}
}

// NewNothing builds a nothing operation carrying flag-only differences
// between set-equal source and target lists.
func NewNothing(sources, targets []Package) Operation {
	return Operation{Kind: OperationNothing, Sources: sources, Targets: targets}
}

// Packages returns the single package list of a Delete or Install.
// For Replace/Nothing it returns nil; those carry two lists.
func (o Operation) Packages() []Package {
	switch o.Kind {
	case OperationDelete:
		return o.Sources
	case OperationInstall:
		return o.Targets
	default:
		return nil
	}
}

// String renders a short human-readable form for logs.
func (o Operation) String() string {
	switch o.Kind {
	case OperationDelete, OperationInstall:
		return fmt.Sprintf("%s%v", o.Kind, o.Packages())
	default:
		return fmt.Sprintf("%s(%v -> %v)", o.Kind, o.Sources, o.Targets)
	}
}
