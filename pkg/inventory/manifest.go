package inventory

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pkgdrift/pkgdrift/pkg/pkgset"
)

// Manifest is the desired-state document: the package set this host
// should converge to, with optional administrator overrides per entry.
type Manifest struct {
	// Version is the manifest schema version.
	Version int `yaml:"version" validate:"required,eq=1"`

	// Host optionally names the host this manifest is for.
	Host string `yaml:"host,omitempty"`

	// Packages is the desired package list.
	Packages []ManifestEntry `yaml:"packages" validate:"required,min=1,dive"`
}

// ManifestEntry describes one desired package.
type ManifestEntry struct {
	Name    string `yaml:"name" validate:"required"`
	Version string `yaml:"version" validate:"required"`
	Release string `yaml:"release" validate:"required"`
	Arch    string `yaml:"arch" validate:"required"`

	// Mandatory forces the package to end up installed regardless of
	// other policy.
	Mandatory bool `yaml:"mandatory,omitempty"`

	// Unwanted declares the package not actually desired even though it
	// is listed, forcing its removal if present.
	Unwanted bool `yaml:"unwanted,omitempty"`

	// Local marks the package user-managed.
	Local bool `yaml:"local,omitempty"`
}

var validate = validator.New()

// LoadManifest reads and validates a desired-state manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest parses and validates manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Desired returns the manifest's package list as the desired inventory.
func (m *Manifest) Desired() []pkgset.Package {
	pkgs := make([]pkgset.Package, 0, len(m.Packages))
	for _, e := range m.Packages {
		pkgs = append(pkgs, pkgset.Package{
			Name:      e.Name,
			Version:   e.Version,
			Release:   e.Release,
			Arch:      e.Arch,
			Mandatory: e.Mandatory,
			Unwanted:  e.Unwanted,
			Local:     e.Local,
		})
	}
	return pkgs
}
