// Package inventory acquires the two package inventories the
// reconciliation pipeline compares: the installed set from the host's
// rpm database and the desired set from a declarative manifest file.
// It also discovers the running kernel's release string; deriving the
// kernel identity from it is the policy package's job.
package inventory

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pkgdrift/pkgdrift/pkg/pkgset"
)

// rpmQueryFormat yields one pipe-separated line per installed package.
const rpmQueryFormat = `%{NAME}|%{VERSION}|%{RELEASE}|%{ARCH}\n`

// RPMDatabase reads the installed package set by querying the host's
// rpm database.
type RPMDatabase struct {
	// Command is the rpm binary to invoke. Defaults to "rpm".
	Command string

	// LocalVendors marks packages from these VENDOR strings as local
	// (user-managed). Empty means no local detection.
	LocalVendors []string

	log zerolog.Logger
}

// NewRPMDatabase creates an rpm-backed installed-inventory source.
func NewRPMDatabase(logger zerolog.Logger) *RPMDatabase {
	return &RPMDatabase{
		Command: "rpm",
		log:     logger.With().Str("component", "rpmdb").Logger(),
	}
}

// Installed queries the rpm database and returns the installed package
// set.
func (r *RPMDatabase) Installed(ctx context.Context) ([]pkgset.Package, error) {
	format := rpmQueryFormat
	if len(r.LocalVendors) > 0 {
		format = `%{NAME}|%{VERSION}|%{RELEASE}|%{ARCH}|%{VENDOR}\n`
	}

	cmd := exec.CommandContext(ctx, r.Command, "-qa", "--qf", format)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rpm query failed: %w (stderr: %s)",
			err, strings.TrimSpace(stderr.String()))
	}

	pkgs, err := ParseRPMOutput(stdout.String(), r.LocalVendors)
	if err != nil {
		return nil, err
	}

	r.log.Debug().Int("packages", len(pkgs)).Msg("Installed inventory collected")
	return pkgs, nil
}

// ParseRPMOutput parses pipe-separated rpm query output into packages.
// Lines are NAME|VERSION|RELEASE|ARCH with an optional trailing VENDOR
// field used for local-package detection.
func ParseRPMOutput(output string, localVendors []string) ([]pkgset.Package, error) {
	var pkgs []pkgset.Package
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 4 {
			return nil, fmt.Errorf("malformed rpm query line: %q", line)
		}
		p := pkgset.Package{
			Name:    fields[0],
			Version: fields[1],
			Release: fields[2],
			Arch:    fields[3],
		}
		if len(fields) > 4 {
			for _, vendor := range localVendors {
				if strings.EqualFold(fields[4], vendor) {
					p.Local = true
					break
				}
			}
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}

// kernelReleaseFile is where the kernel publishes its release string.
const kernelReleaseFile = "/proc/sys/kernel/osrelease"

// KernelRelease returns the running kernel's release string, reading
// the proc interface first and falling back to uname -r.
func KernelRelease(ctx context.Context) (string, error) {
	if data, err := os.ReadFile(kernelReleaseFile); err == nil {
		if release := strings.TrimSpace(string(data)); release != "" {
			return release, nil
		}
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, "uname", "-r")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to discover kernel release: %w", err)
	}
	release := strings.TrimSpace(stdout.String())
	if release == "" {
		return "", fmt.Errorf("uname reported an empty kernel release")
	}
	return release, nil
}
