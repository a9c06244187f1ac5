package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pkgdrift/pkgdrift/pkg/config"
	"github.com/pkgdrift/pkgdrift/pkg/diff"
	"github.com/pkgdrift/pkgdrift/pkg/inventory"
	"github.com/pkgdrift/pkgdrift/pkg/pkgset"
	"github.com/pkgdrift/pkgdrift/pkg/policy"
	"github.com/pkgdrift/pkgdrift/pkg/stores"
)

// plan holds the resolved operations for one reconciliation pass.
// Unchanged counts the diff groups that matched the manifest exactly;
// the engine resolves those away, so they are counted before policy.
type plan struct {
	Host       string
	Operations []pkgset.Operation
	Unchanged  int
	Stats      policy.Stats
}

// buildPlan runs the planning pipeline: collect the installed set,
// load the manifest, diff the two, and resolve policy.
func buildPlan(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*plan, error) {
	manifest, err := inventory.LoadManifest(cfg.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	rpmdb := inventory.NewRPMDatabase(logger)
	rpmdb.LocalVendors = cfg.Policy.LocalVendors

	installed, err := rpmdb.Installed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read installed packages: %w", err)
	}

	engineCfg := policy.Config{
		AllowUserPackages:      cfg.Policy.AllowUserPackages,
		PriorityToUserPackages: cfg.Policy.PriorityToUserPackages,
		ProtectRunningKernel:   cfg.Policy.ProtectRunningKernel,
	}
	if engineCfg.ProtectRunningKernel {
		release, err := inventory.KernelRelease(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to determine running kernel: %w", err)
		}
		engineCfg.Kernel = policy.ParseKernelRelease(release)
	}

	raw := diff.Compute(installed, manifest.Desired())

	engine := policy.New(engineCfg, logger)
	ops, stats, err := engine.ApplyWithStats(raw)
	if err != nil {
		return nil, fmt.Errorf("policy resolution failed: %w", err)
	}

	host := manifest.Host
	if host == "" {
		host, _ = os.Hostname()
	}

	logger.Info().
		Int("installed", len(installed)).
		Int("desired", len(manifest.Desired())).
		Int("operations", len(ops)).
		Msg("Plan computed")

	return &plan{
		Host:       host,
		Operations: ops,
		Unchanged:  countUnchanged(raw),
		Stats:      stats,
	}, nil
}

// errorClass maps an error to the class label used by the error metric.
func errorClass(err error) string {
	var perr *policy.Error
	if errors.As(err, &perr) {
		return string(perr.Class)
	}
	return "runtime"
}

// countUnchanged counts the no-change groups in the raw diff output.
func countUnchanged(ops []pkgset.Operation) int {
	n := 0
	for _, op := range ops {
		if op.Kind == pkgset.OperationNothing {
			n++
		}
	}
	return n
}

// summarize counts the packages touched per operation kind.
func summarize(p *plan) stores.RunResult {
	result := stores.RunResult{Unchanged: p.Unchanged}
	for _, op := range p.Operations {
		switch op.Kind {
		case pkgset.OperationDelete:
			result.Deletes += len(op.Sources)
		case pkgset.OperationInstall:
			result.Installs += len(op.Targets)
		case pkgset.OperationReplace:
			result.Replaces += len(op.Targets)
		}
	}
	return result
}

// openStore opens the run history store when one is configured.
// A nil store with nil error means history is disabled.
func openStore(ctx context.Context, cfg *config.Config) (*stores.SQLiteStore, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}
	store, err := stores.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
