package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pkgdrift/pkgdrift/pkg/config"
	"github.com/pkgdrift/pkgdrift/pkg/executor"
	"github.com/pkgdrift/pkgdrift/pkg/stores"
	"github.com/pkgdrift/pkgdrift/pkg/telemetry"
)

func newApplyCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile the installed package set with the manifest",
		Long: `Compute the reconciliation plan and execute it through the configured
package transaction tool. The run is recorded in the history store
when one is configured.`,
		Example: `  # Reconcile now
  pkgdrift apply

  # Log the transaction script without executing it
  pkgdrift apply --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			tracer, err := telemetry.NewTracer(cfg.Telemetry.TraceExporter, cmd.Root().Version)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tracer.Shutdown(shutdownCtx)
			}()

			ctx, span := tracer.Start(cmd.Context(), "reconcile",
				trace.WithAttributes(attribute.Bool("dry_run", dryRun)))
			defer span.End()

			err = runApply(ctx, cfg, logger, dryRun, nil)
			telemetry.RecordError(span, err)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and log the transaction without executing it")

	return cmd
}

// runApply executes one reconciliation pass. metrics may be nil.
func runApply(ctx context.Context, cfg *config.Config, logger zerolog.Logger, dryRun bool, metrics *telemetry.Metrics) error {
	if metrics == nil {
		metrics = telemetry.NewMetrics(telemetry.MetricsConfig{})
	}

	started := time.Now()
	metrics.RecordRunStarted()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	p, err := buildPlan(ctx, cfg, logger)
	if err != nil {
		metrics.RecordError(errorClass(err))
		metrics.RecordRunCompleted("failed", time.Since(started))
		return err
	}

	var run *stores.Run
	if store != nil {
		run, err = store.StartRun(ctx, p.Host, dryRun)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}

	for _, op := range p.Operations {
		metrics.RecordOperation(string(op.Kind))
	}
	metrics.RecordKernelProtections(p.Stats.KernelProtected)
	metrics.RecordLocalSkips(p.Stats.LocalKept)
	metrics.RecordForcedResolutions("delete", p.Stats.ForcedDeletes)
	metrics.RecordForcedResolutions("install", p.Stats.ForcedInstalls)

	exec := executor.New(cfg.Executor.Command, dryRun, logger)
	execErr := exec.Execute(ctx, p.Operations)

	result := summarize(p)
	if execErr != nil {
		result.Status = stores.RunStatusFailed
		result.Error = execErr.Error()
		metrics.RecordError(errorClass(execErr))
		metrics.RecordRunCompleted("failed", time.Since(started))
	} else {
		result.Status = stores.RunStatusSucceeded
		metrics.RecordRunCompleted("succeeded", time.Since(started))
		metrics.RecordPackagesTouched("delete", result.Deletes)
		metrics.RecordPackagesTouched("install", result.Installs)
		metrics.RecordPackagesTouched("replace", result.Replaces)
	}

	if run != nil {
		if err := store.CompleteRun(ctx, run.ID, result); err != nil {
			logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to record run outcome")
		}
	}

	if execErr != nil {
		return execErr
	}

	logger.Info().
		Int("deletes", result.Deletes).
		Int("installs", result.Installs).
		Int("replaces", result.Replaces).
		Int("unchanged", result.Unchanged).
		Dur("duration", time.Since(started)).
		Bool("dry_run", dryRun).
		Msg("Reconciliation complete")
	return nil
}
