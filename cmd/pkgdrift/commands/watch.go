package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pkgdrift/pkgdrift/pkg/config"
	"github.com/pkgdrift/pkgdrift/pkg/telemetry"
)

func newWatchCommand() *cobra.Command {
	var (
		interval time.Duration
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reconcile continuously, reacting to manifest changes",
		Long: `Run the agent in the foreground. A reconciliation pass runs at the
configured interval and whenever the manifest file changes. When
telemetry.metrics_listen is set, Prometheus metrics are exposed.`,
		Example: `  # Reconcile every 30 minutes and on manifest edits
  pkgdrift watch --interval 30m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return watch(cmd.Context(), cfg, logger, interval, dryRun)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 30*time.Minute, "periodic reconciliation interval")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and log transactions without executing them")

	return cmd
}

func watch(ctx context.Context, cfg *config.Config, logger zerolog.Logger, interval time.Duration, dryRun bool) error {
	metrics := telemetry.NewMetrics(telemetry.MetricsConfig{
		Enabled:   cfg.Telemetry.MetricsListen != "",
		Namespace: cfg.Telemetry.MetricsNamespace,
		Listen:    cfg.Telemetry.MetricsListen,
		Path:      cfg.Telemetry.MetricsPath,
	})
	if handler := metrics.Handler(); handler != nil {
		go func() {
			if err := metrics.Serve(); err != nil {
				logger.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
		logger.Info().Str("listen", cfg.Telemetry.MetricsListen).Msg("Metrics endpoint started")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the manifest's directory: editors and config management
	// replace the file, which drops a watch on the file itself.
	manifestDir := filepath.Dir(cfg.Manifest)
	manifestName := filepath.Base(cfg.Manifest)
	if err := watcher.Add(manifestDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", manifestDir, err)
	}

	runOnce := func(trigger string) {
		log := logger.With().Str("trigger", trigger).Logger()
		if err := runApply(ctx, cfg, log, dryRun, metrics); err != nil {
			log.Error().Err(err).Msg("Reconciliation failed")
		}
	}

	runOnce("startup")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Debounce manifest events: a save typically produces several.
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Watch stopped")
			return nil

		case <-ticker.C:
			runOnce("interval")

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if filepath.Base(event.Name) != manifestName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug().Str("event", event.Op.String()).Msg("Manifest changed")
			pending = time.After(2 * time.Second)

		case <-pending:
			pending = nil
			runOnce("manifest")

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}
