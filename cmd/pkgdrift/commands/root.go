// Package commands implements the pkgdrift command line interface.
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pkgdrift/pkgdrift/pkg/config"
	"github.com/pkgdrift/pkgdrift/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pkgdrift",
		Short: "pkgdrift - declarative package reconciliation agent",
		Long: `pkgdrift keeps the installed package set of a host in line with a
declarative manifest. It compares the RPM database against the desired
state, applies site policy (user packages, mandatory and unwanted
overrides, running-kernel protection), and drives the package
transaction tool with the resulting operations.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/pkgdrift/config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newFactsCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// loadConfig loads the agent configuration and builds the root logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	level := cfg.Telemetry.LogLevel
	if verbose {
		level = "debug"
	}
	logger := telemetry.NewLogger(level, cfg.Telemetry.LogFormat)

	return cfg, logger, nil
}
