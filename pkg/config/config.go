// Package config loads and validates the pkgdrift agent configuration.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the agent configuration.
type Config struct {
	// Manifest is the path to the desired-state manifest file.
	Manifest string `yaml:"manifest" validate:"required"`

	// Policy holds the reconciliation policy flags.
	Policy PolicyConfig `yaml:"policy"`

	// Executor configures the package transaction tool.
	Executor ExecutorConfig `yaml:"executor"`

	// Store configures the run history store.
	Store StoreConfig `yaml:"store"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PolicyConfig mirrors the policy engine flags.
type PolicyConfig struct {
	AllowUserPackages      bool `yaml:"allow_user_packages"`
	PriorityToUserPackages bool `yaml:"priority_to_user_packages"`
	ProtectRunningKernel   bool `yaml:"protect_running_kernel"`

	// LocalVendors marks installed packages from these vendors as
	// user-managed.
	LocalVendors []string `yaml:"local_vendors,omitempty"`
}

// ExecutorConfig configures transaction execution.
type ExecutorConfig struct {
	// Command is the transaction tool invocation.
	Command []string `yaml:"command" validate:"required,min=1"`
}

// StoreConfig configures the run history store.
type StoreConfig struct {
	// Path is the SQLite database file. Empty disables run history.
	Path string `yaml:"path,omitempty"`
}

// TelemetryConfig configures the observability surface.
type TelemetryConfig struct {
	// LogLevel sets the minimum log level (trace..error).
	LogLevel string `yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`

	// LogFormat selects console or json output.
	LogFormat string `yaml:"log_format,omitempty" validate:"omitempty,oneof=console json"`

	// MetricsListen is the address the Prometheus endpoint binds to
	// in watch mode. Empty disables metrics exposition.
	MetricsListen string `yaml:"metrics_listen,omitempty"`

	// MetricsNamespace prefixes all metric names.
	MetricsNamespace string `yaml:"metrics_namespace,omitempty"`

	// MetricsPath is the HTTP path of the metrics endpoint.
	MetricsPath string `yaml:"metrics_path,omitempty"`

	// TraceExporter selects the trace exporter (stdout, none).
	TraceExporter string `yaml:"trace_exporter,omitempty" validate:"omitempty,oneof=stdout none"`
}

var validate = validator.New()

// Default returns the configuration defaults applied before file values.
func Default() Config {
	return Config{
		Policy: PolicyConfig{
			ProtectRunningKernel: true,
		},
		Executor: ExecutorConfig{
			Command: []string{"pkgtx", "--batch"},
		},
		Telemetry: TelemetryConfig{
			LogLevel:         "info",
			LogFormat:        "console",
			MetricsNamespace: "pkgdrift",
			MetricsPath:      "/metrics",
			TraceExporter:    "none",
		},
	}
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration YAML over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
