// Package telemetry provides the observability surface of pkgdrift:
// structured logging, Prometheus metrics, and optional tracing.
package telemetry

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the root zerolog logger for the agent.
func NewLogger(level, format string) zerolog.Logger {
	var logger zerolog.Logger
	if format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
	return logger.Level(parseLogLevel(level)).With().Timestamp().Logger()
}

// parseLogLevel converts a string log level to zerolog.Level.
func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
