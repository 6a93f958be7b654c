// Package logger provides structured logging using Go 1.21's log/slog.
// It sets up a JSON handler with service-level context and target-scoped
// logger helpers for the monitor pipeline.
package logger

import (
	"log/slog"
	"os"
)

// Init creates and returns a structured logger for the given service.
// The logger outputs JSON to stdout with the service name embedded.
func Init(service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	logger := slog.New(handler).With(
		slog.String("service", service),
	)

	// Set as default so log/slog.Info() etc. also use structured output
	slog.SetDefault(logger)

	return logger
}

// ForTarget returns a logger with the target key attached, so every line of
// a processing attempt carries its target context.
func ForTarget(base *slog.Logger, targetKey string) *slog.Logger {
	return base.With(slog.String("target", targetKey))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
