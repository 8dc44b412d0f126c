// Package log wraps log/slog with component-scoped loggers and the shared
// field-name vocabulary used across the application.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// New creates the application root logger writing text to stdout at the
// given level ("debug", "info", "warn", "error"; unknown values mean info).
func New(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// ForComponent returns a child logger tagged with a component name.
func ForComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(FieldComponent, component)
}

// SetDefault installs the logger as the process default.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
