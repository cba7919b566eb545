// Package logger provides the application slog setup and common attributes.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
)

// Module provides the application logger.
var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)

// NewLogger creates the root slog.Logger. The level is taken from LOG_LEVEL
// (debug/info/warn/error, case-insensitive, defaulting to info). When
// GO_ENV=production a JSON handler is used, otherwise a text handler.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	case "info":
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if os.Getenv("GO_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// Scope returns a "scope" attribute used to tag log lines with the emitting
// component.
func Scope(name string) slog.Attr {
	return slog.String("scope", name)
}

// Error returns an "error" attribute.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}
