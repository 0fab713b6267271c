// Package logging defines a minimal structured-logging interface used across
// the project. Implementations wrap slog or logrus.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "mode", mode)
type Logger interface {
	// Debug logs verbose diagnostics, disabled at the default level.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

const (
	BackendSlog   = "slog"
	BackendLogrus = "logrus"
)

// New builds a Logger for the given backend ("slog" or "logrus") writing to w.
// Unknown backends fall back to slog; a nil writer means stdout.
func New(backend, level string, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	switch strings.ToLower(backend) {
	case BackendLogrus:
		return NewLogrusLogger(newLogrus(level, w))
	default:
		return NewSlogLogger(newSlog(level, w))
	}
}
