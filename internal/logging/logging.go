// Package logging carries request-scoped slog loggers through contexts so
// handlers and services share one enriched logger per request.
package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// ContextWithLogger attaches logger to the context. A nil context or logger
// is returned unchanged.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by ContextWithLogger, or nil when the
// context carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return nil
}
