package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/audreydng/QueueSmart/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLogger(t *testing.T) {
	t.Parallel()

	base := slog.New(slog.NewTextHandler(io.Discard, nil))

	if got := serviceLogger(context.Background(), base, "QueueService", "Join"); got == nil {
		t.Fatalf("expected a logger for a bare context")
	}

	contextual := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := logging.ContextWithLogger(context.Background(), contextual)
	if got := serviceLogger(ctx, base, "QueueService", "Join"); got == nil {
		t.Fatalf("expected the context logger to take precedence")
	}

	if got := serviceLogger(context.Background(), nil, "QueueService", ""); got == nil {
		t.Fatalf("expected a fallback logger when nothing is configured")
	}
}
