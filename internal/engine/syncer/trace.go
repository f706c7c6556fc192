package syncer

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var syncTracer = otel.Tracer("footsync/internal/engine/syncer")
var syncNoopSpan = trace.SpanFromContext(context.Background())

func startSyncSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, syncNoopSpan
	}
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, syncNoopSpan
	}
	return syncTracer.Start(ctx, name)
}
