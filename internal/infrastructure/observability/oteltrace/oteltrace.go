// Package oteltrace backs the tracing port with the global OpenTelemetry
// tracer provider. Spans are no-ops until main registers an SDK provider.
package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultInstrumentation = "foodtruck"

type tracer struct{ t trace.Tracer }

// New returns a tracer scoped to the service name, falling back to the kiosk's own.
func New(serviceName string) observability.Tracer {
	if serviceName == "" {
		serviceName = defaultInstrumentation
	}
	return &tracer{t: otel.Tracer(serviceName)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
