package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observability is what use cases, the worker and the HTTP layer receive at
// construction. Adapters live under infrastructure/observability.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// Metrics hands out the instruments registered at startup. Unknown keys yield a no-op.
type Metrics interface {
	Counter(name MetricKey) Counter
	Histogram(name MetricKey) Histogram
}

// Tracer starts spans for use cases and outbound menu API calls.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Counter only grows; callers must not pass a negative delta.
type Counter interface {
	Add(delta float64, labels ...Label)
}

// Histogram records durations in seconds.
type Histogram interface {
	Observe(value float64, labels ...Label)
}

// Label values must come from a bounded set (route pattern, outcome, month).
type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }

type Field struct {
	Key   string
	Value any
}

func F(k string, v any) Field { return Field{Key: k, Value: v} }

// Logger writes structured events. Messages are snake_case event names.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

type MetricKey string
