package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// EnsureTraceID ensures the context has a trace ID. A valid span in ctx lends
// its OpenTelemetry trace ID; otherwise a UUID is generated.
func EnsureTraceID(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if GetTraceID(ctx) != "" {
		return ctx
	}
	if id := TraceIDFromSpan(ctx); id != "" {
		return WithTraceID(ctx, id)
	}
	return WithTraceID(ctx, GenerateTraceID())
}

// TraceIDFromSpan returns the OpenTelemetry trace ID of the span in ctx, or ""
func TraceIDFromSpan(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// LoggerWithContext returns logger annotated with the trace ID from ctx.
// A nil logger falls back to slog.Default.
func LoggerWithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	return logger
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}
