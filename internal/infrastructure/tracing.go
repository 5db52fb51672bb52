package infrastructure

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"labmeas/internal/config"
)

// TracerName is the instrumentation scope of import spans
const TracerName = "labmeas/importer"

// Tracing exports finished spans as JSON lines to a writer
type Tracing struct {
	provider *sdktrace.TracerProvider
	closer   io.Closer
}

// NewTracing creates a tracer provider with a synchronous stdouttrace exporter writing to w
func NewTracing(w io.Writer, serviceVersion string) (*Tracing, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", config.AppName),
		attribute.String("service.version", serviceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	return &Tracing{provider: tp}, nil
}

// OpenTraceFile creates path (and its directory) and traces into it.
// Shutdown closes the file.
func OpenTraceFile(path, serviceVersion string) (*Tracing, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file %s: %w", path, err)
	}
	t, err := NewTracing(f, serviceVersion)
	if err != nil {
		f.Close()
		return nil, err
	}
	t.closer = f
	return t, nil
}

// Provider returns the tracer provider for injection into the importer
func (t *Tracing) Provider() trace.TracerProvider {
	return t.provider
}

// Shutdown flushes pending spans and releases the output
func (t *Tracing) Shutdown(ctx context.Context) error {
	err := t.provider.Shutdown(ctx)
	if t.closer != nil {
		if cerr := t.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// RecordError marks the span in ctx as failed
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
