package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const (
	MeterName = "labmeas"

	MetricFilesImported      = "labmeas.files.imported"
	MetricImportFailures     = "labmeas.import.failures"
	MetricUnresolvedKeys     = "labmeas.keys.unresolved"
	MetricValidationWarnings = "labmeas.validation.warnings"
	MetricFileDuration       = "labmeas.file.duration"
)

// ImportMetrics records what a batch import did. Instruments live on an otel
// MeterProvider with two readers: a Prometheus exporter bound to a private
// registry (for the textfile dump) and a manual reader for in-process totals.
type ImportMetrics struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry
	reader   *sdkmetric.ManualReader

	filesImported      metric.Int64Counter
	importFailures     metric.Int64Counter
	unresolvedKeys     metric.Int64Counter
	validationWarnings metric.Int64Counter
	fileDuration       metric.Float64Histogram
}

// NewImportMetrics creates the meter provider and all import instruments
func NewImportMetrics() (*ImportMetrics, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithoutScopeInfo(),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithReader(reader),
	)
	meter := provider.Meter(MeterName)

	m := &ImportMetrics{provider: provider, registry: registry, reader: reader}

	if m.filesImported, err = meter.Int64Counter(MetricFilesImported,
		metric.WithDescription("Number of measurement files merged into a result table")); err != nil {
		return nil, err
	}
	if m.importFailures, err = meter.Int64Counter(MetricImportFailures,
		metric.WithDescription("Number of batch imports aborted, by failing step")); err != nil {
		return nil, err
	}
	if m.unresolvedKeys, err = meter.Int64Counter(MetricUnresolvedKeys,
		metric.WithDescription("Number of spreadsheet keys that could not be resolved")); err != nil {
		return nil, err
	}
	if m.validationWarnings, err = meter.Int64Counter(MetricValidationWarnings,
		metric.WithDescription("Number of measurement cross-check warnings")); err != nil {
		return nil, err
	}
	if m.fileDuration, err = meter.Float64Histogram(MetricFileDuration,
		metric.WithDescription("Time spent reading one measurement file"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordFileImported counts one file merged into the table
func (m *ImportMetrics) RecordFileImported(ctx context.Context, variant string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("variant", variant))
	m.filesImported.Add(ctx, 1, attrs)
	m.fileDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordImportFailure counts an aborted batch
func (m *ImportMetrics) RecordImportFailure(ctx context.Context, step string) {
	m.importFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}

// RecordUnresolvedKey counts a spreadsheet key that yielded no value
func (m *ImportMetrics) RecordUnresolvedKey(variant, key string) {
	m.unresolvedKeys.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("variant", variant),
		attribute.String("key", key)))
}

// RecordValidationWarning counts a failed cross-check
func (m *ImportMetrics) RecordValidationWarning(variant, reason string) {
	m.validationWarnings.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("variant", variant),
		attribute.String("reason", reason)))
}

// Totals returns every counter summed over its attributes, keyed by instrument name
func (m *ImportMetrics) Totals(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			totals[md.Name] = total
		}
	}
	return totals, nil
}

// WriteTextfile writes the Prometheus exposition of all metrics to path
func (m *ImportMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}

// Shutdown flushes and stops the meter provider
func (m *ImportMetrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
