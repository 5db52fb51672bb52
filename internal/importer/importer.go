package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"labmeas/internal/files"
	"labmeas/internal/infrastructure"
	"labmeas/internal/measurement"
	"labmeas/internal/metadata"
	"labmeas/pkg/contracts/domain"
)

// Step names the import stage that failed
type Step string

const (
	StepOpen     Step = "open"
	StepExtract  Step = "extract"
	StepMetadata Step = "metadata"
)

// ImportError identifies the file and stage that aborted a batch
type ImportError struct {
	Path  string
	Index int
	Step  Step
	Err   error
}

// Error implements the error interface
func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s (file %d, step %s): %v", e.Path, e.Index+1, e.Step, e.Err)
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *ImportError) Unwrap() error {
	return e.Err
}

// Metrics is what the importer reports to. infrastructure.ImportMetrics implements it.
type Metrics interface {
	measurement.Recorder
	RecordFileImported(ctx context.Context, variant string, elapsed time.Duration)
	RecordImportFailure(ctx context.Context, step string)
}

type nopMetrics struct{}

func (nopMetrics) RecordUnresolvedKey(string, string)                        {}
func (nopMetrics) RecordValidationWarning(string, string)                    {}
func (nopMetrics) RecordFileImported(context.Context, string, time.Duration) {}
func (nopMetrics) RecordImportFailure(context.Context, string)               {}

// Config holds importer settings
type Config struct {
	// TempDir receives archive entries while they are parsed. Empty means os.TempDir().
	TempDir string
	// TracerProvider receives one span per batch and per file. Nil uses the
	// global OpenTelemetry provider.
	TracerProvider trace.TracerProvider
}

// Importer merges measurement files and their filename metadata into a ResultTable
type Importer struct {
	logger  *slog.Logger
	metrics Metrics
	tracer  trace.Tracer
	cfg     Config
}

// NewImporter creates an importer. A nil logger uses slog.Default(); nil metrics are discarded.
func NewImporter(logger *slog.Logger, metrics Metrics, cfg Config) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Importer{
		logger:  infrastructure.WithComponent(logger, "importer"),
		metrics: metrics,
		tracer:  tp.Tracer(infrastructure.TracerName),
		cfg:     cfg,
	}
}

// ImportFiles opens every path in order with open, reads all fields, merges
// them with the metadata parse derives from the path and appends one row per
// file. The first failure aborts the batch and no table is returned.
func (i *Importer) ImportFiles(ctx context.Context, paths []string, open measurement.Opener, parse metadata.ParseFunc) (*domain.ResultTable, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := i.tracer.Start(ctx, "import.batch",
		trace.WithAttributes(attribute.Int("files", len(paths))))
	defer span.End()

	ctx = infrastructure.EnsureTraceID(ctx)
	logger := infrastructure.LoggerWithContext(ctx, i.logger)

	logger.Info("Starting batch import", slog.Int("files", len(paths)))
	started := time.Now()

	table := domain.NewResultTable(domain.MetadataColumns...)
	for idx, path := range paths {
		row, order, err := i.importOne(ctx, logger, idx, path, open, parse)
		if err != nil {
			i.metrics.RecordImportFailure(ctx, string(err.Step))
			infrastructure.RecordError(ctx, err)
			logger.Error("Batch import aborted",
				slog.String("path", path),
				slog.Int("index", idx),
				slog.String("step", string(err.Step)),
				slog.String("error", err.Err.Error()))
			return nil, err
		}
		table.Append(row, order...)
	}

	logger.Info("Batch import complete",
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)),
		slog.Duration("elapsed", time.Since(started)))

	return table, nil
}

func (i *Importer) importOne(ctx context.Context, logger *slog.Logger, idx int, path string, open measurement.Opener, parse metadata.ParseFunc) (domain.Row, []string, *ImportError) {
	started := time.Now()
	ctx, span := i.tracer.Start(ctx, "import.file", trace.WithAttributes(
		attribute.String("path", path),
		attribute.Int("index", idx)))
	defer span.End()

	fail := func(step Step, err error) *ImportError {
		infrastructure.RecordError(ctx, err)
		span.SetAttributes(attribute.String("step", string(step)))
		return &ImportError{Path: path, Index: idx, Step: step, Err: err}
	}

	m, err := open(path,
		measurement.WithLogger(logger),
		measurement.WithRecorder(i.metrics),
		measurement.WithTempDir(i.cfg.TempDir))
	if err != nil {
		return nil, nil, fail(StepOpen, err)
	}

	fields, err := measurement.AsDict(m)
	if err != nil {
		return nil, nil, fail(StepExtract, err)
	}

	md, err := parse(path)
	if err != nil {
		return nil, nil, fail(StepMetadata, err)
	}

	row, collisions := MergeRow(md.AsMap(), fields)
	if len(collisions) > 0 {
		logger.Debug("Measurement fields override filename metadata",
			slog.String("path", path),
			slog.Any("columns", collisions))
	}

	variant := measurement.VariantOf(m)
	span.SetAttributes(attribute.String("variant", variant), attribute.Int("fields", len(fields)))
	i.metrics.RecordFileImported(ctx, variant, time.Since(started))
	logger.Debug("Measurement imported",
		slog.Int("current", idx+1),
		slog.String("path", path),
		slog.String("variant", variant),
		slog.Int("fields", len(fields)))

	order := make([]string, 0, len(domain.MetadataColumns)+len(fields))
	order = append(order, domain.MetadataColumns...)
	order = append(order, m.Keys()...)
	return row, order, nil
}

// ImportGlob resolves patterns to files (see files.Discovery.Expand) and imports them
func (i *Importer) ImportGlob(ctx context.Context, patterns []string, open measurement.Opener, parse metadata.ParseFunc) (*domain.ResultTable, error) {
	found, err := files.NewDiscovery(i.logger).Expand(patterns)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		i.logger.Warn("No measurement files matched", slog.Any("patterns", patterns))
	}
	return i.ImportFiles(ctx, files.Paths(found), open, parse)
}

// MergeRow combines filename metadata and measurement fields into one row.
// On a key collision the field value wins; the colliding keys are returned sorted.
func MergeRow(md map[string]any, fields map[string]any) (domain.Row, []string) {
	row := make(domain.Row, len(md)+len(fields))
	for k, v := range md {
		row[k] = v
	}
	var collisions []string
	for k, v := range fields {
		if _, ok := row[k]; ok {
			collisions = append(collisions, k)
		}
		row[k] = v
	}
	sort.Strings(collisions)
	return row, collisions
}
