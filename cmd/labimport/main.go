// Command labimport reads Hall, Sinton and ellipsometry measurement files into
// one CSV table, optionally summarized as a pivot table.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"labmeas/internal/config"
	"labmeas/internal/exporter"
	"labmeas/internal/importer"
	"labmeas/internal/infrastructure"
	"labmeas/internal/measurement"
	"labmeas/internal/metadata"
	"labmeas/internal/pivot"
	"labmeas/pkg/contracts"
	"labmeas/pkg/contracts/domain"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by the subcommands of one invocation
type app struct {
	configFile  string
	metricsFile string
	traceFile   string
	logLevel    string

	variant string
	out     string
	bom     bool
	strict  bool

	cfg     *config.Config
	logs    *infrastructure.LogSink
	logger  *slog.Logger
	metrics *infrastructure.ImportMetrics
	tracing *infrastructure.Tracing
	stdout  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout}

	root := &cobra.Command{
		Use:           "labimport",
		Short:         "Import lab measurement files into a CSV table",
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML configuration file")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	pf.StringVar(&a.traceFile, "trace-file", "", "write one JSON span per imported file to this file")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(a.importCmd(), a.pivotCmd())
	return root
}

func (a *app) addImportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&a.variant, "variant", "", "measurement type: hall, sinton (lifetime) or fitlog (se)")
	f.StringVarP(&a.out, "out", "o", "", "output CSV file (default stdout)")
	f.BoolVar(&a.bom, "bom", false, "prefix the CSV with a UTF-8 BOM")
	f.BoolVar(&a.strict, "strict", true, "reject filenames with more than four segments")
}

func (a *app) importCmd() *cobra.Command {
	var columns []string
	cmd := &cobra.Command{
		Use:   "import PATTERN...",
		Short: "Merge measurement files and filename metadata into one table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.finish()

			table, err := a.importTable(cmd.Context(), args)
			if err != nil {
				return err
			}
			if len(columns) > 0 {
				if table, err = pivot.Select(table, columns...); err != nil {
					return err
				}
			}
			if err := a.writeTable(table, a.out); err != nil {
				return err
			}
			if a.cfg.PivotEnabled() && a.cfg.Output.PivotPath != "" {
				return a.writePivot(table, a.pivotSpec(), a.cfg.Output.PivotPath)
			}
			return nil
		},
	}
	a.addImportFlags(cmd)
	cmd.Flags().StringSliceVar(&columns, "select", nil, "only write these columns, in this order")
	return cmd
}

func (a *app) pivotCmd() *cobra.Command {
	var spec pivot.Spec
	cmd := &cobra.Command{
		Use:   "pivot PATTERN...",
		Short: "Import measurement files and summarize one value as a pivot table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.finish()

			s := a.pivotSpec()
			if spec.Values != "" {
				s.Values = spec.Values
			}
			if len(spec.Index) > 0 {
				s.Index = spec.Index
			}
			if spec.Columns != "" {
				s.Columns = spec.Columns
			}
			if spec.Aggregate != "" {
				s.Aggregate = spec.Aggregate
			}

			table, err := a.importTable(cmd.Context(), args)
			if err != nil {
				return err
			}
			return a.writePivot(table, s, a.out)
		},
	}
	a.addImportFlags(cmd)
	f := cmd.Flags()
	f.StringVar(&spec.Values, "values", "", "column to aggregate")
	f.StringSliceVar(&spec.Index, "index", nil, "columns forming the row key (default sample,capping)")
	f.StringVar(&spec.Columns, "columns", "", "column whose labels become pivot columns")
	f.StringVar(&spec.Aggregate, "aggregate", "", "mean, median, min, max or sum")
	return cmd
}

// setup loads configuration, lets flags override it and starts logging and metrics
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Output.MetricsFile = a.metricsFile
	}
	if a.traceFile != "" {
		cfg.Output.TraceFile = a.traceFile
	}
	if flags.Lookup("variant") != nil {
		if flags.Changed("variant") {
			cfg.Import.Variant = a.variant
		}
		if flags.Changed("out") {
			if cmd.Name() == "import" {
				cfg.Output.TablePath = a.out
			} else {
				cfg.Output.PivotPath = a.out
			}
		}
		if flags.Changed("bom") {
			cfg.Output.BOM = a.bom
		}
		if flags.Changed("strict") {
			cfg.Import.StrictFilenames = a.strict
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.variant = cfg.Import.Variant
	a.bom = cfg.Output.BOM
	a.strict = cfg.Import.StrictFilenames
	if cmd.Name() == "import" {
		a.out = cfg.Output.TablePath
	} else {
		a.out = cfg.Output.PivotPath
	}

	if a.logs, err = infrastructure.OpenLogSink(cfg.Logging, cmd.ErrOrStderr()); err != nil {
		return err
	}
	a.logger = infrastructure.WithComponent(a.logs.Logger, config.AppName)

	if a.metrics, err = infrastructure.NewImportMetrics(); err != nil {
		return err
	}
	if path := cfg.Output.TraceFile; path != "" {
		if a.tracing, err = infrastructure.OpenTraceFile(path, contracts.Version); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) importTable(ctx context.Context, patterns []string) (*domain.ResultTable, error) {
	if a.variant == "" {
		return nil, fmt.Errorf("no measurement variant: pass --variant or set %s_IMPORT_VARIANT", config.EnvPrefix)
	}
	open, variant, err := measurement.OpenerFor(a.variant)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a.logger.Info("Importing measurements",
		slog.String("variant", variant),
		slog.String("patterns", strings.Join(patterns, " ")),
		slog.Bool("strict_filenames", a.strict))

	icfg := importer.Config{TempDir: a.cfg.Import.TempDir}
	if a.tracing != nil {
		icfg.TracerProvider = a.tracing.Provider()
	}
	imp := importer.NewImporter(a.logger, a.metrics, icfg)
	parser := metadata.Parser{Strict: a.strict}
	return imp.ImportGlob(ctx, patterns, open, parser.Func())
}

func (a *app) pivotSpec() pivot.Spec {
	return pivot.Spec{
		Values:    a.cfg.Pivot.Values,
		Index:     a.cfg.Pivot.Index,
		Columns:   a.cfg.Pivot.Columns,
		Aggregate: a.cfg.Pivot.Aggregate,
	}
}

func (a *app) writeTable(table *domain.ResultTable, path string) error {
	if path == "" {
		return exporter.EncodeTable(a.stdout, table, a.bom)
	}
	return exporter.NewCSVWriter("", a.logger).WriteTable(path, table, a.bom)
}

func (a *app) writePivot(table *domain.ResultTable, spec pivot.Spec, path string) error {
	p, err := pivot.Build(table, spec)
	if err != nil {
		return err
	}
	if path == "" {
		return exporter.EncodePivot(a.stdout, p, a.bom)
	}
	return exporter.NewCSVWriter("", a.logger).WritePivot(path, p, a.bom)
}

// finish writes the metrics file when configured and stops the providers
func (a *app) finish() {
	defer func() {
		if err := a.logs.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}()
	if a.tracing != nil {
		if err := a.tracing.Shutdown(context.Background()); err != nil {
			a.logger.Warn("Trace shutdown failed", slog.String("error", err.Error()))
		}
	}
	if a.metrics == nil {
		return
	}
	if totals, err := a.metrics.Totals(context.Background()); err == nil {
		attrs := make([]any, 0, len(totals))
		for name, v := range totals {
			attrs = append(attrs, slog.Int64(name, v))
		}
		a.logger.Info("Import metrics", attrs...)
	}
	if path := a.cfg.Output.MetricsFile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.logger.Error("Failed to write metrics file", slog.String("error", err.Error()))
		}
	}
	if err := a.metrics.Shutdown(context.Background()); err != nil {
		a.logger.Warn("Metrics shutdown failed", slog.String("error", err.Error()))
	}
}
