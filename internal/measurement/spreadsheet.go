package measurement

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "labmeas/internal/errors"
)

// Spreadsheet extensions
const (
	ExtXLSX = ".xlsx"
	ExtXLSM = ".xlsm"
)

// Document is a loaded workbook: sheet name to a rectangular grid indexed
// [row][column] covering the sheet's used range. Numeric cells hold float64,
// other text cells string, empty cells nil.
type Document map[string][][]any

// Cell returns the value at (column, row) of sheet. ok is false when the
// sheet does not exist or the position lies outside its grid.
func (d Document) Cell(c Coordinate) (any, bool) {
	grid, ok := d[c.Sheet]
	if !ok || c.Row < 0 || c.Row >= len(grid) {
		return nil, false
	}
	row := grid[c.Row]
	if c.Column < 0 || c.Column >= len(row) {
		return nil, false
	}
	return row[c.Column], true
}

// loaderOptions are the per-format settings of the workbook loader
type loaderOptions struct {
	// quiet demotes non-fatal loader messages to debug level. Macro-enabled
	// workbooks routinely carry parts the loader cannot read.
	quiet bool
}

func loaderOptionsFor(path string) (loaderOptions, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ExtXLSX:
		return loaderOptions{}, nil
	case ExtXLSM:
		return loaderOptions{quiet: true}, nil
	default:
		return loaderOptions{}, apperrors.NewUnsupportedFormatError(path, ext)
	}
}

// loadDocument reads every sheet of the workbook at path into memory
func loadDocument(path string, logger *slog.Logger) (Document, error) {
	lo, err := loaderOptionsFor(path)
	if err != nil {
		return nil, err
	}

	raw := excelize.Options{RawCellValue: true}
	f, err := excelize.OpenFile(path, raw)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	level := slog.LevelWarn
	if lo.quiet {
		level = slog.LevelDebug
	}

	doc := make(Document)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, raw)
		if err != nil {
			logger.Log(context.Background(), level, "Skipping unreadable sheet",
				slog.String("path", path),
				slog.String("sheet", name),
				slog.String("error", err.Error()))
			continue
		}
		width := 0
		for _, row := range rows {
			width = max(width, len(row))
		}
		// rows are padded to the used range so gaps read as nil, not missing
		grid := make([][]any, len(rows))
		for i, row := range rows {
			cells := make([]any, width)
			for j, text := range row {
				cells[j] = cellValue(text)
			}
			grid[i] = cells
		}
		doc[name] = grid
	}

	logger.Debug("Workbook loaded",
		slog.String("path", path),
		slog.Int("sheets", len(doc)))

	return doc, nil
}

// cellValue converts raw cell text into float64, string or nil
func cellValue(text string) any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return text
}

// toFloat reports the numeric value of a cell
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Spreadsheet resolves fields of a loaded workbook through a CoordinateTable.
// Hall and Sinton embed it.
type Spreadsheet struct {
	path     string
	variant  string
	table    *CoordinateTable
	doc      Document
	logger   *slog.Logger
	recorder Recorder
}

func openSpreadsheet(path, variant string, table *CoordinateTable, opts []Option) (*Spreadsheet, error) {
	o := buildOptions(opts)
	logger := o.logger.With(slog.String("variant", variant))

	doc, err := loadDocument(path, logger)
	if err != nil {
		return nil, err
	}

	return &Spreadsheet{
		path:     path,
		variant:  variant,
		table:    table,
		doc:      doc,
		logger:   logger,
		recorder: o.recorder,
	}, nil
}

// Get returns the cell addressed by key. Unknown keys and coordinates outside
// the workbook are reported and yield nil without an error.
func (s *Spreadsheet) Get(key string) (any, error) {
	v, ok := s.lookup(key)
	if !ok {
		s.recorder.RecordUnresolvedKey(s.variant, key)
	}
	return v, nil
}

func (s *Spreadsheet) lookup(key string) (any, bool) {
	c, ok := s.table.Lookup(key)
	if !ok {
		s.logger.Warn(key+" is not a valid parameter",
			slog.String("path", s.path),
			slog.String("key", key))
		return nil, false
	}
	v, ok := s.doc.Cell(c)
	if !ok {
		s.logger.Warn(key+" is missing from the workbook",
			slog.String("path", s.path),
			slog.String("key", key),
			slog.String("sheet", c.Sheet),
			slog.Int("column", c.Column),
			slog.Int("row", c.Row))
		return nil, false
	}
	return v, true
}

// Keys returns the CoordinateTable keys in declaration order
func (s *Spreadsheet) Keys() []string {
	return s.table.Keys()
}

// Path returns the file the measurement was read from
func (s *Spreadsheet) Path() string {
	return s.path
}

// Variant returns the variant name
func (s *Spreadsheet) Variant() string {
	return s.variant
}
