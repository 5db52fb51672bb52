package measurement

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	apperrors "labmeas/internal/errors"
)

// Fit log layout
const (
	FitLogEntry    = "_FitLog"
	FitParamsStart = "start_Fit Parms"
	FitParamsEnd   = "end_Fit Parms"
	fitHeaderLines = 2
	fitFooterLines = 2
)

// lineCleaner drops tabs and quote characters from a parameter line
var lineCleaner = strings.NewReplacer("\t", "", "'", "", `"`, "")

// FitLog is an ellipsometry fit result read from the _FitLog entry of a
// zip archive. Values are the fitted parameters.
type FitLog struct {
	path   string
	values map[string]float64
	keys   []string
}

// NewFitLog extracts and parses the _FitLog entry of the archive at path
func NewFitLog(path string, opts ...Option) (Measurement, error) {
	o := buildOptions(opts)
	logger := o.logger.With(slog.String("variant", VariantFitLog))

	text, err := readFitLog(path, o.tempDir)
	if err != nil {
		return nil, err
	}

	values, err := parseFitParams(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	logger.Debug("Fit log parsed",
		slog.String("path", path),
		slog.Int("parameters", len(keys)))

	return &FitLog{path: path, values: values, keys: keys}, nil
}

// Get returns the fitted value of key; unknown keys are an error
func (m *FitLog) Get(key string) (any, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, apperrors.NewUnresolvableKeyError(key).WithContext("path", m.path)
	}
	return v, nil
}

// Keys returns the parameter names, sorted
func (m *FitLog) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Path returns the archive the log was read from
func (m *FitLog) Path() string {
	return m.path
}

// Variant returns the variant name
func (m *FitLog) Variant() string {
	return VariantFitLog
}

// readFitLog extracts the _FitLog entry to a temporary file, reads it as
// Latin-1 and removes the file again on every return path.
func readFitLog(path, tempDir string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", apperrors.NewStorageError("failed to open archive", err).WithContext("path", path)
	}
	defer zr.Close()

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == FitLogEntry {
			entry = f
			break
		}
	}
	if entry == nil {
		return "", apperrors.NewMalformedLogError(
			fmt.Sprintf("archive %s has no %s entry", path, FitLogEntry), nil).WithContext("path", path)
	}

	tmp, err := os.CreateTemp(tempDir, "labmeas-fitlog-*")
	if err != nil {
		return "", apperrors.NewStorageError("failed to create temporary file", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := extractEntry(entry, tmp); err != nil {
		return "", apperrors.NewStorageError("failed to extract "+FitLogEntry, err).WithContext("path", path)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", apperrors.NewStorageError("failed to rewind extracted log", err)
	}
	data, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(tmp))
	if err != nil {
		return "", apperrors.NewStorageError("failed to read extracted log", err).WithContext("path", path)
	}
	return string(data), nil
}

func extractEntry(entry *zip.File, dst io.Writer) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(dst, rc)
	return err
}

// parseFitParams reads the name = value lines between the fit parameter
// markers. The first two and last two lines of the block are framing.
func parseFitParams(text string) (map[string]float64, error) {
	start := strings.Index(text, FitParamsStart)
	end := strings.LastIndex(text, FitParamsEnd)
	if start < 0 {
		return nil, apperrors.NewMalformedLogError("missing "+FitParamsStart+" marker", nil)
	}
	start += len(FitParamsStart)
	if end < start {
		return nil, apperrors.NewMalformedLogError("missing "+FitParamsEnd+" marker", nil)
	}

	block := strings.ReplaceAll(text[start:end], "\r", "")
	lines := strings.Split(block, "\n")

	values := make(map[string]float64)
	if len(lines) <= fitHeaderLines+fitFooterLines {
		return values, nil
	}

	for _, raw := range lines[fitHeaderLines : len(lines)-fitFooterLines] {
		line := lineCleaner.Replace(raw)
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, apperrors.NewMalformedLogError(fmt.Sprintf("line %q has no '='", raw), nil).
				WithContext("line", raw)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.NewMalformedLogError(fmt.Sprintf("line %q has no parameter name", raw), nil).
				WithContext("line", raw)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, apperrors.NewNonNumericValueError(raw, err)
		}
		values[name] = f
	}
	return values, nil
}
