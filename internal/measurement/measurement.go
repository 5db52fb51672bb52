package measurement

import (
	"fmt"
	"log/slog"
	"strings"

	apperrors "labmeas/internal/errors"
)

// Variant names accepted by OpenerFor
const (
	VariantHall   = "hall"
	VariantSinton = "sinton"
	VariantFitLog = "fitlog"
)

// Measurement is a parsed measurement file exposing named fields.
// Every key returned by Keys resolves through Get.
type Measurement interface {
	// Get returns the value stored under key. Whether an unknown key is an
	// error or a reported nil depends on the variant.
	Get(key string) (any, error)
	// Keys lists every resolvable key.
	Keys() []string
}

// Opener parses the file at path into a Measurement. All parsing happens
// before it returns.
type Opener func(path string, opts ...Option) (Measurement, error)

// Recorder receives the non-fatal conditions a measurement reports
type Recorder interface {
	RecordUnresolvedKey(variant, key string)
	RecordValidationWarning(variant, reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordUnresolvedKey(string, string)     {}
func (nopRecorder) RecordValidationWarning(string, string) {}

type options struct {
	logger   *slog.Logger
	recorder Recorder
	tempDir  string
}

// Option configures an Opener
type Option func(*options)

// WithLogger sets the logger used for warnings. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets where unresolved keys and validation warnings are counted
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithTempDir sets the directory archive entries are extracted to.
// Empty means os.TempDir().
func WithTempDir(dir string) Option {
	return func(o *options) { o.tempDir = dir }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AsDict materializes fields of m. With no keys it returns every key from
// Keys; otherwise exactly the given keys. The first hard Get error is returned.
func AsDict(m Measurement, keys ...string) (map[string]any, error) {
	if len(keys) == 0 {
		keys = m.Keys()
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		v, err := m.Get(k)
		if err != nil {
			return nil, fmt.Errorf("get %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// VariantOf returns the variant name of m, or "unknown"
func VariantOf(m Measurement) string {
	if v, ok := m.(interface{ Variant() string }); ok {
		return v.Variant()
	}
	return "unknown"
}

// OpenerFor resolves a variant name (or alias) to its Opener and canonical name
func OpenerFor(name string) (Opener, string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case VariantHall:
		return NewHall, VariantHall, nil
	case VariantSinton, "lifetime":
		return NewSinton, VariantSinton, nil
	case VariantFitLog, "se":
		return NewFitLog, VariantFitLog, nil
	default:
		return nil, "", apperrors.NewAppValidationError(
			fmt.Sprintf("unknown measurement variant %q (want hall, sinton or fitlog)", name))
	}
}
