package measurement

import (
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "labmeas/internal/errors"
	"labmeas/internal/shared/testutil"
)

// countingRecorder collects what measurements report
type countingRecorder struct {
	mu         sync.Mutex
	unresolved []string
	warnings   []string
}

func (r *countingRecorder) RecordUnresolvedKey(variant, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unresolved = append(r.unresolved, variant+":"+key)
}

func (r *countingRecorder) RecordValidationWarning(variant, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, variant+":"+reason)
}

// hallCells fills every Hall coordinate with a value
func hallCells() []testutil.Cell {
	return []testutil.Cell{
		{Sheet: HallSheet, Col: 0, Row: 0, Value: "Hall measurement summary"},
		{Sheet: HallSheet, Col: 2, Row: 9, Value: 0.5},
		{Sheet: HallSheet, Col: 4, Row: 21, Value: 12.5},
		{Sheet: HallSheet, Col: 4, Row: 22, Value: "n"},
		{Sheet: HallSheet, Col: 4, Row: 23, Value: 3.2e19},
		{Sheet: HallSheet, Col: 4, Row: 24, Value: 1.6e15},
		{Sheet: HallSheet, Col: 4, Row: 25, Value: -0.19},
		{Sheet: HallSheet, Col: 4, Row: 26, Value: -3900.0},
		{Sheet: HallSheet, Col: 4, Row: 27, Value: 0.0151},
		{Sheet: HallSheet, Col: 4, Row: 28, Value: 302.0},
		{Sheet: HallSheet, Col: 4, Row: 29, Value: -0.0021},
		{Sheet: "Raw", Col: 0, Row: 0, Value: "raw data"},
	}
}

func TestNewHall_SupportedExtensions(t *testing.T) {
	for _, name := range []string{"A1_ox_300.xlsx", "A1_ox_300.xlsm", "A1_ox_300.XLSX"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			testutil.WriteWorkbook(t, path, hallCells())

			logger, logs := testutil.NewTestLogger(t)
			m, err := NewHall(path, WithLogger(logger))
			require.NoError(t, err)

			v, err := m.Get("Hall mobility")
			require.NoError(t, err)
			assert.Equal(t, 12.5, v)
			testutil.AssertNoWarnings(t, logs)
		})
	}
}

func TestNewHall_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"A1_ox_300.xls", "A1_ox_300.csv", "A1_ox_300"} {
		t.Run(name, func(t *testing.T) {
			_, err := NewHall(filepath.Join(dir, name))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
		})
	}
}

func TestNewHall_MissingFile(t *testing.T) {
	_, err := NewHall(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestHall_KeysResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A1_ox_300.xlsx")
	testutil.WriteWorkbook(t, path, hallCells())

	rec := &countingRecorder{}
	logger, logs := testutil.NewTestLogger(t)
	m, err := NewHall(path, WithLogger(logger), WithRecorder(rec))
	require.NoError(t, err)

	keys := m.Keys()
	require.Len(t, keys, 10)
	assert.Equal(t, "Hall mobility", keys[0])
	assert.Equal(t, "Thickness", keys[9])

	for _, k := range keys {
		v, err := m.Get(k)
		require.NoError(t, err)
		assert.NotNil(t, v, k)
	}
	testutil.AssertNoWarnings(t, logs)
	assert.Empty(t, rec.unresolved)

	v, _ := m.Get("Carrier type")
	assert.Equal(t, "n", v)
	v, _ = m.Get("Thickness")
	assert.Equal(t, 0.5, v)
}

func TestHall_UnknownKeyIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A1_ox_300.xlsx")
	testutil.WriteWorkbook(t, path, hallCells())

	rec := &countingRecorder{}
	logger, logs := testutil.NewTestLogger(t)
	m, err := NewHall(path, WithLogger(logger), WithRecorder(rec))
	require.NoError(t, err)

	v, err := m.Get("Bogus")
	assert.NoError(t, err)
	assert.Nil(t, v)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Bogus is not a valid parameter")
	testutil.AssertLogAttr(t, logs, "key", "Bogus")
	assert.Equal(t, []string{"hall:Bogus"}, rec.unresolved)
}

func TestHall_CoordinateOutsideWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A1_ox_300.xlsx")
	// only the thickness row exists; rows 21-29 are beyond the used range
	testutil.WriteWorkbook(t, path, []testutil.Cell{
		{Sheet: HallSheet, Col: 2, Row: 9, Value: 0.5},
	})

	rec := &countingRecorder{}
	logger, logs := testutil.NewTestLogger(t)
	m, err := NewHall(path, WithLogger(logger), WithRecorder(rec))
	require.NoError(t, err)

	fields, err := AsDict(m)
	require.NoError(t, err)
	assert.Len(t, fields, 10)
	assert.Equal(t, 0.5, fields["Thickness"])
	assert.Nil(t, fields["Hall mobility"])
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Hall mobility is missing from the workbook")
	assert.Len(t, rec.unresolved, 9)
}

func TestHall_MissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A1_ox_300.xlsx")
	testutil.WriteWorkbook(t, path, []testutil.Cell{{Sheet: "Other", Col: 0, Row: 0, Value: 1}})

	logger, logs := testutil.NewTestLogger(t)
	m, err := NewHall(path, WithLogger(logger))
	require.NoError(t, err)

	v, err := m.Get("Hall mobility")
	assert.NoError(t, err)
	assert.Nil(t, v)
	testutil.AssertLogAttr(t, logs, "sheet", HallSheet)
}

func TestHall_EmptyCellInsideUsedRange(t *testing.T) {
	cells := hallCells()
	// drop Hall voltage but keep a wider row so (4,29) is inside the used range
	cells = append(cells[:10], testutil.Cell{Sheet: HallSheet, Col: 6, Row: 29, Value: "note"})
	path := filepath.Join(t.TempDir(), "A1_ox_300.xlsx")
	testutil.WriteWorkbook(t, path, cells)

	logger, logs := testutil.NewTestLogger(t)
	m, err := NewHall(path, WithLogger(logger))
	require.NoError(t, err)

	v, err := m.Get("Hall voltage")
	assert.NoError(t, err)
	assert.Nil(t, v)
	testutil.AssertNoWarnings(t, logs)
}

func TestAsDict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A1_ox_300.xlsx")
	testutil.WriteWorkbook(t, path, hallCells())
	m, err := NewHall(path, WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	all, err := AsDict(m)
	require.NoError(t, err)
	assert.ElementsMatch(t, m.Keys(), keysOf(all))

	subset, err := AsDict(m, "Resistivity", "Hall mobility")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Resistivity", "Hall mobility"}, keysOf(subset))
	assert.Equal(t, 0.0151, subset["Resistivity"])
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"   ", nil},
		{"12.5", 12.5},
		{" 3E-2 ", 0.03},
		{"n-type", "n-type"},
		{"NaN", "NaN"},
		{"inf", "inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cellValue(tt.in), tt.in)
	}
}

func TestDocumentCell(t *testing.T) {
	doc := Document{"S": {{1.0, nil}, {"x", 2.0}}}

	v, ok := doc.Cell(at("S", 1, 1))
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	v, ok = doc.Cell(at("S", 1, 0))
	assert.True(t, ok)
	assert.Nil(t, v)

	for _, c := range []Coordinate{at("S", 2, 0), at("S", 0, 2), at("S", -1, 0), at("T", 0, 0)} {
		_, ok := doc.Cell(c)
		assert.False(t, ok, "%+v", c)
	}
}

func TestOpenerFor(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		wantErr   bool
	}{
		{"hall", VariantHall, false},
		{"Sinton", VariantSinton, false},
		{"lifetime", VariantSinton, false},
		{"fitlog", VariantFitLog, false},
		{" se ", VariantFitLog, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			open, canonical, err := OpenerFor(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				assert.Nil(t, open)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, open)
			assert.Equal(t, tt.canonical, canonical)
		})
	}
}

func TestCoordinateTable(t *testing.T) {
	assert.Equal(t, 10, HallCoordinates.Len())
	assert.Equal(t, 23, SintonCoordinates.Len())

	assert.Panics(t, func() {
		NewCoordinateTable(Field{"a", at("S", 0, 0)}, Field{"a", at("S", 1, 1)})
	})

	_, ok := HallCoordinates.Lookup("nope")
	assert.False(t, ok)
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
