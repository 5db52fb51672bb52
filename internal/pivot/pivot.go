// Package pivot summarizes a ResultTable into a pivot table, e.g. Hall
// mobility per (sample, capping) against anneal condition.
package pivot

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	apperrors "labmeas/internal/errors"
	"labmeas/pkg/contracts/domain"
)

// Aggregations accepted in Spec.Aggregate
const (
	AggMean   = "mean"
	AggMedian = "median"
	AggMin    = "min"
	AggMax    = "max"
	AggSum    = "sum"
)

var aggregators = map[string]func(stats.Float64Data) (float64, error){
	AggMean:   stats.Mean,
	AggMedian: stats.Median,
	AggMin:    stats.Min,
	AggMax:    stats.Max,
	AggSum:    stats.Sum,
}

// Spec selects what to summarize
type Spec struct {
	Values    string   // column holding the numbers
	Index     []string // columns forming the row key
	Columns   string   // column whose labels become pivot columns
	Aggregate string   // mean (default), median, min, max or sum
}

// Build groups the table rows by Index and Columns and aggregates the
// numeric Values of each group. Rows with a nil key cell or a non-numeric
// value are skipped, so index tuples and labels without data do not appear.
// Labels are ordered numerically when both sides are numbers, else as text.
func Build(table *domain.ResultTable, spec Spec) (*domain.PivotTable, error) {
	agg, err := spec.validate(table)
	if err != nil {
		return nil, err
	}

	type cellKey struct{ index, label string }
	groups := make(map[cellKey]stats.Float64Data)
	tuples := make(map[string][]string)
	labels := make(map[string]struct{})

	for _, row := range table.Rows {
		v, ok := number(row[spec.Values])
		if !ok {
			continue
		}
		label, ok := labelOf(row[spec.Columns])
		if !ok {
			continue
		}
		tuple, ok := tupleOf(row, spec.Index)
		if !ok {
			continue
		}
		key := strings.Join(tuple, "\x00")
		tuples[key] = tuple
		labels[label] = struct{}{}
		groups[cellKey{key, label}] = append(groups[cellKey{key, label}], v)
	}

	p := &domain.PivotTable{
		Values:      spec.Values,
		IndexNames:  append([]string(nil), spec.Index...),
		ColumnField: spec.Columns,
	}
	for _, t := range tuples {
		p.Index = append(p.Index, t)
	}
	sort.Slice(p.Index, func(i, j int) bool { return lessTuple(p.Index[i], p.Index[j]) })
	for l := range labels {
		p.ColumnLabels = append(p.ColumnLabels, l)
	}
	sort.Slice(p.ColumnLabels, func(i, j int) bool { return lessLabel(p.ColumnLabels[i], p.ColumnLabels[j]) })

	p.Cells = make([][]float64, len(p.Index))
	for i, t := range p.Index {
		key := strings.Join(t, "\x00")
		p.Cells[i] = make([]float64, len(p.ColumnLabels))
		for j, l := range p.ColumnLabels {
			data, ok := groups[cellKey{key, l}]
			if !ok {
				p.Cells[i][j] = math.NaN()
				continue
			}
			v, err := agg(data)
			if err != nil {
				return nil, fmt.Errorf("aggregate %s for %v/%s: %w", spec.Values, t, l, err)
			}
			p.Cells[i][j] = v
		}
	}
	return p, nil
}

func (s *Spec) validate(table *domain.ResultTable) (func(stats.Float64Data) (float64, error), error) {
	if table == nil {
		return nil, apperrors.NewAppValidationError("pivot needs a table")
	}
	if s.Values == "" || s.Columns == "" || len(s.Index) == 0 {
		return nil, apperrors.NewAppValidationError("pivot needs values, index and columns")
	}
	name := strings.ToLower(s.Aggregate)
	if name == "" {
		name = AggMean
	}
	agg, ok := aggregators[name]
	if !ok {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown aggregate %q", s.Aggregate))
	}
	if table.Len() == 0 {
		return agg, nil
	}
	for _, c := range append([]string{s.Values, s.Columns}, s.Index...) {
		if !table.HasColumn(c) {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("column %q not in table", c)).
				WithContext("column", c)
		}
	}
	return agg, nil
}

func tupleOf(row domain.Row, cols []string) ([]string, bool) {
	out := make([]string, len(cols))
	for i, c := range cols {
		l, ok := labelOf(row[c])
		if !ok {
			return nil, false
		}
		out[i] = l
	}
	return out, true
}

func labelOf(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		if math.IsNaN(x) {
			return "", false
		}
		return strconv.FormatFloat(x, 'g', -1, 64), true
	default:
		return fmt.Sprint(x), true
	}
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil && !math.IsNaN(f)
	default:
		return 0, false
	}
}

func lessLabel(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil && fa != fb {
		return fa < fb
	}
	return a < b
}

func lessTuple(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return lessLabel(a[i], b[i])
		}
	}
	return false
}

// Select projects table onto the named columns in that order. Every column
// must exist unless the table is empty.
func Select(table *domain.ResultTable, columns ...string) (*domain.ResultTable, error) {
	if table == nil {
		return nil, apperrors.NewAppValidationError("select needs a table")
	}
	if table.Len() > 0 {
		for _, c := range columns {
			if !table.HasColumn(c) {
				return nil, apperrors.NewAppValidationError(fmt.Sprintf("column %q not in table", c)).
					WithContext("column", c)
			}
		}
	}
	return table.Select(columns...), nil
}
