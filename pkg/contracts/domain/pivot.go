package domain

import (
	"math"
	"slices"
)

// PivotTable is a summarized view of a ResultTable: one line per distinct
// index tuple, one column per distinct label of the column field.
// Cells with no contributing rows hold NaN.
type PivotTable struct {
	Values       string      `json:"values"`
	IndexNames   []string    `json:"index_names"`
	ColumnField  string      `json:"column_field"`
	Index        [][]string  `json:"index"`
	ColumnLabels []string    `json:"column_labels"`
	Cells        [][]float64 `json:"cells"`
}

// Cell returns the aggregated value for an index tuple and column label.
// ok is false when the tuple or label is unknown or the cell is empty.
func (p *PivotTable) Cell(index []string, label string) (float64, bool) {
	col := slices.Index(p.ColumnLabels, label)
	if col < 0 {
		return math.NaN(), false
	}
	for i, idx := range p.Index {
		if slices.Equal(idx, index) {
			v := p.Cells[i][col]
			return v, !math.IsNaN(v)
		}
	}
	return math.NaN(), false
}
