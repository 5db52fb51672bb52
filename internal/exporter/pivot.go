package exporter

import (
	"io"

	"labmeas/pkg/contracts/domain"
)

// PivotRecords lays a pivot table out with the index columns first and one
// column per label. Empty cells are written as empty strings.
func PivotRecords(p *domain.PivotTable) ([]string, [][]string) {
	headers := make([]string, 0, len(p.IndexNames)+len(p.ColumnLabels))
	headers = append(headers, p.IndexNames...)
	headers = append(headers, p.ColumnLabels...)

	records := make([][]string, len(p.Index))
	for i, idx := range p.Index {
		rec := make([]string, 0, len(headers))
		rec = append(rec, idx...)
		for _, v := range p.Cells[i] {
			rec = append(rec, formatFloat(v))
		}
		records[i] = rec
	}
	return headers, records
}

// WritePivot writes the pivot table to a CSV file
func (w *CSVWriter) WritePivot(filePath string, p *domain.PivotTable, bom bool) error {
	headers, records := PivotRecords(p)
	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: records, BOMPrefix: bom})
}

// EncodePivot writes the pivot table as CSV to out
func EncodePivot(out io.Writer, p *domain.PivotTable, bom bool) error {
	headers, records := PivotRecords(p)
	return Encode(out, WriteOptions{Headers: headers, Records: records, BOMPrefix: bom})
}
