package exporter

import (
	"io"

	"labmeas/pkg/contracts/domain"
)

// TableRecords flattens a result table into a header line and one record per row
func TableRecords(t *domain.ResultTable) ([]string, [][]string) {
	headers := append([]string(nil), t.Columns...)
	records := make([][]string, 0, t.Len())
	for _, row := range t.Rows {
		rec := make([]string, len(headers))
		for j, c := range headers {
			rec[j] = formatValue(row[c])
		}
		records = append(records, rec)
	}
	return headers, records
}

// WriteTable writes the result table to a CSV file
func (w *CSVWriter) WriteTable(filePath string, t *domain.ResultTable, bom bool) error {
	headers, records := TableRecords(t)
	return w.WriteCSV(filePath, WriteOptions{Headers: headers, Records: records, BOMPrefix: bom})
}

// EncodeTable writes the result table as CSV to out
func EncodeTable(out io.Writer, t *domain.ResultTable, bom bool) error {
	headers, records := TableRecords(t)
	return Encode(out, WriteOptions{Headers: headers, Records: records, BOMPrefix: bom})
}
