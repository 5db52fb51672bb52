// Package exporter writes imported tables as CSV.
//
// CSVWriter writes files (creating parent directories), Encode and friends
// write to any io.Writer such as stdout. Result tables keep their column
// order; pivot tables put the index columns first followed by one column
// per label. Missing values are written as empty cells and floats use the
// shortest representation that round-trips.
//
//	w := exporter.NewCSVWriter("out", logger)
//	err := w.WriteTable("hall.csv", table, true)
package exporter
