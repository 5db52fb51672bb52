// Package measurement reads laboratory measurement files into a uniform
// key/value view.
//
// # Variants
//
//   - Hall: Hall-effect workbook (.xlsx/.xlsm), sheet "Summary"
//   - Sinton: lifetime tester workbook, sheet "User", with a resistivity cross-check
//   - FitLog: zip archive holding an ellipsometry "_FitLog" text entry
//
// Spreadsheet variants resolve field names through a static CoordinateTable of
// (sheet, column, row) positions. An unknown key or a coordinate outside the
// workbook is logged, counted and read as nil so a batch import can continue.
// FitLog parses "name = value" lines between the "start_Fit Parms" and
// "end_Fit Parms" markers and treats unknown keys as errors.
//
// # Usage
//
//	m, err := measurement.NewHall("A1_ox_300.xlsx", measurement.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	fields, err := measurement.AsDict(m)
package measurement
