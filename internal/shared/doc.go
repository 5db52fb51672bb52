// Package shared holds code used across labmeas packages that belongs to no
// single domain layer.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler for asserting on structured logs
//   - WriteWorkbook and WriteZip fixture generators for measurement files
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := filepath.Join(t.TempDir(), "A1_ox_300.xlsx")
//	    testutil.WriteWorkbook(t, path, cells)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "not a valid parameter")
//	}
package shared
