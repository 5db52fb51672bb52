package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Cell places a value at a 0-based (column, row) position of a sheet
type Cell struct {
	Sheet string
	Col   int
	Row   int
	Value any
}

// WriteWorkbook saves a workbook containing the given cells at path.
// Sheets are created in order of first appearance; the extension of path
// (.xlsx or .xlsm) selects the package content type.
func WriteWorkbook(t *testing.T, path string, cells []Cell) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	created := map[string]bool{}
	first := true
	for _, c := range cells {
		if created[c.Sheet] {
			continue
		}
		if first {
			if err := f.SetSheetName(f.GetSheetName(0), c.Sheet); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else if _, err := f.NewSheet(c.Sheet); err != nil {
			t.Fatalf("create sheet %s: %v", c.Sheet, err)
		}
		created[c.Sheet] = true
	}

	for _, c := range cells {
		name, err := excelize.CoordinatesToCellName(c.Col+1, c.Row+1)
		if err != nil {
			t.Fatalf("cell name for (%d,%d): %v", c.Col, c.Row, err)
		}
		if err := f.SetCellValue(c.Sheet, name, c.Value); err != nil {
			t.Fatalf("set %s!%s: %v", c.Sheet, name, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook %s: %v", path, err)
	}
}

// WriteZip saves a zip archive with the given entries at path
func WriteZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer out.Close()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(out)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

// DirEntries lists the names in dir, failing the test on error
func DirEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
