package domain

import "sort"

// Row is one imported file: metadata and measurement fields keyed by column name.
type Row map[string]any

// ResultTable is a row-oriented table built by the batch importer.
// Columns is the first-seen union of the row keys; rows keep insertion order.
type ResultTable struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`

	seen map[string]struct{}
}

// NewResultTable creates an empty table whose leading columns are the given ones.
func NewResultTable(leading ...string) *ResultTable {
	t := &ResultTable{}
	for _, c := range leading {
		t.addColumn(c)
	}
	return t
}

// Append adds a row at the end of the table. Keys not seen before become new
// columns: first those listed in order (when present in row), then any others
// in sorted order so the layout is deterministic for a given input order.
func (t *ResultTable) Append(row Row, order ...string) {
	for _, k := range order {
		if _, ok := row[k]; ok {
			t.addColumn(k)
		}
	}
	var fresh []string
	for k := range row {
		if !t.hasColumn(k) {
			fresh = append(fresh, k)
		}
	}
	sort.Strings(fresh)
	for _, k := range fresh {
		t.addColumn(k)
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	return len(t.Rows)
}

// HasColumn reports whether any row produced the named column.
func (t *ResultTable) HasColumn(name string) bool {
	return t.hasColumn(name)
}

// Column returns the values of one column in row order. Rows without the
// column yield nil.
func (t *ResultTable) Column(name string) []any {
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}

// Value returns the cell at row i and the named column, nil when absent.
func (t *ResultTable) Value(i int, column string) any {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i][column]
}

// Select returns a new table restricted to the named columns, in that order.
// Unknown columns are kept and read as nil.
func (t *ResultTable) Select(columns ...string) *ResultTable {
	out := NewResultTable(columns...)
	for _, r := range t.Rows {
		nr := make(Row, len(columns))
		for _, c := range columns {
			if v, ok := r[c]; ok {
				nr[c] = v
			}
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

func (t *ResultTable) hasColumn(name string) bool {
	if t.seen == nil {
		for _, c := range t.Columns {
			if c == name {
				return true
			}
		}
		return false
	}
	_, ok := t.seen[name]
	return ok
}

func (t *ResultTable) addColumn(name string) {
	if t.seen == nil {
		t.seen = make(map[string]struct{}, len(t.Columns)+1)
		for _, c := range t.Columns {
			t.seen[c] = struct{}{}
		}
	}
	if _, ok := t.seen[name]; ok {
		return
	}
	t.seen[name] = struct{}{}
	t.Columns = append(t.Columns, name)
}
