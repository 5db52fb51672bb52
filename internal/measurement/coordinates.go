package measurement

// Coordinate locates a field in a spreadsheet: sheet name plus 0-based
// column and row of the header-less grid.
type Coordinate struct {
	Sheet  string
	Column int
	Row    int
}

// Field is one CoordinateTable entry
type Field struct {
	Name string
	Coordinate
}

// CoordinateTable maps field names to cell positions. It is built once per
// variant and never mutated; keys keep their declaration order.
type CoordinateTable struct {
	fields []Field
	index  map[string]Coordinate
}

// NewCoordinateTable builds a table from entries. Duplicate names panic
// since tables are package-level literals.
func NewCoordinateTable(fields ...Field) *CoordinateTable {
	t := &CoordinateTable{
		fields: append([]Field(nil), fields...),
		index:  make(map[string]Coordinate, len(fields)),
	}
	for _, f := range fields {
		if _, dup := t.index[f.Name]; dup {
			panic("measurement: duplicate coordinate " + f.Name)
		}
		t.index[f.Name] = f.Coordinate
	}
	return t
}

// Lookup returns the coordinate of name
func (t *CoordinateTable) Lookup(name string) (Coordinate, bool) {
	c, ok := t.index[name]
	return c, ok
}

// Keys returns the field names in declaration order
func (t *CoordinateTable) Keys() []string {
	keys := make([]string, len(t.fields))
	for i, f := range t.fields {
		keys[i] = f.Name
	}
	return keys
}

// Len returns the number of entries
func (t *CoordinateTable) Len() int {
	return len(t.fields)
}

func at(sheet string, column, row int) Coordinate {
	return Coordinate{Sheet: sheet, Column: column, Row: row}
}
