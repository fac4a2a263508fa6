package danktable

// Line is one stored record: a mapping from row name to cell value.
//
// Every row in the table's row definition has an entry in every line; rows
// without a supplied value hold the absent marker. Partial lines are never
// persisted.
type Line map[string]Value

// Table is the decoded in-memory form of one table file: the schema, the
// ordered row definition, and the stored lines.
//
// A Table is owned by exactly one component at a time: the parser while
// constructing it, the cache while it is idle, the store while mutating a
// clone during an operation. Cached tables are treated as immutable; the
// store mutates a [Table.Clone] and swaps it in.
type Table struct {
	Schema Schema

	// Rows is the ordered row definition. Order determines on-disk column
	// position.
	Rows []string

	// Lines holds the stored records in file order.
	Lines []Line
}

// HasRow reports whether name is part of the row definition.
func (t *Table) HasRow(name string) bool {
	for _, r := range t.Rows {
		if r == name {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of the table structure.
//
// Cell values are shared between the copies: [Value] is immutable, so the
// store only ever replaces whole cells, never mutates one in place.
func (t *Table) Clone() *Table {
	c := &Table{
		Schema: t.Schema,
		Rows:   make([]string, len(t.Rows)),
		Lines:  make([]Line, len(t.Lines)),
	}

	copy(c.Rows, t.Rows)

	for i, line := range t.Lines {
		nl := make(Line, len(line))

		for row, v := range line {
			nl[row] = v
		}

		c.Lines[i] = nl
	}

	return c
}

// findLine returns the index of the line whose key row value has the
// given external string form, or -1.
func (t *Table) findLine(key string) int {
	for i, line := range t.Lines {
		if line[t.Schema.KeyRow].StringForm() == key {
			return i
		}
	}

	return -1
}
