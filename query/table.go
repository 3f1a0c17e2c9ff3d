package query

import "fmt"

// Table is an immutable in-memory result set: an ordered list of uniquely
// named columns over rows of typed cells. Every relational operator returns
// a new Table and never modifies its inputs, so Tables can be shared by
// concurrent queries without locking.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable builds a table, validating that column names are non-empty and
// unique and that every row has exactly one cell per column. The input
// slices are copied.
func NewTable(columns []string, rows [][]Value) (*Table, error) {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range t.columns {
		if col == "" {
			return nil, fmt.Errorf("column %d: name cannot be empty", i)
		}
		if _, ok := t.index[col]; ok {
			return nil, fmt.Errorf("duplicate column name %q", col)
		}
		t.index[col] = i
	}
	t.rows = make([][]Value, len(rows))
	for i, row := range rows {
		if len(row) != len(t.columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.columns))
		}
		t.rows[i] = append([]Value(nil), row...)
	}
	return t, nil
}

// newTable builds a table from slices the caller guarantees are consistent
// and will not modify afterwards. Used inside the executor where column
// layouts are constructed explicitly.
func newTable(columns []string, rows [][]Value) *Table {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col] = i
	}
	return &Table{columns: columns, index: index, rows: rows}
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	return append([]Value(nil), t.rows[i]...)
}

// Value returns the cell at row i, column j.
func (t *Table) Value(i, j int) Value {
	return t.rows[i][j]
}

// Equal reports whether two tables have the same column names in the same
// order and cell-wise equal rows.
func (t *Table) Equal(o *Table) bool {
	if o == nil || t.NumColumns() != o.NumColumns() || t.NumRows() != o.NumRows() {
		return false
	}
	for i, col := range t.columns {
		if o.columns[i] != col {
			return false
		}
	}
	for i, row := range t.rows {
		for j, v := range row {
			if !valuesEqual(v, o.rows[i][j]) {
				return false
			}
		}
	}
	return true
}
