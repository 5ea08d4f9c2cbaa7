package core

import (
	"fmt"
	"strconv"
)

// Table is an ordered collection of named, equal-length columns.
//
// A Table is immutable: every transformation returns a new Table and leaves
// its input untouched, so a Table can be shared freely between goroutines.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable assembles columns into a table. Column names must be unique and
// all columns must have the same length.
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.name)
		}
		t.index[c.name] = i
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.name, c.Len(), t.rows)
		}
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.name
	}
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, &UnknownColumnError{Column: name}
	}
	return t.columns[i], nil
}

// NullCount returns the number of null cells across all columns.
func (t *Table) NullCount() int {
	n := 0
	for _, c := range t.columns {
		n += c.NullCount()
	}
	return n
}

// Record returns row i formatted as CSV fields.
func (t *Table) Record(i int) []string {
	rec := make([]string, len(t.columns))
	for j, c := range t.columns {
		rec[j] = c.Format(i)
	}
	return rec
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n >= t.rows {
		return t
	}
	if n < 0 {
		n = 0
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.take(idx)
}

// Equal reports whether both tables hold the same columns, kinds and cells
// in the same order.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for i, c := range t.columns {
		if !c.equal(o.columns[i]) {
			return false
		}
	}
	return true
}

// rowKey returns a comparable representation of row i across all columns.
// Each cell key is length-prefixed so no two distinct rows share a key.
func (t *Table) rowKey(i int) string {
	var b []byte
	for _, c := range t.columns {
		k := c.key(i)
		b = strconv.AppendInt(b, int64(len(k)), 10)
		b = append(b, ':')
		b = append(b, k...)
	}
	return string(b)
}

// take returns a new table holding the rows at idx, in order.
func (t *Table) take(idx []int) *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.take(idx)
	}
	return &Table{columns: cols, index: t.index, rows: len(idx)}
}

// withColumn returns a new table with the same-named column replaced.
func (t *Table) withColumn(c *Column) *Table {
	cols := make([]*Column, len(t.columns))
	copy(cols, t.columns)
	cols[t.index[c.name]] = c
	return &Table{columns: cols, index: t.index, rows: t.rows}
}
