package core

import "slices"

// ColumnSets is the numeric/categorical split of a table's columns. It is
// computed once from the uploaded table and reused unchanged for every
// derived table, so a column keeps its class even if cleaning changes its
// kind.
type ColumnSets struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
}

// Classify splits the columns of t by class, preserving column order.
func Classify(t *Table) ColumnSets {
	sets := ColumnSets{Numeric: []string{}, Categorical: []string{}}
	for _, c := range t.columns {
		if c.Class() == ClassNumeric {
			sets.Numeric = append(sets.Numeric, c.name)
		} else {
			sets.Categorical = append(sets.Categorical, c.name)
		}
	}
	return sets
}

// IsNumeric reports whether name is in the numeric set.
func (s ColumnSets) IsNumeric(name string) bool {
	return slices.Contains(s.Numeric, name)
}

// IsCategorical reports whether name is in the categorical set.
func (s ColumnSets) IsCategorical(name string) bool {
	return slices.Contains(s.Categorical, name)
}

// ClassOf returns the class of name and whether it is known.
func (s ColumnSets) ClassOf(name string) (Class, bool) {
	switch {
	case s.IsNumeric(name):
		return ClassNumeric, true
	case s.IsCategorical(name):
		return ClassCategorical, true
	}
	return 0, false
}

// require checks that column name belongs to class want for operation op.
func (s ColumnSets) require(name string, want Class, op string) error {
	got, ok := s.ClassOf(name)
	if !ok {
		return &UnknownColumnError{Column: name}
	}
	if got != want {
		return &ColumnTypeError{Column: name, Operation: op, Want: want, Got: got}
	}
	return nil
}

// ColumnProfile describes one column of a table.
type ColumnProfile struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Class Class  `json:"class"`
	Nulls int    `json:"nulls"`
}

// TableProfile holds the shape and missing-value counts of a table.
type TableProfile struct {
	Rows    int             `json:"rows"`
	Cols    int             `json:"cols"`
	Missing int             `json:"missing"`
	Columns []ColumnProfile `json:"columns"`
}

// Profile computes the shape and null counts of t.
func Profile(t *Table) TableProfile {
	p := TableProfile{
		Rows:    t.rows,
		Cols:    len(t.columns),
		Columns: make([]ColumnProfile, len(t.columns)),
	}
	for i, c := range t.columns {
		nulls := c.NullCount()
		p.Missing += nulls
		p.Columns[i] = ColumnProfile{
			Name:  c.name,
			Kind:  c.kind,
			Class: c.Class(),
			Nulls: nulls,
		}
	}
	return p
}
