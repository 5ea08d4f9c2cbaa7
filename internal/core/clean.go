package core

// clean.go implements the missing-value strategies.
//
// Strategies only ever build new columns; the input table is returned
// unchanged when there is nothing to fill.

import (
	"math"

	"github.com/jackc/pgx/v5/pgtype"
)

// Strategy selects how missing values are handled.
type Strategy string

const (
	StrategyNone   Strategy = "none"
	StrategyDrop   Strategy = "drop"
	StrategyMean   Strategy = "mean"
	StrategyMedian Strategy = "median"
	StrategyMode   Strategy = "mode"
)

// Strategies lists every strategy in display order.
var Strategies = []Strategy{StrategyNone, StrategyDrop, StrategyMean, StrategyMedian, StrategyMode}

// Label returns the human-readable name of the strategy.
func (s Strategy) Label() string {
	switch s {
	case StrategyDrop:
		return "Drop Rows"
	case StrategyMean:
		return "Fill with Mean"
	case StrategyMedian:
		return "Fill with Median"
	case StrategyMode:
		return "Fill with Mode"
	default:
		return "Do Nothing"
	}
}

// NumericOnly reports whether the strategy applies to numeric columns only.
func (s Strategy) NumericOnly() bool {
	return s == StrategyMean || s == StrategyMedian
}

// HandleMissing applies strategy s to t.
//
// Mean and median fill each numeric column of sets from its own non-null
// values and leave categorical columns untouched. Mode fills every column
// with its most frequent value, breaking ties toward the smallest value.
// A column that has nulls but no values to derive a fill from yields a
// *StatisticUndefinedError.
func HandleMissing(t *Table, sets ColumnSets, s Strategy) (*Table, error) {
	switch s {
	case "", StrategyNone:
		return t, nil
	case StrategyDrop:
		return DropNullRows(t), nil
	case StrategyMean:
		return fillNumeric(t, sets, string(StrategyMean), mean)
	case StrategyMedian:
		return fillNumeric(t, sets, string(StrategyMedian), median)
	case StrategyMode:
		return fillMode(t)
	default:
		return nil, ValidationErrors{{Field: "strategy", Value: string(s), Message: "unknown strategy"}}
	}
}

// DropNullRows removes every row with a null in any column.
func DropNullRows(t *Table) *Table {
	keep := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if !rowHasNull(t, i) {
			keep = append(keep, i)
		}
	}
	if len(keep) == t.rows {
		return t
	}
	return t.take(keep)
}

func rowHasNull(t *Table, i int) bool {
	for _, c := range t.columns {
		if c.IsNull(i) {
			return true
		}
	}
	return false
}

func fillNumeric(t *Table, sets ColumnSets, stat string, fn func([]float64) float64) (*Table, error) {
	out := t
	for _, name := range sets.Numeric {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if col.NullCount() == 0 {
			continue
		}
		values := col.Numbers()
		if len(values) == 0 {
			return nil, &StatisticUndefinedError{Column: name, Statistic: stat}
		}
		// A NaN fill would be read back as null
		v := fn(values)
		if math.IsNaN(v) {
			return nil, &StatisticUndefinedError{Column: name, Statistic: stat}
		}
		out = out.withColumn(fillNumber(col, v))
	}
	return out, nil
}

// fillNumber replaces nulls in a numeric column with v. An integer column
// is promoted to float unless v is a whole number it can hold.
func fillNumber(c *Column, v float64) *Column {
	if c.kind == KindInteger && v == math.Trunc(v) && math.Abs(v) < 1<<63 {
		cells := make([]pgtype.Int8, len(c.ints))
		for i, cell := range c.ints {
			if !cell.Valid {
				cell = pgtype.Int8{Int64: int64(v), Valid: true}
			}
			cells[i] = cell
		}
		return NewIntColumn(c.name, cells)
	}

	cells := make([]pgtype.Float8, c.Len())
	for i := range cells {
		if x, ok := c.Float(i); ok {
			cells[i] = pgtype.Float8{Float64: x, Valid: true}
		} else {
			cells[i] = pgtype.Float8{Float64: v, Valid: true}
		}
	}
	return NewFloatColumn(c.name, cells)
}

func fillMode(t *Table) (*Table, error) {
	out := t
	for _, col := range t.columns {
		if col.NullCount() == 0 {
			continue
		}
		src, ok := modeRow(col)
		if !ok {
			return nil, &StatisticUndefinedError{Column: col.name, Statistic: string(StrategyMode)}
		}
		out = out.withColumn(fillFromRow(col, src))
	}
	return out, nil
}

// modeRow returns the index of a row holding the most frequent non-null
// value of c. Among equally frequent values the smallest wins: numeric
// order for numeric columns, byte order for text.
func modeRow(c *Column) (int, bool) {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		k := c.key(i)
		if _, ok := first[k]; !ok {
			first[k] = i
		}
		counts[k]++
	}

	best, bestCount := -1, 0
	for k, n := range counts {
		i := first[k]
		if n > bestCount || (n == bestCount && cellLess(c, i, best)) {
			best, bestCount = i, n
		}
	}
	return best, best >= 0
}

// cellLess orders two non-null cells of the same column.
func cellLess(c *Column, i, j int) bool {
	switch c.kind {
	case KindInteger:
		return c.ints[i].Int64 < c.ints[j].Int64
	case KindFloat:
		return c.floats[i].Float64 < c.floats[j].Float64
	default:
		return c.texts[i].String < c.texts[j].String
	}
}

// fillFromRow replaces nulls in c with the cell at row src.
func fillFromRow(c *Column, src int) *Column {
	switch c.kind {
	case KindInteger:
		cells := make([]pgtype.Int8, len(c.ints))
		for i, cell := range c.ints {
			if !cell.Valid {
				cell = c.ints[src]
			}
			cells[i] = cell
		}
		return NewIntColumn(c.name, cells)
	case KindFloat:
		cells := make([]pgtype.Float8, len(c.floats))
		for i, cell := range c.floats {
			if !cell.Valid {
				cell = c.floats[src]
			}
			cells[i] = cell
		}
		return NewFloatColumn(c.name, cells)
	default:
		cells := make([]pgtype.Text, len(c.texts))
		for i, cell := range c.texts {
			if !cell.Valid {
				cell = c.texts[src]
			}
			cells[i] = cell
		}
		return NewTextColumn(c.name, cells)
	}
}
