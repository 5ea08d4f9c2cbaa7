package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Kind is the inferred storage type of a column.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Class returns the dispatch class of the kind.
func (k Kind) Class() Class {
	if k == KindText {
		return ClassCategorical
	}
	return ClassNumeric
}

// Class is the tagged variant used to pick which operations apply to a
// column. It is resolved once at load time.
type Class int

const (
	ClassNumeric Class = iota
	ClassCategorical
)

func (c Class) String() string {
	if c == ClassCategorical {
		return "categorical"
	}
	return "numeric"
}

// MarshalText encodes the class by name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Column is a named, typed sequence of nullable cells. Exactly one of the
// backing slices is populated, chosen by kind. Columns are never modified
// after construction.
type Column struct {
	name   string
	kind   Kind
	ints   []pgtype.Int8
	floats []pgtype.Float8
	texts  []pgtype.Text
}

// NewIntColumn creates an integer column.
func NewIntColumn(name string, cells []pgtype.Int8) *Column {
	return &Column{name: name, kind: KindInteger, ints: cells}
}

// NewFloatColumn creates a float column. NaN cells are stored as null.
func NewFloatColumn(name string, cells []pgtype.Float8) *Column {
	for i, c := range cells {
		if c.Valid && math.IsNaN(c.Float64) {
			cells[i] = pgtype.Float8{}
		}
	}
	return &Column{name: name, kind: KindFloat, floats: cells}
}

// NewTextColumn creates a text column.
func NewTextColumn(name string, cells []pgtype.Text) *Column {
	return &Column{name: name, kind: KindText, texts: cells}
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }
func (c *Column) Class() Class { return c.kind.Class() }

// Len returns the number of cells.
func (c *Column) Len() int {
	switch c.kind {
	case KindInteger:
		return len(c.ints)
	case KindFloat:
		return len(c.floats)
	default:
		return len(c.texts)
	}
}

// IsNull reports whether cell i is null.
func (c *Column) IsNull(i int) bool {
	switch c.kind {
	case KindInteger:
		return !c.ints[i].Valid
	case KindFloat:
		return !c.floats[i].Valid
	default:
		return !c.texts[i].Valid
	}
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Float returns cell i as a float64. It reports false for null cells and
// for text columns.
func (c *Column) Float(i int) (float64, bool) {
	switch c.kind {
	case KindInteger:
		return float64(c.ints[i].Int64), c.ints[i].Valid
	case KindFloat:
		return c.floats[i].Float64, c.floats[i].Valid
	default:
		return 0, false
	}
}

// Int returns cell i of an integer column.
func (c *Column) Int(i int) (int64, bool) {
	if c.kind != KindInteger {
		return 0, false
	}
	return c.ints[i].Int64, c.ints[i].Valid
}

// Text returns cell i of a text column.
func (c *Column) Text(i int) (string, bool) {
	if c.kind != KindText {
		return "", false
	}
	return c.texts[i].String, c.texts[i].Valid
}

// Format renders cell i the way it is written to CSV. Null renders as "".
func (c *Column) Format(i int) string {
	switch c.kind {
	case KindInteger:
		if !c.ints[i].Valid {
			return ""
		}
		return strconv.FormatInt(c.ints[i].Int64, 10)
	case KindFloat:
		if !c.floats[i].Valid {
			return ""
		}
		return FormatFloat(c.floats[i].Float64)
	default:
		return c.texts[i].String
	}
}

// Numbers returns the non-null values of a numeric column in row order.
func (c *Column) Numbers() []float64 {
	out := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			out = append(out, v)
		}
	}
	return out
}

// key returns a comparable representation of cell i, distinguishing null
// from every value.
func (c *Column) key(i int) string {
	if c.IsNull(i) {
		return "\x00"
	}
	if c.kind == KindFloat && c.floats[i].Float64 == 0 {
		return "\x010"
	}
	return "\x01" + c.Format(i)
}

// take returns a new column holding the cells at idx, in order.
func (c *Column) take(idx []int) *Column {
	out := &Column{name: c.name, kind: c.kind}
	switch c.kind {
	case KindInteger:
		out.ints = make([]pgtype.Int8, len(idx))
		for j, i := range idx {
			out.ints[j] = c.ints[i]
		}
	case KindFloat:
		out.floats = make([]pgtype.Float8, len(idx))
		for j, i := range idx {
			out.floats[j] = c.floats[i]
		}
	default:
		out.texts = make([]pgtype.Text, len(idx))
		for j, i := range idx {
			out.texts[j] = c.texts[i]
		}
	}
	return out
}

// equal reports whether both columns have the same name, kind and cells.
func (c *Column) equal(o *Column) bool {
	if c.name != o.name || c.kind != o.kind || c.Len() != o.Len() {
		return false
	}
	for i := 0; i < c.Len(); i++ {
		if c.key(i) != o.key(i) {
			return false
		}
	}
	return true
}

// FormatFloat renders v in its shortest round-trip form, always keeping a
// decimal point or exponent so the value re-parses as a float.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if a := math.Abs(v); a != 0 && (a < 1e-4 || a >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.IndexByte(s, '.') < 0 {
		s += ".0"
	}
	return s
}
