package core

import "slices"

// RangeFilter keeps rows whose value in a numeric column lies within
// [Low, High]. A nil bound defaults to the column's minimum or maximum.
type RangeFilter struct {
	Column string   `json:"column" validate:"required"`
	Low    *float64 `json:"low,omitempty"`
	High   *float64 `json:"high,omitempty"`
}

// CategoryFilter keeps rows whose value in a categorical column is one of
// Values. An empty Values applies no filtering.
type CategoryFilter struct {
	Column string   `json:"column" validate:"required"`
	Values []string `json:"values"`
}

// FilterSpec combines the optional range and category predicates. A row
// must satisfy every predicate that is present.
type FilterSpec struct {
	Numeric     *RangeFilter    `json:"numeric,omitempty" validate:"omitempty"`
	Categorical *CategoryFilter `json:"categorical,omitempty" validate:"omitempty"`
}

// Bounds returns the minimum and maximum of a numeric column, for use as
// default range bounds.
func Bounds(t *Table, sets ColumnSets, column string) (low, high float64, err error) {
	if err := sets.require(column, ClassNumeric, "range filter"); err != nil {
		return 0, 0, err
	}
	col, err := t.Column(column)
	if err != nil {
		return 0, 0, err
	}
	values := col.Numbers()
	if len(values) == 0 {
		return 0, 0, &StatisticUndefinedError{Column: column, Statistic: "range"}
	}
	return slices.Min(values), slices.Max(values), nil
}

// ResolveRange fills in the default bounds of f against t and checks that
// the range is not inverted.
func ResolveRange(t *Table, sets ColumnSets, f RangeFilter) (low, high float64, err error) {
	if err := sets.require(f.Column, ClassNumeric, "range filter"); err != nil {
		return 0, 0, err
	}
	if f.Low == nil || f.High == nil {
		low, high, err = Bounds(t, sets, f.Column)
		if err != nil {
			return 0, 0, err
		}
	}
	if f.Low != nil {
		low = *f.Low
	}
	if f.High != nil {
		high = *f.High
	}
	if low > high {
		return 0, 0, &InvalidRangeError{Column: f.Column, Low: low, High: high}
	}
	return low, high, nil
}

// Filter returns the rows of t that satisfy spec. Nulls never satisfy a
// predicate.
func Filter(t *Table, sets ColumnSets, spec FilterSpec) (*Table, error) {
	var preds []func(i int) bool

	if f := spec.Numeric; f != nil {
		low, high, err := ResolveRange(t, sets, *f)
		if err != nil {
			return nil, err
		}
		col, err := t.Column(f.Column)
		if err != nil {
			return nil, err
		}
		preds = append(preds, func(i int) bool {
			v, ok := col.Float(i)
			return ok && v >= low && v <= high
		})
	}

	if f := spec.Categorical; f != nil {
		if err := sets.require(f.Column, ClassCategorical, "category filter"); err != nil {
			return nil, err
		}
		col, err := t.Column(f.Column)
		if err != nil {
			return nil, err
		}
		if len(f.Values) > 0 {
			allowed := make(map[string]struct{}, len(f.Values))
			for _, v := range f.Values {
				allowed[v] = struct{}{}
			}
			preds = append(preds, func(i int) bool {
				if col.IsNull(i) {
					return false
				}
				_, ok := allowed[col.Format(i)]
				return ok
			})
		}
	}

	if len(preds) == 0 {
		return t, nil
	}

	keep := make([]int, 0, t.rows)
rows:
	for i := 0; i < t.rows; i++ {
		for _, p := range preds {
			if !p(i) {
				continue rows
			}
		}
		keep = append(keep, i)
	}
	if len(keep) == t.rows {
		return t, nil
	}
	return t.take(keep), nil
}
