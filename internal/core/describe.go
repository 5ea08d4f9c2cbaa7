package core

// NumericSummary holds the descriptive statistics of one numeric column.
// Undefined statistics are nil.
type NumericSummary struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q1     *float64 `json:"25%"`
	Median *float64 `json:"50%"`
	Q3     *float64 `json:"75%"`
	Max    *float64 `json:"max"`
}

// CategoricalSummary holds count, distinct values and the most frequent
// value of one categorical column.
type CategoricalSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Unique int     `json:"unique"`
	Top    *string `json:"top"`
	Freq   int     `json:"freq"`
}

// Summary is the describe output for a table.
type Summary struct {
	Numeric     []NumericSummary     `json:"numeric"`
	Categorical []CategoricalSummary `json:"categorical"`
}

// Describe computes per-column statistics of t for the columns in sets.
// The standard deviation is the sample deviation; quartiles use linear
// interpolation.
func Describe(t *Table, sets ColumnSets) (Summary, error) {
	s := Summary{
		Numeric:     make([]NumericSummary, 0, len(sets.Numeric)),
		Categorical: make([]CategoricalSummary, 0, len(sets.Categorical)),
	}

	for _, name := range sets.Numeric {
		col, err := t.Column(name)
		if err != nil {
			return Summary{}, err
		}
		s.Numeric = append(s.Numeric, describeNumeric(col))
	}

	for _, name := range sets.Categorical {
		col, err := t.Column(name)
		if err != nil {
			return Summary{}, err
		}
		s.Categorical = append(s.Categorical, describeCategorical(col))
	}

	return s, nil
}

func describeNumeric(c *Column) NumericSummary {
	values := c.Numbers()
	ns := NumericSummary{Column: c.name, Count: len(values)}
	if len(values) == 0 {
		return ns
	}

	sorted := sortedCopy(values)
	ns.Mean = ptr(mean(values))
	if sd, ok := sampleStd(values); ok {
		ns.Std = ptr(sd)
	}
	ns.Min = ptr(sorted[0])
	ns.Q1 = ptr(quantile(sorted, 0.25))
	ns.Median = ptr(quantile(sorted, 0.5))
	ns.Q3 = ptr(quantile(sorted, 0.75))
	ns.Max = ptr(sorted[len(sorted)-1])
	return ns
}

func describeCategorical(c *Column) CategoricalSummary {
	counts := countValues(c)
	cs := CategoricalSummary{Column: c.name, Unique: len(counts)}
	for _, vc := range counts {
		cs.Count += vc.Count
	}
	if len(counts) > 0 {
		cs.Top = ptr(counts[0].Value)
		cs.Freq = counts[0].Count
	}
	return cs
}

func ptr[T any](v T) *T { return &v }
