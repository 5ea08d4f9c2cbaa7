package core

import (
	"math"
	"slices"
)

const (
	// DefaultBins is the histogram bin count when none is requested.
	DefaultBins = 20

	// MaxBins bounds the requested histogram bin count.
	MaxBins = 200
)

// Histogram holds equal-width bin edges and per-bin counts for one numeric
// column. len(Edges) == len(Counts)+1.
type Histogram struct {
	Column string    `json:"column"`
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
	Total  int       `json:"total"`
}

// BuildHistogram buckets the finite non-null values of a numeric column
// into bins equal-width bins spanning [min, max]. Each bin is half-open
// except the last, which includes max. An empty column spans [0, 1]; a
// constant column v spans [v-0.5, v+0.5], widened to the neighbouring
// floats where v is too large for that to change it.
func BuildHistogram(t *Table, sets ColumnSets, column string, bins int) (*Histogram, error) {
	if err := sets.require(column, ClassNumeric, "histogram"); err != nil {
		return nil, err
	}
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	if bins > MaxBins {
		bins = MaxBins
	}

	values := finite(col.Numbers())
	lo, hi := 0.0, 1.0
	if len(values) > 0 {
		lo, hi = slices.Min(values), slices.Max(values)
		if lo == hi {
			lo, hi = lo-0.5, hi+0.5
		}
		if lo == hi {
			lo, hi = math.Nextafter(lo, math.Inf(-1)), math.Nextafter(hi, math.Inf(1))
		}
	}

	h := &Histogram{
		Column: column,
		Edges:  make([]float64, bins+1),
		Counts: make([]int, bins),
		Total:  len(values),
	}
	// hi-lo overflows when the values span most of the float64 range
	width := hi/float64(bins) - lo/float64(bins)
	for k := range h.Edges {
		h.Edges[k] = lo + float64(k)*width
	}
	h.Edges[bins] = hi

	for _, v := range values {
		i := binIndex(v, lo, width, bins)
		// Correct for rounding at the computed edges.
		if i > 0 && v < h.Edges[i] {
			i--
		} else if i < bins-1 && v >= h.Edges[i+1] {
			i++
		}
		h.Counts[i]++
	}
	return h, nil
}

// binIndex returns the bin of v, clamped to [0, bins-1]. Halving the
// operands keeps v-lo finite.
func binIndex(v, lo, width float64, bins int) int {
	f := (v/2 - lo/2) / (width / 2)
	switch {
	case !(f > 0):
		return 0
	case f >= float64(bins):
		return bins - 1
	}
	return int(f)
}

func finite(xs []float64) []float64 {
	out := xs[:0:0]
	for _, x := range xs {
		if !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// BoxPlot is the five-number summary of a numeric column plus the whisker
// ends and outliers of a standard box-and-whisker rendering, with whiskers
// reaching the most extreme values within 1.5 IQR of the quartiles.
type BoxPlot struct {
	Column      string    `json:"column"`
	Count       int       `json:"count"`
	Min         float64   `json:"min"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	Max         float64   `json:"max"`
	WhiskerLow  float64   `json:"whisker_low"`
	WhiskerHigh float64   `json:"whisker_high"`
	Outliers    []float64 `json:"outliers"`
}

// BuildBoxPlot summarizes the finite non-null values of a numeric column.
func BuildBoxPlot(t *Table, sets ColumnSets, column string) (*BoxPlot, error) {
	if err := sets.require(column, ClassNumeric, "box plot"); err != nil {
		return nil, err
	}
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	values := finite(col.Numbers())
	if len(values) == 0 {
		return nil, &StatisticUndefinedError{Column: column, Statistic: "box plot"}
	}

	sorted := sortedCopy(values)
	b := &BoxPlot{
		Column:   column,
		Count:    len(sorted),
		Min:      sorted[0],
		Q1:       quantile(sorted, 0.25),
		Median:   quantile(sorted, 0.5),
		Q3:       quantile(sorted, 0.75),
		Max:      sorted[len(sorted)-1],
		Outliers: []float64{},
	}

	iqr := b.Q3 - b.Q1
	lowFence, highFence := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.WhiskerLow, b.WhiskerHigh = b.Q1, b.Q3
	for _, v := range sorted {
		if v >= lowFence {
			b.WhiskerLow = math.Min(v, b.Q1)
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= highFence {
			b.WhiskerHigh = math.Max(sorted[i], b.Q3)
			break
		}
	}
	for _, v := range sorted {
		if v < b.WhiskerLow || v > b.WhiskerHigh {
			b.Outliers = append(b.Outliers, v)
		}
	}
	return b, nil
}

// CategoryCount is the frequency of one distinct value.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CountCategories returns the frequency of each distinct non-null value of
// a categorical column, most frequent first. Equal counts keep the order in
// which the values first appear.
func CountCategories(t *Table, sets ColumnSets, column string) ([]CategoryCount, error) {
	if err := sets.require(column, ClassCategorical, "category counts"); err != nil {
		return nil, err
	}
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	return countValues(col), nil
}

// countValues counts the non-null cells of c by formatted value.
func countValues(c *Column) []CategoryCount {
	pos := make(map[string]int)
	var counts []CategoryCount
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		v := c.Format(i)
		if j, ok := pos[v]; ok {
			counts[j].Count++
			continue
		}
		pos[v] = len(counts)
		counts = append(counts, CategoryCount{Value: v, Count: 1})
	}
	slices.SortStableFunc(counts, func(a, b CategoryCount) int {
		return b.Count - a.Count
	})
	if counts == nil {
		counts = []CategoryCount{}
	}
	return counts
}

// Distinct returns the distinct non-null values of a categorical column in
// order of first appearance.
func Distinct(t *Table, sets ColumnSets, column string) ([]string, error) {
	if err := sets.require(column, ClassCategorical, "value list"); err != nil {
		return nil, err
	}
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		v := col.Format(i)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}
