package web

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/insights/internal/core"
)

// Query parameter names shared by the dashboard, chart, export and API
// routes.
const (
	paramStrategy  = "strategy"
	paramDedup     = "dedup"
	paramHistogram = "hist"
	paramBins      = "bins"
	paramBox       = "box"
	paramCategory  = "cat"
	paramNumeric   = "num"
	paramMin       = "min"
	paramMax       = "max"
	paramFilterCat = "fcat"
	paramValue     = "val"
	paramRows      = "rows"
)

// parsedRequest is an AnalysisRequest decoded from a query string.
type parsedRequest struct {
	core.AnalysisRequest

	// rangeDefaulted is set when the numeric filter column was not in the
	// query and fell back to the first numeric column.
	rangeDefaulted bool
}

// parseAnalysisRequest decodes q into an AnalysisRequest. With defaults,
// unset controls fall back to what the dashboard shows on first load: the
// first numeric column for the charts and the range filter, the first
// categorical column for the category chart and filter. Without defaults
// only what q names is applied.
func parseAnalysisRequest(q url.Values, sets core.ColumnSets, defaults bool) (parsedRequest, error) {
	var (
		p    parsedRequest
		errs core.ValidationErrors
	)
	firstNumeric, firstCategorical := "", ""
	if defaults && len(sets.Numeric) > 0 {
		firstNumeric = sets.Numeric[0]
	}
	if defaults && len(sets.Categorical) > 0 {
		firstCategorical = sets.Categorical[0]
	}

	p.Options.Strategy = core.Strategy(strings.TrimSpace(q.Get(paramStrategy)))
	p.Options.Deduplicate = parseBool(q.Get(paramDedup))

	p.HistogramColumn = valueOr(q.Get(paramHistogram), firstNumeric)
	p.BoxColumn = valueOr(q.Get(paramBox), firstNumeric)
	p.CategoryColumn = valueOr(q.Get(paramCategory), firstCategorical)

	p.Bins = parseInt(q, paramBins, &errs)
	p.PreviewRows = parseInt(q, paramRows, &errs)

	num := q.Get(paramNumeric)
	if num == "" && firstNumeric != "" {
		num, p.rangeDefaulted = firstNumeric, true
	}
	if num != "" {
		p.Options.Filter.Numeric = &core.RangeFilter{
			Column: num,
			Low:    parseFloat(q, paramMin, &errs),
			High:   parseFloat(q, paramMax, &errs),
		}
	}

	if fcat := valueOr(q.Get(paramFilterCat), firstCategorical); fcat != "" {
		p.Options.Filter.Categorical = &core.CategoryFilter{
			Column: fcat,
			Values: nonEmpty(q[paramValue]),
		}
	}

	if len(errs) > 0 {
		return parsedRequest{}, errs
	}
	return p, nil
}

// pipelineOptions decodes only the cleaning controls from q.
func pipelineOptions(q url.Values) core.Options {
	return core.Options{
		Strategy:    core.Strategy(strings.TrimSpace(q.Get(paramStrategy))),
		Deduplicate: parseBool(q.Get(paramDedup)),
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1":
		return true
	}
	return false
}

func parseInt(q url.Values, name string, errs *core.ValidationErrors) int {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*errs = append(*errs, core.ValidationError{Field: name, Value: s, Message: "must be an integer"})
		return 0
	}
	return n
}

// parseFloat returns nil for an absent parameter so the filter falls back
// to the column bound.
func parseFloat(q url.Values, name string, errs *core.ValidationErrors) *float64 {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*errs = append(*errs, core.ValidationError{Field: name, Value: s, Message: "must be a number"})
		return nil
	}
	return &v
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
