// Package templates renders the dashboard pages as templ components.
package templates

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/insights/internal/core"
)

// DashboardParams is the data for the dashboard page.
type DashboardParams struct {
	Analysis *core.Analysis

	// Query is the encoded control state, appended to chart and export
	// links so they show the same pipeline as the page.
	Query string

	// Notice is an informational message shown above the sections.
	Notice string
}

func (p DashboardParams) datasetPath(suffix string) string {
	return "/datasets/" + url.PathEscape(p.Analysis.Dataset.ID) + suffix
}

// datasetURL is datasetPath with the control state attached.
func (p DashboardParams) datasetURL(suffix string) string {
	u := p.datasetPath(suffix)
	if p.Query != "" {
		u += "?" + p.Query
	}
	return u
}

func (p DashboardParams) bins() int {
	if p.Analysis.Request.Bins == 0 {
		return core.DefaultBins
	}
	return p.Analysis.Request.Bins
}

func currentStrategy(req core.AnalysisRequest) core.Strategy {
	if req.Options.Strategy == "" {
		return core.StrategyNone
	}
	return req.Options.Strategy
}

var statLabels = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// statValues lists the summary values in statLabels order, after count.
func statValues(n core.NumericSummary) []*float64 {
	return []*float64{n.Mean, n.Std, n.Min, n.Q1, n.Median, n.Q3, n.Max}
}

func formatStat(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return strconv.FormatFloat(*v, 'g', 6, 64)
}

func formatTop(top *string) string {
	if top == nil {
		return "NaN"
	}
	return *top
}

func rangeFilterColumn(f core.FilterSpec) string {
	if f.Numeric == nil {
		return ""
	}
	return f.Numeric.Column
}

func categoryFilterColumn(f core.FilterSpec) string {
	if f.Categorical == nil {
		return ""
	}
	return f.Categorical.Column
}

func categoryFilterValues(f core.FilterSpec) []string {
	if f.Categorical == nil {
		return nil
	}
	return f.Categorical.Values
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
