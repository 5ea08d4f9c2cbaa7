// Package charts renders dashboard distribution views as PNG images.
package charts

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/JonMunkholm/insights/internal/core"
)

const (
	Width  = 720
	Height = 360

	// MaxCategoryBars caps the bars drawn for a category chart. The most
	// frequent values are kept.
	MaxCategoryBars = 30

	// maxBarLabels is the number of histogram edges labelled on the axis.
	maxBarLabels = 10
)

// ErrNoValues is returned when a box plot has nothing to draw.
var ErrNoValues = errors.New("no values to plot")

var background = chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}}

// Histogram renders h as a bar chart, one bar per bin.
func Histogram(w io.Writer, h *core.Histogram) error {
	bars := make([]chart.Value, len(h.Counts))
	step := (len(h.Counts) + maxBarLabels - 1) / maxBarLabels
	for i, n := range h.Counts {
		bars[i] = chart.Value{Value: float64(n), Style: barStyle(chart.ColorBlue)}
		if i%step == 0 {
			bars[i].Label = formatEdge(h.Edges[i])
		}
	}

	bc := chart.BarChart{
		Title:      "Histogram of " + h.Column,
		Background: background,
		Width:      Width,
		Height:     Height,
		BarSpacing: 1,
		BarWidth:   barWidth(len(bars), 1),
		YAxis:      chart.YAxis{Range: countRange(h.Counts)},
		Bars:       bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render histogram: %w", err)
	}
	return nil
}

// Categories renders value counts for column as a bar chart. An empty
// column draws a single empty bar.
func Categories(w io.Writer, column string, counts []core.CategoryCount) error {
	if len(counts) > MaxCategoryBars {
		counts = counts[:MaxCategoryBars]
	}

	bars := make([]chart.Value, 0, len(counts))
	ns := make([]int, 0, len(counts))
	for _, c := range counts {
		bars = append(bars, chart.Value{Label: c.Value, Value: float64(c.Count), Style: barStyle(chart.ColorGreen)})
		ns = append(ns, c.Count)
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: "no values", Style: barStyle(chart.ColorGreen)})
	}

	bc := chart.BarChart{
		Title:      "Counts of " + column,
		Background: background,
		Width:      Width,
		Height:     Height,
		BarSpacing: 4,
		BarWidth:   barWidth(len(bars), 4),
		YAxis:      chart.YAxis{Range: countRange(ns)},
		Bars:       bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render categories: %w", err)
	}
	return nil
}

// BoxPlot renders b as a single vertical box with whiskers at the
// furthest values within 1.5 IQR and dots for outliers.
func BoxPlot(w io.Writer, b *core.BoxPlot) error {
	if b == nil || b.Count == 0 {
		return ErrNoValues
	}

	const left, mid, right = 0.3, 0.5, 0.7
	box := lineStyle(chart.ColorBlue)
	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "IQR",
			XValues: []float64{left, right, right, left, left},
			YValues: []float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1},
			Style:   box,
		},
		chart.ContinuousSeries{
			Name:    "median",
			XValues: []float64{left, right},
			YValues: []float64{b.Median, b.Median},
			Style:   lineStyle(chart.ColorOrange),
		},
		segment("lower whisker", mid, mid, b.WhiskerLow, b.Q1, box),
		segment("upper whisker", mid, mid, b.Q3, b.WhiskerHigh, box),
		segment("lower cap", 0.4, 0.6, b.WhiskerLow, b.WhiskerLow, box),
		segment("upper cap", 0.4, 0.6, b.WhiskerHigh, b.WhiskerHigh, box),
	}
	if len(b.Outliers) > 0 {
		xs := make([]float64, len(b.Outliers))
		for i := range xs {
			xs[i] = mid
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "outliers",
			XValues: xs,
			YValues: b.Outliers,
			Style:   pointStyle(chart.ColorRed),
		})
	}

	c := chart.Chart{
		Title:      "Box plot of " + b.Column,
		Background: background,
		Width:      Width,
		Height:     Height,
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
			Ticks: []chart.Tick{{Value: 0, Label: ""}, {Value: mid, Label: b.Column}, {Value: 1, Label: ""}},
		},
		YAxis:  chart.YAxis{Range: paddedRange(b.Min, b.Max)},
		Series: series,
	}
	if err := c.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render box plot: %w", err)
	}
	return nil
}

func segment(name string, x0, x1, y0, y1 float64, style chart.Style) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{x0, x1},
		YValues: []float64{y0, y1},
		Style:   style,
	}
}

func barStyle(col drawing.Color) chart.Style {
	return chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1}
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{StrokeColor: col, StrokeWidth: 2}
}

// pointStyle draws dots with no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: drawing.ColorTransparent,
		DotWidth:    4,
		DotColor:    col,
	}
}

// barWidth fits n bars and their spacing into the plot width.
func barWidth(n, spacing int) int {
	plot := Width - background.Padding.Left - background.Padding.Right - 64
	w := plot/n - spacing
	if w < 1 {
		return 1
	}
	return w
}

// countRange starts the count axis at zero. The upper bound is at least 1
// so an all-zero chart still has a usable range.
func countRange(counts []int) *chart.ContinuousRange {
	top := 1
	for _, n := range counts {
		top = max(top, n)
	}
	return &chart.ContinuousRange{Min: 0, Max: float64(top)}
}

func paddedRange(lo, hi float64) *chart.ContinuousRange {
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 0.5
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
