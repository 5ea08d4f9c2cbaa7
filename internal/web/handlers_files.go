package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/insights/internal/charts"
	"github.com/JonMunkholm/insights/internal/core"
)

// exportFiles maps download paths to export formats.
var exportFiles = map[string]core.ExportFormat{
	"cleaned.csv":   core.ExportCleanedCSV,
	"filtered.csv":  core.ExportFilteredCSV,
	"insights.xlsx": core.ExportWorkbook,
}

// handleExport sends one of the downloadable files for the pipeline in
// the query string.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFiles[chi.URLParam(r, "file")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	id := chi.URLParam(r, "id")
	ds, err := s.service.Dataset(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := parseAnalysisRequest(r.URL.Query(), ds.Sets, true)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Buffer the file so a failure can still produce an error response
	var buf bytes.Buffer
	err = s.service.Export(r.Context(), id, p.Options, format, &buf)
	if err != nil && p.rangeDefaulted && isEmptyRange(err, p.Options.Filter.Numeric) {
		p.Options.Filter.Numeric = nil
		buf.Reset()
		err = s.service.Export(r.Context(), id, p.Options, format, &buf)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("write export", "error", err, "dataset_id", id)
	}
}

// handleChart renders a histogram, box plot, or category chart of the
// cleaned table as PNG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "chart")
	switch kind {
	case "histogram", "boxplot", "categories":
	default:
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	ds, result, err := s.service.Clean(r.Context(), chi.URLParam(r, "id"), pipelineOptions(q))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := parseAnalysisRequest(q, ds.Sets, true)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	switch kind {
	case "histogram":
		var h *core.Histogram
		if h, err = core.BuildHistogram(result.Cleaned, ds.Sets, p.HistogramColumn, p.Bins); err == nil {
			err = charts.Histogram(&buf, h)
		}
	case "boxplot":
		var b *core.BoxPlot
		if b, err = core.BuildBoxPlot(result.Cleaned, ds.Sets, p.BoxColumn); err == nil {
			err = charts.BoxPlot(&buf, b)
		}
	case "categories":
		var counts []core.CategoryCount
		if counts, err = core.CountCategories(result.Cleaned, ds.Sets, p.CategoryColumn); err == nil {
			err = charts.Categories(&buf, p.CategoryColumn, counts)
		}
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("write chart", "error", err, "chart", kind)
	}
}
