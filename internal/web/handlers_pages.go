package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/web/templates"
)

// uploadField is the multipart form field carrying the CSV file.
const uploadField = "file"

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.UploadPage(s.cfg.Upload.MaxFileSize).Render(r.Context(), w); err != nil {
		slog.Error("render upload page", "error", err)
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// readUpload reads the multipart file field within the size limit and
// hands it to the service.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*core.Dataset, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("remove multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	defer file.Close()

	return s.service.Upload(r.Context(), header.Filename, file)
}

// handleUpload stores the uploaded file and sends the browser to its
// dashboard.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ds, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	redirect(w, r, "/datasets/"+ds.ID)
}

// handleDashboard renders the dashboard for the dataset in the URL with
// the controls from the query string.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
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

	a, notice, err := s.analyze(r.Context(), id, p)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	params := templates.DashboardParams{Analysis: a, Query: r.URL.RawQuery, Notice: notice}
	page := templates.Dashboard(params)
	if isHTMX(r) {
		page = templates.DashboardBody(params)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("render dashboard", "error", err, "dataset_id", id)
	}
}

// analyze runs p. A range filter that only applies because it is the
// dashboard default is dropped when its column has no values to bound,
// and the returned notice says so.
func (s *Server) analyze(ctx context.Context, id string, p parsedRequest) (*core.Analysis, string, error) {
	a, err := s.service.Analyze(ctx, id, p.AnalysisRequest)
	if err == nil || !p.rangeDefaulted || !isEmptyRange(err, p.Options.Filter.Numeric) {
		return a, "", err
	}

	column := p.Options.Filter.Numeric.Column
	p.Options.Filter.Numeric = nil
	a, err = s.service.Analyze(ctx, id, p.AnalysisRequest)
	return a, fmt.Sprintf("The range filter is off because %q has no values after cleaning.", column), err
}

// isEmptyRange reports whether err is the missing-bounds failure of f.
func isEmptyRange(err error, f *core.RangeFilter) bool {
	var statErr *core.StatisticUndefinedError
	return f != nil && errors.As(err, &statErr) && statErr.Column == f.Column && statErr.Statistic == "range"
}

// handleDelete forgets the dataset and returns to the upload page.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirect(w, r, "/")
}

// redirect sends a 303, or HX-Redirect for HTMX requests.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
