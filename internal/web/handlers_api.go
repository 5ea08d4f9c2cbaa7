package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// handleAPIUpload stores the uploaded file and returns its dataset.
func (s *Server) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	ds, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ds)
}

// handleAPIDataset returns the profile of a stored dataset.
func (s *Server) handleAPIDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Dataset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, ds)
}

// handleAPIAnalysis runs the pipeline and views named in the query. No
// dashboard defaults are applied.
func (s *Server) handleAPIAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ds, err := s.service.Dataset(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := parseAnalysisRequest(r.URL.Query(), ds.Sets, false)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	a, err := s.service.Analyze(r.Context(), id, p.AnalysisRequest)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, a)
}

// handleAPIDelete forgets a dataset.
func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAPIStatus reports upload limiter occupancy and the dataset count.
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.service.Status())
}
