package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/insights/internal/config"
	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/metrics"
)

const scenarioCSV = "id,score,label\n1,12.0,A\n2,18.0,B\n3,,A\n4,30.0,C\n5,16.0,\n"

// datasetJSON is the subset of the dataset response the tests check.
type datasetJSON struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Columns core.ColumnSets `json:"columns"`
	Profile struct {
		Rows    int `json:"rows"`
		Cols    int `json:"cols"`
		Missing int `json:"missing"`
	} `json:"profile"`
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Rate.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	m := metrics.New()
	return NewServer(core.NewService(cfg, m), cfg, m)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if req.RemoteAddr == "" {
		req.RemoteAddr = "192.0.2.10:4321"
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, path, csv string) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, "file", "scores.csv", csv)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	return req
}

// uploadDataset stores csv through the API and returns the dataset ID.
func uploadDataset(t *testing.T, s *Server, csv string) string {
	t.Helper()
	rec := do(t, s, uploadRequest(t, "/api/datasets", csv))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ds datasetJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))
	require.NotEmpty(t, ds.ID)
	return ds.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestShutdownBeforeStart(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Server.Port = 0 })
	require.NoError(t, srv.Shutdown(context.Background()))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestHealthAndHeaders(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestIndexAndStatic(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Security.EnableCSP = false })

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/datasets"`)
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".card")
}

func TestUpload_RedirectsToDashboard(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, uploadRequest(t, "/datasets", scenarioCSV))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/datasets/"))

	req := uploadRequest(t, "/datasets", scenarioCSV)
	req.Header.Set("HX-Request", "true")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("HX-Redirect"), "/datasets/"))

	rec = do(t, s, httptest.NewRequest(http.MethodGet, location, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		content string
		status  int
		code    string
	}{
		{"no file", "", "", http.StatusBadRequest, "FILE004"},
		{"empty file", "file", "", http.StatusBadRequest, "FILE005"},
		{"ragged rows", "file", "a,b\n1,2,3\n", http.StatusBadRequest, "FILE002"},
		{"too large", "file", "a,b\n" + strings.Repeat("1,2\n", 500), http.StatusRequestEntityTooLarge, "FILE001"},
	}

	s := newTestServer(t, func(c *config.Config) { c.Upload.MaxFileSize = 512 })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.field, "data.csv", tt.content)
			req := httptest.NewRequest(http.MethodPost, "/api/datasets", body)
			req.Header.Set("Content-Type", contentType)

			rec := do(t, s, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestUpload_NotMultipart(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/datasets", strings.NewReader("a,b\n1,2\n"))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("HX-Request", "true")

	rec := do(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE004")
	assert.Contains(t, rec.Body.String(), `class="alert alert-error"`)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadDataset(t, s, scenarioCSV)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id+"?strategy=mean&num=score&min=10&max=20&val=A", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"Data Preview", "Dataset Summary", "Data Cleaning", "Exploratory Data Analysis", "Data Filtering", "Download",
		`<option value="mean" selected>`,
		`<option value="A" selected>A</option>`,
		"/charts/histogram.png?strategy=mean",
		"/export/insights.xlsx?strategy=mean",
		"Showing 2 of 2 rows.",
	} {
		assert.Contains(t, body, want)
	}

	req := httptest.NewRequest(http.MethodGet, "/datasets/"+id, nil)
	req.Header.Set("HX-Request", "true")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<div id="dashboard">`))
}

func TestDashboard_SkipsEmptyDefaultRange(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadDataset(t, s, "empty,label\n,A\n,B\n")

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "The range filter is off")
	assert.Contains(t, rec.Body.String(), "No values to plot")

	// An explicit choice is not dropped
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id+"?num=empty", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "STAT001")
}

func TestDashboard_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadDataset(t, s, scenarioCSV)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown dataset", "/datasets/nope", http.StatusNotFound, "DS001"},
		{"bad bins", "/datasets/" + id + "?bins=many", http.StatusBadRequest, "VAL001"},
		{"zero bins uses the default", "/datasets/" + id + "?bins=0", http.StatusOK, ""},
		{"too many bins", "/datasets/" + id + "?bins=500", http.StatusBadRequest, "VAL001"},
		{"unknown strategy", "/datasets/" + id + "?strategy=zero", http.StatusBadRequest, "VAL001"},
		{"inverted range", "/datasets/" + id + "?num=score&min=30&max=10", http.StatusUnprocessableEntity, "FLT001"},
		{"unknown column", "/datasets/" + id + "?hist=nope", http.StatusUnprocessableEntity, "COL001"},
		{"wrong class", "/datasets/" + id + "?hist=label", http.StatusUnprocessableEntity, "COL002"},
		{"mean strategy", "/datasets/" + id + "?strategy=mean", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept", "application/json")
			rec := do(t, s, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rec).Code)
			}
		})
	}
}

func TestDashboard_ErrorPage(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Code: DS001")
	assert.Contains(t, rec.Body.String(), "Back to upload")
}

func TestCharts(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadDataset(t, s, scenarioCSV)

	for _, chart := range []string{"histogram", "boxplot", "categories"} {
		t.Run(chart, func(t *testing.T) {
			rec := do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id+"/charts/"+chart+".png?strategy=median&hist=score&bins=4", nil))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
		})
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id+"/charts/histogram.png?hist=label", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id+"/charts/pie.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChart_EmptyBoxPlot(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadDataset(t, s, "empty,label\n,A\n")

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id+"/charts/boxplot.png", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "STAT001")
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadDataset(t, s, scenarioCSV)
	query := "?strategy=mean&num=score&min=10&max=20&fcat=label&val=A&val=B"

	tests := []struct {
		file        string
		contentType string
		filename    string
		body        string
	}{
		{"cleaned.csv", "text/csv; charset=utf-8", "cleaned_data.csv", "id,score,label\n1,12.0,A\n2,18.0,B\n3,19.0,A\n4,30.0,C\n5,16.0,\n"},
		{"filtered.csv", "text/csv; charset=utf-8", "filtered_data.csv", "id,score,label\n1,12.0,A\n2,18.0,B\n3,19.0,A\n"},
		{"insights.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "insights.xlsx", ""},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			rec := do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id+"/export/"+tt.file+query, nil))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="`+tt.filename+`"`, rec.Header().Get("Content-Disposition"))
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
			}
		})
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id+"/export/report.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id+"/export/cleaned.csv?strategy=median&num=score&min=5&max=1", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestDeletePage(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadDataset(t, s, scenarioCSV)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/datasets/"+id+"/delete", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/datasets/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadDataset(t, s, scenarioCSV)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/datasets/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var ds datasetJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))
	assert.Equal(t, "scores.csv", ds.Name)
	assert.Equal(t, 5, ds.Profile.Rows)
	assert.Equal(t, 2, ds.Profile.Missing)
	assert.Equal(t, []string{"id", "score"}, ds.Columns.Numeric)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/datasets/"+id+"/analysis?strategy=drop&hist=score&bins=3", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var analysis struct {
		Cleaned   core.TableView   `json:"cleaned"`
		Histogram *core.Histogram  `json:"histogram"`
		BoxPlot   *core.BoxPlot    `json:"box_plot"`
		Range     *core.RangeState `json:"range"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, 3, analysis.Cleaned.TotalRows)
	require.NotNil(t, analysis.Histogram)
	assert.Len(t, analysis.Histogram.Counts, 3)
	assert.Nil(t, analysis.BoxPlot, "API applies no defaults")
	assert.Nil(t, analysis.Range, "API applies no defaults")

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status core.ServiceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Datasets)
	assert.Equal(t, 0, status.Uploads.Active)

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/datasets/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/datasets/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DS001", decodeError(t, rec).Code)
}

func TestAPIKey(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"secret"}
	})

	tests := []struct {
		name   string
		key    string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "AUTH001"},
		{"invalid", "guess", http.StatusForbidden, "AUTH002"},
		{"valid", "secret", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := do(t, s, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rec).Code)
			}
		})
	}

	// Pages stay open
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate.Enabled = true
		c.Rate.RequestsPerMinute = 2
	})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(t, s, httptest.NewRequest(http.MethodGet, "/api/status", nil)).Code)
	}
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	other := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	other.RemoteAddr = "198.51.100.1:1000"
	assert.Equal(t, http.StatusOK, do(t, s, other).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	uploadDataset(t, s, scenarioCSV)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `insights_uploads_total{code="",outcome="accepted"} 1`)
	assert.Contains(t, rec.Body.String(), `insights_http_requests_total{method="POST",route="/api/datasets",status="201"} 1`)

	disabled := newTestServer(t, func(c *config.Config) { c.Metrics.Enabled = false })
	rec = do(t, disabled, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
