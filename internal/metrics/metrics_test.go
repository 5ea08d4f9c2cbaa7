package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/insights/internal/core"
)

var _ core.Observer = (*Metrics)(nil)

func TestOnEvent_Uploads(t *testing.T) {
	m := New()

	m.OnEvent(core.Event{Type: core.EventUploadAccepted, Bytes: 2048, Duration: 10 * time.Millisecond, Datasets: 1})
	m.OnEvent(core.Event{Type: core.EventUploadAccepted, Bytes: 4096, Datasets: 2})
	m.OnEvent(core.Event{Type: core.EventUploadRejected, Code: "FILE002"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues("accepted", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("rejected", "FILE002")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.datasets))
	assert.Equal(t, 1, testutil.CollectAndCount(m.uploadBytes))
}

func TestOnEvent_AnalysesAndExports(t *testing.T) {
	m := New()

	m.OnEvent(core.Event{Type: core.EventAnalysis, Duration: time.Millisecond})
	m.OnEvent(core.Event{Type: core.EventAnalysis, Strategy: core.StrategyMean})
	m.OnEvent(core.Event{Type: core.EventAnalysisFailed, Strategy: core.StrategyMedian, Code: "STAT001"})
	m.OnEvent(core.Event{Type: core.EventExport, Format: core.ExportWorkbook})
	m.OnEvent(core.Event{Type: core.EventExport, Format: core.ExportWorkbook})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("none", "ok", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("mean", "ok", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("median", "failed", "STAT001")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.exports.WithLabelValues("xlsx")))
}

func TestOnEvent_Removals(t *testing.T) {
	m := New()
	m.OnEvent(core.Event{Type: core.EventUploadAccepted, Datasets: 3})

	m.OnEvent(core.Event{Type: core.EventDatasetRemoved, Reason: core.RemovedExpired, Datasets: 2})
	m.OnEvent(core.Event{Type: core.EventDatasetRemoved, Reason: core.RemovedDeleted, Datasets: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.removals.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.removals.WithLabelValues("deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.datasets))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/datasets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/datasets/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/datasets/{id}", "404")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.OnEvent(core.Event{Type: core.EventExport, Format: core.ExportCleanedCSV})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `insights_exports_total{format="cleaned_csv"} 1`))
	assert.Contains(t, string(body), "go_goroutines")
}
