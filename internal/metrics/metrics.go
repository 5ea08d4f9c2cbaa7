// Package metrics exposes service and HTTP metrics for Prometheus.
//
// Metrics implements core.Observer, so the service reports uploads,
// analyses, exports and dataset removals without importing this package.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/insights/internal/core"
)

const namespace = "insights"

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry *prometheus.Registry

	uploads          *prometheus.CounterVec
	uploadBytes      prometheus.Histogram
	uploadDuration   prometheus.Histogram
	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	exports          *prometheus.CounterVec
	removals         *prometheus.CounterVec
	datasets         prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Metrics with its own registry, including the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "CSV uploads by outcome and error code.",
		}, []string{"outcome", "code"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of accepted uploads.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Time from limiter wait to stored dataset.",
			Buckets:   prometheus.DefBuckets,
		}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Pipeline runs for the dashboard by strategy and outcome.",
		}, []string{"strategy", "outcome", "code"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time to run the pipeline and build dashboard views.",
			Buckets:   prometheus.DefBuckets,
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Downloads by format.",
		}, []string{"format"}),
		removals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_removals_total",
			Help:      "Datasets removed from the store by reason.",
		}, []string{"reason"}),
		datasets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datasets",
			Help:      "Datasets currently held in memory.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.uploads,
		m.uploadBytes,
		m.uploadDuration,
		m.analyses,
		m.analysisDuration,
		m.exports,
		m.removals,
		m.datasets,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnEvent records a service event.
func (m *Metrics) OnEvent(e core.Event) {
	switch e.Type {
	case core.EventUploadAccepted:
		m.uploads.WithLabelValues("accepted", "").Inc()
		m.uploadBytes.Observe(float64(e.Bytes))
		m.uploadDuration.Observe(e.Duration.Seconds())
		m.datasets.Set(float64(e.Datasets))
	case core.EventUploadRejected:
		m.uploads.WithLabelValues("rejected", e.Code).Inc()
	case core.EventAnalysis:
		m.analyses.WithLabelValues(strategyLabel(e.Strategy), "ok", "").Inc()
		m.analysisDuration.Observe(e.Duration.Seconds())
	case core.EventAnalysisFailed:
		m.analyses.WithLabelValues(strategyLabel(e.Strategy), "failed", e.Code).Inc()
	case core.EventExport:
		m.exports.WithLabelValues(string(e.Format)).Inc()
	case core.EventDatasetRemoved:
		m.removals.WithLabelValues(e.Reason).Inc()
		m.datasets.Set(float64(e.Datasets))
	}
}

func strategyLabel(s core.Strategy) string {
	if s == "" {
		return string(core.StrategyNone)
	}
	return string(s)
}

// Middleware records request counts and latency. Routes are labelled by
// their chi pattern so dataset IDs do not create new series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
