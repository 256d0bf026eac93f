// Package metrics wraps the Prometheus collectors syllabud exposes on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ingestion and summarization.
const (
	OutcomeSuccess         = "success"
	OutcomeExtractionError = "extraction_error"
	OutcomeSummarizeError  = "summarization_error"
	OutcomeStoreError      = "store_error"
	OutcomeAlreadyAnalyzed = "already_analyzed"
)

// Metrics owns a private registry so tests can build as many as they need.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	ingestions        *prometheus.CounterVec
	summarizeDuration *prometheus.HistogramVec
	courses           prometheus.Gauge
}

// New registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syllabud_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "syllabud_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	ingestions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "syllabud_ingestions_total",
		Help: "Syllabus uploads processed, by outcome",
	}, []string{"outcome"})

	summarizeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syllabud_summarize_duration_seconds",
		Help:    "Time spent waiting on the LLM provider",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
	}, []string{"outcome"})

	courses := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "syllabud_courses",
		Help: "Courses currently tracked",
	})

	registry.MustRegister(requestDuration, requestTotal, ingestions, summarizeDuration, courses)

	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		ingestions:        ingestions,
		summarizeDuration: summarizeDuration,
		courses:           courses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, labelStatus).Inc()
}

// RecordIngestion counts one upload attempt.
func (m *Metrics) RecordIngestion(outcome string) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(outcome).Inc()
}

// ObserveSummarize records one provider call.
func (m *Metrics) ObserveSummarize(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.summarizeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// SetCourses updates the tracked course gauge.
func (m *Metrics) SetCourses(n int) {
	if m == nil {
		return
	}
	m.courses.Set(float64(n))
}

// Middleware observes every request, labelled by its chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.ObserveHTTPRequest(r.Method, route, status, time.Since(start))
	})
}
