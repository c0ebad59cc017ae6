// Package observability collects Prometheus metrics for the API surface and
// the resolution pipeline.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feedlot-ap/feedlot-ap/internal/recon"
)

// Metrics owns the registry and every instrument the application exports.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	packagesTotal    *prometheus.CounterVec
	checkFailures    *prometheus.CounterVec
	invoicesTotal    *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
}

// NewMetrics initialises the registry and instruments.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedlot_ap_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedlot_ap_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	packages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedlot_ap_packages_total",
		Help: "Processed packages by reconciliation status.",
	}, []string{"status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedlot_ap_check_failures_total",
		Help: "Failed reconciliation checks by severity.",
	}, []string{"severity"})
	invoices := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedlot_ap_invoices_total",
		Help: "Resolved invoices by entity-assignment outcome and review flag.",
	}, []string{"entity", "review"})
	pipeline := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedlot_ap_pipeline_duration_seconds",
		Help:    "Wall time for processing one package through every stage.",
		Buckets: prometheus.DefBuckets,
	})
	registry.MustRegister(requests, duration, packages, failures, invoices, pipeline)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		packagesTotal:    packages,
		checkFailures:    failures,
		invoicesTotal:    invoices,
		pipelineDuration: pipeline,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObservePackage records one processed package and its check failures.
func (m *Metrics) ObservePackage(report recon.Report, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.packagesTotal.WithLabelValues(string(report.Status)).Inc()
	for _, check := range report.Checks {
		if !check.Passed {
			m.checkFailures.WithLabelValues(string(check.Severity)).Inc()
		}
	}
	m.pipelineDuration.Observe(elapsed.Seconds())
}

// ObserveInvoice records one invoice resolution outcome.
func (m *Metrics) ObserveInvoice(autoAssigned, needsReview bool) {
	if m == nil {
		return
	}
	entityLabel := "auto"
	if !autoAssigned {
		entityLabel = "manual"
	}
	reviewLabel := "clean"
	if needsReview {
		reviewLabel = "review"
	}
	m.invoicesTotal.WithLabelValues(entityLabel, reviewLabel).Inc()
}

// Middleware instruments HTTP handlers with request metrics.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
