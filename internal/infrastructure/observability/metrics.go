// Package observability exposes Prometheus metrics for the service.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tourdesk/internal/core/apperror"
)

// Metrics owns the registry and the service's collectors.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reportDuration  *prometheus.HistogramVec
	reportFailures  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics initialises the registry with HTTP and report metrics plus the
// standard Go and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tourdesk_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tourdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tourdesk_report_duration_seconds",
		Help:    "Time spent building a financial report.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"report"})
	reportFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tourdesk_report_failures_total",
		Help: "Financial reports that failed, by error code.",
	}, []string{"report", "code"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tourdesk_report_cache_lookups_total",
		Help: "Report cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	registry.MustRegister(
		requests, duration, reportDuration, reportFailures, cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		reportDuration:  reportDuration,
		reportFailures:  reportFailures,
		cacheLookups:    cacheLookups,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, code).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveReport records one financial report build.
func (m *Metrics) ObserveReport(report string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.reportDuration.WithLabelValues(report).Observe(d.Seconds())
	if err != nil {
		m.reportFailures.WithLabelValues(report, errorCode(err)).Inc()
	}
}

// ObserveCacheLookup records the result of one report cache lookup.
func (m *Metrics) ObserveCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func errorCode(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Code
	}
	return apperror.CodeInternal
}
