// Package metrics provides Prometheus instrumentation for Hemolink.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the application.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain counters
	RequestsCreated    prometheus.Counter
	RequestsExpired    prometheus.Counter
	RequestsFulfilled  prometheus.Counter
	DonationsRecorded  prometheus.Counter
	NotificationsSent  prometheus.Counter
	DeletionsProcessed *prometheus.CounterVec
	DonorStatusChanges *prometheus.CounterVec

	// Expiry sweep
	SweepRuns        prometheus.Counter
	SweepDuration    prometheus.Histogram
	SweepLastRunTime prometheus.Gauge
	SweepBacklog     prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hemolink",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hemolink",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		RequestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hemolink",
			Name:      "emergency_requests_created_total",
			Help:      "Total emergency requests created.",
		}),

		RequestsExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hemolink",
			Name:      "emergency_requests_expired_total",
			Help:      "Total emergency requests marked expired by the sweep.",
		}),

		RequestsFulfilled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hemolink",
			Name:      "emergency_requests_fulfilled_total",
			Help:      "Total emergency requests fulfilled.",
		}),

		DonationsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hemolink",
			Name:      "donations_recorded_total",
			Help:      "Total donation records created.",
		}),

		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hemolink",
			Name:      "notifications_sent_total",
			Help:      "Total notifications created.",
		}),

		DeletionsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hemolink",
			Name:      "deletion_requests_processed_total",
			Help:      "Total deletion requests resolved, by outcome.",
		}, []string{"outcome"}),

		DonorStatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hemolink",
			Name:      "donor_status_changes_total",
			Help:      "Total donor availability status changes, by new status.",
		}, []string{"status"}),

		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hemolink",
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total expiry sweep runs.",
		}),

		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hemolink",
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Expiry sweep run duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		SweepLastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hemolink",
			Subsystem: "sweep",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last completed expiry sweep.",
		}),

		SweepBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hemolink",
			Subsystem: "sweep",
			Name:      "backlog",
			Help:      "Approximate number of lapsed requests not yet expired.",
		}),
	}

	return m
}

// RecordSweepRun records the outcome of one expiry sweep run.
func (m *Metrics) RecordSweepRun(duration time.Duration, expired int) {
	m.SweepRuns.Inc()
	m.SweepDuration.Observe(duration.Seconds())
	m.SweepLastRunTime.SetToCurrentTime()
	m.RequestsExpired.Add(float64(expired))
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// =============================================================================
// HTTP Middleware
// =============================================================================

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments HTTP handlers with request count and latency.
// routeFn maps a request to its route pattern so label cardinality
// stays bounded.
func (m *Metrics) Middleware(routeFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if routeFn != nil {
				if pattern := routeFn(r); pattern != "" {
					route = pattern
				}
			}

			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
