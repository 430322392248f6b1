package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scan outcomes.
const (
	ScanBound    = "bound"
	ScanUnbound  = "unbound"
	ScanNotFound = "not_found"
)

// Bind results.
const (
	BindOK           = "ok"
	BindAlreadyBound = "already_bound"
	BindError        = "error"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	scansTotal       *prometheus.CounterVec
	bindsTotal       *prometheus.CounterVec
	rejectionsTotal  *prometheus.CounterVec
	rateLimitedTotal prometheus.Counter
	catalogSize      *prometheus.GaugeVec
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrcard_scans_total",
			Help: "Code resolutions by outcome.",
		}, []string{"outcome"}),
		bindsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrcard_binds_total",
			Help: "Bind attempts by result.",
		}, []string{"result"}),
		rejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qrcard_validation_rejections_total",
			Help: "Link values rejected by the normalizer, by reason.",
		}, []string{"reason"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qrcard_rate_limited_total",
			Help: "Requests refused by the scan rate limiter.",
		}),
		catalogSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "qrcard_platforms",
			Help: "Platforms in the active catalog, by source.",
		}, []string{"source"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.scansTotal,
		m.bindsTotal,
		m.rejectionsTotal,
		m.rateLimitedTotal,
		m.catalogSize,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Scan(outcome string)     { m.scansTotal.WithLabelValues(outcome).Inc() }
func (m *Metrics) Bind(result string)      { m.bindsTotal.WithLabelValues(result).Inc() }
func (m *Metrics) Rejection(reason string) { m.rejectionsTotal.WithLabelValues(reason).Inc() }
func (m *Metrics) RateLimited()            { m.rateLimitedTotal.Inc() }

// Catalog records the size of the active platform catalog. Only the current
// source carries a non-zero value.
func (m *Metrics) Catalog(source string, size int) {
	m.catalogSize.Reset()
	m.catalogSize.WithLabelValues(source).Set(float64(size))
}

// Instrument measures in-flight requests, counts and latencies. Routes are
// labelled by their chi pattern so code values do not explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(sw.code)

		m.httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
