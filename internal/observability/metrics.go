package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the service's Prometheus metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	quantityUnits   *prometheus.CounterVec
	exportsTotal    *prometheus.CounterVec
	exportRows      prometheus.Histogram
}

// NewMetrics builds a private registry with HTTP and ledger metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockledger_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_quantity_units_total",
		Help: "Units added or sold through quantity updates.",
	}, []string{"mode"})
	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_exports_total",
		Help: "Rendered ledger exports by format.",
	}, []string{"format"})
	rows := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockledger_export_rows",
		Help:    "Ledger rows per rendered export.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	registry.MustRegister(requests, duration, units, exports, rows)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		quantityUnits:   units,
		exportsTotal:    exports,
		exportRows:      rows,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordQuantityChange counts units moved by an add or sell.
func (m *Metrics) RecordQuantityChange(mode string, amount int) {
	if m == nil || amount <= 0 {
		return
	}
	m.quantityUnits.WithLabelValues(mode).Add(float64(amount))
}

// RecordExport counts a rendered export and its size.
func (m *Metrics) RecordExport(format string, rows int) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(format).Inc()
	m.exportRows.Observe(float64(rows))
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
