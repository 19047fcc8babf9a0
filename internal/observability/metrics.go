package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	balanceComputes *prometheus.CounterVec
	skippedRecords  prometheus.Counter
	allocations     prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_http_requests_total",
		Help: "HTTP request count by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meridian_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	balances := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_ledger_balance_computations_total",
		Help: "Balance computations performed, by entity kind.",
	}, []string{"entity_kind"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_ledger_skipped_records_total",
		Help: "Raw records rejected at normalization for malformed amounts.",
	})
	allocations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_invoicing_allocations_total",
		Help: "Invoice cost allocations computed.",
	})
	registry.MustRegister(requests, duration, balances, skipped, allocations)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		balanceComputes: balances,
		skippedRecords:  skipped,
		allocations:     allocations,
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

// ObserveBalanceComputation counts one ledger fold for the given entity kind.
func (m *Metrics) ObserveBalanceComputation(entityKind string) {
	if m == nil {
		return
	}
	m.balanceComputes.WithLabelValues(entityKind).Inc()
}

// AddSkippedRecords counts raw records dropped during normalization.
func (m *Metrics) AddSkippedRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skippedRecords.Add(float64(n))
}

// ObserveAllocation counts one invoice totals computation.
func (m *Metrics) ObserveAllocation() {
	if m == nil {
		return
	}
	m.allocations.Inc()
}

// Middleware records metrics for every HTTP request.
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

// Registerer exposes the registry for custom metric registration.
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
