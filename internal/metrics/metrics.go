// package metrics exposes Prometheus metrics for the HTTP layer and the
// storage backends
package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cirocosta/todo-service-go/internal/model"
	"github.com/cirocosta/todo-service-go/internal/repository"
)

// routeUnmatched labels requests no route pattern matched
const routeUnmatched = "unmatched"

var backends = []repository.Kind{repository.KindPostgres, repository.KindFile, repository.KindMemory}

// Metrics holds every collector of the service on a private registry
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	storageOperationsTotal   *prometheus.CounterVec
	storageOperationDuration *prometheus.HistogramVec
	storageBackendInfo       *prometheus.GaugeVec
	storageFallbackActive    prometheus.Gauge
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a new registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todo_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		storageOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_storage_operations_total",
				Help: "Total number of storage operations",
			},
			[]string{"backend", "operation", "result"},
		),
		storageOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todo_storage_operation_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"backend", "operation"},
		),
		storageBackendInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "todo_storage_backend_info",
				Help: "Active storage backend (1 for the active one)",
			},
			[]string{"backend"},
		),
		storageFallbackActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "todo_storage_fallback_active",
				Help: "Whether storage was downgraded to memory after a database failure",
			},
		),
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterDB exports connection pool statistics of db
func (m *Metrics) RegisterDB(db *sql.DB) error {
	err := m.registry.Register(collectors.NewDBStatsCollector(db, "todos"))

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}

	return err
}

// ObserveStorageOperation implements repository.Observer
func (m *Metrics) ObserveStorageOperation(backend repository.Kind, operation string, duration time.Duration, err error) {
	result := "ok"
	switch {
	case repository.IsNotFound(err):
		result = "not_found"
	case err != nil:
		result = "error"
	}

	m.storageOperationsTotal.WithLabelValues(string(backend), operation, result).Inc()
	m.storageOperationDuration.WithLabelValues(string(backend), operation).Observe(duration.Seconds())
}

// ObserveHealth records which backend is active and whether fallback is on
func (m *Metrics) ObserveHealth(h model.Health) {
	for _, kind := range backends {
		value := 0.0
		if string(kind) == h.Storage {
			value = 1
		}
		m.storageBackendInfo.WithLabelValues(string(kind)).Set(value)
	}

	fallback := 0.0
	if h.FallbackActivated {
		fallback = 1
	}
	m.storageFallbackActive.Set(fallback)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware counts and times requests by method, route pattern and status
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		// the mux fills in the matched pattern while serving
		route := routeLabel(r.Pattern)

		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel strips the method from a "GET /todos/{id}" style pattern
func routeLabel(pattern string) string {
	if pattern == "" {
		return routeUnmatched
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		return pattern[i+1:]
	}
	return pattern
}
