package api

import (
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"time"

	"github.com/cirocosta/todo-service-go/internal/metrics"
	"github.com/cirocosta/todo-service-go/internal/model"
)

// health headers read by deployment probes
const (
	headerStorageMode = "X-Storage-Mode"
	headerDBFallback  = "X-DB-Fallback"
	headerLastDBError = "X-Last-Db-Error"

	// lastErrorHeaderLimit truncates the raw error before escaping
	lastErrorHeaderLimit = 120
)

// SystemHandler serves health and diagnostics
type SystemHandler struct {
	todoService TodoService
	metrics     *metrics.Metrics
	diagnostics model.Diagnostics
	now         func() time.Time
}

// NewSystemHandler creates a handler reporting on the service's storage.
// m may be nil.
func NewSystemHandler(todoService TodoService, m *metrics.Metrics, diagnostics model.Diagnostics) *SystemHandler {
	return &SystemHandler{
		todoService: todoService,
		metrics:     m,
		diagnostics: diagnostics,
		now:         time.Now,
	}
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	health := h.todoService.Health(r.Context())

	if h.metrics != nil {
		h.metrics.ObserveHealth(health)
	}

	storage := health.Storage
	if storage == "" {
		storage = "unknown"
	}

	w.Header().Set(headerStorageMode, storage)
	w.Header().Set(headerDBFallback, strconv.FormatBool(health.FallbackActivated))
	if health.LastError != "" {
		w.Header().Set(headerLastDBError, lastErrorHeader(health.LastError))
	}

	status, code := "ok", http.StatusOK
	if !health.Healthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	writeJSON(w, model.HealthResponse{
		Status:    status,
		Timestamp: h.now().UTC(),
		Health:    health,
	}, code)
}

// Diag handles GET /diag
func (h *SystemHandler) Diag(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, model.DiagResponse{
		Diagnostics: h.diagnostics,
		Storage:     h.todoService.Health(r.Context()),
		GoVersion:   runtime.Version(),
		Timestamp:   h.now().UTC(),
	}, http.StatusOK)
}

func lastErrorHeader(msg string) string {
	if len(msg) > lastErrorHeaderLimit {
		msg = msg[:lastErrorHeaderLimit]
	}
	return url.PathEscape(msg)
}
