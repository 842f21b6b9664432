package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/config"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/metrics"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/session"
)

const (
	// HealthCheckTimeout is the default timeout for health check operations.
	HealthCheckTimeout = 5 * time.Second

	// slowStorage marks a Redis ping as degraded.
	slowStorage = time.Second

	componentStorage       = "storage"
	componentConfiguration = "configuration"
)

// Version is the service version reported by the health endpoint.
var Version = "dev"

// HealthHandler provides health check and monitoring endpoints.
type HealthHandler struct {
	config    *config.Config
	store     session.Store
	sessions  func() int
	metrics   *metrics.Metrics
	logger    *logrus.Logger
	startTime time.Time
}

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	// StatusHealthy indicates the component is healthy.
	StatusHealthy HealthStatus = "healthy"
	// StatusUnhealthy indicates the component is unhealthy.
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusDegraded indicates the component has degraded performance.
	StatusDegraded HealthStatus = "degraded"
)

// HealthResponse represents the overall health check response.
type HealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Details    map[string]interface{}     `json:"details,omitempty"`
}

// ComponentHealth represents the health of an individual component.
type ComponentHealth struct {
	Status       HealthStatus `json:"status"`
	Message      string       `json:"message,omitempty"`
	LastChecked  time.Time    `json:"last_checked"`
	ResponseTime string       `json:"response_time,omitempty"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Ready      bool                       `json:"ready"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// NewHealthHandler creates a new health check handler. sessions reports the
// number of live dashboard sessions and may be nil.
func NewHealthHandler(
	cfg *config.Config,
	store session.Store,
	sessions func() int,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *HealthHandler {
	return &HealthHandler{
		config:    cfg,
		store:     store,
		sessions:  sessions,
		metrics:   m,
		logger:    logger,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers health check and monitoring endpoints.
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/live", h.Liveness).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", h.Readiness).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Health provides a comprehensive health check including all components.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	components := map[string]ComponentHealth{
		componentStorage:       h.checkStorage(r.Context()),
		componentConfiguration: h.checkConfiguration(),
	}

	overallStatus := StatusHealthy
	switch {
	case components[componentStorage].Status == StatusUnhealthy:
		overallStatus = StatusUnhealthy
	case components[componentStorage].Status == StatusDegraded,
		components[componentConfiguration].Status != StatusHealthy:
		overallStatus = StatusDegraded
	}

	h.metrics.ObserveHealthCheck("health", string(overallStatus))
	for component, health := range components {
		h.metrics.SetComponentHealth(component, health.Status == StatusHealthy)
	}

	details := map[string]interface{}{
		"check_duration": time.Since(start).String(),
		"queues":         len(h.config.QueueIDs),
	}
	if h.sessions != nil {
		details["sessions"] = h.sessions()
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Version:    Version,
		Uptime:     time.Since(h.startTime).String(),
		Components: components,
		Details:    details,
	}

	statusCode := http.StatusOK
	if overallStatus == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, response, statusCode)

	h.logger.WithFields(logrus.Fields{
		"status":   overallStatus,
		"duration": time.Since(start).String(),
	}).Debug("Health check completed")
}

// Liveness provides a simple liveness check that returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	h.metrics.ObserveHealthCheck("liveness", string(StatusHealthy))

	writeJSON(w, h.logger, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	}, http.StatusOK)
}

// Readiness checks if the service is ready to receive traffic. The session
// store must answer a ping.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	storage := h.checkStorage(r.Context())
	ready := storage.Status != StatusUnhealthy

	statusLabel := "ready"
	statusCode := http.StatusOK
	if !ready {
		statusLabel = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}
	h.metrics.ObserveHealthCheck("readiness", statusLabel)

	writeJSON(w, h.logger, ReadinessResponse{
		Ready:      ready,
		Timestamp:  time.Now(),
		Components: map[string]ComponentHealth{componentStorage: storage},
	}, statusCode)
}

// checkStorage pings the session store.
func (h *HealthHandler) checkStorage(ctx context.Context) ComponentHealth {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	err := h.store.Ping(checkCtx)
	duration := time.Since(start)
	storageType := h.storageType()

	if err != nil {
		h.logger.WithError(err).Warn("Storage health check failed")
		return ComponentHealth{
			Status:       StatusUnhealthy,
			Message:      storageType + " connection failed: " + err.Error(),
			LastChecked:  time.Now(),
			ResponseTime: duration.String(),
		}
	}

	status := StatusHealthy
	message := storageType + " is healthy"
	if storageType == "Redis" && duration > slowStorage {
		status = StatusDegraded
		message = "Redis response time is slow"
	}

	return ComponentHealth{
		Status:       status,
		Message:      message,
		LastChecked:  time.Now(),
		ResponseTime: duration.String(),
	}
}

func (h *HealthHandler) storageType() string {
	switch h.store.(type) {
	case *session.RedisStore:
		return "Redis"
	case *session.MemoryStore:
		return "In-Memory"
	default:
		return "Unknown"
	}
}

// checkConfiguration reports settings that make the dashboard useless
// without failing startup.
func (h *HealthHandler) checkConfiguration() ComponentHealth {
	status := StatusHealthy
	message := "Configuration is valid"

	if len(h.config.QueueIDs) == 0 {
		status = StatusDegraded
		message = "No queues configured"
	}

	return ComponentHealth{
		Status:      status,
		Message:     message,
		LastChecked: time.Now(),
	}
}
