package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/devrev/timeline/internal/store"
)

// HealthChecker provides health check endpoints
type HealthChecker struct {
	recordStore store.TimeOrderedStore
	eventStream store.EventStream
	logger      *zap.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(recordStore store.TimeOrderedStore, eventStream store.EventStream, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		recordStore: recordStore,
		eventStream: eventStream,
		logger:      logger,
	}
}

// LivenessHandler handles liveness probe requests
func (h *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// ReadinessHandler handles readiness probe requests
func (h *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	// Check the record store
	if err := h.checkRecordStore(ctx); err != nil {
		h.logger.Error("Record store health check failed", zap.Error(err))
		checks["record_store"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["record_store"] = "healthy"
	}

	// Check the event stream
	if err := h.checkEventStream(ctx); err != nil {
		h.logger.Error("Event stream health check failed", zap.Error(err))
		checks["event_stream"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["event_stream"] = "healthy"
	}

	status := HealthStatus{
		Timestamp: time.Now().Unix(),
		Checks:    checks,
	}

	w.Header().Set("Content-Type", "application/json")

	if allHealthy {
		status.Status = "ready"
		w.WriteHeader(http.StatusOK)
	} else {
		status.Status = "not_ready"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(status)
}

func (h *HealthChecker) checkRecordStore(ctx context.Context) error {
	if h.recordStore == nil {
		return nil // Skip if not initialized
	}
	return h.recordStore.Ping(ctx)
}

func (h *HealthChecker) checkEventStream(ctx context.Context) error {
	if h.eventStream == nil {
		return nil // Skip if not initialized
	}
	return h.eventStream.Ping(ctx)
}

// StartHealthServer starts the health check HTTP server
func StartHealthServer(hc *HealthChecker, port int, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", hc.LivenessHandler)
	mux.HandleFunc("/health/ready", hc.ReadinessHandler)

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting health check server", zap.String("address", addr))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
