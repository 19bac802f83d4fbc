package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/trajectory/internal/queue"
	"github.com/benvon/trajectory/internal/storage"
)

// HealthChecker handles health check requests
type HealthChecker struct {
	store     storage.Store
	publisher queue.EventPublisher
}

// NewHealthChecker creates a new health checker. publisher may be nil.
func NewHealthChecker(store storage.Store, publisher queue.EventPublisher) *HealthChecker {
	return &HealthChecker{store: store, publisher: publisher}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. mode=extended also pings the store and the event feed.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := make(map[string]string)
		record := func(name string, err error) {
			if err != nil {
				response.Status = "unhealthy"
				checks[name] = "unhealthy: " + err.Error()
				return
			}
			checks[name] = "healthy"
		}

		record("store", h.store.Ping(ctx))
		if h.publisher != nil {
			record("events", h.publisher.HealthCheck(ctx))
		}

		response.Checks = checks
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// VersionInfo is the body of GET /version
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Timestamp string `json:"timestamp"`
}

// VersionHandler serves build information
func VersionHandler(version, commit string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(VersionInfo{
			Version:   version,
			Commit:    commit,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
