package handler

import (
	"net/http"
	"time"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{container: container}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

// Check handles GET /health. A configured backend that fails its ping
// degrades the response to 503.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	log := h.container.GetLogger()

	components := h.container.Health(r.Context())
	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Version:    "1.0.0",
		Service:    "nxtgen-arena",
		Components: components,
	}

	status := http.StatusOK
	for name, state := range components {
		if state == "unhealthy" {
			log.WithField("component", name).Warn("Health check failed")
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	respondJSON(w, status, response, log)
}
