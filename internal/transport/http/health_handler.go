package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// HealthHandler reports process and snapshot health
type HealthHandler struct {
	service DashboardServiceInterface
	logger  *slog.Logger
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service DashboardServiceInterface, logger *slog.Logger, version string) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("component", "health_handler")),
		version: version,
	}
}

// GetHealth handles GET /api/health
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health(r.Context())

	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]interface{}{
		"status":  health.Status,
		"version": h.version,
		"data":    health,
	})
}
