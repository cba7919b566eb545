package health

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dgg32/nvl-duckdb-public/domain/graph"
	"github.com/dgg32/nvl-duckdb-public/internal/config"
	"github.com/dgg32/nvl-duckdb-public/internal/version"
)

// Handler handles health check requests
type Handler struct {
	repo    *graph.Repository
	cfg     *config.Config
	startAt time.Time
}

// NewHandler creates a new health handler
func NewHandler(repo *graph.Repository, cfg *config.Config) *Handler {
	return &Handler{
		repo:    repo,
		cfg:     cfg,
		startAt: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health returns the overall service health. The database connects lazily on
// the first API request, so an unconnected database is reported but does not
// mark the service unhealthy.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbStatus := "not_connected"
	dbMessage := ""
	if h.repo.Initialized() {
		if err := h.repo.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
			dbMessage = err.Error()
		} else {
			dbStatus = "healthy"
		}
	}

	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		overallStatus = "unhealthy"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startAt).String(),
		Version:   version.Version,
		Checks: map[string]Check{
			"database": {
				Status:  dbStatus,
				Message: dbMessage,
			},
		},
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, response)
}

// Healthz returns a simple health check (for liveness probes)
func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Ready returns readiness status. The service is ready as soon as the HTTP
// layer is up; an established but broken connection makes it not ready.
func (h *Handler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if h.repo.Initialized() {
		if err := h.repo.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":  "not_ready",
				"message": "Database connection failed",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
	})
}
