package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/tnb/internal/logger"
	"github.com/stwalsh4118/tnb/internal/middleware"
)

const (
	// ServiceName identifies this API in info responses
	ServiceName = "tnb-fiscal"
	// APIVersion is the current version of the API
	APIVersion = "1.0.0"
	// HealthCheckTimeout is the timeout for database health checks
	HealthCheckTimeout = 2 * time.Second
)

// Pinger is the database dependency of the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger
	startTime time.Time
	env       string
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(db Pinger, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
		env:       env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Service       string    `json:"service"`
	Version       string    `json:"version"`
	Environment   string    `json:"environment"`
	StartedAt     time.Time `json:"started_at"`
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// Health handles GET /health, a liveness check with no dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// Ready handles GET /health/ready.
// Returns 503 when the database cannot be reached within HealthCheckTimeout.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{Status: "not_ready", Database: "unconfigured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Database health check failed", err, logger.Fields{
				"timeout": HealthCheckTimeout.String(),
			})
		}
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{Status: "not_ready", Database: "disconnected"})
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{Status: "ready", Database: "connected"})
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	uptime := time.Since(h.startTime).Truncate(time.Second)
	c.JSON(http.StatusOK, InfoResponse{
		Service:       ServiceName,
		Version:       APIVersion,
		Environment:   h.env,
		StartedAt:     h.startTime.UTC(),
		Uptime:        uptime.String(),
		UptimeSeconds: int64(uptime / time.Second),
	})
}
