// Package api provides HTTP handlers for auditflow.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/auditflow/auditflow/internal/db"
	"github.com/auditflow/auditflow/internal/dbpool"
	"github.com/auditflow/auditflow/internal/service"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	pool      *dbpool.Pool
	watchdog  *service.Watchdog
	log       *logrus.Logger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler with the given dependencies.
func NewHealthHandler(pool *dbpool.Pool, watchdog *service.Watchdog, log *logrus.Logger, version string) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		watchdog:  watchdog,
		log:       log,
		version:   version,
		startTime: time.Now(),
	}
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status          string  `json:"status"`
	LastProcessedAt string  `json:"last_processed_at"`
	Version         string  `json:"version"`
	Database        string  `json:"database"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schema_version"`
}

// Liveness handles GET /api/v1/health. The verdict is the indexing
// watchdog's: a pipeline that has not completed a cycle within the staleness
// threshold reports 503 even while the HTTP process itself is fine.
func (h *HealthHandler) Liveness(c *gin.Context) {
	healthy, last := h.watchdog.Status()

	resp := healthResponse{
		Status:          "ok",
		LastProcessedAt: last.UTC().Format(time.RFC3339Nano),
		Version:         h.version,
		Database:        "connected",
		UptimeSeconds:   time.Since(h.startTime).Seconds(),
	}

	// Best-effort database ping, reported but never the verdict.
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.pool.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	if !healthy {
		resp.Status = "stale"
		h.log.WithField("last_processed_at", resp.LastProcessedAt).Warn("indexing pipeline stale")
		c.JSON(http.StatusServiceUnavailable, resp)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready. Always 200 once the process is
// serving: a stale indexing pipeline must not cause an orchestrator to stop
// routing ingest traffic, the queue still accepts events.
func (h *HealthHandler) Readiness(c *gin.Context) {
	c.JSON(http.StatusOK, readinessResponse{
		Status:        "ready",
		SchemaVersion: db.SchemaVersion(),
	})
}
