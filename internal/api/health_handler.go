package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/msa-market-engine/internal/database"
)

// HealthChecker is the part of database.DB the health endpoint needs
type HealthChecker interface {
	HealthCheck() error
	GetStats() database.PoolStats
}

// HealthHandler reports service and storage health
type HealthHandler struct {
	db      HealthChecker
	started time.Time
}

// NewHealthHandler creates a health handler. db may be nil when storage is
// not configured.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// Health answers 200 when the service and its database are usable and 503
// when the configured database is unreachable
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{
		"healthy":        true,
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}

	if h.db == nil {
		body["database"] = gin.H{"status": "disabled"}
		respond(c, http.StatusOK, body)
		return
	}

	stats := h.db.GetStats()
	dbStatus := gin.H{
		"status":           "healthy",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
	}
	status := http.StatusOK
	if err := h.db.HealthCheck(); err != nil {
		dbStatus["status"] = "unhealthy"
		dbStatus["error"] = "database unreachable"
		body["healthy"] = false
		body["status"] = "degraded"
		status = http.StatusServiceUnavailable
		_ = c.Error(err)
	}
	body["database"] = dbStatus
	respond(c, status, body)
}
