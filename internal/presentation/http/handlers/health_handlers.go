package handlers

import (
	"net/http"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/application/container"
	"github.com/gin-gonic/gin"
)

// HealthHandlers contains liveness and readiness HTTP handlers
type HealthHandlers struct {
	container *container.Container
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(container *container.Container) *HealthHandlers {
	return &HealthHandlers{
		container: container,
	}
}

// GetHealth handles GET /health - basic liveness probe
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetDatabaseStatus handles GET /api/v1/db/status - checks record store connectivity
func (h *HealthHandlers) GetDatabaseStatus(c *gin.Context) {
	start := time.Now()

	if err := h.container.DB.Ping(); err != nil {
		h.container.Logger.Database().Error("Database status check failed", "error", err, "duration", time.Since(start))
		c.JSON(http.StatusOK, gin.H{
			"status": "unreachable",
			"error":  err.Error(),
		})
		return
	}

	h.container.Logger.Database().Debug("Database status check completed", "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"responseTime": time.Since(start).String(),
	})
}
