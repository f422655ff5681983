package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop/internal/infrastructure/storage/postgres"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	pool *postgres.Pool
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(pool *postgres.Pool) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// Live handles GET /health/live. Always up while the process runs.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready. Readiness follows the database.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.pool.Unwrap().Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Info handles GET /health/info. Pool statistics for operators.
func (h *HealthHandler) Info(c *gin.Context) {
	stat := h.pool.Unwrap().Stat()
	c.JSON(http.StatusOK, gin.H{
		"acquiredConns": stat.AcquiredConns(),
		"idleConns":     stat.IdleConns(),
		"totalConns":    stat.TotalConns(),
		"maxConns":      stat.MaxConns(),
	})
}
