package handlers

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/warehouse"
)

// AlertHandler runs and serves the minimum-stock alert log.
type AlertHandler struct {
	*BaseHandler
	engine *warehouse.AlertEngine
}

// NewAlertHandler creates the alert handler.
func NewAlertHandler(base *BaseHandler, engine *warehouse.AlertEngine) *AlertHandler {
	return &AlertHandler{BaseHandler: base, engine: engine}
}

// Run handles POST /alerts/run?day=2026-08-28. Without a day the scan
// logs against today; re-running within a day inserts nothing new.
func (h *AlertHandler) Run(c *gin.Context) {
	day := types.Today()
	if raw := c.Query("day"); raw != "" {
		parsed, err := types.ParseDate(raw)
		if err != nil {
			h.Error(c, apperror.NewInvalidInput("invalid day, want YYYY-MM-DD").WithDetail("day", raw))
			return
		}
		day = parsed
	}

	run, err := h.engine.Run(c.Request.Context(), day)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, run)
}
