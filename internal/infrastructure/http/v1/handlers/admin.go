package handlers

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/domain/codebook"
)

// AdminHandler serves the whole-registry operations: backup envelopes,
// restore and bulk seeding.
type AdminHandler struct {
	*BaseHandler
	backup   *codebook.Backup
	registry *codebook.Registry
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(base *BaseHandler, backup *codebook.Backup, registry *codebook.Registry) *AdminHandler {
	return &AdminHandler{BaseHandler: base, backup: backup, registry: registry}
}

// ExportBackup handles GET /backup. The response body is the envelope.
func (h *AdminHandler) ExportBackup(c *gin.Context) {
	env, err := h.backup.ExportAll(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, env)
}

// RestoreBackup handles POST /backup. The request body is an envelope;
// any bad row rolls the whole restore back.
func (h *AdminHandler) RestoreBackup(c *gin.Context) {
	var env codebook.Envelope
	if !h.BindJSON(c, &env) {
		return
	}

	stats, err := h.backup.ImportAll(c.Request.Context(), &env)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stats)
}

// SeedDefaults handles POST /codebooks/seed-defaults. Seeds every
// registered codebook in registration order; existing rows are skipped.
func (h *AdminHandler) SeedDefaults(c *gin.Context) {
	stats := make(map[string]codebook.ImportStats)
	for _, handle := range h.registry.All() {
		st, err := handle.SeedDefaults(c.Request.Context())
		if err != nil {
			h.Error(c, err)
			return
		}
		stats[handle.Name()] = st
	}
	h.OK(c, stats)
}

// Codebooks handles GET /codebooks. Lists the registered codebook names.
func (h *AdminHandler) Codebooks(c *gin.Context) {
	h.OK(c, gin.H{"codebooks": h.registry.Names()})
}
