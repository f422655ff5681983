package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop/internal/domain/codebook"
	"workshop/internal/infrastructure/http/v1/dto"
)

// CodebookHandler provides generic HTTP handlers for one codebook. Rows
// bind straight from JSON; the row types carry their own json tags.
type CodebookHandler[T codebook.Row] struct {
	*BaseHandler
	service *codebook.Service[T]
	newRow  func() T
}

// NewCodebookHandler creates a codebook handler.
func NewCodebookHandler[T codebook.Row](base *BaseHandler, service *codebook.Service[T], newRow func() T) *CodebookHandler[T] {
	return &CodebookHandler[T]{
		BaseHandler: base,
		service:     service,
		newRow:      newRow,
	}
}

// List handles GET / with search, active filter, sorting and pagination.
func (h *CodebookHandler[T]) List(c *gin.Context) {
	filter := codebook.ListFilter{
		Search:     c.Query("search"),
		ActiveOnly: c.Query("activeOnly") == "true",
		OrderBy:    c.Query("orderBy"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /:id.
func (h *CodebookHandler[T]) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	row, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// Create handles POST /.
func (h *CodebookHandler[T]) Create(c *gin.Context) {
	row := h.newRow()
	if !h.BindJSON(c, row) {
		return
	}
	row.SetID(0)
	row.SetVersion(1)

	if err := h.service.Create(c.Request.Context(), row); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// Update handles PUT /:id. The body is applied over the stored row, so
// omitted fields keep their values and the lock version is authoritative.
func (h *CodebookHandler[T]) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	row, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	version := row.GetVersion()

	if !h.BindJSON(c, row) {
		return
	}
	row.SetID(id)
	row.SetVersion(version)

	if err := h.service.Update(c.Request.Context(), row); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// Delete handles DELETE /:id?confirm=true.
func (h *CodebookHandler[T]) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, h.Confirmed(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Deactivate handles POST /:id/deactivate.
func (h *CodebookHandler[T]) Deactivate(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "deactivated")
}

// Activate handles POST /:id/activate.
func (h *CodebookHandler[T]) Activate(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.service.Activate(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "activated")
}

// SeedDefaults handles POST /seed-defaults.
func (h *CodebookHandler[T]) SeedDefaults(c *gin.Context) {
	stats, err := h.service.SeedDefaults(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stats)
}

// ExportCSV handles GET /export.csv.
func (h *CodebookHandler[T]) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+h.service.Name()+".csv")

	if err := h.service.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		h.Error(c, err)
	}
}

// ImportCSV handles POST /import.csv?updateExisting=true with the file as
// request body.
func (h *CodebookHandler[T]) ImportCSV(c *gin.Context) {
	opts := codebook.ImportOptions{
		UpdateExisting: c.Query("updateExisting") == "true",
	}

	stats, err := h.service.ImportCSV(c.Request.Context(), c.Request.Body, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stats)
}

// RegisterCodebookRoutes mounts the standard codebook route set.
func RegisterCodebookRoutes[T codebook.Row](rg *gin.RouterGroup, h *CodebookHandler[T]) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/export.csv", h.ExportCSV)
	rg.POST("/import.csv", h.ImportCSV)
	rg.POST("/seed-defaults", h.SeedDefaults)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/deactivate", h.Deactivate)
	rg.POST("/:id/activate", h.Activate)
}
