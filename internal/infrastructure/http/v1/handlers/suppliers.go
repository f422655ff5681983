package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/http/v1/dto"
)

// SupplierHandler serves supplier contact cards.
type SupplierHandler struct {
	*BaseHandler
	suppliers *warehouse.SupplierService
}

// NewSupplierHandler creates the supplier handler.
func NewSupplierHandler(base *BaseHandler, suppliers *warehouse.SupplierService) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, suppliers: suppliers}
}

// List handles GET /suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	filter := warehouse.SupplierFilter{
		Search:     c.Query("search"),
		ActiveOnly: c.Query("activeOnly") == "true",
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	suppliers, total, err := h.suppliers.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      suppliers,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Get handles GET /suppliers/:id.
func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	supplier, err := h.suppliers.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, supplier)
}

// Create handles POST /suppliers.
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplier := req.ToEntity()
	if err := h.suppliers.Create(c.Request.Context(), supplier); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

// Update handles PUT /suppliers/:id.
func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplier, err := h.suppliers.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(supplier)

	if err := h.suppliers.Update(c.Request.Context(), supplier); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, supplier)
}

// Delete handles DELETE /suppliers/:id.
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.suppliers.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
