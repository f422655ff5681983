package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/http/v1/dto"
)

// CategoryHandler serves the item category tree.
type CategoryHandler struct {
	*BaseHandler
	categories *warehouse.CategoryService
}

// NewCategoryHandler creates the category handler.
func NewCategoryHandler(base *BaseHandler, categories *warehouse.CategoryService) *CategoryHandler {
	return &CategoryHandler{BaseHandler: base, categories: categories}
}

// Tree handles GET /categories.
func (h *CategoryHandler) Tree(c *gin.Context) {
	all, err := h.categories.Tree(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, all)
}

// Get handles GET /categories/:id.
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	category, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, category)
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	category := req.ToEntity()
	if err := h.categories.Create(c.Request.Context(), category); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// Update handles PUT /categories/:id.
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	category, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(category)

	if err := h.categories.Update(c.Request.Context(), category); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, category)
}

// Delete handles DELETE /categories/:id. Dependent handling is part of
// the call: ?reassignChildren=true&detachItems=true.
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	opts := warehouse.CategoryDeleteOptions{
		ReassignChildren: c.Query("reassignChildren") == "true",
		DetachItems:      c.Query("detachItems") == "true",
	}

	if err := h.categories.Delete(c.Request.Context(), id, opts); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
