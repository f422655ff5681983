package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop/internal/domain/orders"
	"workshop/internal/infrastructure/http/v1/dto"
)

// CustomerHandler serves the customer card file.
type CustomerHandler struct {
	*BaseHandler
	customers *orders.CustomerService
}

// NewCustomerHandler creates the customer handler.
func NewCustomerHandler(base *BaseHandler, customers *orders.CustomerService) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, customers: customers}
}

// List handles GET /customers.
func (h *CustomerHandler) List(c *gin.Context) {
	filter := orders.CustomerFilter{
		Search:     c.Query("search"),
		GroupID:    h.ParseInt64Query(c, "groupId"),
		ActiveOnly: c.Query("activeOnly") == "true",
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	customers, total, err := h.customers.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      customers,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Get handles GET /customers/:id.
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	customer, err := h.customers.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, customer)
}

// Create handles POST /customers.
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer := req.ToEntity()
	if err := h.customers.Create(c.Request.Context(), customer); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// Update handles PUT /customers/:id.
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.CustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customer, err := h.customers.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(customer)

	if err := h.customers.Update(c.Request.Context(), customer); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, customer)
}

// Deactivate handles POST /customers/:id/deactivate.
func (h *CustomerHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.customers.Deactivate(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "deactivated")
}

// Delete handles DELETE /customers/:id?confirm=true. A customer with
// vehicles needs the confirm token; the vehicles stay behind orphaned.
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.customers.Delete(c.Request.Context(), id, h.Confirmed(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
