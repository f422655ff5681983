package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/orders"
	"workshop/internal/infrastructure/http/v1/dto"
)

// OrderHandler serves the order lifecycle: header, status machine, line
// items and printable documents.
type OrderHandler struct {
	*BaseHandler
	engine *orders.Engine
}

// NewOrderHandler creates the order handler.
func NewOrderHandler(base *BaseHandler, engine *orders.Engine) *OrderHandler {
	return &OrderHandler{BaseHandler: base, engine: engine}
}

// List handles GET /orders.
func (h *OrderHandler) List(c *gin.Context) {
	filter := orders.OrderFilter{
		StatusCode: c.Query("status"),
		OrderType:  orders.OrderType(c.Query("orderType")),
		CustomerID: h.ParseInt64Query(c, "customerId"),
		VehicleID:  h.ParseInt64Query(c, "vehicleId"),
		Search:     c.Query("search"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	from, ok := h.parseDateQuery(c, "from")
	if !ok {
		return
	}
	filter.From = from

	to, ok := h.parseDateQuery(c, "to")
	if !ok {
		return
	}
	filter.To = to

	list, err := h.engine.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, list)
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	order, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// GetByNumber handles GET /orders/by-number/:number.
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	order, err := h.engine.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// Create handles POST /orders. The number is allocated server-side from
// the per-year sequence.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.engine.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Transition handles POST /orders/:id/transition.
func (h *OrderHandler) Transition(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	confirm := req.Confirm || h.Confirmed(c)
	order, err := h.engine.Transition(c.Request.Context(), id, req.StatusCode, confirm)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

// Lines handles GET /orders/:id/lines.
func (h *OrderHandler) Lines(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	lines, err := h.engine.Lines(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, lines)
}

// AddLine handles POST /orders/:id/lines.
func (h *OrderHandler) AddLine(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.LineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	line, err := h.engine.AddLine(c.Request.Context(), id, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

// UpdateLine handles PUT /lines/:id.
func (h *OrderHandler) UpdateLine(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateLineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	line, err := h.engine.Line(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(line)

	if err := h.engine.UpdateLine(c.Request.Context(), line); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, line)
}

// RemoveLine handles DELETE /lines/:id.
func (h *OrderHandler) RemoveLine(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.engine.RemoveLine(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Document handles GET /orders/:id/document?kind=invoice.
func (h *OrderHandler) Document(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	kind := orders.DocumentKind(c.DefaultQuery("kind", string(orders.DocWorkOrder)))
	doc, err := h.engine.DocumentView(c.Request.Context(), id, kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *OrderHandler) parseDateQuery(c *gin.Context, key string) (*types.Date, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	parsed, err := types.ParseDate(raw)
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("invalid date, want YYYY-MM-DD").WithDetail(key, raw))
		return nil, false
	}
	return &parsed, true
}
