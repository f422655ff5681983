package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop/internal/domain/orders"
	"workshop/internal/infrastructure/http/v1/dto"
)

// VehicleHandler serves the vehicle register.
type VehicleHandler struct {
	*BaseHandler
	vehicles *orders.VehicleService
}

// NewVehicleHandler creates the vehicle handler.
func NewVehicleHandler(base *BaseHandler, vehicles *orders.VehicleService) *VehicleHandler {
	return &VehicleHandler{BaseHandler: base, vehicles: vehicles}
}

// List handles GET /vehicles. ?orphanedOnly=true selects vehicles left
// behind by a deleted customer.
func (h *VehicleHandler) List(c *gin.Context) {
	filter := orders.VehicleFilter{
		Search:       c.Query("search"),
		CustomerID:   h.ParseInt64Query(c, "customerId"),
		OrphanedOnly: c.Query("orphanedOnly") == "true",
		ActiveOnly:   c.Query("activeOnly") == "true",
		Limit:        h.ParseIntQuery(c, "limit", 50),
		Offset:       h.ParseIntQuery(c, "offset", 0),
	}

	vehicles, total, err := h.vehicles.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      vehicles,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Get handles GET /vehicles/:id.
func (h *VehicleHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	vehicle, err := h.vehicles.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, vehicle)
}

// GetByPlate handles GET /vehicles/by-plate/:plate.
func (h *VehicleHandler) GetByPlate(c *gin.Context) {
	vehicle, err := h.vehicles.GetByPlate(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, vehicle)
}

// Create handles POST /vehicles.
func (h *VehicleHandler) Create(c *gin.Context) {
	var req dto.VehicleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	vehicle := req.ToEntity()
	if err := h.vehicles.Create(c.Request.Context(), vehicle); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// Update handles PUT /vehicles/:id.
func (h *VehicleHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.VehicleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	vehicle, err := h.vehicles.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(vehicle)

	if err := h.vehicles.Update(c.Request.Context(), vehicle); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, vehicle)
}

// Delete handles DELETE /vehicles/:id.
func (h *VehicleHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.vehicles.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
