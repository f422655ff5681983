package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workshop/internal/domain/codebook"
	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/http/v1/dto"
)

// ItemHandler serves the item master and its movement ledger.
type ItemHandler struct {
	*BaseHandler
	items  *warehouse.ItemService
	ledger *warehouse.Ledger
	csv    *codebook.Service[*warehouse.Item]
}

// NewItemHandler creates the item handler.
func NewItemHandler(base *BaseHandler, items *warehouse.ItemService, ledger *warehouse.Ledger, csv *codebook.Service[*warehouse.Item]) *ItemHandler {
	return &ItemHandler{BaseHandler: base, items: items, ledger: ledger, csv: csv}
}

// List handles GET /items.
func (h *ItemHandler) List(c *gin.Context) {
	filter := warehouse.ItemFilter{
		Search:     c.Query("search"),
		CategoryID: h.ParseInt64Query(c, "categoryId"),
		SupplierID: h.ParseInt64Query(c, "supplierId"),
		StockState: warehouse.StockStateFilter(c.Query("stockState")),
		ActiveOnly: c.Query("activeOnly") == "true",
		OrderBy:    c.Query("orderBy"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	result, err := h.items.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromItems(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	item, err := h.items.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItem(item))
}

// Create handles POST /items.
func (h *ItemHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item := req.ToEntity()
	if err := h.items.Create(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromItem(item))
}

// Update handles PUT /items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.items.Get(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(item)

	if err := h.items.Update(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItem(item))
}

// Delete handles DELETE /items/:id?confirm=true.
func (h *ItemHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.items.Delete(c.Request.Context(), id, h.Confirmed(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Deactivate handles POST /items/:id/deactivate.
func (h *ItemHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.items.Deactivate(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "deactivated")
}

// Receipt handles POST /items/:id/receipt.
func (h *ItemHandler) Receipt(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.ledger.Receipt(c.Request.Context(), req.ToInput(id))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Issue handles POST /items/:id/issue.
func (h *ItemHandler) Issue(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.IssueRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.ledger.Issue(c.Request.Context(), req.ToInput(id))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Inventory handles POST /items/:id/inventory.
func (h *ItemHandler) Inventory(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.InventoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.ledger.Inventory(c.Request.Context(), req.ToInput(id))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// History handles GET /items/:id/movements.
func (h *ItemHandler) History(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	movements, err := h.ledger.History(c.Request.Context(), id, h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, movements)
}

// ExportCSV handles GET /items/export.csv in the shared codebook framing.
func (h *ItemHandler) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename=warehouse_items.csv")

	if err := h.csv.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		h.Error(c, err)
	}
}

// ImportCSV handles POST /items/import.csv?updateExisting=true. Rows
// upsert by item code.
func (h *ItemHandler) ImportCSV(c *gin.Context) {
	opts := codebook.ImportOptions{
		UpdateExisting: c.Query("updateExisting") == "true",
	}

	stats, err := h.csv.ImportCSV(c.Request.Context(), c.Request.Body, opts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, stats)
}

// Reverse handles POST /movements/:id/reverse.
func (h *ItemHandler) Reverse(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	result, err := h.ledger.Reverse(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
