package handlers

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/orders"
	"workshop/internal/domain/reports"
	"workshop/internal/domain/warehouse"
)

// ReportHandler serves the derived read-only views. Streamed reports are
// accumulated into the JSON response; the CSV shapes live on the CLI.
type ReportHandler struct {
	*BaseHandler
	reports *reports.Service
}

// NewReportHandler creates the report handler.
func NewReportHandler(base *BaseHandler, svc *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, reports: svc}
}

// BelowMinimum handles GET /reports/below-minimum.
func (h *ReportHandler) BelowMinimum(c *gin.Context) {
	rows := make([]reports.BelowMinimumRow, 0)
	warnings, err := h.reports.BelowMinimum(c.Request.Context(), func(row reports.BelowMinimumRow) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"rows": rows, "warnings": warnings})
}

// ABC handles GET /reports/abc?from=2026-01-01&to=2026-06-30.
func (h *ReportHandler) ABC(c *gin.Context) {
	period, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	rows, err := h.reports.ABCAnalysis(c.Request.Context(), period)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"period": period, "rows": rows})
}

// Movements handles GET /reports/movements.
func (h *ReportHandler) Movements(c *gin.Context) {
	filter := reports.MovementFilter{
		Kind:       warehouse.MovementKind(c.Query("kind")),
		ItemID:     h.ParseInt64Query(c, "itemId"),
		SupplierID: h.ParseInt64Query(c, "supplierId"),
		Search:     c.Query("search"),
		Limit:      h.ParseIntQuery(c, "limit", 100),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	from, ok := h.parseDate(c, "from")
	if !ok {
		return
	}
	filter.From = from

	to, ok := h.parseDate(c, "to")
	if !ok {
		return
	}
	filter.To = to

	rows := make([]reports.MovementRow, 0)
	err := h.reports.MovementHistory(c.Request.Context(), filter, func(row reports.MovementRow) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"rows": rows})
}

// PriceList handles GET /reports/price-list?categoryId=.
func (h *ReportHandler) PriceList(c *gin.Context) {
	rows := make([]reports.PriceListRow, 0)
	err := h.reports.PriceList(c.Request.Context(), h.ParseInt64Query(c, "categoryId"), func(row reports.PriceListRow) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"rows": rows})
}

// OrderHistory handles GET /reports/orders.
func (h *ReportHandler) OrderHistory(c *gin.Context) {
	filter := orders.OrderFilter{
		StatusCode: c.Query("status"),
		OrderType:  orders.OrderType(c.Query("orderType")),
		CustomerID: h.ParseInt64Query(c, "customerId"),
		VehicleID:  h.ParseInt64Query(c, "vehicleId"),
		Search:     c.Query("search"),
		Limit:      h.ParseIntQuery(c, "limit", 100),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	from, ok := h.parseDate(c, "from")
	if !ok {
		return
	}
	filter.From = from

	to, ok := h.parseDate(c, "to")
	if !ok {
		return
	}
	filter.To = to

	rows := make([]reports.OrderRow, 0)
	err := h.reports.OrderHistory(c.Request.Context(), filter, func(row reports.OrderRow) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"rows": rows})
}

// parsePeriod reads the mandatory from/to bounds of a period report.
func (h *ReportHandler) parsePeriod(c *gin.Context) (reports.Period, bool) {
	from, ok := h.parseDate(c, "from")
	if !ok {
		return reports.Period{}, false
	}
	to, ok := h.parseDate(c, "to")
	if !ok {
		return reports.Period{}, false
	}
	if from == nil || to == nil {
		h.Error(c, apperror.NewInvalidInput("period requires both from and to"))
		return reports.Period{}, false
	}
	return reports.Period{From: *from, To: *to}, true
}

func (h *ReportHandler) parseDate(c *gin.Context, key string) (*types.Date, bool) {
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
