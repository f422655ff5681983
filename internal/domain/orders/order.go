package orders

import (
	"context"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/types"
)

// OrderType discriminates what kind of business an order records.
type OrderType string

const (
	TypeRegular  OrderType = "regular"
	TypeFreeSale OrderType = "free-sale"
	TypeQuote    OrderType = "quote"
)

// ValidOrderType reports whether t is a known order type.
func ValidOrderType(t OrderType) bool {
	switch t {
	case TypeRegular, TypeFreeSale, TypeQuote:
		return true
	}
	return false
}

// Order is one service order. Number is the public year-scoped identity;
// Total caches the line-item roll-up and is re-derived with every line
// mutation.
type Order struct {
	entity.Row

	Number        string      `db:"number" json:"number"`
	OrderType     OrderType   `db:"order_type" json:"orderType"`
	StatusCode    string      `db:"status_code" json:"statusCode"`
	CustomerID    int64       `db:"customer_id" json:"customerId"`
	VehicleID     int64       `db:"vehicle_id" json:"vehicleId"`
	CreatedDate   types.Date  `db:"created_date" json:"createdDate"`
	CompletedDate *types.Date `db:"completed_date" json:"completedDate,omitempty"`
	Note          string      `db:"note" json:"note"`
	Total         types.Money `db:"total" json:"total"`

	// InvoiceNumber is allocated lazily by the first invoice document.
	InvoiceNumber *string `db:"invoice_number" json:"invoiceNumber,omitempty"`

	// Separate invoicing party, used when billing someone other than
	// the customer on file.
	InvoiceCompany string `db:"invoice_company" json:"invoiceCompany"`
	InvoiceTaxID   string `db:"invoice_tax_id" json:"invoiceTaxId"`
	InvoiceAddress string `db:"invoice_address" json:"invoiceAddress"`
}

// LineKind buckets order lines. The buckets are a filter over one table,
// not separate tables.
type LineKind string

const (
	LineMaterial LineKind = "material"
	LineLabor    LineKind = "labor"
	LineExternal LineKind = "external"
)

// ValidLineKind reports whether k is a known line kind.
func ValidLineKind(k LineKind) bool {
	switch k {
	case LineMaterial, LineLabor, LineExternal:
		return true
	}
	return false
}

// Line is one order line item.
type Line struct {
	entity.Row

	OrderID    int64           `db:"order_id" json:"orderId"`
	Kind       LineKind        `db:"kind" json:"kind"`
	Name       string          `db:"name" json:"name"`
	Quantity   types.Quantity  `db:"quantity" json:"quantity"`
	Unit       string          `db:"unit" json:"unit"`
	UnitPrice  types.Money     `db:"unit_price" json:"unitPrice"`
	VATPercent decimal.Decimal `db:"vat_percent" json:"vatPercent"`
	LineTotal  types.Money     `db:"line_total" json:"lineTotal"`

	// WarehouseItemID links material lines to the item master.
	WarehouseItemID *int64 `db:"warehouse_item_id" json:"warehouseItemId,omitempty"`
}

// RecomputeTotal derives line_total = quantity x unit_price. Always called
// on write; a caller-supplied total is ignored.
func (l *Line) RecomputeTotal() {
	l.LineTotal = l.Quantity.Mul(l.UnitPrice).Round(2)
}

// Validate implements entity.Validatable.
func (l *Line) Validate(ctx context.Context) error {
	if !ValidLineKind(l.Kind) {
		return apperror.NewInvalidInput("unknown line kind").
			WithDetail("kind", string(l.Kind))
	}
	if l.Name == "" {
		return apperror.NewInvalidInput("line name is required").
			WithDetail("field", "name")
	}
	if !l.Quantity.IsPositive() {
		return apperror.NewInvalidInput("line quantity must be positive").
			WithDetail("quantity", l.Quantity.String())
	}
	if l.UnitPrice.IsNegative() {
		return apperror.NewInvalidInput("unit price must not be negative")
	}
	if l.VATPercent.IsNegative() || l.VATPercent.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewInvalidInput("vat percent must be between 0 and 100")
	}
	return nil
}

// SumLines rolls the line totals up into the order total.
func SumLines(lines []*Line) types.Money {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return total
}

// OrderFilter narrows order lists.
type OrderFilter struct {
	StatusCode string
	OrderType  OrderType
	CustomerID *int64
	VehicleID  *int64
	From       *types.Date
	To         *types.Date

	// Search matches the order number and note.
	Search string

	Limit  int
	Offset int
}

// OrderList is one page of orders.
type OrderList struct {
	Orders     []*Order `json:"orders"`
	TotalCount int64    `json:"totalCount"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
}
