// Package warehouse provides the item master, the append-only movement
// ledger with cached on-hand quantities, the minimum-stock alert engine,
// and the category and supplier graphs.
package warehouse

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebook"
)

// StockState classifies an item's on-hand level against its minimum.
type StockState string

const (
	StockZero     StockState = "zero"
	StockCritical StockState = "critical"
	StockWarning  StockState = "warning"
	StockOK       StockState = "ok"
)

// alertFactor is the warning threshold multiplier over min_quantity.
var alertFactor = decimal.RequireFromString("1.5")

// Item is the master record of something stockable. Quantity caches the
// ledger-derived on-hand value for query speed; the ledger is the truth.
type Item struct {
	entity.Row

	Name          string          `db:"name" json:"name"`
	Code          string          `db:"code" json:"code"`
	EAN           string          `db:"ean" json:"ean"`
	CategoryID    *int64          `db:"category_id" json:"categoryId,omitempty"`
	SupplierID    *int64          `db:"supplier_id" json:"supplierId,omitempty"`
	Quantity      types.Quantity  `db:"quantity" json:"quantity"`
	Unit          string          `db:"unit" json:"unit"`
	MinQuantity   types.Quantity  `db:"min_quantity" json:"minQuantity"`
	Location      string          `db:"location" json:"location"`
	PricePurchase types.Money     `db:"price_purchase" json:"pricePurchase"`
	PriceSale     types.Money     `db:"price_sale" json:"priceSale"`
	Description   string          `db:"description" json:"description"`
	Note          string          `db:"note" json:"note"`
	Active        bool            `db:"active" json:"active"`
}

// NewItem creates an active item with zero stock.
func NewItem(code, name string) *Item {
	return &Item{
		Row:    entity.NewRow(),
		Code:   code,
		Name:   name,
		Unit:   "pcs",
		Active: true,
	}
}

// NaturalKey returns the internal code.
func (i *Item) NaturalKey() string { return i.Code }

// KeyConds locates the item by code.
func (i *Item) KeyConds() map[string]any {
	return map[string]any{"code": i.Code}
}

// IsActive reports the active flag.
func (i *Item) IsActive() bool { return i.Active }

// Validate implements entity.Validatable.
func (i *Item) Validate(ctx context.Context) error {
	if strings.TrimSpace(i.Code) == "" {
		return apperror.NewInvalidInput("code is required").
			WithDetail("field", "code")
	}
	if strings.TrimSpace(i.Name) == "" {
		return apperror.NewInvalidInput("name is required").
			WithDetail("field", "name")
	}
	if i.MinQuantity.IsNegative() {
		return apperror.NewInvalidInput("min quantity must not be negative").
			WithDetail("field", "minQuantity")
	}
	if i.PricePurchase.IsNegative() || i.PriceSale.IsNegative() {
		return apperror.NewInvalidInput("prices must not be negative")
	}
	return nil
}

// StockState derives the stock classification served on item lists.
func (i *Item) StockState() StockState {
	switch {
	case i.Quantity.IsZero():
		return StockZero
	case i.Quantity.LessThan(i.MinQuantity):
		return StockCritical
	case i.MinQuantity.IsPositive() && i.Quantity.LessThan(i.MinQuantity.Mul(alertFactor)):
		return StockWarning
	default:
		return StockOK
	}
}

// StarvationRatio is on_hand / min_quantity, the alert report sort key.
// Items without a minimum sort by raw quantity instead.
func (i *Item) StarvationRatio() decimal.Decimal {
	if i.MinQuantity.IsPositive() {
		return i.Quantity.DivRound(i.MinQuantity, 6)
	}
	return i.Quantity
}

// ItemDescriptor adapts the item master to the codebook machinery for CSV
// import/export and the generic repository. Items stay out of the backup
// envelope; their truth is the ledger, not the parameter set.
func ItemDescriptor() codebook.Descriptor[*Item] {
	return codebook.Descriptor[*Item]{
		Name:  "warehouse_item",
		Table: "warehouse_items",
		New:   func() *Item { return &Item{} },
		Referrers: []codebook.Referrer{
			{Table: "warehouse_movements", Column: "item_id"},
			{Table: "order_items", Column: "warehouse_item_id"},
		},
	}
}

// StockStateFilter selects items by their derived stock state.
type StockStateFilter string

const (
	StockAny          StockStateFilter = "any"
	StockBelowMin     StockStateFilter = "below-min"
	StockAtOrAboveMin StockStateFilter = "at-or-above-min"
	StockIsZero       StockStateFilter = "zero"
)

// ItemFilter narrows item lists.
type ItemFilter struct {
	// Search matches name, code and EAN case-insensitively.
	Search     string
	CategoryID *int64
	SupplierID *int64
	StockState StockStateFilter
	ActiveOnly bool

	// OrderBy: name, code, price_purchase, price_sale, quantity
	// ("-" prefix for descending).
	OrderBy string
	Limit   int
	Offset  int
}

// ItemList is one page of items.
type ItemList struct {
	Items      []*Item `json:"items"`
	TotalCount int64   `json:"totalCount"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}
