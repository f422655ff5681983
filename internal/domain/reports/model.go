// Package reports provides read-only derived views over the warehouse and
// order data: stock reports, ABC analysis, movement and order history,
// price lists. Results are streamed row by row so long reads stay
// cancellable.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/types"
	"workshop/internal/domain/orders"
	"workshop/internal/domain/warehouse"
)

// BelowMinimumRow is one starved item with its supplier contact.
type BelowMinimumRow struct {
	ItemID       int64          `json:"itemId"`
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	Quantity     types.Quantity `json:"quantity"`
	MinQuantity  types.Quantity `json:"minQuantity"`
	Unit         string         `json:"unit"`
	SupplierName string         `json:"supplierName"`
	SupplierMail string         `json:"supplierEmail"`
	SupplierTel  string         `json:"supplierPhone"`
}

// Period bounds a report, inclusive on both ends.
type Period struct {
	From types.Date `json:"from"`
	To   types.Date `json:"to"`
}

// Contains reports whether day falls inside the period.
func (p Period) Contains(day types.Date) bool {
	return day.AfterOrOn(p.From) && day.BeforeOrOn(p.To)
}

// ABCClass ranks items by their share of issue value.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// IssueValue is the aggregated issue value of one item over a period, the
// raw input of the ABC analysis.
type IssueValue struct {
	ItemID int64       `json:"itemId"`
	Code   string      `json:"code"`
	Name   string      `json:"name"`
	Value  types.Money `json:"value"`
}

// ABCRow is one ranked row of the ABC analysis.
type ABCRow struct {
	IssueValue

	// Share is this item's fraction of the total issue value.
	Share decimal.Decimal `json:"share"`

	// CumulativeShare is the running total of Share down the ranking.
	CumulativeShare decimal.Decimal `json:"cumulativeShare"`

	Class ABCClass `json:"class"`
}

// MovementFilter narrows the movement history.
type MovementFilter struct {
	From       *types.Date
	To         *types.Date
	Kind       warehouse.MovementKind
	ItemID     *int64
	SupplierID *int64

	// Search matches note and document number case-insensitively.
	Search string

	Limit  int
	Offset int
}

// MovementRow is one history row joined with the item master.
type MovementRow struct {
	MovementID int64                  `json:"movementId"`
	ItemCode   string                 `json:"itemCode"`
	ItemName   string                 `json:"itemName"`
	Kind       warehouse.MovementKind `json:"kind"`
	Quantity   types.Quantity         `json:"quantity"`
	UnitPrice  types.Money            `json:"unitPrice"`
	Reason     string                 `json:"reason"`
	Document   string                 `json:"document"`
	MovedAt    time.Time              `json:"movedAt"`
	Note       string                 `json:"note"`
	Operator   string                 `json:"operator"`
}

// PriceListRow is one sellable item under its category heading.
type PriceListRow struct {
	CategoryID   *int64      `json:"categoryId,omitempty"`
	CategoryName string      `json:"categoryName"`
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	Unit         string      `json:"unit"`
	PriceSale    types.Money `json:"priceSale"`
}

// OrderRow is one order history row joined with its parties.
type OrderRow struct {
	OrderID       int64            `json:"orderId"`
	Number        string           `json:"number"`
	OrderType     orders.OrderType `json:"orderType"`
	StatusCode    string           `json:"statusCode"`
	CustomerName  string           `json:"customerName"`
	LicensePlate  string           `json:"licensePlate"`
	CreatedDate   types.Date       `json:"createdDate"`
	CompletedDate *types.Date      `json:"completedDate,omitempty"`
	Total         types.Money      `json:"total"`
}

// Warning flags a row that violated a data invariant but was served
// anyway. Reports downgrade per-row integrity problems to warnings
// instead of failing the whole stream.
type Warning struct {
	Row     int64  `json:"row"`
	Message string `json:"message"`
}
