package warehouse

import (
	"time"

	"workshop/internal/core/types"
)

// MovementKind discriminates ledger rows.
type MovementKind string

const (
	MovementReceipt   MovementKind = "receipt"
	MovementIssue     MovementKind = "issue"
	MovementInventory MovementKind = "inventory"

	// MovementReversal marks a row whose effect has been undone.
	// on_hand equals the signed sum of all rows not so marked.
	MovementReversal MovementKind = "reversal"
)

// Issue reason codes.
const (
	ReasonOrder       = "order"
	ReasonConsumption = "consumption"
	ReasonScrap       = "scrap"
	ReasonInternal    = "internal"
	ReasonTransfer    = "transfer"
	ReasonOther       = "other"
)

// ValidReason reports whether code is a known issue reason.
func ValidReason(code string) bool {
	switch code {
	case ReasonOrder, ReasonConsumption, ReasonScrap, ReasonInternal, ReasonTransfer, ReasonOther:
		return true
	}
	return false
}

// Movement is one append-only ledger row. Quantity is the signed on-hand
// delta: positive for receipts and upward inventory corrections, negative
// for issues. Rows are never updated except to re-mark as reversal.
type Movement struct {
	ID             int64          `db:"id" json:"id"`
	ItemID         int64          `db:"item_id" json:"itemId"`
	Kind           MovementKind   `db:"kind" json:"kind"`
	Quantity       types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice      types.Money    `db:"unit_price" json:"unitPrice"`
	SupplierID     *int64         `db:"supplier_id" json:"supplierId,omitempty"`
	Reason         string         `db:"reason" json:"reason"`
	DocumentNumber string         `db:"document_number" json:"documentNumber"`
	MovedAt        time.Time      `db:"moved_at" json:"movedAt"`
	Note           string         `db:"note" json:"note"`
	Operator       string         `db:"operator" json:"operator"`
}

// MovementResult reports the outcome of a ledger operation.
type MovementResult struct {
	Movement *Movement      `json:"movement"`
	OnHand   types.Quantity `json:"onHand"`

	// BelowMinimum is set when the post-operation quantity fell under
	// the item's minimum.
	BelowMinimum bool `json:"belowMinimum"`
}
