package warehouse

import (
	"context"
	"time"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/internal/core/types"
	"workshop/pkg/logger"
)

// CostingPolicy selects how receipts refresh the purchase price.
type CostingPolicy string

const (
	// CostingLast overwrites price_purchase with the latest receipt price.
	CostingLast CostingPolicy = "last"

	// CostingWeightedAverage blends the receipt into the stock-weighted
	// average: (on_hand*old + qty*new) / (on_hand + qty).
	CostingWeightedAverage CostingPolicy = "weighted-average"
)

// Ledger executes movement operations. Every operation is one transaction:
// append the ledger row, update the cached on-hand, possibly refresh the
// purchase price.
type Ledger struct {
	items     ItemRepository
	movements MovementRepository
	txm       tx.Manager
	costing   CostingPolicy
}

// NewLedger creates the movement service.
func NewLedger(items ItemRepository, movements MovementRepository, txm tx.Manager, costing CostingPolicy) *Ledger {
	if costing == "" {
		costing = CostingLast
	}
	return &Ledger{items: items, movements: movements, txm: txm, costing: costing}
}

// ReceiptInput describes a stock receipt.
type ReceiptInput struct {
	ItemID         int64
	Quantity       types.Quantity
	UnitPrice      types.Money
	SupplierID     *int64
	DocumentNumber string
	MovedAt        time.Time
	Note           string
	Operator       string
}

// Receipt appends a receipt row and raises on-hand.
func (l *Ledger) Receipt(ctx context.Context, in ReceiptInput) (*MovementResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewInvalidInput("receipt quantity must be positive").
			WithDetail("quantity", in.Quantity.String())
	}
	if in.UnitPrice.IsNegative() {
		return nil, apperror.NewInvalidInput("unit price must not be negative").
			WithDetail("unitPrice", in.UnitPrice.String())
	}

	var result *MovementResult
	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := l.items.GetByID(ctx, in.ItemID)
		if err != nil {
			return err
		}

		newQty := item.Quantity.Add(in.Quantity)
		newPrice := l.receiptPrice(item, in)

		m := &Movement{
			ItemID:         in.ItemID,
			Kind:           MovementReceipt,
			Quantity:       in.Quantity,
			UnitPrice:      in.UnitPrice,
			SupplierID:     in.SupplierID,
			DocumentNumber: in.DocumentNumber,
			MovedAt:        movedAt(in.MovedAt),
			Note:           in.Note,
			Operator:       in.Operator,
		}
		if err := l.movements.Insert(ctx, m); err != nil {
			return err
		}
		if err := l.items.UpdateStock(ctx, item.ID, newQty, &newPrice); err != nil {
			return err
		}

		result = &MovementResult{
			Movement:     m,
			OnHand:       newQty,
			BelowMinimum: belowMin(newQty, item.MinQuantity),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock receipt",
		"item_id", in.ItemID,
		"quantity", in.Quantity.String(),
		"on_hand", result.OnHand.String(),
	)
	return result, nil
}

// receiptPrice applies the configured costing policy.
func (l *Ledger) receiptPrice(item *Item, in ReceiptInput) types.Money {
	if l.costing != CostingWeightedAverage || !item.Quantity.IsPositive() {
		return in.UnitPrice
	}
	oldValue := item.Quantity.Mul(item.PricePurchase)
	newValue := in.Quantity.Mul(in.UnitPrice)
	return oldValue.Add(newValue).DivRound(item.Quantity.Add(in.Quantity), 2)
}

// IssueInput describes a stock issue.
type IssueInput struct {
	ItemID         int64
	Quantity       types.Quantity
	Reason         string
	DocumentNumber string
	MovedAt        time.Time
	Note           string
	Operator       string

	// Force permits driving on-hand negative.
	Force bool
}

// Issue appends an issue row and lowers on-hand. Without Force an issue
// that would drive on-hand negative fails with InsufficientStock.
func (l *Ledger) Issue(ctx context.Context, in IssueInput) (*MovementResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewInvalidInput("issue quantity must be positive").
			WithDetail("quantity", in.Quantity.String())
	}
	if !ValidReason(in.Reason) {
		return nil, apperror.NewInvalidInput("unknown issue reason").
			WithDetail("reason", in.Reason)
	}

	var result *MovementResult
	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := l.items.GetByID(ctx, in.ItemID)
		if err != nil {
			return err
		}

		newQty := item.Quantity.Sub(in.Quantity)
		if newQty.IsNegative() && !in.Force {
			return apperror.NewInsufficientStock(item.ID, in.Quantity.String(), item.Quantity.String())
		}

		m := &Movement{
			ItemID:         in.ItemID,
			Kind:           MovementIssue,
			Quantity:       in.Quantity.Neg(),
			Reason:         in.Reason,
			DocumentNumber: in.DocumentNumber,
			MovedAt:        movedAt(in.MovedAt),
			Note:           in.Note,
			Operator:       in.Operator,
		}
		if err := l.movements.Insert(ctx, m); err != nil {
			return err
		}
		if err := l.items.UpdateStock(ctx, item.ID, newQty, nil); err != nil {
			return err
		}

		result = &MovementResult{
			Movement:     m,
			OnHand:       newQty,
			BelowMinimum: belowMin(newQty, item.MinQuantity),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock issue",
		"item_id", in.ItemID,
		"quantity", in.Quantity.String(),
		"reason", in.Reason,
		"on_hand", result.OnHand.String(),
	)
	return result, nil
}

// InventoryInput describes an inventory correction.
type InventoryInput struct {
	ItemID   int64
	Actual   types.Quantity
	MovedAt  time.Time
	Note     string
	Operator string
}

// Inventory records a counted actual quantity. The ledger row carries the
// signed delta actual - on_hand; a zero delta is still recorded.
func (l *Ledger) Inventory(ctx context.Context, in InventoryInput) (*MovementResult, error) {
	if in.Actual.IsNegative() {
		return nil, apperror.NewInvalidInput("counted quantity must not be negative").
			WithDetail("actual", in.Actual.String())
	}

	var result *MovementResult
	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := l.items.GetByID(ctx, in.ItemID)
		if err != nil {
			return err
		}

		delta := in.Actual.Sub(item.Quantity)
		m := &Movement{
			ItemID:   in.ItemID,
			Kind:     MovementInventory,
			Quantity: delta,
			MovedAt:  movedAt(in.MovedAt),
			Note:     in.Note,
			Operator: in.Operator,
		}
		if err := l.movements.Insert(ctx, m); err != nil {
			return err
		}
		if err := l.items.UpdateStock(ctx, item.ID, in.Actual, nil); err != nil {
			return err
		}

		result = &MovementResult{
			Movement:     m,
			OnHand:       in.Actual,
			BelowMinimum: belowMin(in.Actual, item.MinQuantity),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Reverse undoes a movement: the inverse delta is applied to on-hand and
// the target row is re-marked as reversal. Reversing a reversal fails.
// The purchase price is not recomputed.
func (l *Ledger) Reverse(ctx context.Context, movementID int64) (*MovementResult, error) {
	var result *MovementResult
	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := l.movements.GetByID(ctx, movementID)
		if err != nil {
			return err
		}
		if m.Kind == MovementReversal {
			return apperror.NewInvalidInput("movement is already reversed").
				WithDetail("movementId", movementID)
		}

		item, err := l.items.GetByID(ctx, m.ItemID)
		if err != nil {
			return err
		}

		newQty := item.Quantity.Sub(m.Quantity)
		if err := l.movements.MarkReversed(ctx, m.ID, " (reversed)"); err != nil {
			return err
		}
		if err := l.items.UpdateStock(ctx, item.ID, newQty, nil); err != nil {
			return err
		}

		m.Kind = MovementReversal
		result = &MovementResult{
			Movement:     m,
			OnHand:       newQty,
			BelowMinimum: belowMin(newQty, item.MinQuantity),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "movement reversed",
		"movement_id", movementID,
		"on_hand", result.OnHand.String(),
	)
	return result, nil
}

// History lists recent movements of one item, newest first.
func (l *Ledger) History(ctx context.Context, itemID int64, limit int) ([]*Movement, error) {
	return l.movements.ListByItem(ctx, itemID, limit)
}

func belowMin(qty, min types.Quantity) bool {
	return min.IsPositive() && qty.LessThan(min)
}

func movedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
