package warehouse

import (
	"context"

	"workshop/internal/core/types"
)

// ItemRepository persists warehouse items.
type ItemRepository interface {
	List(ctx context.Context, filter ItemFilter) (ItemList, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	GetByCode(ctx context.Context, code string) (*Item, error)
	Create(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id int64) error

	// UpdateStock writes the cached on-hand quantity and, when price is
	// non-nil, the purchase price. Runs inside the caller's transaction.
	UpdateStock(ctx context.Context, id int64, quantity types.Quantity, price *types.Money) error

	// BelowAlertThreshold returns active items with
	// quantity < min_quantity * factor.
	BelowAlertThreshold(ctx context.Context) ([]*Item, error)

	// HasMovements reports whether any ledger row references the item.
	HasMovements(ctx context.Context, id int64) (bool, error)
}

// MovementRepository persists the append-only ledger.
type MovementRepository interface {
	Insert(ctx context.Context, m *Movement) error
	GetByID(ctx context.Context, id int64) (*Movement, error)

	// MarkReversed re-marks a row's kind as reversal and appends the
	// note suffix. The only permitted update on ledger rows.
	MarkReversed(ctx context.Context, id int64, noteSuffix string) error

	ListByItem(ctx context.Context, itemID int64, limit int) ([]*Movement, error)
}

// AlertRepository persists the daily alert log.
type AlertRepository interface {
	// InsertDaily inserts one alert row, reporting false when the
	// (item, severity, date) row already exists.
	InsertDaily(ctx context.Context, alert *Alert) (bool, error)

	ListForDate(ctx context.Context, date types.Date) ([]*Alert, error)
}

// CategoryRepository persists the category tree.
type CategoryRepository interface {
	All(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error

	// ReassignChildren moves every child of from under to (nil = root).
	ReassignChildren(ctx context.Context, from int64, to *int64) error

	// DetachItems clears the category reference on items in the category.
	DetachItems(ctx context.Context, categoryID int64) error

	HasChildren(ctx context.Context, id int64) (bool, error)
	HasItems(ctx context.Context, id int64) (bool, error)
}

// SupplierRepository persists supplier cards.
type SupplierRepository interface {
	List(ctx context.Context, filter SupplierFilter) ([]*Supplier, int64, error)
	GetByID(ctx context.Context, id int64) (*Supplier, error)
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	Delete(ctx context.Context, id int64) error
	HasItems(ctx context.Context, id int64) (bool, error)
}
