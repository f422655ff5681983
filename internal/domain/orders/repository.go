package orders

import (
	"context"

	"workshop/internal/core/types"
	"workshop/internal/domain/codebooks/status"
	"workshop/internal/domain/warehouse"
)

// CustomerRepository persists customers.
type CustomerRepository interface {
	List(ctx context.Context, filter CustomerFilter) ([]*Customer, int64, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error

	// HasOrders reports whether any order references the customer.
	HasOrders(ctx context.Context, id int64) (bool, error)
}

// VehicleRepository persists vehicles.
type VehicleRepository interface {
	List(ctx context.Context, filter VehicleFilter) ([]*Vehicle, int64, error)
	GetByID(ctx context.Context, id int64) (*Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*Vehicle, error)
	Create(ctx context.Context, v *Vehicle) error
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, id int64) error

	// HasOrders reports whether any order references the vehicle.
	HasOrders(ctx context.Context, id int64) (bool, error)
}

// OrderRepository persists order headers.
type OrderRepository interface {
	List(ctx context.Context, filter OrderFilter) (OrderList, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
}

// LineRepository persists order line items.
type LineRepository interface {
	ListByOrder(ctx context.Context, orderID int64) ([]*Line, error)
	GetByID(ctx context.Context, id int64) (*Line, error)
	Insert(ctx context.Context, l *Line) error
	Update(ctx context.Context, l *Line) error
	Delete(ctx context.Context, id int64) error
}

// StatusDirectory resolves order statuses from the codebook.
type StatusDirectory interface {
	// Get returns the status by code.
	Get(ctx context.Context, code string) (*status.Status, error)

	// Initial returns the configured entry status for new orders.
	Initial(ctx context.Context) (*status.Status, error)
}

// VATSource resolves the default VAT percent effective on a date.
type VATSource interface {
	DefaultPercent(ctx context.Context, on types.Date) (types.Money, error)
}

// LaborRateSource resolves the hourly rate effective for a position.
type LaborRateSource interface {
	NetRateOn(ctx context.Context, positionCode string, on types.Date) (types.Money, error)
}

/// StockSource links material lines to the warehouse: item lookup for
// pricing defaults and issue posting for consumed stock.
type StockSource interface {
	GetItem(ctx context.Context, id int64) (*warehouse.Item, error)
	Issue(ctx context.Context, in warehouse.IssueInput) (*warehouse.MovementResult, error)
}

// StatusNotification carries what the mail collaborator needs to tell a
// customer about an order entering a notify-enabled status.
type StatusNotification struct {
	OrderNumber  string
	StatusCode   string
	StatusName   string
	CustomerName string
	Email        string
}

// Notifier delivers customer notifications. Delivery failures must not
// block the transition that triggered them.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, n StatusNotification) error
}

// WarehouseStock adapts the item service and movement ledger to
// StockSource.
type WarehouseStock struct {
	Items  *warehouse.ItemService
	Ledger *warehouse.Ledger
}

// GetItem implements StockSource.
func (w WarehouseStock) GetItem(ctx context.Context, id int64) (*warehouse.Item, error) {
	return w.Items.Get(ctx, id)
}

// Issue implements StockSource.
func (w WarehouseStock) Issue(ctx context.Context, in warehouse.IssueInput) (*warehouse.MovementResult, error) {
	return w.Ledger.Issue(ctx, in)
}
