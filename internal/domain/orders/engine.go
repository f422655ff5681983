package orders

import (
	"context"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/numbering"
	"workshop/internal/core/tx"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebooks/status"
	"workshop/internal/domain/warehouse"
	"workshop/pkg/logger"
)

// Engine runs the order lifecycle: creation with atomic number allocation,
// the status machine, line items with total roll-up, and document views.
type Engine struct {
	ordersRepo OrderRepository
	lines      LineRepository
	customers  CustomerRepository
	vehicles   VehicleRepository
	statuses   StatusDirectory
	numbers    numbering.Allocator
	vat        VATSource
	labor      LaborRateSource
	stock      StockSource
	notifier   Notifier
	txm        tx.Manager
}

// EngineDeps collects the engine's collaborators.
type EngineDeps struct {
	Orders    OrderRepository
	Lines     LineRepository
	Customers CustomerRepository
	Vehicles  VehicleRepository
	Statuses  StatusDirectory
	Numbers   numbering.Allocator
	VAT       VATSource
	Labor     LaborRateSource
	Stock     StockSource
	Notifier  Notifier
	Tx        tx.Manager
}

// NewEngine creates the order engine.
func NewEngine(d EngineDeps) *Engine {
	return &Engine{
		ordersRepo: d.Orders,
		lines:      d.Lines,
		customers:  d.Customers,
		vehicles:   d.Vehicles,
		statuses:   d.Statuses,
		numbers:    d.Numbers,
		vat:        d.VAT,
		labor:      d.Labor,
		stock:      d.Stock,
		notifier:   d.Notifier,
		txm:        d.Tx,
	}
}

// CreateInput describes a new order.
type CreateInput struct {
	OrderType OrderType
	VehicleID int64
	Note      string

	// StatusCode overrides the configured initial status when set.
	StatusCode string

	// Separate invoicing party, optional.
	InvoiceCompany string
	InvoiceTaxID   string
	InvoiceAddress string
}

// Create opens a new order in one transaction: resolve the customer from
// the vehicle, allocate the year-scoped number, insert.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*Order, error) {
	if in.OrderType == "" {
		in.OrderType = TypeRegular
	}
	if !ValidOrderType(in.OrderType) {
		return nil, apperror.NewInvalidInput("unknown order type").
			WithDetail("orderType", string(in.OrderType))
	}

	var order *Order
	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		vehicle, err := e.vehicles.GetByID(ctx, in.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.IsOrphaned() {
			return apperror.NewOrphanedVehicle(vehicle.ID)
		}

		initial, err := e.initialStatus(ctx, in.StatusCode)
		if err != nil {
			return err
		}

		today := types.Today()
		number, err := e.numbers.Next(ctx, numbering.KindOrder, today.Time)
		if err != nil {
			return err
		}

		order = &Order{
			Number:         number,
			OrderType:      in.OrderType,
			StatusCode:     initial.Code,
			CustomerID:     *vehicle.CustomerID,
			VehicleID:      vehicle.ID,
			CreatedDate:    today,
			Note:           in.Note,
			Total:          decimal.Zero,
			InvoiceCompany: in.InvoiceCompany,
			InvoiceTaxID:   in.InvoiceTaxID,
			InvoiceAddress: in.InvoiceAddress,
		}
		order.Version = 1
		return e.ordersRepo.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created",
		"number", order.Number,
		"type", string(order.OrderType),
		"vehicle_id", order.VehicleID,
	)
	return order, nil
}

func (e *Engine) initialStatus(ctx context.Context, override string) (*status.Status, error) {
	if override == "" {
		return e.statuses.Initial(ctx)
	}
	st, err := e.statuses.Get(ctx, override)
	if err != nil {
		return nil, err
	}
	if st.IsTerminal() {
		return nil, apperror.NewInvalidInput("cannot open an order in a terminal status").
			WithDetail("statusCode", override)
	}
	return st, nil
}

// Get returns one order.
func (e *Engine) Get(ctx context.Context, id int64) (*Order, error) {
	return e.ordersRepo.GetByID(ctx, id)
}

// GetByNumber returns one order by its public number.
func (e *Engine) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return e.ordersRepo.GetByNumber(ctx, number)
}

// List returns one page of orders matching the filter.
func (e *Engine) List(ctx context.Context, filter OrderFilter) (OrderList, error) {
	return e.ordersRepo.List(ctx, filter)
}

// Transition moves an order along the status machine. Cancellation is a
// side-edge from any non-terminal state and needs explicit confirmation.
// Entering a notify-enabled status triggers the mail collaborator after
// commit; delivery failure is logged, never blocking.
func (e *Engine) Transition(ctx context.Context, orderID int64, targetCode string, confirm bool) (*Order, error) {
	var (
		order  *Order
		target *status.Status
	)

	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = e.ordersRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		current, err := e.statuses.Get(ctx, order.StatusCode)
		if err != nil {
			return err
		}
		target, err = e.statuses.Get(ctx, targetCode)
		if err != nil {
			return err
		}

		switch {
		case targetCode == status.Cancelled:
			if current.IsTerminal() {
				return apperror.NewIllegalTransition(current.Code, targetCode)
			}
			if !confirm {
				return apperror.NewConfirmationRequired("cancelling order " + order.Number)
			}
		case !current.CanTransitionTo(targetCode):
			return apperror.NewIllegalTransition(current.Code, targetCode)
		}

		order.StatusCode = targetCode
		if targetCode == status.Done && order.CompletedDate == nil {
			today := types.Today()
			order.CompletedDate = &today
		}
		return e.ordersRepo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order status changed",
		"number", order.Number,
		"status", targetCode,
	)
	e.notify(ctx, order, target)
	return order, nil
}

// notify delivers the customer email for notify-enabled statuses.
func (e *Engine) notify(ctx context.Context, order *Order, target *status.Status) {
	if e.notifier == nil || target == nil || !target.NotifyCustomer {
		return
	}
	customer, err := e.customers.GetByID(ctx, order.CustomerID)
	if err != nil || customer.Email == "" {
		return
	}

	err = e.notifier.OrderStatusChanged(ctx, StatusNotification{
		OrderNumber:  order.Number,
		StatusCode:   target.Code,
		StatusName:   target.Name,
		CustomerName: customer.DisplayName(),
		Email:        customer.Email,
	})
	if err != nil {
		logger.Warn(ctx, "status notification failed",
			"number", order.Number,
			"email", customer.Email,
			"error", err.Error(),
		)
	}
}

// LineInput describes a line item mutation. Zero-valued price and VAT
// fields are filled from the codebooks at insertion time.
type LineInput struct {
	Kind     LineKind
	Name     string
	Quantity types.Quantity
	Unit     string

	// UnitPrice overrides the codebook default when non-nil.
	UnitPrice *types.Money

	// VATPercent overrides the effective default rate when non-nil.
	VATPercent *decimal.Decimal

	// WarehouseItemID links a material line to the item master; name,
	// unit and price default from the item.
	WarehouseItemID *int64

	// PositionCode selects the hourly rate for labor lines. Empty means
	// the shop-wide rate.
	PositionCode string

	// PostIssue additionally posts a stock issue of the same quantity
	// in the same transaction. Requires WarehouseItemID.
	PostIssue bool

	Operator string
}

// AddLine appends a line item and re-derives the order total in the same
// transaction.
func (e *Engine) AddLine(ctx context.Context, orderID int64, in LineInput) (*Line, error) {
	var line *Line
	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := e.mutableOrder(ctx, orderID)
		if err != nil {
			return err
		}

		line, err = e.buildLine(ctx, order, in)
		if err != nil {
			return err
		}
		if err := line.Validate(ctx); err != nil {
			return err
		}
		if err := e.lines.Insert(ctx, line); err != nil {
			return err
		}

		if in.PostIssue {
			if line.WarehouseItemID == nil {
				return apperror.NewInvalidInput("stock issue requires a warehouse item link")
			}
			_, err := e.stock.Issue(ctx, warehouse.IssueInput{
				ItemID:         *line.WarehouseItemID,
				Quantity:       line.Quantity,
				Reason:         warehouse.ReasonOrder,
				DocumentNumber: order.Number,
				Operator:       in.Operator,
			})
			if err != nil {
				return err
			}
		}

		return e.rederiveTotal(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// buildLine fills codebook defaults for price, VAT, name and unit.
func (e *Engine) buildLine(ctx context.Context, order *Order, in LineInput) (*Line, error) {
	line := &Line{
		OrderID:  order.ID,
		Kind:     in.Kind,
		Name:     in.Name,
		Quantity: in.Quantity,
		Unit:     in.Unit,
	}
	line.Version = 1

	switch {
	case in.UnitPrice != nil:
		line.UnitPrice = *in.UnitPrice
	case in.Kind == LineMaterial && in.WarehouseItemID != nil:
		item, err := e.stock.GetItem(ctx, *in.WarehouseItemID)
		if err != nil {
			return nil, err
		}
		line.UnitPrice = item.PriceSale
		if line.Name == "" {
			line.Name = item.Name
		}
		if line.Unit == "" {
			line.Unit = item.Unit
		}
	case in.Kind == LineLabor:
		rate, err := e.labor.NetRateOn(ctx, in.PositionCode, order.CreatedDate)
		if err != nil {
			return nil, err
		}
		line.UnitPrice = rate
	}
	line.WarehouseItemID = in.WarehouseItemID

	if in.VATPercent != nil {
		line.VATPercent = *in.VATPercent
	} else {
		percent, err := e.vat.DefaultPercent(ctx, order.CreatedDate)
		if err != nil {
			return nil, err
		}
		line.VATPercent = percent
	}

	if line.Unit == "" {
		if in.Kind == LineLabor {
			line.Unit = "h"
		} else {
			line.Unit = "pcs"
		}
	}

	line.RecomputeTotal()
	return line, nil
}

// UpdateLine rewrites a line item and re-derives the order total.
func (e *Engine) UpdateLine(ctx context.Context, line *Line) error {
	return e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := e.mutableOrder(ctx, line.OrderID)
		if err != nil {
			return err
		}

		line.RecomputeTotal()
		if err := line.Validate(ctx); err != nil {
			return err
		}
		if err := e.lines.Update(ctx, line); err != nil {
			return err
		}
		return e.rederiveTotal(ctx, order)
	})
}

// RemoveLine deletes a line item and re-derives the order total.
func (e *Engine) RemoveLine(ctx context.Context, lineID int64) error {
	return e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		line, err := e.lines.GetByID(ctx, lineID)
		if err != nil {
			return err
		}
		order, err := e.mutableOrder(ctx, line.OrderID)
		if err != nil {
			return err
		}

		if err := e.lines.Delete(ctx, lineID); err != nil {
			return err
		}
		return e.rederiveTotal(ctx, order)
	})
}

// Lines returns an order's line items.
func (e *Engine) Lines(ctx context.Context, orderID int64) ([]*Line, error) {
	return e.lines.ListByOrder(ctx, orderID)
}

// Line returns a single line item.
func (e *Engine) Line(ctx context.Context, lineID int64) (*Line, error) {
	return e.lines.GetByID(ctx, lineID)
}

// mutableOrder loads the order and rejects line mutation in terminal
// statuses.
func (e *Engine) mutableOrder(ctx context.Context, orderID int64) (*Order, error) {
	order, err := e.ordersRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	st, err := e.statuses.Get(ctx, order.StatusCode)
	if err != nil {
		return nil, err
	}
	if st.IsTerminal() {
		return nil, apperror.NewIntegrityViolation("order is in a terminal status, line items are frozen").
			WithDetail("number", order.Number).
			WithDetail("status", order.StatusCode)
	}
	return order, nil
}

// rederiveTotal recomputes order.total from the line items, inside the
// caller's transaction.
func (e *Engine) rederiveTotal(ctx context.Context, order *Order) error {
	lines, err := e.lines.ListByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Total = SumLines(lines)
	return e.ordersRepo.Update(ctx, order)
}
