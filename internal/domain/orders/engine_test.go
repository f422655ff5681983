package orders_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/numbering"
	"workshop/internal/domain/codebooks/status"
	"workshop/internal/domain/orders"
	"workshop/internal/domain/warehouse"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type engineFixture struct {
	engine    *orders.Engine
	orders    *fakeOrderRepo
	lines     *fakeLineRepo
	customers *fakeCustomerRepo
	vehicles  *fakeVehicleRepo
	stock     *fakeStock
	notifier  *fakeNotifier

	customer *orders.Customer
	vehicle  *orders.Vehicle
}

func newEngineFixture() *engineFixture {
	ordersRepo := newFakeOrderRepo()
	f := &engineFixture{
		orders:    ordersRepo,
		lines:     newFakeLineRepo(),
		customers: newFakeCustomerRepo(ordersRepo),
		vehicles:  newFakeVehicleRepo(ordersRepo),
		stock:     newFakeStock(),
		notifier:  &fakeNotifier{},
	}

	f.customer = orders.NewCustomer("Jan", "Novak")
	f.customer.Email = "jan.novak@example.com"
	f.customers.add(f.customer)

	f.vehicle = orders.NewVehicle("Skoda", "Octavia", "1AB 2345")
	f.vehicle.CustomerID = &f.customer.ID
	f.vehicles.add(f.vehicle)

	f.engine = orders.NewEngine(orders.EngineDeps{
		Orders:    f.orders,
		Lines:     f.lines,
		Customers: f.customers,
		Vehicles:  f.vehicles,
		Statuses:  newFakeStatusDir(),
		Numbers:   numbering.NewMockAllocator(),
		VAT:       fakeVATSource{percent: dec("21")},
		Labor:     fakeLaborSource{net: dec("800")},
		Stock:     f.stock,
		Notifier:  f.notifier,
		Tx:        nopTx{},
	})
	return f
}

func (f *engineFixture) createOrder(t *testing.T) *orders.Order {
	t.Helper()
	order, err := f.engine.Create(context.Background(), orders.CreateInput{
		VehicleID: f.vehicle.ID,
	})
	require.NoError(t, err)
	return order
}

func TestCreate_AllocatesNumberAndResolvesCustomer(t *testing.T) {
	f := newEngineFixture()
	order := f.createOrder(t)

	year := time.Now().UTC().Format("2006")
	assert.Equal(t, year+"0001", order.Number)
	assert.Equal(t, orders.TypeRegular, order.OrderType)
	assert.Equal(t, status.Prepared, order.StatusCode)
	assert.Equal(t, f.customer.ID, order.CustomerID)
	assert.True(t, order.Total.IsZero())
	assert.Nil(t, order.CompletedDate)

	second := f.createOrder(t)
	assert.Equal(t, year+"0002", second.Number)
}

func TestCreate_OrphanedVehicleRejected(t *testing.T) {
	f := newEngineFixture()
	orphan := orders.NewVehicle("Honda", "CB500", "9XY 0001")
	f.vehicles.add(orphan)

	_, err := f.engine.Create(context.Background(), orders.CreateInput{VehicleID: orphan.ID})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeOrphanedVehicle))
}

func TestCreate_RejectsUnknownTypeAndTerminalStatus(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	_, err := f.engine.Create(ctx, orders.CreateInput{
		VehicleID: f.vehicle.ID,
		OrderType: "retail",
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))

	_, err = f.engine.Create(ctx, orders.CreateInput{
		VehicleID:  f.vehicle.ID,
		StatusCode: status.Paid,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
}

func TestAddLine_TotalRollUp(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	order := f.createOrder(t)

	price := dec("100.00")
	vat := dec("21")
	_, err := f.engine.AddLine(ctx, order.ID, orders.LineInput{
		Kind:       orders.LineMaterial,
		Name:       "Brake pads",
		Quantity:   dec("2"),
		UnitPrice:  &price,
		VATPercent: &vat,
	})
	require.NoError(t, err)

	laborPrice := dec("800.00")
	line, err := f.engine.AddLine(ctx, order.ID, orders.LineInput{
		Kind:       orders.LineLabor,
		Name:       "Brake service",
		Quantity:   dec("1.5"),
		UnitPrice:  &laborPrice,
		VATPercent: &vat,
	})
	require.NoError(t, err)
	assert.Equal(t, "1200", line.LineTotal.String())
	assert.Equal(t, "h", line.Unit)

	stored, err := f.engine.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "1400", stored.Total.String())
}

func TestTransition_DefaultWiring(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	order := f.createOrder(t)

	_, err := f.engine.Transition(ctx, order.ID, status.Paid, false)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeIllegalTransition))

	for _, target := range []string{status.InWork, status.Done, status.Invoiced, status.Paid} {
		updated, err := f.engine.Transition(ctx, order.ID, target, false)
		require.NoError(t, err, "transition to %s", target)
		assert.Equal(t, target, updated.StatusCode)
	}

	stored, err := f.engine.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CompletedDate, "reaching done pins the completed date")
}

func TestTransition_NotifiesCustomerOnDone(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	order := f.createOrder(t)

	_, err := f.engine.Transition(ctx, order.ID, status.InWork, false)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.sent)

	_, err = f.engine.Transition(ctx, order.ID, status.Done, false)
	require.NoError(t, err)
	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, order.Number, sent.OrderNumber)
	assert.Equal(t, status.Done, sent.StatusCode)
	assert.Equal(t, "jan.novak@example.com", sent.Email)
}

func TestTransition_NotifyFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	f.notifier.fail = errors.New("smtp unreachable")
	order := f.createOrder(t)

	_, err := f.engine.Transition(ctx, order.ID, status.InWork, false)
	require.NoError(t, err)
	updated, err := f.engine.Transition(ctx, order.ID, status.Done, false)
	require.NoError(t, err, "delivery failure must not block the transition")
	assert.Equal(t, status.Done, updated.StatusCode)
}

func TestTransition_CancelNeedsConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	order := f.createOrder(t)

	_, err := f.engine.Transition(ctx, order.ID, status.Cancelled, false)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeConfirmationRequired))

	updated, err := f.engine.Transition(ctx, order.ID, status.Cancelled, true)
	require.NoError(t, err)
	assert.Equal(t, status.Cancelled, updated.StatusCode)

	// Cancelled is terminal; nothing leaves it, not even cancel again.
	_, err = f.engine.Transition(ctx, order.ID, status.Cancelled, true)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeIllegalTransition))
}

func TestLines_FrozenInTerminalStatus(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	order := f.createOrder(t)

	price := dec("50")
	line, err := f.engine.AddLine(ctx, order.ID, orders.LineInput{
		Kind:      orders.LineExternal,
		Name:      "Alignment",
		Quantity:  dec("1"),
		UnitPrice: &price,
	})
	require.NoError(t, err)

	_, err = f.engine.Transition(ctx, order.ID, status.Cancelled, true)
	require.NoError(t, err)

	_, err = f.engine.AddLine(ctx, order.ID, orders.LineInput{
		Kind:      orders.LineExternal,
		Name:      "Tow",
		Quantity:  dec("1"),
		UnitPrice: &price,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeIntegrityViolation))

	err = f.engine.RemoveLine(ctx, line.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeIntegrityViolation))
}

func TestAddLine_MaterialDefaultsFromItem(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	order := f.createOrder(t)

	item := warehouse.NewItem("OF-010", "Oil filter")
	item.PriceSale = dec("249.00")
	item.Unit = "pcs"
	item.Quantity = dec("10")
	f.stock.addItem(7, item)

	itemID := int64(7)
	line, err := f.engine.AddLine(ctx, order.ID, orders.LineInput{
		Kind:            orders.LineMaterial,
		Quantity:        dec("2"),
		WarehouseItemID: &itemID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Oil filter", line.Name)
	assert.Equal(t, "pcs", line.Unit)
	assert.Equal(t, "249", line.UnitPrice.String())
	assert.Equal(t, "21", line.VATPercent.String())
	assert.Equal(t, "498", line.LineTotal.String())
}

func TestAddLine_LaborDefaultsFromHourlyRate(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	order := f.createOrder(t)

	line, err := f.engine.AddLine(ctx, order.ID, orders.LineInput{
		Kind:         orders.LineLabor,
		Name:         "Diagnostics",
		Quantity:     dec("0.5"),
		PositionCode: "mechanic",
	})
	require.NoError(t, err)
	assert.Equal(t, "800", line.UnitPrice.String())
	assert.Equal(t, "400", line.LineTotal.String())
}

func TestAddLine_PostIssueMovesStock(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	order := f.createOrder(t)

	item := warehouse.NewItem("OF-010", "Oil filter")
	item.PriceSale = dec("249.00")
	item.Quantity = dec("10")
	f.stock.addItem(7, item)
	itemID := int64(7)

	_, err := f.engine.AddLine(ctx, order.ID, orders.LineInput{
		Kind:            orders.LineMaterial,
		Quantity:        dec("2"),
		WarehouseItemID: &itemID,
		PostIssue:       true,
	})
	require.NoError(t, err)

	require.Len(t, f.stock.issues, 1)
	issue := f.stock.issues[0]
	assert.Equal(t, warehouse.ReasonOrder, issue.Reason)
	assert.Equal(t, order.Number, issue.DocumentNumber)
	assert.True(t, item.Quantity.Equal(dec("8")))

	// An issue the stock cannot cover fails the whole line add.
	_, err = f.engine.AddLine(ctx, order.ID, orders.LineInput{
		Kind:            orders.LineMaterial,
		Quantity:        dec("100"),
		WarehouseItemID: &itemID,
		PostIssue:       true,
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientStock))
}

func TestUpdateAndRemoveLine_RederiveTotal(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture()
	order := f.createOrder(t)

	price := dec("100")
	line, err := f.engine.AddLine(ctx, order.ID, orders.LineInput{
		Kind:      orders.LineExternal,
		Name:      "Paint",
		Quantity:  dec("1"),
		UnitPrice: &price,
	})
	require.NoError(t, err)

	line.Quantity = dec("3")
	line.LineTotal = dec("999999") // ignored, recomputed on write
	require.NoError(t, f.engine.UpdateLine(ctx, line))

	stored, err := f.engine.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "300", stored.Total.String())

	require.NoError(t, f.engine.RemoveLine(ctx, line.ID))
	stored, err = f.engine.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.IsZero())
}
