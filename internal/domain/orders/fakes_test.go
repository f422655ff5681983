package orders_test

import (
	"context"
	"strings"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebooks/status"
	"workshop/internal/domain/orders"
	"workshop/internal/domain/warehouse"

	"github.com/shopspring/decimal"
)

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (nopTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCustomerRepo struct {
	nextID int64
	rows   map[int64]*orders.Customer
	orders *fakeOrderRepo
}

func newFakeCustomerRepo(ordersRepo *fakeOrderRepo) *fakeCustomerRepo {
	return &fakeCustomerRepo{rows: make(map[int64]*orders.Customer), orders: ordersRepo}
}

func (r *fakeCustomerRepo) add(c *orders.Customer) *orders.Customer {
	r.nextID++
	c.ID = r.nextID
	r.rows[c.ID] = c
	return c
}

func (r *fakeCustomerRepo) List(ctx context.Context, f orders.CustomerFilter) ([]*orders.Customer, int64, error) {
	var out []*orders.Customer
	for _, c := range r.rows {
		if f.ActiveOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, id int64) (*orders.Customer, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("customer", id)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCustomerRepo) Create(ctx context.Context, c *orders.Customer) error {
	r.add(c)
	return nil
}

func (r *fakeCustomerRepo) Update(ctx context.Context, c *orders.Customer) error {
	if _, ok := r.rows[c.ID]; !ok {
		return apperror.NewNotFound("customer", c.ID)
	}
	copied := *c
	r.rows[c.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return apperror.NewNotFound("customer", id)
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeCustomerRepo) HasOrders(ctx context.Context, id int64) (bool, error) {
	for _, o := range r.orders.rows {
		if o.CustomerID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeVehicleRepo struct {
	nextID int64
	rows   map[int64]*orders.Vehicle
	orders *fakeOrderRepo
}

func newFakeVehicleRepo(ordersRepo *fakeOrderRepo) *fakeVehicleRepo {
	return &fakeVehicleRepo{rows: make(map[int64]*orders.Vehicle), orders: ordersRepo}
}

func (r *fakeVehicleRepo) add(v *orders.Vehicle) *orders.Vehicle {
	r.nextID++
	v.ID = r.nextID
	r.rows[v.ID] = v
	return v
}

func (r *fakeVehicleRepo) List(ctx context.Context, f orders.VehicleFilter) ([]*orders.Vehicle, int64, error) {
	var out []*orders.Vehicle
	for _, v := range r.rows {
		if f.OrphanedOnly && !v.IsOrphaned() {
			continue
		}
		out = append(out, v)
	}
	return out, int64(len(out)), nil
}

func (r *fakeVehicleRepo) GetByID(ctx context.Context, id int64) (*orders.Vehicle, error) {
	v, ok := r.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("vehicle", id)
	}
	copied := *v
	return &copied, nil
}

func (r *fakeVehicleRepo) GetByPlate(ctx context.Context, plate string) (*orders.Vehicle, error) {
	for _, v := range r.rows {
		if v.LicensePlate == plate {
			copied := *v
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("vehicle", plate)
}

func (r *fakeVehicleRepo) Create(ctx context.Context, v *orders.Vehicle) error {
	for _, existing := range r.rows {
		if existing.LicensePlate == v.LicensePlate {
			return apperror.NewDuplicateKey("vehicle", "license_plate", v.LicensePlate)
		}
	}
	r.add(v)
	return nil
}

func (r *fakeVehicleRepo) Update(ctx context.Context, v *orders.Vehicle) error {
	if _, ok := r.rows[v.ID]; !ok {
		return apperror.NewNotFound("vehicle", v.ID)
	}
	copied := *v
	r.rows[v.ID] = &copied
	return nil
}

func (r *fakeVehicleRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return apperror.NewNotFound("vehicle", id)
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeVehicleRepo) HasOrders(ctx context.Context, id int64) (bool, error) {
	for _, o := range r.orders.rows {
		if o.VehicleID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeOrderRepo struct {
	nextID int64
	rows   map[int64]*orders.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{rows: make(map[int64]*orders.Order)}
}

func (r *fakeOrderRepo) List(ctx context.Context, f orders.OrderFilter) (orders.OrderList, error) {
	var out []*orders.Order
	for _, o := range r.rows {
		if f.StatusCode != "" && o.StatusCode != f.StatusCode {
			continue
		}
		if f.OrderType != "" && o.OrderType != f.OrderType {
			continue
		}
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.Search != "" && !strings.Contains(o.Number+o.Note, f.Search) {
			continue
		}
		copied := *o
		out = append(out, &copied)
	}
	return orders.OrderList{Orders: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id int64) (*orders.Order, error) {
	o, ok := r.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("order", id)
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderRepo) GetByNumber(ctx context.Context, number string) (*orders.Order, error) {
	for _, o := range r.rows {
		if o.Number == number {
			copied := *o
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("order", number)
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *orders.Order) error {
	for _, existing := range r.rows {
		if existing.Number == o.Number {
			return apperror.NewDuplicateKey("order", "number", o.Number)
		}
	}
	r.nextID++
	o.ID = r.nextID
	copied := *o
	r.rows[o.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, o *orders.Order) error {
	if _, ok := r.rows[o.ID]; !ok {
		return apperror.NewNotFound("order", o.ID)
	}
	copied := *o
	r.rows[o.ID] = &copied
	return nil
}

type fakeLineRepo struct {
	nextID int64
	rows   []*orders.Line
}

func newFakeLineRepo() *fakeLineRepo {
	return &fakeLineRepo{}
}

func (r *fakeLineRepo) ListByOrder(ctx context.Context, orderID int64) ([]*orders.Line, error) {
	var out []*orders.Line
	for _, l := range r.rows {
		if l.OrderID == orderID {
			copied := *l
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeLineRepo) GetByID(ctx context.Context, id int64) (*orders.Line, error) {
	for _, l := range r.rows {
		if l.ID == id {
			copied := *l
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("order_item", id)
}

func (r *fakeLineRepo) Insert(ctx context.Context, l *orders.Line) error {
	r.nextID++
	l.ID = r.nextID
	copied := *l
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *fakeLineRepo) Update(ctx context.Context, l *orders.Line) error {
	for i, existing := range r.rows {
		if existing.ID == l.ID {
			copied := *l
			r.rows[i] = &copied
			return nil
		}
	}
	return apperror.NewNotFound("order_item", l.ID)
}

func (r *fakeLineRepo) Delete(ctx context.Context, id int64) error {
	for i, existing := range r.rows {
		if existing.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("order_item", id)
}

// fakeStatusDir serves the seeded default status wiring from memory.
type fakeStatusDir struct {
	byCode map[string]*status.Status
}

func newFakeStatusDir() *fakeStatusDir {
	d := &fakeStatusDir{byCode: make(map[string]*status.Status)}
	for _, s := range status.Descriptor().Seed() {
		d.byCode[s.Code] = s
	}
	return d
}

func (d *fakeStatusDir) Get(ctx context.Context, code string) (*status.Status, error) {
	s, ok := d.byCode[code]
	if !ok {
		return nil, apperror.NewNotFound("order_status", code)
	}
	return s, nil
}

func (d *fakeStatusDir) Initial(ctx context.Context) (*status.Status, error) {
	return d.Get(ctx, status.Prepared)
}

type fakeVATSource struct {
	percent decimal.Decimal
}

func (f fakeVATSource) DefaultPercent(ctx context.Context, on types.Date) (types.Money, error) {
	return f.percent, nil
}

type fakeLaborSource struct {
	net decimal.Decimal
}

func (f fakeLaborSource) NetRateOn(ctx context.Context, positionCode string, on types.Date) (types.Money, error) {
	return f.net, nil
}

// fakeStock records issues against a small in-memory item master.
type fakeStock struct {
	items  map[int64]*warehouse.Item
	issues []warehouse.IssueInput
}

func newFakeStock() *fakeStock {
	return &fakeStock{items: make(map[int64]*warehouse.Item)}
}

func (f *fakeStock) addItem(id int64, item *warehouse.Item) *warehouse.Item {
	item.ID = id
	f.items[id] = item
	return item
}

func (f *fakeStock) GetItem(ctx context.Context, id int64) (*warehouse.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperror.NewNotFound("warehouse_item", id)
	}
	return item, nil
}

func (f *fakeStock) Issue(ctx context.Context, in warehouse.IssueInput) (*warehouse.MovementResult, error) {
	item, ok := f.items[in.ItemID]
	if !ok {
		return nil, apperror.NewNotFound("warehouse_item", in.ItemID)
	}
	newQty := item.Quantity.Sub(in.Quantity)
	if newQty.IsNegative() && !in.Force {
		return nil, apperror.NewInsufficientStock(item.ID, in.Quantity.String(), item.Quantity.String())
	}
	item.Quantity = newQty
	f.issues = append(f.issues, in)
	return &warehouse.MovementResult{OnHand: newQty}, nil
}

type fakeNotifier struct {
	sent []orders.StatusNotification
	fail error
}

func (f *fakeNotifier) OrderStatusChanged(ctx context.Context, n orders.StatusNotification) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, n)
	return nil
}
