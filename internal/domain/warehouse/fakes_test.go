package warehouse_test

import (
	"context"
	"sort"
	"strings"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/warehouse"
)

// nopTx satisfies tx.Manager without a database.
type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (nopTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeItemRepo is an in-memory warehouse.ItemRepository.
type fakeItemRepo struct {
	nextID    int64
	items     map[int64]*warehouse.Item
	movements *fakeMovementRepo
}

func newFakeItemRepo(movements *fakeMovementRepo) *fakeItemRepo {
	return &fakeItemRepo{items: make(map[int64]*warehouse.Item), movements: movements}
}

func (r *fakeItemRepo) add(item *warehouse.Item) *warehouse.Item {
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = item
	return item
}

func (r *fakeItemRepo) List(ctx context.Context, f warehouse.ItemFilter) (warehouse.ItemList, error) {
	var out []*warehouse.Item
	for _, item := range r.sorted() {
		if f.ActiveOnly && !item.Active {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(item.Name+item.Code+item.EAN), strings.ToLower(f.Search)) {
			continue
		}
		switch f.StockState {
		case warehouse.StockBelowMin:
			if !item.Quantity.LessThan(item.MinQuantity) {
				continue
			}
		case warehouse.StockAtOrAboveMin:
			if item.Quantity.LessThan(item.MinQuantity) {
				continue
			}
		case warehouse.StockIsZero:
			if !item.Quantity.IsZero() {
				continue
			}
		}
		out = append(out, item)
	}
	return warehouse.ItemList{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeItemRepo) GetByID(ctx context.Context, id int64) (*warehouse.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, apperror.NewNotFound("warehouse_item", id)
	}
	copied := *item
	return &copied, nil
}

func (r *fakeItemRepo) GetByCode(ctx context.Context, code string) (*warehouse.Item, error) {
	for _, item := range r.items {
		if item.Code == code {
			copied := *item
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse_item", code)
}

func (r *fakeItemRepo) Create(ctx context.Context, item *warehouse.Item) error {
	for _, existing := range r.items {
		if existing.Code == item.Code {
			return apperror.NewDuplicateKey("warehouse_item", "code", item.Code)
		}
	}
	r.add(item)
	return nil
}

func (r *fakeItemRepo) Update(ctx context.Context, item *warehouse.Item) error {
	stored, ok := r.items[item.ID]
	if !ok {
		return apperror.NewNotFound("warehouse_item", item.ID)
	}
	// Stock and purchase price are ledger-owned.
	copied := *item
	copied.Quantity = stored.Quantity
	copied.PricePurchase = stored.PricePurchase
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeItemRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return apperror.NewNotFound("warehouse_item", id)
	}
	delete(r.items, id)
	return nil
}

func (r *fakeItemRepo) UpdateStock(ctx context.Context, id int64, qty types.Quantity, price *types.Money) error {
	item, ok := r.items[id]
	if !ok {
		return apperror.NewNotFound("warehouse_item", id)
	}
	item.Quantity = qty
	if price != nil {
		item.PricePurchase = *price
	}
	return nil
}

func (r *fakeItemRepo) BelowAlertThreshold(ctx context.Context) ([]*warehouse.Item, error) {
	var out []*warehouse.Item
	for _, item := range r.sorted() {
		if !item.Active {
			continue
		}
		state := item.StockState()
		if state == warehouse.StockOK {
			continue
		}
		if state == warehouse.StockZero && !item.MinQuantity.IsPositive() {
			continue
		}
		copied := *item
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeItemRepo) HasMovements(ctx context.Context, id int64) (bool, error) {
	for _, m := range r.movements.rows {
		if m.ItemID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeItemRepo) sorted() []*warehouse.Item {
	ids := make([]int64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*warehouse.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id])
	}
	return out
}

// fakeMovementRepo is an in-memory warehouse.MovementRepository.
type fakeMovementRepo struct {
	nextID int64
	rows   []*warehouse.Movement
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{}
}

func (r *fakeMovementRepo) Insert(ctx context.Context, m *warehouse.Movement) error {
	r.nextID++
	m.ID = r.nextID
	copied := *m
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *fakeMovementRepo) GetByID(ctx context.Context, id int64) (*warehouse.Movement, error) {
	for _, m := range r.rows {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse_movement", id)
}

func (r *fakeMovementRepo) MarkReversed(ctx context.Context, id int64, noteSuffix string) error {
	for _, m := range r.rows {
		if m.ID == id {
			m.Kind = warehouse.MovementReversal
			m.Note += noteSuffix
			return nil
		}
	}
	return apperror.NewNotFound("warehouse_movement", id)
}

func (r *fakeMovementRepo) ListByItem(ctx context.Context, itemID int64, limit int) ([]*warehouse.Movement, error) {
	var out []*warehouse.Movement
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].ItemID != itemID {
			continue
		}
		copied := *r.rows[i]
		out = append(out, &copied)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeAlertRepo is an in-memory warehouse.AlertRepository with the same
// (item, severity, date) dedup the unique index provides.
type fakeAlertRepo struct {
	nextID int64
	rows   []*warehouse.Alert
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{}
}

func (r *fakeAlertRepo) InsertDaily(ctx context.Context, a *warehouse.Alert) (bool, error) {
	for _, existing := range r.rows {
		if existing.ItemID == a.ItemID && existing.Severity == a.Severity &&
			existing.AlertDate.Equal(a.AlertDate.Time) {
			return false, nil
		}
	}
	r.nextID++
	a.ID = r.nextID
	copied := *a
	r.rows = append(r.rows, &copied)
	return true, nil
}

func (r *fakeAlertRepo) ListForDate(ctx context.Context, date types.Date) ([]*warehouse.Alert, error) {
	var out []*warehouse.Alert
	for _, a := range r.rows {
		if a.AlertDate.Equal(date.Time) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

// fakeCategoryRepo is an in-memory warehouse.CategoryRepository.
type fakeCategoryRepo struct {
	nextID int64
	rows   map[int64]*warehouse.Category
	items  *fakeItemRepo
}

func newFakeCategoryRepo(items *fakeItemRepo) *fakeCategoryRepo {
	return &fakeCategoryRepo{rows: make(map[int64]*warehouse.Category), items: items}
}

func (r *fakeCategoryRepo) All(ctx context.Context) ([]*warehouse.Category, error) {
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*warehouse.Category, 0, len(ids))
	for _, id := range ids {
		copied := *r.rows[id]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id int64) (*warehouse.Category, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("warehouse_category", id)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCategoryRepo) Create(ctx context.Context, c *warehouse.Category) error {
	r.nextID++
	c.ID = r.nextID
	copied := *c
	r.rows[c.ID] = &copied
	return nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, c *warehouse.Category) error {
	if _, ok := r.rows[c.ID]; !ok {
		return apperror.NewNotFound("warehouse_category", c.ID)
	}
	copied := *c
	r.rows[c.ID] = &copied
	return nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return apperror.NewNotFound("warehouse_category", id)
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeCategoryRepo) ReassignChildren(ctx context.Context, from int64, to *int64) error {
	for _, c := range r.rows {
		if c.ParentID != nil && *c.ParentID == from {
			c.ParentID = to
		}
	}
	return nil
}

func (r *fakeCategoryRepo) DetachItems(ctx context.Context, categoryID int64) error {
	for _, item := range r.items.items {
		if item.CategoryID != nil && *item.CategoryID == categoryID {
			item.CategoryID = nil
		}
	}
	return nil
}

func (r *fakeCategoryRepo) HasChildren(ctx context.Context, id int64) (bool, error) {
	for _, c := range r.rows {
		if c.ParentID != nil && *c.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCategoryRepo) HasItems(ctx context.Context, id int64) (bool, error) {
	for _, item := range r.items.items {
		if item.CategoryID != nil && *item.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}

// fakeSupplierRepo is an in-memory warehouse.SupplierRepository.
type fakeSupplierRepo struct {
	nextID int64
	rows   map[int64]*warehouse.Supplier
	items  *fakeItemRepo
}

func newFakeSupplierRepo(items *fakeItemRepo) *fakeSupplierRepo {
	return &fakeSupplierRepo{rows: make(map[int64]*warehouse.Supplier), items: items}
}

func (r *fakeSupplierRepo) List(ctx context.Context, f warehouse.SupplierFilter) ([]*warehouse.Supplier, int64, error) {
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []*warehouse.Supplier
	for _, id := range ids {
		copied := *r.rows[id]
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSupplierRepo) GetByID(ctx context.Context, id int64) (*warehouse.Supplier, error) {
	s, ok := r.rows[id]
	if !ok {
		return nil, apperror.NewNotFound("supplier", id)
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSupplierRepo) Create(ctx context.Context, s *warehouse.Supplier) error {
	r.nextID++
	s.ID = r.nextID
	copied := *s
	r.rows[s.ID] = &copied
	return nil
}

func (r *fakeSupplierRepo) Update(ctx context.Context, s *warehouse.Supplier) error {
	if _, ok := r.rows[s.ID]; !ok {
		return apperror.NewNotFound("supplier", s.ID)
	}
	copied := *s
	r.rows[s.ID] = &copied
	return nil
}

func (r *fakeSupplierRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return apperror.NewNotFound("supplier", id)
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeSupplierRepo) HasItems(ctx context.Context, id int64) (bool, error) {
	for _, item := range r.items.items {
		if item.SupplierID != nil && *item.SupplierID == id {
			return true, nil
		}
	}
	return false, nil
}
