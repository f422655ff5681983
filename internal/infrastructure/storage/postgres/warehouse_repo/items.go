// Package warehouse_repo provides the PostgreSQL repositories of the
// warehouse: item master, movement ledger, alert log, categories and
// suppliers.
package warehouse_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"workshop/internal/core/apperror"
	"workshop/internal/core/types"
	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/internal/infrastructure/storage/postgres/codebook_repo"
)

const itemsTable = "warehouse_items"

// ItemRepo implements warehouse.ItemRepository. It reuses the generic
// codebook repository for the plain CRUD and layers the stock-specific
// queries on top.
type ItemRepo struct {
	*codebook_repo.Repo[*warehouse.Item]
	txm  *postgres.TxManager
	cols []string
}

// NewItemRepo creates the item repository.
func NewItemRepo(txm *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		Repo: codebook_repo.New(txm, warehouse.ItemDescriptor()),
		txm:  txm,
		cols: postgres.ExtractDBColumns[*warehouse.Item](),
	}
}

var _ warehouse.ItemRepository = (*ItemRepo)(nil)

// GetByCode retrieves one item by internal code.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*warehouse.Item, error) {
	return r.Repo.GetByKey(ctx, map[string]any{"code": code})
}

// Update rewrites the item master fields with optimistic locking. The
// cached quantity and the purchase price are ledger-owned and never
// touched by a plain update.
func (r *ItemRepo) Update(ctx context.Context, item *warehouse.Item) error {
	data := postgres.StructToMap(item)
	delete(data, "id")
	delete(data, "version")
	delete(data, "quantity")
	delete(data, "price_purchase")

	q := r.Builder().
		Update(itemsTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": item.ID}).
		Where(squirrel.Eq{"version": item.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, itemsTable, item.ID)
	}
	if result.RowsAffected() == 0 {
		return r.diagnoseZeroUpdate(ctx, item.ID)
	}

	item.Version++
	return nil
}

func (r *ItemRepo) diagnoseZeroUpdate(ctx context.Context, id int64) error {
	var one int
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		"SELECT 1 FROM warehouse_items WHERE id = $1", id).Scan(&one)
	if err == pgx.ErrNoRows {
		return apperror.NewNotFound(itemsTable, id)
	}
	if err != nil {
		return fmt.Errorf("check item existence: %w", err)
	}
	return apperror.NewConcurrentModification(itemsTable, id)
}

// List retrieves one page of items with stock-state filtering.
func (r *ItemRepo) List(ctx context.Context, filter warehouse.ItemFilter) (warehouse.ItemList, error) {
	result := warehouse.ItemList{Limit: filter.Limit, Offset: filter.Offset}

	q := r.Builder().
		Select(r.cols...).
		From(itemsTable)

	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"ean": pattern},
		})
	}
	if filter.CategoryID != nil {
		q = q.Where(squirrel.Eq{"category_id": *filter.CategoryID})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	switch filter.StockState {
	case warehouse.StockBelowMin:
		q = q.Where("quantity < min_quantity")
	case warehouse.StockAtOrAboveMin:
		q = q.Where("quantity >= min_quantity")
	case warehouse.StockIsZero:
		q = q.Where("quantity = 0")
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count items: %w", err)
	}

	orderBy, err := parseItemOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list items: %w", err)
	}
	return result, nil
}

var itemOrderColumns = map[string]struct{}{
	"name":           {},
	"code":           {},
	"price_purchase": {},
	"price_sale":     {},
	"quantity":       {},
}

func parseItemOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "name ASC", nil
	}

	direction := "ASC"
	field := orderBy
	switch orderBy[0] {
	case '-':
		direction = "DESC"
		field = orderBy[1:]
	case '+':
		field = orderBy[1:]
	}

	if _, ok := itemOrderColumns[field]; !ok {
		return "", apperror.NewInvalidInput("invalid orderBy").
			WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}

// UpdateStock writes the cached on-hand quantity and, optionally, the
// purchase price. Runs inside the ledger's transaction; the version bump
// keeps concurrent master edits honest.
func (r *ItemRepo) UpdateStock(ctx context.Context, id int64, quantity types.Quantity, price *types.Money) error {
	q := r.Builder().
		Update(itemsTable).
		Set("quantity", quantity).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": id})
	if price != nil {
		q = q.Set("price_purchase", *price)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build stock update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, itemsTable, id)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(itemsTable, id)
	}
	return nil
}

// BelowAlertThreshold returns active items under quantity < min_quantity * 1.5,
// the alert engine's candidate set.
func (r *ItemRepo) BelowAlertThreshold(ctx context.Context) ([]*warehouse.Item, error) {
	q := r.Builder().
		Select(r.cols...).
		From(itemsTable).
		Where(squirrel.Eq{"active": true}).
		Where("quantity < min_quantity * 1.5").
		OrderBy("code ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*warehouse.Item
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("scan alert candidates: %w", err)
	}
	return items, nil
}

// HasMovements reports whether any ledger row references the item.
func (r *ItemRepo) HasMovements(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		"SELECT 1 FROM warehouse_movements WHERE item_id = $1 LIMIT 1", id).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check movements: %w", err)
	}
	return true, nil
}
