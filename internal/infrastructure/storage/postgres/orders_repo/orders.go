package orders_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/orders"
	"workshop/internal/infrastructure/storage/postgres"
)

const ordersTable = "orders"

// OrderRepo implements orders.OrderRepository.
type OrderRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewOrderRepo creates the order header repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[*orders.Order](),
	}
}

var _ orders.OrderRepository = (*OrderRepo)(nil)

// List returns one page of orders plus the unpaginated total, newest first.
func (r *OrderRepo) List(ctx context.Context, filter orders.OrderFilter) (orders.OrderList, error) {
	q := builder().
		Select(r.cols...).
		From(ordersTable)

	if filter.StatusCode != "" {
		q = q.Where(squirrel.Eq{"status_code": filter.StatusCode})
	}
	if filter.OrderType != "" {
		q = q.Where(squirrel.Eq{"order_type": filter.OrderType})
	}
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.VehicleID != nil {
		q = q.Where(squirrel.Eq{"vehicle_id": *filter.VehicleID})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_date": *filter.To})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"note": pattern},
		})
	}

	countQ := builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return orders.OrderList{}, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return orders.OrderList{}, fmt.Errorf("count orders: %w", err)
	}

	q = q.OrderBy("created_date DESC, number DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return orders.OrderList{}, fmt.Errorf("build query: %w", err)
	}

	var out []*orders.Order
	if err := pgxscan.Select(ctx, querier, &out, sql, args...); err != nil {
		return orders.OrderList{}, fmt.Errorf("list orders: %w", err)
	}

	return orders.OrderList{
		Orders:     out,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// GetByID retrieves one order header.
func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*orders.Order, error) {
	q := builder().
		Select(r.cols...).
		From(ordersTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	o := &orders.Order{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(ordersTable, id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// GetByNumber retrieves one order header by its public number.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*orders.Order, error) {
	q := builder().
		Select(r.cols...).
		From(ordersTable).
		Where(squirrel.Eq{"number": number})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	o := &orders.Order{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(ordersTable, number)
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}
	return o, nil
}

// Create inserts an order header and syncs the generated id.
func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	data := postgres.StructToMap(o)
	delete(data, "id")

	q := builder().
		Insert(ordersTable).
		SetMap(data).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&o.ID); err != nil {
		return postgres.TranslateError(err, ordersTable, o.Number)
	}
	return nil
}

// Update rewrites an order header with optimistic locking.
func (r *OrderRepo) Update(ctx context.Context, o *orders.Order) error {
	data := postgres.StructToMap(o)
	delete(data, "id")
	delete(data, "version")

	q := builder().
		Update(ordersTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": o.ID}).
		Where(squirrel.Eq{"version": o.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, ordersTable, o.ID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(ordersTable, o.ID)
	}

	o.Version++
	return nil
}
