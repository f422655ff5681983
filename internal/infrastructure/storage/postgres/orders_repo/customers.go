// Package orders_repo provides the PostgreSQL repositories of the order
// engine: customers, vehicles, order headers and line items.
package orders_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/orders"
	"workshop/internal/infrastructure/storage/postgres"
)

const customersTable = "customers"

// CustomerRepo implements orders.CustomerRepository.
type CustomerRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewCustomerRepo creates the customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[*orders.Customer](),
	}
}

var _ orders.CustomerRepository = (*CustomerRepo)(nil)

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func exists(ctx context.Context, txm *postgres.TxManager, sql string, args ...any) (bool, error) {
	var one int
	err := txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return true, nil
}

// List returns one page of customers and the unpaginated total.
func (r *CustomerRepo) List(ctx context.Context, filter orders.CustomerFilter) ([]*orders.Customer, int64, error) {
	q := builder().
		Select(r.cols...).
		From(customersTable)

	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	if filter.GroupID != nil {
		q = q.Where(squirrel.Eq{"group_id": *filter.GroupID})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"first_name": pattern},
			squirrel.ILike{"last_name": pattern},
			squirrel.ILike{"company_name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"phone": pattern},
		})
	}

	countQ := builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	q = q.OrderBy("last_name ASC, company_name ASC, id ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var out []*orders.Customer
	if err := pgxscan.Select(ctx, querier, &out, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return out, total, nil
}

// GetByID retrieves one customer.
func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*orders.Customer, error) {
	q := builder().
		Select(r.cols...).
		From(customersTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	c := &orders.Customer{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(customersTable, id)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// Create inserts a customer and syncs the generated id.
func (r *CustomerRepo) Create(ctx context.Context, c *orders.Customer) error {
	data := postgres.StructToMap(c)
	delete(data, "id")

	q := builder().
		Insert(customersTable).
		SetMap(data).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		return postgres.TranslateError(err, customersTable, c.DisplayName())
	}
	return nil
}

// Update rewrites a customer with optimistic locking.
func (r *CustomerRepo) Update(ctx context.Context, c *orders.Customer) error {
	data := postgres.StructToMap(c)
	delete(data, "id")
	delete(data, "version")

	q := builder().
		Update(customersTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": c.ID}).
		Where(squirrel.Eq{"version": c.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, customersTable, c.ID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(customersTable, c.ID)
	}

	c.Version++
	return nil
}

// Delete removes a customer row.
func (r *CustomerRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.txm.GetQuerier(ctx).Exec(ctx,
		"DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return postgres.TranslateError(err, customersTable, id)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(customersTable, id)
	}
	return nil
}

// HasOrders reports whether any order references the customer.
func (r *CustomerRepo) HasOrders(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.txm, "SELECT 1 FROM orders WHERE customer_id = $1 LIMIT 1", id)
}
