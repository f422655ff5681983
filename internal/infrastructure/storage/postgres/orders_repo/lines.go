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

const linesTable = "order_items"

// LineRepo implements orders.LineRepository.
type LineRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewLineRepo creates the order line repository.
func NewLineRepo(txm *postgres.TxManager) *LineRepo {
	return &LineRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[*orders.Line](),
	}
}

var _ orders.LineRepository = (*LineRepo)(nil)

// ListByOrder returns an order's lines in insertion order.
func (r *LineRepo) ListByOrder(ctx context.Context, orderID int64) ([]*orders.Line, error) {
	q := builder().
		Select(r.cols...).
		From(linesTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*orders.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	return out, nil
}

// GetByID retrieves one line.
func (r *LineRepo) GetByID(ctx context.Context, id int64) (*orders.Line, error) {
	q := builder().
		Select(r.cols...).
		From(linesTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	l := &orders.Line{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(linesTable, id)
		}
		return nil, fmt.Errorf("get order line: %w", err)
	}
	return l, nil
}

// Insert appends one line and syncs the generated id.
func (r *LineRepo) Insert(ctx context.Context, l *orders.Line) error {
	data := postgres.StructToMap(l)
	delete(data, "id")

	q := builder().
		Insert(linesTable).
		SetMap(data).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&l.ID); err != nil {
		return postgres.TranslateError(err, linesTable, l.OrderID)
	}
	return nil
}

// Update rewrites a line with optimistic locking.
func (r *LineRepo) Update(ctx context.Context, l *orders.Line) error {
	data := postgres.StructToMap(l)
	delete(data, "id")
	delete(data, "version")

	q := builder().
		Update(linesTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": l.ID}).
		Where(squirrel.Eq{"version": l.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, linesTable, l.ID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(linesTable, l.ID)
	}

	l.Version++
	return nil
}

// Delete removes a line row.
func (r *LineRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.txm.GetQuerier(ctx).Exec(ctx,
		"DELETE FROM order_items WHERE id = $1", id)
	if err != nil {
		return postgres.TranslateError(err, linesTable, id)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(linesTable, id)
	}
	return nil
}
