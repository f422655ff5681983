// Package reports_repo runs the report queries against PostgreSQL. The
// streaming methods walk pgx result sets row by row and hand each row to
// the caller's callback, so large reports never buffer fully in memory.
package reports_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"workshop/internal/domain/orders"
	"workshop/internal/domain/reports"
	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/storage/postgres"
)

// Repo implements reports.Repository.
type Repo struct {
	txm *postgres.TxManager
}

// New creates the report repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

var _ reports.Repository = (*Repo)(nil)

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// BelowMinimum streams active items with on-hand under their minimum,
// joined with supplier contact.
func (r *Repo) BelowMinimum(ctx context.Context, fn func(reports.BelowMinimumRow) error) error {
	q := builder().
		Select(
			"i.id", "i.code", "i.name", "i.quantity", "i.min_quantity", "i.unit",
			"COALESCE(s.name, '')",
			"COALESCE(s.email, '')",
			"COALESCE(s.phone, '')",
		).
		From("warehouse_items i").
		LeftJoin("suppliers s ON s.id = i.supplier_id").
		Where(squirrel.Eq{"i.active": true}).
		Where("i.quantity < i.min_quantity").
		OrderBy("i.code ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query below-minimum items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row reports.BelowMinimumRow
		if err := rows.Scan(
			&row.ItemID, &row.Code, &row.Name, &row.Quantity, &row.MinQuantity, &row.Unit,
			&row.SupplierName, &row.SupplierMail, &row.SupplierTel,
		); err != nil {
			return fmt.Errorf("scan below-minimum row: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// IssueValues aggregates the value of issued stock per item over the
// period, sorted by value descending. Issue rows carry negative
// quantities, so the value is negated back to positive.
func (r *Repo) IssueValues(ctx context.Context, period reports.Period) ([]reports.IssueValue, error) {
	q := builder().
		Select(
			"i.id AS item_id",
			"i.code",
			"i.name",
			"COALESCE(SUM(-m.quantity * m.unit_price), 0) AS value",
		).
		From("warehouse_movements m").
		Join("warehouse_items i ON i.id = m.item_id").
		Where(squirrel.Eq{"m.kind": warehouse.MovementIssue}).
		Where(squirrel.GtOrEq{"m.moved_at::date": period.From}).
		Where(squirrel.LtOrEq{"m.moved_at::date": period.To}).
		GroupBy("i.id", "i.code", "i.name").
		OrderBy("value DESC, i.code ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []reports.IssueValue
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("aggregate issue values: %w", err)
	}
	return out, nil
}

// MovementHistory streams ledger rows matching the filter, newest first.
func (r *Repo) MovementHistory(ctx context.Context, filter reports.MovementFilter, fn func(reports.MovementRow) error) error {
	q := builder().
		Select(
			"m.id", "i.code", "i.name", "m.kind", "m.quantity", "m.unit_price",
			"m.reason", "m.document_number", "m.moved_at", "m.note", "m.operator",
		).
		From("warehouse_movements m").
		Join("warehouse_items i ON i.id = m.item_id")

	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"m.moved_at::date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"m.moved_at::date": *filter.To})
	}
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"m.kind": filter.Kind})
	}
	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"m.item_id": *filter.ItemID})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"i.supplier_id": *filter.SupplierID})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"m.note": pattern},
			squirrel.ILike{"m.document_number": pattern},
		})
	}

	q = q.OrderBy("m.moved_at DESC, m.id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query movement history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row reports.MovementRow
		if err := rows.Scan(
			&row.MovementID, &row.ItemCode, &row.ItemName, &row.Kind, &row.Quantity,
			&row.UnitPrice, &row.Reason, &row.Document, &row.MovedAt, &row.Note, &row.Operator,
		); err != nil {
			return fmt.Errorf("scan movement row: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// PriceList streams active sellable items grouped under their category
// heading. Uncategorized items sort last.
func (r *Repo) PriceList(ctx context.Context, categoryID *int64, fn func(reports.PriceListRow) error) error {
	q := builder().
		Select(
			"i.category_id",
			"COALESCE(c.name, '')",
			"i.code", "i.name", "i.unit", "i.price_sale",
		).
		From("warehouse_items i").
		LeftJoin("warehouse_categories c ON c.id = i.category_id").
		Where(squirrel.Eq{"i.active": true}).
		OrderBy("c.name ASC NULLS LAST", "i.name ASC")

	if categoryID != nil {
		q = q.Where(squirrel.Eq{"i.category_id": *categoryID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query price list: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row reports.PriceListRow
		if err := rows.Scan(
			&row.CategoryID, &row.CategoryName, &row.Code, &row.Name, &row.Unit, &row.PriceSale,
		); err != nil {
			return fmt.Errorf("scan price list row: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// OrderHistory streams orders matching the filter joined with their
// parties, newest first.
func (r *Repo) OrderHistory(ctx context.Context, filter orders.OrderFilter, fn func(reports.OrderRow) error) error {
	q := builder().
		Select(
			"o.id", "o.number", "o.order_type", "o.status_code",
			"TRIM(c.first_name || ' ' || c.last_name)",
			"c.company_name",
			"v.license_plate",
			"o.created_date", "o.completed_date", "o.total",
		).
		From("orders o").
		Join("customers c ON c.id = o.customer_id").
		Join("vehicles v ON v.id = o.vehicle_id")

	if filter.StatusCode != "" {
		q = q.Where(squirrel.Eq{"o.status_code": filter.StatusCode})
	}
	if filter.OrderType != "" {
		q = q.Where(squirrel.Eq{"o.order_type": filter.OrderType})
	}
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"o.customer_id": *filter.CustomerID})
	}
	if filter.VehicleID != nil {
		q = q.Where(squirrel.Eq{"o.vehicle_id": *filter.VehicleID})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"o.created_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"o.created_date": *filter.To})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"o.number": pattern},
			squirrel.ILike{"o.note": pattern},
		})
	}

	q = q.OrderBy("o.created_date DESC, o.number DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query order history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row reports.OrderRow
		var personName, companyName string
		if err := rows.Scan(
			&row.OrderID, &row.Number, &row.OrderType, &row.StatusCode,
			&personName, &companyName,
			&row.LicensePlate,
			&row.CreatedDate, &row.CompletedDate, &row.Total,
		); err != nil {
			return fmt.Errorf("scan order row: %w", err)
		}
		row.CustomerName = personName
		if companyName != "" {
			row.CustomerName = companyName
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}
