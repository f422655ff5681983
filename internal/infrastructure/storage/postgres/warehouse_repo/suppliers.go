package warehouse_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/storage/postgres"
)

const suppliersTable = "suppliers"

// SupplierRepo implements warehouse.SupplierRepository.
type SupplierRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewSupplierRepo creates the supplier repository.
func NewSupplierRepo(txm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[*warehouse.Supplier](),
	}
}

var _ warehouse.SupplierRepository = (*SupplierRepo)(nil)

func (r *SupplierRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// List returns one page of suppliers and the unpaginated total.
func (r *SupplierRepo) List(ctx context.Context, filter warehouse.SupplierFilter) ([]*warehouse.Supplier, int64, error) {
	q := r.builder().
		Select(r.cols...).
		From(suppliersTable)

	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"contact_person": pattern},
			squirrel.ILike{"email": pattern},
		})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppliers: %w", err)
	}

	q = q.OrderBy("name ASC")
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

	var out []*warehouse.Supplier
	if err := pgxscan.Select(ctx, querier, &out, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list suppliers: %w", err)
	}
	return out, total, nil
}

// GetByID retrieves one supplier.
func (r *SupplierRepo) GetByID(ctx context.Context, id int64) (*warehouse.Supplier, error) {
	q := r.builder().
		Select(r.cols...).
		From(suppliersTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	s := &warehouse.Supplier{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(suppliersTable, id)
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return s, nil
}

// Create inserts a supplier and syncs the generated id.
func (r *SupplierRepo) Create(ctx context.Context, s *warehouse.Supplier) error {
	data := postgres.StructToMap(s)
	delete(data, "id")

	q := r.builder().
		Insert(suppliersTable).
		SetMap(data).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&s.ID); err != nil {
		return postgres.TranslateError(err, suppliersTable, s.Name)
	}
	return nil
}

// Update rewrites a supplier with optimistic locking.
func (r *SupplierRepo) Update(ctx context.Context, s *warehouse.Supplier) error {
	data := postgres.StructToMap(s)
	delete(data, "id")
	delete(data, "version")

	q := r.builder().
		Update(suppliersTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": s.ID}).
		Where(squirrel.Eq{"version": s.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, suppliersTable, s.ID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(suppliersTable, s.ID)
	}

	s.Version++
	return nil
}

// Delete removes a supplier row.
func (r *SupplierRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.txm.GetQuerier(ctx).Exec(ctx,
		"DELETE FROM suppliers WHERE id = $1", id)
	if err != nil {
		return postgres.TranslateError(err, suppliersTable, id)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(suppliersTable, id)
	}
	return nil
}

// HasItems reports whether any item references the supplier.
func (r *SupplierRepo) HasItems(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		"SELECT 1 FROM warehouse_items WHERE supplier_id = $1 LIMIT 1", id).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check supplier items: %w", err)
	}
	return true, nil
}
