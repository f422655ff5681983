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

const categoriesTable = "warehouse_categories"

// CategoryRepo implements warehouse.CategoryRepository.
type CategoryRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewCategoryRepo creates the category repository.
func NewCategoryRepo(txm *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[*warehouse.Category](),
	}
}

var _ warehouse.CategoryRepository = (*CategoryRepo)(nil)

func (r *CategoryRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// All returns the whole tree, parents before children by id order.
func (r *CategoryRepo) All(ctx context.Context) ([]*warehouse.Category, error) {
	q := r.builder().
		Select(r.cols...).
		From(categoriesTable).
		OrderBy("name ASC, id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*warehouse.Category
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// GetByID retrieves one category.
func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*warehouse.Category, error) {
	q := r.builder().
		Select(r.cols...).
		From(categoriesTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	c := &warehouse.Category{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(categoriesTable, id)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Create inserts a category and syncs the generated id.
func (r *CategoryRepo) Create(ctx context.Context, c *warehouse.Category) error {
	data := postgres.StructToMap(c)
	delete(data, "id")

	q := r.builder().
		Insert(categoriesTable).
		SetMap(data).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		return postgres.TranslateError(err, categoriesTable, c.Name)
	}
	return nil
}

// Update rewrites a category with optimistic locking.
func (r *CategoryRepo) Update(ctx context.Context, c *warehouse.Category) error {
	data := postgres.StructToMap(c)
	delete(data, "id")
	delete(data, "version")

	q := r.builder().
		Update(categoriesTable).
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
		return postgres.TranslateError(err, categoriesTable, c.ID)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(categoriesTable, c.ID)
	}

	c.Version++
	return nil
}

// Delete removes a category row.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.txm.GetQuerier(ctx).Exec(ctx,
		"DELETE FROM warehouse_categories WHERE id = $1", id)
	if err != nil {
		return postgres.TranslateError(err, categoriesTable, id)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(categoriesTable, id)
	}
	return nil
}

// ReassignChildren moves every child of from under to (nil = root).
func (r *CategoryRepo) ReassignChildren(ctx context.Context, from int64, to *int64) error {
	_, err := r.txm.GetQuerier(ctx).Exec(ctx,
		"UPDATE warehouse_categories SET parent_id = $1, version = version + 1 WHERE parent_id = $2", to, from)
	if err != nil {
		return postgres.TranslateError(err, categoriesTable, from)
	}
	return nil
}

// DetachItems clears the category reference on items in the category.
func (r *CategoryRepo) DetachItems(ctx context.Context, categoryID int64) error {
	_, err := r.txm.GetQuerier(ctx).Exec(ctx,
		"UPDATE warehouse_items SET category_id = NULL, version = version + 1 WHERE category_id = $1", categoryID)
	if err != nil {
		return postgres.TranslateError(err, itemsTable, categoryID)
	}
	return nil
}

// HasChildren reports whether any category points at this one.
func (r *CategoryRepo) HasChildren(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM warehouse_categories WHERE parent_id = $1 LIMIT 1", id)
}

// HasItems reports whether any item sits in the category.
func (r *CategoryRepo) HasItems(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM warehouse_items WHERE category_id = $1 LIMIT 1", id)
}

func (r *CategoryRepo) exists(ctx context.Context, sql string, args ...any) (bool, error) {
	var one int
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return true, nil
}
