// Package codebook_repo provides the PostgreSQL implementation of
// codebook.Repository. One generic repo serves every parameter table,
// concrete codebooks only supply their descriptor.
package codebook_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/codebook"
	"workshop/internal/infrastructure/storage/postgres"
)

// Repo implements codebook.Repository for one table.
type Repo[T codebook.Row] struct {
	txm       *postgres.TxManager
	table     string
	keyCol    string
	cols      []string
	newFn     func() T
	referrers []codebook.Referrer
}

// New creates a repository from a codebook descriptor.
func New[T codebook.Row](txm *postgres.TxManager, desc codebook.Descriptor[T]) *Repo[T] {
	keyCol := desc.KeyColumn
	if keyCol == "" {
		keyCol = "code"
	}
	return &Repo[T]{
		txm:       txm,
		table:     desc.Table,
		keyCol:    keyCol,
		cols:      postgres.ExtractDBColumns[T](),
		newFn:     desc.New,
		referrers: desc.Referrers,
	}
}

var _ codebook.Repository[codebook.Row] = (*Repo[codebook.Row])(nil)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *Repo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *Repo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.cols...).
		From(r.table)
}

// Create inserts a new row using its "db" tags and syncs the generated id.
func (r *Repo[T]) Create(ctx context.Context, row T) error {
	data := postgres.StructToMap(row)
	delete(data, "id")

	q := r.Builder().
		Insert(r.table).
		SetMap(data).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var id int64
	if err := querier.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return postgres.TranslateError(err, r.table, row.NaturalKey())
	}

	row.SetID(id)
	return nil
}

// Update modifies an existing row with optimistic locking.
func (r *Repo[T]) Update(ctx context.Context, row T) error {
	data := postgres.StructToMap(row)
	delete(data, "id")
	delete(data, "version")

	q := r.Builder().
		Update(r.table).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": row.GetID()}).
		Where(squirrel.Eq{"version": row.GetVersion()})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, r.table, row.GetID())
	}
	if result.RowsAffected() == 0 {
		return r.diagnoseZeroUpdate(ctx, row)
	}

	row.SetVersion(row.GetVersion() + 1)
	return nil
}

// diagnoseZeroUpdate distinguishes a stale version from a vanished row.
func (r *Repo[T]) diagnoseZeroUpdate(ctx context.Context, row T) error {
	var one int
	err := r.txm.GetQuerier(ctx).QueryRow(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE id = $1", r.table), row.GetID()).Scan(&one)
	if err == pgx.ErrNoRows {
		return apperror.NewNotFound(r.table, row.GetID())
	}
	if err != nil {
		return fmt.Errorf("check %s existence: %w", r.table, err)
	}
	return apperror.NewConcurrentModification(r.table, row.GetID())
}

// GetByID retrieves a row by surrogate identity.
func (r *Repo[T]) GetByID(ctx context.Context, id int64) (T, error) {
	row := r.newFn()

	q := r.baseSelect().
		Where(squirrel.Eq{"id": id}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return row, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return row, apperror.NewNotFound(r.table, id)
		}
		return row, fmt.Errorf("get %s by id: %w", r.table, err)
	}

	return row, nil
}

// GetByKey retrieves a row by natural key conditions.
func (r *Repo[T]) GetByKey(ctx context.Context, conds map[string]any) (T, error) {
	row := r.newFn()

	q := r.baseSelect().
		Where(squirrel.Eq(conds)).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return row, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return row, apperror.NewNotFound(r.table, conds)
		}
		return row, fmt.Errorf("get %s by key: %w", r.table, err)
	}

	return row, nil
}

// List retrieves rows with filtering, ordering and pagination.
func (r *Repo[T]) List(ctx context.Context, filter codebook.ListFilter) (codebook.ListResult[T], error) {
	result := codebook.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{r.keyColumn(): pattern},
		})
	}

	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.table, err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
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
		return result, fmt.Errorf("list %s: %w", r.table, err)
	}

	return result, nil
}

// All retrieves every row for export, natural key order for stable files.
func (r *Repo[T]) All(ctx context.Context) ([]T, error) {
	q := r.baseSelect().OrderBy(r.keyColumn() + " ASC, id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("export %s: %w", r.table, err)
	}
	return items, nil
}

// Delete removes a row permanently.
func (r *Repo[T]) Delete(ctx context.Context, id int64) error {
	q := r.Builder().
		Delete(r.table).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, r.table, id)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.table, id)
	}

	return nil
}

// SetActive flips the active flag.
func (r *Repo[T]) SetActive(ctx context.Context, id int64, active bool) error {
	q := r.Builder().
		Update(r.table).
		Set("active", active).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set active: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set active on %s: %w", r.table, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.table, id)
	}

	return nil
}

// InUse checks declared referrers for rows pointing at this one.
func (r *Repo[T]) InUse(ctx context.Context, row T) (bool, string, error) {
	querier := r.txm.GetQuerier(ctx)

	for _, ref := range r.referrers {
		var value any = row.GetID()
		if ref.ByCode {
			value = row.NaturalKey()
		}

		q := r.Builder().
			Select("1").
			From(ref.Table).
			Where(squirrel.Eq{ref.Column: value}).
			Limit(1)

		sql, args, err := q.ToSql()
		if err != nil {
			return false, "", fmt.Errorf("build in-use query: %w", err)
		}

		var one int
		err = querier.QueryRow(ctx, sql, args...).Scan(&one)
		if err == pgx.ErrNoRows {
			continue
		}
		if err != nil {
			return false, "", fmt.Errorf("check %s.%s: %w", ref.Table, ref.Column, err)
		}
		return true, ref.Table, nil
	}

	return false, "", nil
}

func (r *Repo[T]) keyColumn() string { return r.keyCol }

func (r *Repo[T]) parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(r.cols))
	for _, col := range r.cols {
		allowed[col] = struct{}{}
	}

	if orderBy == "" {
		if _, ok := allowed["name"]; ok {
			return "name ASC", nil
		}
		return r.keyColumn() + " ASC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewInvalidInput("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}

	return field + " " + direction, nil
}
