package warehouse_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/storage/postgres"
)

const movementsTable = "warehouse_movements"

// MovementRepo implements warehouse.MovementRepository over the
// append-only ledger table.
type MovementRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewMovementRepo creates the movement repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[*warehouse.Movement](),
	}
}

var _ warehouse.MovementRepository = (*MovementRepo)(nil)

func (r *MovementRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert appends one ledger row and syncs the generated id.
func (r *MovementRepo) Insert(ctx context.Context, m *warehouse.Movement) error {
	data := postgres.StructToMap(m)
	delete(data, "id")

	q := r.builder().
		Insert(movementsTable).
		SetMap(data).
		Suffix("RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&m.ID); err != nil {
		return postgres.TranslateError(err, movementsTable, m.ItemID)
	}
	return nil
}

// GetByID retrieves one ledger row.
func (r *MovementRepo) GetByID(ctx context.Context, id int64) (*warehouse.Movement, error) {
	q := r.builder().
		Select(r.cols...).
		From(movementsTable).
		Where(squirrel.Eq{"id": id})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	m := &warehouse.Movement{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(movementsTable, id)
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// MarkReversed re-marks the row as reversal and appends the note suffix.
// The kind guard makes double reversal a no-op at the SQL level too.
func (r *MovementRepo) MarkReversed(ctx context.Context, id int64, noteSuffix string) error {
	q := r.builder().
		Update(movementsTable).
		Set("kind", warehouse.MovementReversal).
		Set("note", squirrel.Expr("note || ?", noteSuffix)).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"kind": warehouse.MovementReversal})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build reversal update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, movementsTable, id)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(movementsTable, id)
	}
	return nil
}

// ListByItem returns an item's movements, newest first.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID int64, limit int) ([]*warehouse.Movement, error) {
	q := r.builder().
		Select(r.cols...).
		From(movementsTable).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("moved_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*warehouse.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return out, nil
}
