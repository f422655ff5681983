package warehouse_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"workshop/internal/core/types"
	"workshop/internal/domain/warehouse"
	"workshop/internal/infrastructure/storage/postgres"
)

const alertsTable = "stock_alerts"

// AlertRepo implements warehouse.AlertRepository. The unique
// (item, severity, date) index provides the per-day idempotence.
type AlertRepo struct {
	txm  *postgres.TxManager
	cols []string
}

// NewAlertRepo creates the alert repository.
func NewAlertRepo(txm *postgres.TxManager) *AlertRepo {
	return &AlertRepo{
		txm:  txm,
		cols: postgres.ExtractDBColumns[*warehouse.Alert](),
	}
}

var _ warehouse.AlertRepository = (*AlertRepo)(nil)

func (r *AlertRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// InsertDaily inserts one alert row, reporting false when the day already
// has it. ON CONFLICT DO NOTHING rides the unique index.
func (r *AlertRepo) InsertDaily(ctx context.Context, alert *warehouse.Alert) (bool, error) {
	data := postgres.StructToMap(alert)
	delete(data, "id")
	delete(data, "created_at")

	q := r.builder().
		Insert(alertsTable).
		SetMap(data).
		Suffix("ON CONFLICT (item_id, severity, alert_date) DO NOTHING RETURNING id")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&alert.ID)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, postgres.TranslateError(err, alertsTable, alert.ItemID)
	}
	return true, nil
}

// ListForDate returns the alert log of one day.
func (r *AlertRepo) ListForDate(ctx context.Context, date types.Date) ([]*warehouse.Alert, error) {
	q := r.builder().
		Select(r.cols...).
		From(alertsTable).
		Where(squirrel.Eq{"alert_date": date}).
		OrderBy("severity ASC, item_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*warehouse.Alert
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}
