package warehouse

import (
	"context"
	"sort"

	"workshop/internal/core/tx"
	"workshop/internal/core/types"
	"workshop/pkg/logger"
)

// AlertEngine scans stock levels and maintains the daily alert log.
// It never sends notifications itself; delivery is the caller's concern.
type AlertEngine struct {
	items  ItemRepository
	alerts AlertRepository
	txm    tx.Manager
}

// NewAlertEngine creates the alert engine.
func NewAlertEngine(items ItemRepository, alerts AlertRepository, txm tx.Manager) *AlertEngine {
	return &AlertEngine{items: items, alerts: alerts, txm: txm}
}

// Run classifies every active item under the 1.5x minimum threshold and
// logs one alert row per (item, severity) for the given day. Re-running
// within the same day inserts nothing new; the returned list is complete
// either way, sorted most starved first.
func (e *AlertEngine) Run(ctx context.Context, day types.Date) (*AlertRun, error) {
	run := &AlertRun{Counts: make(map[Severity]int)}

	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := e.items.BelowAlertThreshold(ctx)
		if err != nil {
			return err
		}

		for _, item := range items {
			severity := classify(item)
			run.Entries = append(run.Entries, AlertEntry{Item: item, Severity: severity})
			run.Counts[severity]++

			inserted, err := e.alerts.InsertDaily(ctx, &Alert{
				ItemID:      item.ID,
				Severity:    severity,
				Quantity:    item.Quantity,
				MinQuantity: item.MinQuantity,
				AlertDate:   day,
			})
			if err != nil {
				return err
			}
			if inserted {
				run.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(run.Entries, func(i, j int) bool {
		return run.Entries[i].Item.StarvationRatio().LessThan(run.Entries[j].Item.StarvationRatio())
	})

	logger.Info(ctx, "alert scan finished",
		"day", day.String(),
		"critical", run.Counts[SeverityCritical],
		"warning", run.Counts[SeverityWarning],
		"inserted", run.Inserted,
	)
	return run, nil
}

func classify(item *Item) Severity {
	if item.Quantity.LessThan(item.MinQuantity) {
		return SeverityCritical
	}
	return SeverityWarning
}
