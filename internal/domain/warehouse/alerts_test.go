package warehouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/types"
	"workshop/internal/domain/warehouse"
)

type alertFixture struct {
	items  *fakeItemRepo
	alerts *fakeAlertRepo
	engine *warehouse.AlertEngine
	ledger *warehouse.Ledger
}

func newAlertFixture() *alertFixture {
	movements := newFakeMovementRepo()
	items := newFakeItemRepo(movements)
	alerts := newFakeAlertRepo()
	return &alertFixture{
		items:  items,
		alerts: alerts,
		engine: warehouse.NewAlertEngine(items, alerts, nopTx{}),
		ledger: warehouse.NewLedger(items, movements, nopTx{}, warehouse.CostingLast),
	}
}

func (f *alertFixture) seedItem(code, qty, min string) *warehouse.Item {
	item := warehouse.NewItem(code, "part "+code)
	item.Quantity = dec(qty)
	item.MinQuantity = dec(min)
	return f.items.add(item)
}

func TestAlertRun_ClassifiesAndSorts(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture()

	critical := f.seedItem("A", "1", "5")  // ratio 0.2
	warning := f.seedItem("B", "6", "5")   // ratio 1.2
	f.seedItem("C", "10", "5")             // ok, above 1.5x
	f.seedItem("D", "0", "0")              // no minimum, never alerts
	starved := f.seedItem("E", "0.5", "5") // ratio 0.1, most starved

	run, err := f.engine.Run(ctx, types.NewDate(2026, 3, 2))
	require.NoError(t, err)

	require.Len(t, run.Entries, 3)
	assert.Equal(t, starved.ID, run.Entries[0].Item.ID)
	assert.Equal(t, critical.ID, run.Entries[1].Item.ID)
	assert.Equal(t, warning.ID, run.Entries[2].Item.ID)

	assert.Equal(t, warehouse.SeverityCritical, run.Entries[0].Severity)
	assert.Equal(t, warehouse.SeverityCritical, run.Entries[1].Severity)
	assert.Equal(t, warehouse.SeverityWarning, run.Entries[2].Severity)

	assert.Equal(t, 2, run.Counts[warehouse.SeverityCritical])
	assert.Equal(t, 1, run.Counts[warehouse.SeverityWarning])
	assert.Equal(t, 3, run.Inserted)
}

func TestAlertRun_IdempotentWithinDay(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture()
	f.seedItem("A", "1", "5")

	day := types.NewDate(2026, 3, 2)

	first, err := f.engine.Run(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)

	second, err := f.engine.Run(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted, "same day, same severity, no new row")
	assert.Len(t, second.Entries, 1, "the report itself is still complete")

	nextDay, err := f.engine.Run(ctx, types.NewDate(2026, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, nextDay.Inserted)
}

func TestAlertRun_SeverityChangeLogsAgain(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture()
	item := f.seedItem("A", "1", "5")
	day := types.NewDate(2026, 3, 2)

	first, err := f.engine.Run(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)
	assert.Equal(t, warehouse.SeverityCritical, first.Entries[0].Severity)

	// Restock into the warning band; the day's log gains a second row
	// because severity is part of the dedup key.
	_, err = f.ledger.Receipt(ctx, warehouse.ReceiptInput{
		ItemID:    item.ID,
		Quantity:  dec("5"),
		UnitPrice: dec("10"),
	})
	require.NoError(t, err)

	second, err := f.engine.Run(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Inserted)
	assert.Equal(t, warehouse.SeverityWarning, second.Entries[0].Severity)

	logged, err := f.alerts.ListForDate(ctx, day)
	require.NoError(t, err)
	assert.Len(t, logged, 2)
}

func TestAlertRun_SkipsInactiveItems(t *testing.T) {
	ctx := context.Background()
	f := newAlertFixture()
	item := f.seedItem("A", "1", "5")
	item.Active = false

	run, err := f.engine.Run(ctx, types.NewDate(2026, 3, 2))
	require.NoError(t, err)
	assert.Empty(t, run.Entries)
	assert.Equal(t, 0, run.Inserted)
}
