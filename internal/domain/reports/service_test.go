package reports_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/domain/orders"
	"workshop/internal/domain/reports"
)

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (nopTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeReportRepo struct {
	belowMin []reports.BelowMinimumRow
	values   []reports.IssueValue
}

func (r *fakeReportRepo) BelowMinimum(ctx context.Context, fn func(reports.BelowMinimumRow) error) error {
	for _, row := range r.belowMin {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeReportRepo) IssueValues(ctx context.Context, period reports.Period) ([]reports.IssueValue, error) {
	return r.values, nil
}

func (r *fakeReportRepo) MovementHistory(ctx context.Context, filter reports.MovementFilter, fn func(reports.MovementRow) error) error {
	return nil
}

func (r *fakeReportRepo) PriceList(ctx context.Context, categoryID *int64, fn func(reports.PriceListRow) error) error {
	return nil
}

func (r *fakeReportRepo) OrderHistory(ctx context.Context, filter orders.OrderFilter, fn func(reports.OrderRow) error) error {
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func value(id int64, code, v string) reports.IssueValue {
	return reports.IssueValue{ItemID: id, Code: code, Name: "part " + code, Value: dec(v)}
}

func TestClassify_CumulativeShares(t *testing.T) {
	// Ranked descending: 600, 200, 150, 50 of a 1000 total.
	// Cumulative: 0.60 A, 0.80 A (boundary inclusive), 0.95 B (boundary
	// inclusive), 1.00 C.
	rows := reports.Classify([]reports.IssueValue{
		value(1, "A1", "600"),
		value(2, "A2", "200"),
		value(3, "B1", "150"),
		value(4, "C1", "50"),
	})

	require.Len(t, rows, 4)
	assert.Equal(t, reports.ClassA, rows[0].Class)
	assert.Equal(t, reports.ClassA, rows[1].Class)
	assert.Equal(t, reports.ClassB, rows[2].Class)
	assert.Equal(t, reports.ClassC, rows[3].Class)

	assert.Equal(t, "0.6", rows[0].Share.String())
	assert.Equal(t, "0.8", rows[1].CumulativeShare.String())
	assert.Equal(t, "0.95", rows[2].CumulativeShare.String())
	assert.Equal(t, "1", rows[3].CumulativeShare.String())
}

func TestClassify_SingleItemTakesWholeShare(t *testing.T) {
	// One item carries 100% of the value; cumulative 1.0 is past both
	// cuts, so the classing rule files it under C.
	rows := reports.Classify([]reports.IssueValue{value(1, "A1", "10")})
	require.Len(t, rows, 1)
	assert.Equal(t, reports.ClassC, rows[0].Class)
	assert.Equal(t, "1", rows[0].CumulativeShare.String())
}

func TestClassify_ZeroTotalAllC(t *testing.T) {
	rows := reports.Classify([]reports.IssueValue{
		value(1, "A1", "0"),
		value(2, "A2", "0"),
	})
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, reports.ClassC, row.Class)
		assert.True(t, row.Share.IsZero())
	}
}

func TestABCAnalysis_UsesRepoValues(t *testing.T) {
	repo := &fakeReportRepo{values: []reports.IssueValue{
		value(1, "A1", "800"),
		value(2, "C1", "200"),
	}}
	svc := reports.NewService(repo, nopTx{})

	rows, err := svc.ABCAnalysis(context.Background(), reports.Period{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, reports.ClassA, rows[0].Class)
	assert.Equal(t, reports.ClassB, rows[1].Class)
}

func TestBelowMinimum_WarnsOnNegativeStock(t *testing.T) {
	repo := &fakeReportRepo{belowMin: []reports.BelowMinimumRow{
		{ItemID: 1, Code: "BP-001", Quantity: dec("2"), MinQuantity: dec("5")},
		{ItemID: 2, Code: "OF-010", Quantity: dec("-1"), MinQuantity: dec("5")},
	}}
	svc := reports.NewService(repo, nopTx{})

	var served []reports.BelowMinimumRow
	warnings, err := svc.BelowMinimum(context.Background(), func(row reports.BelowMinimumRow) error {
		served = append(served, row)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, served, 2, "suspicious rows are served, not dropped")
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(2), warnings[0].Row)
}

func TestBelowMinimum_ObservesCancellation(t *testing.T) {
	repo := &fakeReportRepo{belowMin: []reports.BelowMinimumRow{
		{ItemID: 1, Code: "BP-001"},
		{ItemID: 2, Code: "OF-010"},
	}}
	svc := reports.NewService(repo, nopTx{})

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	_, err := svc.BelowMinimum(ctx, func(row reports.BelowMinimumRow) error {
		count++
		cancel()
		return nil
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeCancelled))
	assert.Equal(t, 1, count, "the stream stops at the first row after cancel")
}
