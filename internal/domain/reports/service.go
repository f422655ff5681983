package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/internal/domain/orders"
	"workshop/pkg/logger"
)

// Repository runs the report queries. Streaming methods invoke the
// callback once per row in query order; a callback error stops the scan
// and is returned as-is.
type Repository interface {
	BelowMinimum(ctx context.Context, fn func(BelowMinimumRow) error) error

	// IssueValues aggregates issue value per item over the period,
	// sorted by value descending.
	IssueValues(ctx context.Context, period Period) ([]IssueValue, error)

	MovementHistory(ctx context.Context, filter MovementFilter, fn func(MovementRow) error) error
	PriceList(ctx context.Context, categoryID *int64, fn func(PriceListRow) error) error
	OrderHistory(ctx context.Context, filter orders.OrderFilter, fn func(OrderRow) error) error
}

// Service is the analytics facade. Every report runs on a read-only
// transaction and observes context cancellation between rows.
type Service struct {
	repo Repository
	txm  tx.ReadOnlyManager
}

// NewService creates the report service.
func NewService(repo Repository, txm tx.ReadOnlyManager) *Service {
	return &Service{repo: repo, txm: txm}
}

// BelowMinimum streams items with on-hand under their minimum, joined with
// supplier contact for reordering. Rows with impossible stock values are
// served with a warning instead of aborting the report.
func (s *Service) BelowMinimum(ctx context.Context, fn func(BelowMinimumRow) error) ([]Warning, error) {
	var warnings []Warning
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		return s.repo.BelowMinimum(ctx, func(row BelowMinimumRow) error {
			if err := ctx.Err(); err != nil {
				return apperror.NewCancelled()
			}
			if row.Quantity.IsNegative() {
				warnings = append(warnings, Warning{
					Row:     row.ItemID,
					Message: "negative on-hand quantity",
				})
			}
			return fn(row)
		})
	})
	if err != nil {
		return nil, err
	}
	return warnings, nil
}

// ABC analysis share thresholds.
var (
	classACut = decimal.RequireFromString("0.80")
	classBCut = decimal.RequireFromString("0.95")
)

// ABCAnalysis ranks items by issue value over the period and assigns
// classes by cumulative share: A up to 80%, B up to 95%, C above.
func (s *Service) ABCAnalysis(ctx context.Context, period Period) ([]ABCRow, error) {
	var values []IssueValue
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		values, err = s.repo.IssueValues(ctx, period)
		return err
	})
	if err != nil {
		return nil, err
	}

	rows := Classify(values)
	logger.Debug(ctx, "abc analysis computed",
		"items", len(rows),
		"from", period.From.String(),
		"to", period.To.String(),
	)
	return rows, nil
}

// Classify assigns ABC classes to pre-ranked issue values. Values must be
// sorted descending; zero-value items land in class C.
func Classify(values []IssueValue) []ABCRow {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.Value)
	}

	rows := make([]ABCRow, 0, len(values))
	cumulative := decimal.Zero
	for _, v := range values {
		share := decimal.Zero
		if total.IsPositive() {
			share = v.Value.DivRound(total, 6)
		}
		cumulative = cumulative.Add(share)

		class := ClassC
		switch {
		case !total.IsPositive():
			// nothing issued, everything is C
		case cumulative.LessThanOrEqual(classACut):
			class = ClassA
		case cumulative.LessThanOrEqual(classBCut):
			class = ClassB
		}

		rows = append(rows, ABCRow{
			IssueValue:      v,
			Share:           share,
			CumulativeShare: cumulative,
			Class:           class,
		})
	}
	return rows
}

// MovementHistory streams ledger rows matching the filter, newest first.
func (s *Service) MovementHistory(ctx context.Context, filter MovementFilter, fn func(MovementRow) error) error {
	return s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		return s.repo.MovementHistory(ctx, filter, func(row MovementRow) error {
			if err := ctx.Err(); err != nil {
				return apperror.NewCancelled()
			}
			return fn(row)
		})
	})
}

// PriceList streams sellable items grouped by category. A nil categoryID
// serves the whole catalogue.
func (s *Service) PriceList(ctx context.Context, categoryID *int64, fn func(PriceListRow) error) error {
	return s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		return s.repo.PriceList(ctx, categoryID, func(row PriceListRow) error {
			if err := ctx.Err(); err != nil {
				return apperror.NewCancelled()
			}
			return fn(row)
		})
	})
}

// OrderHistory streams orders matching the filter, newest first.
func (s *Service) OrderHistory(ctx context.Context, filter orders.OrderFilter, fn func(OrderRow) error) error {
	return s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		return s.repo.OrderHistory(ctx, filter, func(row OrderRow) error {
			if err := ctx.Err(); err != nil {
				return apperror.NewCancelled()
			}
			return fn(row)
		})
	})
}
