package vat

import (
	"context"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebook"
)

// Service provides VAT rate operations on top of the generic codebook
// service, adding effective-date resolution.
type Service struct {
	*codebook.Service[*Rate]
	repo codebook.Repository[*Rate]
}

// NewService creates the VAT rate service.
func NewService(repo codebook.Repository[*Rate], txm tx.Manager) *Service {
	base := codebook.NewService(Descriptor(), repo, txm)
	svc := &Service{Service: base, repo: repo}

	base.Hooks().OnBeforeCreate(svc.guardSingleDefault)
	base.Hooks().OnBeforeUpdate(svc.guardSingleDefault)

	return svc
}

// guardSingleDefault surfaces the single-default rule as a business error
// before the partial unique index does.
func (s *Service) guardSingleDefault(ctx context.Context, rate *Rate) error {
	if !rate.IsDefault {
		return nil
	}

	rates, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	for _, other := range rates {
		if other.IsDefault && other.ID != rate.ID {
			return apperror.NewInvalidInput("another rate is already the default").
				WithDetail("default", other.Code)
		}
	}
	return nil
}

// EffectiveOn returns the rate in force for a slot on a date.
func (s *Service) EffectiveOn(ctx context.Context, slot string, on types.Date) (*Rate, error) {
	rates, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return Resolve(rates, slot, on)
}

// DefaultPercent returns the default rate's percent in force on a date.
// Used when a line or item carries no explicit rate.
func (s *Service) DefaultPercent(ctx context.Context, on types.Date) (decimal.Decimal, error) {
	rates, err := s.repo.All(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	for _, r := range rates {
		if r.Active && r.IsDefault && r.Covers(on) {
			return r.Percent, nil
		}
	}
	// No flagged default in force, fall back to the basic slot.
	rate, err := Resolve(rates, SlotBasic, on)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Percent, nil
}
