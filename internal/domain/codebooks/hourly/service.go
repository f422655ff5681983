package hourly

import (
	"context"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebook"
)

// Service provides hourly rate operations with window overlap protection.
type Service struct {
	*codebook.Service[*Rate]
	repo codebook.Repository[*Rate]
}

// NewService creates the hourly rate service.
func NewService(repo codebook.Repository[*Rate], txm tx.Manager) *Service {
	base := codebook.NewService(Descriptor(), repo, txm)
	svc := &Service{Service: base, repo: repo}

	base.Hooks().OnBeforeCreate(svc.prepare)
	base.Hooks().OnBeforeUpdate(svc.prepare)

	return svc
}

// prepare re-derives the gross price and rejects overlapping windows for
// the same position. Overlaps would make effective-date lookups ambiguous.
func (s *Service) prepare(ctx context.Context, rate *Rate) error {
	rate.RecomputeGross()

	rates, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	for _, other := range rates {
		if other.ID == rate.ID || !other.Active {
			continue
		}
		if samePosition(rate, other) && rate.Overlaps(other) {
			return apperror.NewIntegrityViolation("hourly rate window overlaps an existing rate").
				WithDetail("conflicting", other.Code).
				WithDetail("validFrom", other.ValidFrom.String())
		}
	}
	return nil
}

// EffectiveOn returns the rate in force for a position on a date.
func (s *Service) EffectiveOn(ctx context.Context, positionCode string, on types.Date) (*Rate, error) {
	rates, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return Resolve(rates, positionCode, on)
}

// NetRateOn returns the net hourly price in force, the labor line
// pricing default.
func (s *Service) NetRateOn(ctx context.Context, positionCode string, on types.Date) (types.Money, error) {
	rate, err := s.EffectiveOn(ctx, positionCode, on)
	if err != nil {
		return types.Money{}, err
	}
	return rate.RateNet, nil
}
