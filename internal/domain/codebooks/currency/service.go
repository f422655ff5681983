package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/tx"
	"workshop/internal/domain/codebook"
	"workshop/pkg/logger"
)

// RateSource supplies exchange rates keyed by ISO code, expressed as the
// amount of base currency one unit costs.
type RateSource interface {
	Rates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// RefreshResult reports the outcome of an FX refresh.
type RefreshResult struct {
	Updated   []string  `json:"updated"`
	Missing   []string  `json:"missing"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Service provides currency operations on top of the generic codebook
// service: base pivot conversion and feed-driven rate refresh.
type Service struct {
	*codebook.Service[*Currency]
	repo codebook.Repository[*Currency]
	txm  tx.Manager
}

// NewService creates the currency service.
func NewService(repo codebook.Repository[*Currency], txm tx.Manager) *Service {
	base := codebook.NewService(Descriptor(), repo, txm)
	svc := &Service{Service: base, repo: repo, txm: txm}

	base.Hooks().OnBeforeCreate(svc.guardSingleBase)
	base.Hooks().OnBeforeUpdate(svc.guardSingleBase)
	base.Hooks().OnBeforeDelete(svc.guardBaseDelete)

	return svc
}

func (s *Service) guardSingleBase(ctx context.Context, c *Currency) error {
	if !c.IsDefault {
		return nil
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.IsDefault && other.ID != c.ID {
			return apperror.NewInvalidInput("another currency is already the base").
				WithDetail("base", other.ISOCode)
		}
	}
	return nil
}

func (s *Service) guardBaseDelete(ctx context.Context, c *Currency) error {
	if c.IsDefault {
		return apperror.NewInvalidInput("the base currency cannot be deleted")
	}
	return nil
}

// Base returns the base currency.
func (s *Service) Base(ctx context.Context) (*Currency, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.IsDefault {
			return c, nil
		}
	}
	return nil, apperror.NewIntegrityViolation("no base currency configured")
}

// Convert converts an amount between two currencies by ISO code. Both
// rows must be active; a deactivated currency keeps a frozen rate and
// must not price anything.
func (s *Service) Convert(ctx context.Context, amount decimal.Decimal, fromISO, toISO string) (decimal.Decimal, error) {
	from, err := s.resolveActive(ctx, fromISO)
	if err != nil {
		return decimal.Zero, err
	}
	to, err := s.resolveActive(ctx, toISO)
	if err != nil {
		return decimal.Zero, err
	}
	return Convert(amount, from, to), nil
}

func (s *Service) resolveActive(ctx context.Context, iso string) (*Currency, error) {
	c, err := s.repo.GetByKey(ctx, map[string]any{"iso_code": iso})
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, apperror.NewInvalidInput("currency is deactivated").
			WithDetail("isoCode", c.ISOCode)
	}
	return c, nil
}

// RefreshRates pulls the feed and updates every non-base active currency
// it knows about. Currencies missing from the feed stay untouched. All
// updates land in one transaction.
func (s *Service) RefreshRates(ctx context.Context, source RateSource) (*RefreshResult, error) {
	rates, err := source.Rates(ctx)
	if err != nil {
		return nil, apperror.NewExternalFailure("exchange rate feed", err)
	}

	result := &RefreshResult{FetchedAt: time.Now().UTC()}
	if err := s.runRefresh(ctx, rates, result); err != nil {
		return nil, err
	}

	logger.Info(ctx, "exchange rates refreshed",
		"updated", len(result.Updated),
		"missing", len(result.Missing),
	)
	return result, nil
}

func (s *Service) runRefresh(ctx context.Context, rates map[string]decimal.Decimal, result *RefreshResult) error {
	all, err := s.repo.All(ctx)
	if err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		now := result.FetchedAt
		for _, c := range all {
			if c.IsDefault || !c.Active {
				continue
			}
			rate, ok := rates[c.ISOCode]
			if !ok {
				result.Missing = append(result.Missing, c.ISOCode)
				continue
			}
			if !rate.IsPositive() {
				result.Missing = append(result.Missing, c.ISOCode)
				continue
			}

			c.ExchangeRate = rate
			c.RateRefreshedAt = &now
			if err := s.repo.Update(ctx, c); err != nil {
				return err
			}
			result.Updated = append(result.Updated, c.ISOCode)
		}
		return nil
	})
}
