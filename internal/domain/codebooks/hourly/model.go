// Package hourly provides the labor hourly rate codebook. Rates are
// date-scoped per position; labor order lines resolve their price here.
package hourly

import (
	"context"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebook"
)

// Rate is one hourly price with a validity window. RateGross is derived
// from RateNet and VATPercent on every write, never stored independently.
type Rate struct {
	entity.Coded

	// PositionCode scopes the rate to one mechanic position,
	// nil means shop-wide.
	PositionCode *string `db:"position_code" json:"positionCode,omitempty"`

	RateNet    decimal.Decimal `db:"rate_net" json:"rateNet"`
	RateGross  decimal.Decimal `db:"rate_gross" json:"rateGross"`
	VATPercent decimal.Decimal `db:"vat_percent" json:"vatPercent"`

	ValidFrom types.Date  `db:"valid_from" json:"validFrom"`
	ValidTo   *types.Date `db:"valid_to" json:"validTo,omitempty"`
}

// NewRate creates an active rate starting on from with an open end.
func NewRate(code, name string, net, vatPercent decimal.Decimal, from types.Date) *Rate {
	r := &Rate{
		Coded:      entity.NewCoded(code, name),
		RateNet:    net,
		VATPercent: vatPercent,
		ValidFrom:  from,
	}
	r.RecomputeGross()
	return r
}

// RecomputeGross derives rate_gross = rate_net * (1 + vat/100), 2 places.
func (r *Rate) RecomputeGross() {
	factor := decimal.NewFromInt(1).Add(r.VATPercent.Div(decimal.NewFromInt(100)))
	r.RateGross = r.RateNet.Mul(factor).Round(2)
}

// Validate implements entity.Validatable.
func (r *Rate) Validate(ctx context.Context) error {
	if err := r.Coded.Validate(ctx); err != nil {
		return err
	}

	if r.RateNet.IsNegative() {
		return apperror.NewInvalidInput("rate_net must not be negative").
			WithDetail("field", "rateNet")
	}
	if r.VATPercent.IsNegative() || r.VATPercent.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewInvalidInput("vat percent must be between 0 and 100").
			WithDetail("field", "vatPercent")
	}
	if r.ValidFrom.IsZero() {
		return apperror.NewInvalidInput("valid_from is required").
			WithDetail("field", "validFrom")
	}
	if r.ValidTo != nil && r.ValidFrom.After(r.ValidTo.Time) {
		return apperror.NewInvalidInput("valid_from must not be after valid_to").
			WithDetail("validFrom", r.ValidFrom.String()).
			WithDetail("validTo", r.ValidTo.String())
	}

	return nil
}

// Covers reports whether the rate is in force on the given date.
func (r *Rate) Covers(on types.Date) bool {
	if on.Before(r.ValidFrom.Time) {
		return false
	}
	if r.ValidTo != nil && on.After(r.ValidTo.Time) {
		return false
	}
	return true
}

// samePosition reports whether two rates price the same scope.
func samePosition(a, b *Rate) bool {
	switch {
	case a.PositionCode == nil && b.PositionCode == nil:
		return true
	case a.PositionCode == nil || b.PositionCode == nil:
		return false
	default:
		return *a.PositionCode == *b.PositionCode
	}
}

// Overlaps reports whether two windows share at least one day.
func (r *Rate) Overlaps(other *Rate) bool {
	if other.ValidTo != nil && r.ValidFrom.After(other.ValidTo.Time) {
		return false
	}
	if r.ValidTo != nil && other.ValidFrom.After(r.ValidTo.Time) {
		return false
	}
	return true
}

// Descriptor describes the codebook for the registry.
func Descriptor() codebook.Descriptor[*Rate] {
	return codebook.Descriptor[*Rate]{
		Name:  "hourly_rate",
		Table: "hourly_rates",
		New:   func() *Rate { return &Rate{} },
	}
}

// Resolve picks the rate in force for a position on a date. A position
// match beats the shop-wide rate, then the latest valid_from wins.
func Resolve(rates []*Rate, positionCode string, on types.Date) (*Rate, error) {
	var best *Rate
	for _, r := range rates {
		if !r.Active || !r.Covers(on) {
			continue
		}
		if r.PositionCode != nil && *r.PositionCode != positionCode {
			continue
		}
		if best == nil || betterCandidate(r, best) {
			best = r
		}
	}
	if best == nil {
		return nil, apperror.NewOutOfWindow("hourly_rate", on.String()).
			WithDetail("position", positionCode)
	}
	return best, nil
}

func betterCandidate(r, best *Rate) bool {
	rScoped := r.PositionCode != nil
	bestScoped := best.PositionCode != nil
	if rScoped != bestScoped {
		return rScoped
	}
	return r.ValidFrom.After(best.ValidFrom.Time)
}
