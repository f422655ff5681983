// Package vat provides the VAT rate codebook with date-scoped validity.
// Rate lookups resolve against a reference date, so reprints of old
// documents keep the percent that was in force.
package vat

import (
	"context"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/types"
	"workshop/internal/domain/codebook"
)

// Slots group rates by fiscal band.
const (
	SlotBasic   = "basic"
	SlotReduced = "reduced"
	SlotZero    = "zero"
)

// Rate is one VAT percent with an optional validity window.
// Nil boundaries mean open-ended; boundary dates are inclusive.
type Rate struct {
	entity.Coded

	Slot        string          `db:"slot" json:"slot"`
	Percent     decimal.Decimal `db:"percent" json:"percent"`
	Description string          `db:"description" json:"description"`
	ValidFrom   *types.Date     `db:"valid_from" json:"validFrom,omitempty"`
	ValidTo     *types.Date     `db:"valid_to" json:"validTo,omitempty"`

	// IsDefault marks the rate offered when no slot is requested.
	// At most one rate carries it.
	IsDefault bool `db:"is_default" json:"isDefault"`
}

// NewRate creates an active open-window rate.
func NewRate(code, name, slot string, percent decimal.Decimal) *Rate {
	return &Rate{
		Coded:   entity.NewCoded(code, name),
		Slot:    slot,
		Percent: percent,
	}
}

// Validate implements entity.Validatable.
func (r *Rate) Validate(ctx context.Context) error {
	if err := r.Coded.Validate(ctx); err != nil {
		return err
	}

	switch r.Slot {
	case SlotBasic, SlotReduced, SlotZero:
	default:
		return apperror.NewInvalidInput("invalid vat slot").
			WithDetail("field", "slot").
			WithDetail("value", r.Slot)
	}

	if r.Percent.IsNegative() || r.Percent.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.NewInvalidInput("vat percent must be between 0 and 100").
			WithDetail("field", "percent").
			WithDetail("value", r.Percent.String())
	}

	if r.ValidFrom != nil && r.ValidTo != nil && r.ValidFrom.After(r.ValidTo.Time) {
		return apperror.NewInvalidInput("valid_from must not be after valid_to").
			WithDetail("validFrom", r.ValidFrom.String()).
			WithDetail("validTo", r.ValidTo.String())
	}

	return nil
}

// Covers reports whether the rate is in force on the given date.
func (r *Rate) Covers(on types.Date) bool {
	if r.ValidFrom != nil && on.Before(r.ValidFrom.Time) {
		return false
	}
	if r.ValidTo != nil && on.After(r.ValidTo.Time) {
		return false
	}
	return true
}

// Descriptor describes the codebook for the registry.
func Descriptor() codebook.Descriptor[*Rate] {
	return codebook.Descriptor[*Rate]{
		Name:  "vat_rate",
		Table: "vat_rates",
		New:   func() *Rate { return &Rate{} },
		Seed: func() []*Rate {
			basic := NewRate("basic", "Basic rate 21 %", SlotBasic, decimal.NewFromInt(21))
			basic.IsDefault = true
			return []*Rate{
				basic,
				NewRate("reduced", "Reduced rate 12 %", SlotReduced, decimal.NewFromInt(12)),
				NewRate("zero", "Zero rate", SlotZero, decimal.Zero),
			}
		},
	}
}

// Resolve picks the rate in force for a slot on a date. Among candidates
// the default wins, then the latest valid_from. No candidate means the
// date falls outside every window.
func Resolve(rates []*Rate, slot string, on types.Date) (*Rate, error) {
	var best *Rate
	for _, r := range rates {
		if !r.Active || r.Slot != slot || !r.Covers(on) {
			continue
		}
		if best == nil || betterCandidate(r, best) {
			best = r
		}
	}
	if best == nil {
		return nil, apperror.NewOutOfWindow("vat_rate", on.String()).
			WithDetail("slot", slot)
	}
	return best, nil
}

func betterCandidate(r, best *Rate) bool {
	if r.IsDefault != best.IsDefault {
		return r.IsDefault
	}
	switch {
	case r.ValidFrom == nil:
		return false
	case best.ValidFrom == nil:
		return true
	default:
		return r.ValidFrom.After(best.ValidFrom.Time)
	}
}
