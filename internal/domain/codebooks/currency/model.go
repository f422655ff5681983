// Package currency provides the currency codebook. Prices are stored in
// the base currency; foreign amounts convert through the base pivot using
// each currency's exchange rate.
package currency

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/domain/codebook"
)

// Symbol placement on formatted amounts.
const (
	SymbolBefore = "before"
	SymbolAfter  = "after"
)

// Currency is one currency row. ExchangeRate is the amount of base
// currency one unit costs; the base row itself is pinned at 1.
type Currency struct {
	entity.Row

	ISOCode        string          `db:"iso_code" json:"isoCode"`
	Name           string          `db:"name" json:"name"`
	Symbol         string          `db:"symbol" json:"symbol"`
	SymbolPosition string          `db:"symbol_position" json:"symbolPosition"`
	DecimalPlaces  int             `db:"decimal_places" json:"decimalPlaces"`
	ExchangeRate   decimal.Decimal `db:"exchange_rate" json:"exchangeRate"`
	IsDefault      bool            `db:"is_default" json:"isDefault"`
	Active         bool            `db:"active" json:"active"`

	// RateRefreshedAt records the last successful feed refresh.
	RateRefreshedAt *time.Time `db:"rate_refreshed_at" json:"rateRefreshedAt,omitempty"`
}

// New creates an active currency.
func New(isoCode, name, symbol string, rate decimal.Decimal) *Currency {
	return &Currency{
		Row:            entity.NewRow(),
		ISOCode:        strings.ToUpper(isoCode),
		Name:           name,
		Symbol:         symbol,
		SymbolPosition: SymbolAfter,
		DecimalPlaces:  2,
		ExchangeRate:   rate,
		Active:         true,
	}
}

// NaturalKey returns the ISO code.
func (c *Currency) NaturalKey() string { return c.ISOCode }

// KeyConds locates the row by ISO code.
func (c *Currency) KeyConds() map[string]any {
	return map[string]any{"iso_code": c.ISOCode}
}

// IsActive reports the active flag.
func (c *Currency) IsActive() bool { return c.Active }

// Validate implements entity.Validatable.
func (c *Currency) Validate(ctx context.Context) error {
	if len(c.ISOCode) != 3 {
		return apperror.NewInvalidInput("iso code must be three letters").
			WithDetail("field", "isoCode").
			WithDetail("value", c.ISOCode)
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewInvalidInput("name is required").
			WithDetail("field", "name")
	}
	if c.SymbolPosition != SymbolBefore && c.SymbolPosition != SymbolAfter {
		return apperror.NewInvalidInput("symbol position must be before or after").
			WithDetail("field", "symbolPosition")
	}
	if c.DecimalPlaces < 0 || c.DecimalPlaces > 4 {
		return apperror.NewInvalidInput("decimal places must be between 0 and 4").
			WithDetail("field", "decimalPlaces")
	}
	if !c.ExchangeRate.IsPositive() {
		return apperror.NewInvalidInput("exchange rate must be positive").
			WithDetail("field", "exchangeRate")
	}
	if c.IsDefault && !c.ExchangeRate.Equal(decimal.NewFromInt(1)) {
		return apperror.NewInvalidInput("base currency rate is fixed at 1").
			WithDetail("field", "exchangeRate")
	}
	return nil
}

// Convert converts an amount between two currencies through the base pivot,
// rounding to the target's decimal places.
func Convert(amount decimal.Decimal, from, to *Currency) decimal.Decimal {
	base := amount.Mul(from.ExchangeRate)
	return base.DivRound(to.ExchangeRate, int32(to.DecimalPlaces))
}

// Format renders an amount with the currency's symbol and precision.
func (c *Currency) Format(amount decimal.Decimal) string {
	fixed := amount.StringFixed(int32(c.DecimalPlaces))
	if c.Symbol == "" {
		return fixed + " " + c.ISOCode
	}
	if c.SymbolPosition == SymbolBefore {
		return c.Symbol + fixed
	}
	return fixed + " " + c.Symbol
}

// Descriptor describes the codebook for the registry.
func Descriptor() codebook.Descriptor[*Currency] {
	return codebook.Descriptor[*Currency]{
		Name:      "currency",
		Table:     "currencies",
		KeyColumn: "iso_code",
		New:       func() *Currency { return &Currency{} },
		Seed: func() []*Currency {
			czk := New("CZK", "Czech koruna", "Kč", decimal.NewFromInt(1))
			czk.IsDefault = true
			return []*Currency{
				czk,
				New("EUR", "Euro", "€", decimal.NewFromInt(25)),
				New("USD", "US dollar", "$", decimal.NewFromInt(23)),
			}
		},
	}
}
