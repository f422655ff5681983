// Package types provides common numeric types for money and quantities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity represents a stock or line quantity. Stored as NUMERIC(15,4).
type Quantity = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
// This is the preferred constructor for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundTo rounds an amount to the given number of decimal places.
func RoundTo(amount Money, places int) Money {
	return amount.Round(int32(places))
}

// LineTotal computes quantity x unit price without rounding loss.
func LineTotal(qty Quantity, unitPrice Money) Money {
	return qty.Mul(unitPrice)
}

// WithVAT applies a VAT percentage to a net amount: net x (1 + percent/100).
func WithVAT(net Money, percent Money) Money {
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	return net.Mul(one.Add(percent.Div(hundred)))
}

// VATPart extracts the VAT component of a net amount: net x percent/100.
func VATPart(net Money, percent Money) Money {
	hundred := decimal.NewFromInt(100)
	return net.Mul(percent.Div(hundred))
}
