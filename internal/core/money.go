// Package core holds the domain model and the aggregation engine.
//
// This file defines the Money type: exact decimal currency arithmetic
// for record amounts, totals and percentage math. Amounts never touch
// binary floating point until a caller explicitly asks for a percentage.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in a single currency (USD).
// The zero value is zero dollars and is ready to use.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal value as Money.
func NewMoney(d decimal.Decimal) Money {
	return Money{d}
}

// MoneyFromInt returns whole-unit Money, mainly useful in tests.
func MoneyFromInt(n int64) Money {
	return Money{decimal.NewFromInt(n)}
}

// ParseMoney parses a user-entered amount for record creation.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Entry validation rejects signs, zero and malformed input; stored
// amounts that slip past this (zero, negative) are still tolerated by
// the aggregation engine.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{d}, nil
}

// Validate rejects non-positive amounts at entry time.
func (m Money) Validate() error {
	if m.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{m.Decimal.Add(o.Decimal)}
}

func (m Money) Sub(o Money) Money {
	return Money{m.Decimal.Sub(o.Decimal)}
}

// MulInt scales an amount by a whole-number factor.
func (m Money) MulInt(n int64) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(n))}
}

// DivInt divides an amount by a count, used for group averages.
// Division by zero yields zero, not an error.
func (m Money) DivInt(n int64) Money {
	if n == 0 {
		return Money{}
	}
	return Money{m.Decimal.Div(decimal.NewFromInt(n))}
}

// PercentOf returns m as a percentage of total. A zero total yields
// exactly 0; this is the contract for every percentage in the engine.
func (m Money) PercentOf(total Money) float64 {
	if total.IsZero() {
		return 0
	}
	return m.Decimal.Div(total.Decimal).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// Cmp compares exact decimal values: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.Decimal.Cmp(o.Decimal)
}

// IsPositive reports whether m is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Sign() > 0
}

// Display formats the amount for presentation, e.g. "$1234.56".
// Negative amounts render as "-$12.00". Unknown currency codes fall
// back to a "CODE 12.00" prefix form.
func (m Money) Display(currencyCode string) string {
	var symbol string
	switch currencyCode {
	case "USD":
		symbol = "$"
	case "EUR":
		symbol = "€"
	default:
		return currencyCode + " " + m.Decimal.StringFixed(2)
	}
	if m.Sign() < 0 {
		return "-" + symbol + m.Decimal.Neg().StringFixed(2)
	}
	return symbol + m.Decimal.StringFixed(2)
}
