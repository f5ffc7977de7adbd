// Package types provides money helpers shared by pricing, commission and reports.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// NewMoney creates a Money value from a float.
// Prefer MustMoney / NewMoneyFromString for literal values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
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

// Round2 rounds to cents, half away from zero.
func Round2(m Money) Money {
	return m.Round(2)
}

// PercentOf returns round2(amount * pct / 100).
func PercentOf(amount, pct Money) Money {
	return Round2(amount.Mul(pct).Div(hundred))
}

// Cents converts an amount to integer cents.
func Cents(m Money) int64 {
	return Round2(m).Shift(2).IntPart()
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// MaxZero clamps negative values to zero.
func MaxZero(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}
