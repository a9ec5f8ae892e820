// Package money holds the arbitrary-precision and fixed-decimal primitives
// shared by every pricing, order-book and P&L computation in arbforge.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal is the sole type used for monetary and ratio computations outside
// the AMM integer core. It is a thin alias over shopspring/decimal so every
// package can import money.Decimal without pulling the upstream package
// directly, while still interoperating with code that uses decimal.Decimal
// natively (the two are convertible with no copy).
type Decimal = decimal.Decimal

// Zero is the additive identity, exported for readability at call sites.
var Zero = decimal.Zero

// TwoDecimal is the constant 2, used for midpoint and round-trip averages.
var TwoDecimal = decimal.NewFromInt(2)

// One is the multiplicative identity, used to build (1±band) multipliers.
var One = decimal.NewFromInt(1)

// NewFromInt constructs a Decimal from an int64, re-exported so callers
// never need to import shopspring/decimal directly.
func NewFromInt(v int64) Decimal {
	return decimal.NewFromInt(v)
}

// NewFromString parses a Decimal from its string representation, panicking
// on malformed input. Intended for constants and test fixtures, not for
// parsing untrusted external input.
func NewFromString(s string) Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("money: invalid decimal literal %q: %v", s, err))
	}
	return v
}

// NewFromFloat constructs a Decimal from a float64, for call sites (CLI
// flags, YAML-decoded config) where the source value is inherently a float.
func NewFromFloat(v float64) Decimal {
	return decimal.NewFromFloat(v)
}

// BpsDivisor is the basis-point scale used throughout the spread, fee and
// score calculations: 1 bps = 1/10000.
var BpsDivisor = decimal.NewFromInt(10000)

// FromBps converts a basis-point quantity into its fractional Decimal
// representation (e.g. 30 -> 0.003).
func FromBps(bps int64) Decimal {
	return decimal.NewFromInt(bps).Div(BpsDivisor)
}

// ToBps converts a fraction (e.g. 0.003) into basis points (30) by
// multiplying by 10000; the result is not rounded.
func ToBps(fraction Decimal) Decimal {
	return fraction.Mul(BpsDivisor)
}

// RelBps returns the relative difference between a and reference, expressed
// in basis points: (a - reference) / reference * 10000. Returns an error if
// reference is zero since the ratio is undefined.
func RelBps(a, reference Decimal) (Decimal, error) {
	if reference.IsZero() {
		return Zero, fmt.Errorf("money: reference value is zero")
	}
	return a.Sub(reference).Div(reference).Mul(BpsDivisor), nil
}

// AbsRelBps is RelBps with the result's absolute value taken, used for
// slippage and spread magnitudes that are always reported non-negative.
func AbsRelBps(a, reference Decimal) (Decimal, error) {
	v, err := RelBps(a, reference)
	if err != nil {
		return Zero, err
	}
	return v.Abs(), nil
}
