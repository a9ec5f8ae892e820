package money

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Token identifies an ERC-20-style asset. Identity is by Address; Symbol and
// Decimals are descriptive metadata carried alongside it so callers never
// need a side lookup table to format an amount.
type Token struct {
	Symbol   string
	Decimals uint8
	Address  Address
}

// Equal compares tokens by address only, per spec: "Identity is by address."
func (t Token) Equal(o Token) bool { return t.Address.Equal(o.Address) }

// TokenAmount pairs a raw on-chain integer value with the decimals needed to
// interpret it. Conversion to/from human (Decimal) units is always explicit
// so integer and decimal domains never mix silently, per the design note in
// spec.md §9.
type TokenAmount struct {
	Raw      *big.Int
	Decimals uint8
}

// NewTokenAmount builds a TokenAmount, defensively copying the *big.Int so
// callers can keep mutating their own reference.
func NewTokenAmount(raw *big.Int, decimals uint8) TokenAmount {
	return TokenAmount{Raw: new(big.Int).Set(raw), Decimals: decimals}
}

// TokenAmountFromHuman converts a human-readable Decimal quantity (e.g.
// 1.5 ETH) into its raw integer representation at the given decimals,
// truncating any precision finer than the token supports.
func TokenAmountFromHuman(amount decimal.Decimal, decimals uint8) TokenAmount {
	scale := decimal.New(1, int32(decimals))
	raw := amount.Mul(scale).Truncate(0).BigInt()
	return TokenAmount{Raw: raw, Decimals: decimals}
}

// Human converts the raw integer amount back to a Decimal in token units.
func (t TokenAmount) Human() decimal.Decimal {
	scale := decimal.New(1, int32(t.Decimals))
	return decimal.NewFromBigInt(t.Raw, 0).Div(scale)
}

// String renders the amount in human units with its native precision.
func (t TokenAmount) String() string {
	return t.Human().String()
}

// IsZero reports whether the raw amount is exactly zero.
func (t TokenAmount) IsZero() bool { return t.Raw == nil || t.Raw.Sign() == 0 }

// IsPositive reports whether the raw amount is strictly greater than zero.
func (t TokenAmount) IsPositive() bool { return t.Raw != nil && t.Raw.Sign() > 0 }
