// Package amm implements the constant-product pricing core: pair swap math,
// multi-hop route enumeration, and gas-aware net-output ranking. All
// reserve/amount arithmetic is exact integer math over *big.Int, mirroring
// the on-chain contract it prices against — never float, never Decimal.
package amm

import (
	"fmt"
	"math/big"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
)

// feeScale is the basis-point denominator used in the constant-product fee
// formula (10000 = 100%).
var feeScale = big.NewInt(10000)

// Side selects which of a Pair's two tokens is being supplied as input.
type Side int

const (
	Token0 Side = iota
	Token1
)

// Pair is an immutable constant-product pool: (address, token0, token1,
// reserve0, reserve1, fee_bps). Swap simulation never mutates a Pair in
// place — it returns a new one, so hypothetical routing never disturbs the
// pool set the Pricing Engine owns.
type Pair struct {
	Address  money.Address
	Token0   money.Token
	Token1   money.Token
	Reserve0 *big.Int
	Reserve1 *big.Int
	FeeBps   int64
}

// NewPair validates and constructs a Pair. Invariants: fee_bps ∈ [0, 10000),
// reserves are non-negative, token0 != token1.
func NewPair(addr money.Address, t0, t1 money.Token, r0, r1 *big.Int, feeBps int64) (Pair, error) {
	if t0.Address.Equal(t1.Address) {
		return Pair{}, fmt.Errorf("amm: token0 and token1 must differ: %w", errs.ErrInvalidInput)
	}
	if feeBps < 0 || feeBps >= 10000 {
		return Pair{}, fmt.Errorf("amm: fee_bps %d out of [0,10000): %w", feeBps, errs.ErrInvalidInput)
	}
	if r0.Sign() < 0 || r1.Sign() < 0 {
		return Pair{}, fmt.Errorf("amm: negative reserve: %w", errs.ErrInvalidInput)
	}
	return Pair{
		Address:  addr,
		Token0:   t0,
		Token1:   t1,
		Reserve0: new(big.Int).Set(r0),
		Reserve1: new(big.Int).Set(r1),
		FeeBps:   feeBps,
	}, nil
}

// reservesFor returns (reserveIn, reserveOut) for the given input side.
func (p Pair) reservesFor(tokenIn money.Address) (in, out *big.Int, side Side, err error) {
	switch {
	case tokenIn.Equal(p.Token0.Address):
		return p.Reserve0, p.Reserve1, Token0, nil
	case tokenIn.Equal(p.Token1.Address):
		return p.Reserve1, p.Reserve0, Token1, nil
	default:
		return nil, nil, 0, fmt.Errorf("amm: token %s not in pair %s: %w", tokenIn, p.Address, errs.ErrUnknownPair)
	}
}

// OtherToken returns the counterparty token given one side's address.
func (p Pair) OtherToken(tokenIn money.Address) (money.Token, error) {
	switch {
	case tokenIn.Equal(p.Token0.Address):
		return p.Token1, nil
	case tokenIn.Equal(p.Token1.Address):
		return p.Token0, nil
	default:
		return money.Token{}, fmt.Errorf("amm: token %s not in pair %s: %w", tokenIn, p.Address, errs.ErrUnknownPair)
	}
}

// AmountOut computes the exact-integer constant-product output for a given
// input, per spec.md §4.1:
//
//	aif = amount_in * (10000 - fee_bps)
//	num = aif * reserve_out
//	den = reserve_in * 10000 + aif
//	return num / den   (floor division)
func (p Pair) AmountOut(amountIn *big.Int, tokenIn money.Address) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amm: amount_in must be positive: %w", errs.ErrInvalidInput)
	}
	reserveIn, reserveOut, _, err := p.reservesFor(tokenIn)
	if err != nil {
		return nil, err
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, fmt.Errorf("amm: zero reserve in pair %s: %w", p.Address, errs.ErrInsufficientLiquidity)
	}

	feeMultiplier := new(big.Int).Sub(feeScale, big.NewInt(p.FeeBps))
	aif := new(big.Int).Mul(amountIn, feeMultiplier)

	num := new(big.Int).Mul(aif, reserveOut)
	den := new(big.Int).Mul(reserveIn, feeScale)
	den.Add(den, aif)

	out := new(big.Int).Div(num, den) // floor division, both operands positive
	return out, nil
}

// AmountIn computes the exact-integer input required to receive amountOut,
// per spec.md §4.1:
//
//	num = reserve_in * amount_out * 10000
//	den = (reserve_out - amount_out) * (10000 - fee_bps)
//	return num / den + 1   (ceil)
func (p Pair) AmountIn(amountOut *big.Int, tokenOut money.Address) (*big.Int, error) {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("amm: amount_out must be positive: %w", errs.ErrInvalidInput)
	}
	// reservesFor(tokenOut) returns (reserve of tokenOut, reserve of the
	// other token) — exactly (reserveOut, reserveIn) in this formula's framing.
	reserveOut, reserveIn, _, err := p.reservesFor(tokenOut)
	if err != nil {
		return nil, err
	}

	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("amm: amount_out %s >= reserve_out %s: %w", amountOut, reserveOut, errs.ErrInsufficientLiquidity)
	}

	feeMultiplier := new(big.Int).Sub(feeScale, big.NewInt(p.FeeBps))

	num := new(big.Int).Mul(reserveIn, amountOut)
	num.Mul(num, feeScale)

	den := new(big.Int).Sub(reserveOut, amountOut)
	den.Mul(den, feeMultiplier)

	in := new(big.Int).Div(num, den)
	in.Add(in, big.NewInt(1)) // ceil
	return in, nil
}

// q18 is the fixed-point scale used by SpotPrice's output.
var q18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// SpotPrice returns the instantaneous price of tokenIn in terms of the
// counterparty token, scaled by 1e18 and adjusted for each token's decimals
// so the result is directly comparable across pools regardless of decimals.
func (p Pair) SpotPrice(tokenIn money.Address) (*big.Int, error) {
	reserveIn, reserveOut, side, err := p.reservesFor(tokenIn)
	if err != nil {
		return nil, err
	}
	if reserveIn.Sign() == 0 {
		return nil, fmt.Errorf("amm: zero reserve in pair %s: %w", p.Address, errs.ErrInsufficientLiquidity)
	}

	var decIn, decOut uint8
	if side == Token0 {
		decIn, decOut = p.Token0.Decimals, p.Token1.Decimals
	} else {
		decIn, decOut = p.Token1.Decimals, p.Token0.Decimals
	}

	// price = reserveOut/reserveIn * 10^18, decimal-adjusted so raw-unit
	// reserves (which already embed each token's own decimals) produce a
	// human-comparable ratio.
	num := new(big.Int).Mul(reserveOut, q18)
	num = decimalAdjust(num, decIn, decOut)
	price := new(big.Int).Div(num, reserveIn)
	return price, nil
}

// decimalAdjust rescales a raw-unit ratio numerator by 10^(decIn-decOut) so
// that dividing by a raw reserveIn yields a price already expressed per
// whole-token unit rather than per raw unit.
func decimalAdjust(num *big.Int, decIn, decOut uint8) *big.Int {
	diff := int(decIn) - int(decOut)
	if diff == 0 {
		return num
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(diff))), nil)
	if diff > 0 {
		return new(big.Int).Mul(num, scale)
	}
	return new(big.Int).Div(num, scale)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// SimulateSwap returns a new Pair reflecting the reserve changes of trading
// amountIn of tokenIn for its AmountOut, without mutating p. Fails rather
// than ever producing a negative reserve.
func (p Pair) SimulateSwap(amountIn *big.Int, tokenIn money.Address) (Pair, error) {
	out, err := p.AmountOut(amountIn, tokenIn)
	if err != nil {
		return Pair{}, err
	}

	next := p
	next.Reserve0 = new(big.Int).Set(p.Reserve0)
	next.Reserve1 = new(big.Int).Set(p.Reserve1)

	if tokenIn.Equal(p.Token0.Address) {
		next.Reserve0.Add(next.Reserve0, amountIn)
		next.Reserve1.Sub(next.Reserve1, out)
	} else {
		next.Reserve1.Add(next.Reserve1, amountIn)
		next.Reserve0.Sub(next.Reserve0, out)
	}

	if next.Reserve0.Sign() < 0 || next.Reserve1.Sign() < 0 {
		return Pair{}, fmt.Errorf("amm: simulated swap would produce a negative reserve: %w", errs.ErrInsufficientLiquidity)
	}
	return next, nil
}

// KProduct returns reserve0 * reserve1, the constant-product invariant,
// used by tests asserting k is non-decreasing under fee-bearing swaps.
func (p Pair) KProduct() *big.Int {
	return new(big.Int).Mul(p.Reserve0, p.Reserve1)
}
