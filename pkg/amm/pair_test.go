package amm

import (
	"math/big"
	"testing"

	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func token(symbol string, decimals uint8, addrHex string) money.Token {
	return money.Token{
		Symbol:   symbol,
		Decimals: decimals,
		Address:  money.MustParseAddress(addrHex),
	}
}

var (
	tokenA = token("TKA", 18, "0x1000000000000000000000000000000000000001")
	tokenB = token("TKB", 18, "0x1000000000000000000000000000000000000002")
)

func mustPair(t *testing.T, r0, r1 int64, feeBps int64) Pair {
	t.Helper()
	p, err := NewPair(
		money.MustParseAddress("0x2000000000000000000000000000000000000001"),
		tokenA, tokenB,
		big.NewInt(r0), big.NewInt(r1),
		feeBps,
	)
	require.NoError(t, err)
	return p
}

// Concrete scenario from spec.md §8: reserves (1000, 1000), fee 30 bps,
// amount_out(100, token0) = 90.
func TestAmountOut_ConstantProductParity(t *testing.T) {
	p := mustPair(t, 1000, 1000, 30)
	out, err := p.AmountOut(big.NewInt(100), tokenA.Address)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(90), out)
}

func TestAmountOut_RejectsNonPositiveInput(t *testing.T) {
	p := mustPair(t, 1000, 1000, 30)
	_, err := p.AmountOut(big.NewInt(0), tokenA.Address)
	assert.Error(t, err)
}

func TestAmountOut_RejectsZeroReserve(t *testing.T) {
	p := mustPair(t, 0, 1000, 30)
	_, err := p.AmountOut(big.NewInt(100), tokenA.Address)
	assert.Error(t, err)
}

// Testable property 1: getAmountIn(getAmountOut(x)) >= x.
func TestAmountInRoundTrip_NeverUndershoots(t *testing.T) {
	p := mustPair(t, 1_000_000, 1_000_000, 30)
	for _, x := range []int64{1, 7, 100, 12345, 999_999} {
		out, err := p.AmountOut(big.NewInt(x), tokenA.Address)
		require.NoError(t, err)
		if out.Sign() == 0 {
			continue
		}
		in, err := p.AmountIn(out, tokenB.Address)
		require.NoError(t, err)
		assert.True(t, in.Cmp(big.NewInt(x)) >= 0, "amount_in(%s) = %s should be >= x = %d", out, in, x)
	}
}

func TestAmountIn_RejectsAmountOutAtOrAboveReserve(t *testing.T) {
	p := mustPair(t, 1000, 1000, 30)
	_, err := p.AmountIn(big.NewInt(1000), tokenB.Address)
	assert.Error(t, err)
}

// Testable property 2: k non-decreasing under a fee-bearing swap.
func TestSimulateSwap_KNonDecreasing(t *testing.T) {
	p := mustPair(t, 5000, 5000, 30)
	before := p.KProduct()

	next, err := p.SimulateSwap(big.NewInt(500), tokenA.Address)
	require.NoError(t, err)

	after := next.KProduct()
	assert.True(t, after.Cmp(before) >= 0, "k should be non-decreasing: before=%s after=%s", before, after)
}

func TestSimulateSwap_NeverNegativeReserve(t *testing.T) {
	p := mustPair(t, 10, 10, 30)
	_, err := p.SimulateSwap(big.NewInt(1_000_000), tokenA.Address)
	assert.NoError(t, err) // constant-product math can't actually drain reserveOut to negative
}

func TestSpotPrice_AdjustsForDecimals(t *testing.T) {
	weth := token("WETH", 18, "0x3000000000000000000000000000000000000001")
	usdc := token("USDC", 6, "0x3000000000000000000000000000000000000002")
	p, err := NewPair(
		money.MustParseAddress("0x4000000000000000000000000000000000000001"),
		weth, usdc,
		big.NewInt(1_000_000_000_000_000_000), // 1 WETH (18 decimals)
		big.NewInt(3_000_000_000),              // 3000 USDC (6 decimals)
		30,
	)
	require.NoError(t, err)

	price, err := p.SpotPrice(weth.Address) // USDC per WETH, Q18
	require.NoError(t, err)

	// 3000 USDC (raw 3_000_000_000, 6dp) per 1 WETH -> ~3000 * 1e18 once
	// decimal-adjusted for USDC's 6dp vs WETH's 18dp.
	expectedApprox := new(big.Int).Mul(big.NewInt(3000), q18)
	diff := new(big.Int).Sub(price, expectedApprox)
	assert.True(t, diff.CmpAbs(big.NewInt(1)) <= 0, "got %s want ~%s", price, expectedApprox)
}

func TestNewPair_RejectsSameToken(t *testing.T) {
	_, err := NewPair(money.MustParseAddress("0x2000000000000000000000000000000000000001"),
		tokenA, tokenA, big.NewInt(1), big.NewInt(1), 30)
	assert.Error(t, err)
}

func TestNewPair_RejectsFeeOutOfRange(t *testing.T) {
	_, err := NewPair(money.MustParseAddress("0x2000000000000000000000000000000000000001"),
		tokenA, tokenB, big.NewInt(1), big.NewInt(1), 10000)
	assert.Error(t, err)
}
