package amm

import (
	"math/big"
	"testing"

	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(s string) money.Address { return money.MustParseAddress(s) }

func TestRoute_Output_ComposesHopsInOrder(t *testing.T) {
	shib := token("SHIB", 18, "0x5000000000000000000000000000000000000001")
	weth := token("WETH", 18, "0x5000000000000000000000000000000000000002")
	usdc := token("USDC", 6, "0x5000000000000000000000000000000000000003")

	pool1, err := NewPair(addr("0x6000000000000000000000000000000000000001"), shib, weth,
		big.NewInt(1_000_000_000), big.NewInt(1_000_000), 30)
	require.NoError(t, err)
	pool2, err := NewPair(addr("0x6000000000000000000000000000000000000002"), weth, usdc,
		big.NewInt(1_000_000), big.NewInt(3_000_000_000), 30)
	require.NoError(t, err)

	route := Route{Hops: []Hop{
		{Pool: pool1, TokenIn: shib.Address, TokenOut: weth.Address},
		{Pool: pool2, TokenIn: weth.Address, TokenOut: usdc.Address},
	}}

	amountIn := big.NewInt(10_000)
	out, err := route.Output(amountIn)
	require.NoError(t, err)

	mid, err := pool1.AmountOut(amountIn, shib.Address)
	require.NoError(t, err)
	expected, err := pool2.AmountOut(mid, weth.Address)
	require.NoError(t, err)

	assert.Equal(t, expected, out)
}

func TestFindAllRoutes_RespectsMaxHopsAndVisitsOnce(t *testing.T) {
	a, b, c := token("A", 18, "0x7000000000000000000000000000000000000001"),
		token("B", 18, "0x7000000000000000000000000000000000000002"),
		token("C", 18, "0x7000000000000000000000000000000000000003")

	pAB, _ := NewPair(addr("0x8000000000000000000000000000000000000001"), a, b, big.NewInt(1000), big.NewInt(1000), 30)
	pBC, _ := NewPair(addr("0x8000000000000000000000000000000000000002"), b, c, big.NewInt(1000), big.NewInt(1000), 30)
	pAC, _ := NewPair(addr("0x8000000000000000000000000000000000000003"), a, c, big.NewInt(1000), big.NewInt(1000), 30)

	rf := NewRouteFinder([]Pair{pAB, pBC, pAC}, money.ZeroAddress)

	routes := rf.FindAllRoutes(a.Address, c.Address, 3)
	require.Len(t, routes, 2) // direct A->C, and A->B->C

	for _, r := range routes {
		assert.LessOrEqual(t, r.HopCount(), 3)
		seen := map[money.Address]bool{}
		for _, tok := range r.Path() {
			assert.False(t, seen[tok], "route revisits a token")
			seen[tok] = true
		}
	}
}

func TestFindAllRoutes_NoRouteReturnsEmpty(t *testing.T) {
	a := token("A", 18, "0x9000000000000000000000000000000000000001")
	b := token("B", 18, "0x9000000000000000000000000000000000000002")
	isolated := token("ISO", 18, "0x9000000000000000000000000000000000000003")

	pAB, _ := NewPair(addr("0xA000000000000000000000000000000000000001"), a, b, big.NewInt(1000), big.NewInt(1000), 30)
	rf := NewRouteFinder([]Pair{pAB}, money.ZeroAddress)

	routes := rf.FindAllRoutes(a.Address, isolated.Address, 3)
	assert.Empty(t, routes)

	best, net := rf.FindBestRoute(a.Address, isolated.Address, big.NewInt(100), 1, 3)
	assert.Nil(t, best)
	assert.Equal(t, big.NewInt(0), net)
}

// Gas tips routing scenario from spec.md §8: a thin direct pool competes
// with a deeper multi-hop route through WETH. At low gas price the
// multi-hop wins (better price outweighs the gas tax); at extreme gas
// price the direct hop wins (gas tax swamps the multi-hop's price edge).
func TestCompareRoutes_GasTipsRouting(t *testing.T) {
	shib := token("SHIB", 18, "0xB000000000000000000000000000000000000001")
	weth := token("WETH", 18, "0xB000000000000000000000000000000000000002")
	usdc := token("USDC", 6, "0xB000000000000000000000000000000000000003")

	// Thin direct SHIB/USDC pool.
	direct, err := NewPair(addr("0xC000000000000000000000000000000000000001"), shib, usdc,
		big.NewInt(1_000_000_000_000), big.NewInt(10_000_000), 30)
	require.NoError(t, err)

	// Deeper multi-hop path: SHIB/WETH then WETH/USDC.
	hop1, err := NewPair(addr("0xC000000000000000000000000000000000000002"), shib, weth,
		big.NewInt(1_000_000_000_000_000), big.NewInt(500_000_000_000_000_000), 30)
	require.NoError(t, err)
	hop2, err := NewPair(addr("0xC000000000000000000000000000000000000003"), weth, usdc,
		big.NewInt(1_000_000_000_000_000_000), big.NewInt(3_000_000_000_000), 30)
	require.NoError(t, err)

	rf := NewRouteFinder([]Pair{direct, hop1, hop2}, weth.Address)
	amountIn := big.NewInt(100_000_000_000_000)

	lowGasRanked := rf.CompareRoutes(shib.Address, usdc.Address, amountIn, 1, 3)
	require.Len(t, lowGasRanked, 2)
	assert.Equal(t, 2, lowGasRanked[0].Route.HopCount(), "multi-hop should win at low gas price")

	highGasRanked := rf.CompareRoutes(shib.Address, usdc.Address, amountIn, 500_000, 3)
	require.Len(t, highGasRanked, 2)
	assert.Equal(t, 1, highGasRanked[0].Route.HopCount(), "direct hop should win at extreme gas price")
}

func TestGasCostInOutputToken_ZeroWithoutWethNeighbor(t *testing.T) {
	a := token("A", 18, "0xD000000000000000000000000000000000000001")
	b := token("B", 18, "0xD000000000000000000000000000000000000002")
	pAB, _ := NewPair(addr("0xE000000000000000000000000000000000000001"), a, b, big.NewInt(1000), big.NewInt(1000), 30)

	rf := NewRouteFinder([]Pair{pAB}, money.MustParseAddress("0xFFFF00000000000000000000000000000000000F"))
	cost := rf.gasCostInOutputToken(b.Address, big.NewInt(1_000_000_000_000_000_000))
	assert.Equal(t, big.NewInt(0), cost)
}
