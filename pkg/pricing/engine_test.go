package pricing

import (
	"context"
	"math/big"
	"testing"

	"github.com/blackhole-labs/arbforge/pkg/amm"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	pools map[money.Address]amm.Pair
	err   error
}

func (f *fakeSource) FetchPool(_ context.Context, address money.Address) (amm.Pair, error) {
	if f.err != nil {
		return amm.Pair{}, f.err
	}
	p, ok := f.pools[address]
	if !ok {
		return amm.Pair{}, assert.AnError
	}
	return p, nil
}

type fakeSimulator struct {
	result SimulationResult
	err    error
}

func (f *fakeSimulator) SimulateRoute(_ context.Context, _ amm.Route, _ *big.Int, _ money.Address) (SimulationResult, error) {
	return f.result, f.err
}

func testToken(symbol string, decimals uint8, hex string) money.Token {
	return money.Token{Symbol: symbol, Decimals: decimals, Address: money.MustParseAddress(hex)}
}

func TestLoadPools_PopulatesRouteFinder(t *testing.T) {
	tokenA := testToken("A", 18, "0x1100000000000000000000000000000000000001")
	tokenB := testToken("B", 18, "0x1100000000000000000000000000000000000002")
	poolAddr := money.MustParseAddress("0x1200000000000000000000000000000000000001")

	pair, err := amm.NewPair(poolAddr, tokenA, tokenB, big.NewInt(1000), big.NewInt(1000), 30)
	require.NoError(t, err)

	src := &fakeSource{pools: map[money.Address]amm.Pair{poolAddr: pair}}
	sim := &fakeSimulator{result: SimulationResult{Success: true, AmountOut: big.NewInt(90), GasUsed: 21000}}

	engine := New(src, sim, money.ZeroAddress, 3)
	require.NoError(t, engine.LoadPools(context.Background(), []money.Address{poolAddr}))

	assert.Len(t, engine.Pools(), 1)

	quote, err := engine.GetQuote(context.Background(), tokenA.Address, tokenB.Address, big.NewInt(100), 1, money.ZeroAddress)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(90), quote.ExpectedOutput)
	assert.True(t, quote.Valid())
}

func TestLoadPools_PropagatesFetchError(t *testing.T) {
	src := &fakeSource{err: assert.AnError}
	sim := &fakeSimulator{}
	engine := New(src, sim, money.ZeroAddress, 3)

	err := engine.LoadPools(context.Background(), []money.Address{money.MustParseAddress("0x1300000000000000000000000000000000000001")})
	assert.Error(t, err)
}

func TestGetQuote_NoRouteWithEmptyPoolSet(t *testing.T) {
	engine := New(&fakeSource{}, &fakeSimulator{}, money.ZeroAddress, 3)
	_, err := engine.GetQuote(context.Background(),
		money.MustParseAddress("0x1400000000000000000000000000000000000001"),
		money.MustParseAddress("0x1400000000000000000000000000000000000002"),
		big.NewInt(1), 1, money.ZeroAddress)
	assert.Error(t, err)
}

func TestGetQuote_FailsOnUnsuccessfulSimulation(t *testing.T) {
	tokenA := testToken("A", 18, "0x1500000000000000000000000000000000000001")
	tokenB := testToken("B", 18, "0x1500000000000000000000000000000000000002")
	poolAddr := money.MustParseAddress("0x1600000000000000000000000000000000000001")
	pair, err := amm.NewPair(poolAddr, tokenA, tokenB, big.NewInt(1000), big.NewInt(1000), 30)
	require.NoError(t, err)

	src := &fakeSource{pools: map[money.Address]amm.Pair{poolAddr: pair}}
	sim := &fakeSimulator{result: SimulationResult{Success: false, Error: "revert"}}
	engine := New(src, sim, money.ZeroAddress, 3)
	require.NoError(t, engine.LoadPools(context.Background(), []money.Address{poolAddr}))

	_, err = engine.GetQuote(context.Background(), tokenA.Address, tokenB.Address, big.NewInt(100), 1, money.ZeroAddress)
	assert.Error(t, err)
}

func TestQuote_InvalidWhenDriftExceedsTolerance(t *testing.T) {
	q := Quote{ExpectedOutput: big.NewInt(1000), SimulatedOutput: big.NewInt(990)} // 1% drift
	assert.False(t, q.Valid())

	q2 := Quote{ExpectedOutput: big.NewInt(10000), SimulatedOutput: big.NewInt(9991)} // 0.09% drift, within tolerance
	assert.True(t, q2.Valid())
}

func TestOnPendingSwap_MatchesTrackedPoolTokens(t *testing.T) {
	tokenA := testToken("A", 18, "0x1700000000000000000000000000000000000001")
	tokenB := testToken("B", 18, "0x1700000000000000000000000000000000000002")
	tokenC := testToken("C", 18, "0x1700000000000000000000000000000000000003")
	poolAddr := money.MustParseAddress("0x1800000000000000000000000000000000000001")
	pair, err := amm.NewPair(poolAddr, tokenA, tokenB, big.NewInt(1000), big.NewInt(1000), 30)
	require.NoError(t, err)

	src := &fakeSource{pools: map[money.Address]amm.Pair{poolAddr: pair}}
	engine := New(src, &fakeSimulator{}, money.ZeroAddress, 3)
	require.NoError(t, engine.LoadPools(context.Background(), []money.Address{poolAddr}))

	affected := engine.OnPendingSwap(tokenA.Address, tokenB.Address)
	assert.Equal(t, []money.Address{poolAddr}, affected)

	none := engine.OnPendingSwap(tokenA.Address, tokenC.Address)
	assert.Empty(t, none)
}
