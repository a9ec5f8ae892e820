package signal

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/inventory"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/orderbook"
	"github.com/blackhole-labs/arbforge/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) money.Decimal { return money.NewFromString(s) }

type fakeExchange struct {
	book orderbook.Book
	err  error
}

func (f fakeExchange) FetchOrderBook(_ context.Context, _ string, _ int) (orderbook.Book, error) {
	return f.book, f.err
}

// fakeDex returns a fixed simulated output regardless of route, keyed by
// which token is requested as output, so tests can script asymmetric
// sell-side vs buy-side quotes.
type fakeDex struct {
	outputByOutToken map[money.Address]*big.Int
	err              error
}

func (f fakeDex) GetQuote(_ context.Context, _, out money.Address, _ *big.Int, _ int64, _ money.Address) (pricing.Quote, error) {
	if f.err != nil {
		return pricing.Quote{}, f.err
	}
	out2 := f.outputByOutToken[out]
	return pricing.Quote{ExpectedOutput: out2, SimulatedOutput: out2}, nil
}

func testBook(t *testing.T, bid, ask string) orderbook.Book {
	t.Helper()
	b, err := orderbook.New("ETHUSDT", time.Unix(0, 0),
		[]orderbook.Level{{Price: dec(bid), Qty: dec("100")}},
		[]orderbook.Level{{Price: dec(ask), Qty: dec("100")}},
	)
	require.NoError(t, err)
	return b
}

func testPairConfig() PairConfig {
	return PairConfig{
		Symbol:        "ETHUSDT",
		BaseToken:     money.Token{Symbol: "WETH", Decimals: 18, Address: money.MustParseAddress("0x2000000000000000000000000000000000000011")},
		QuoteToken:    money.Token{Symbol: "USDC", Decimals: 6, Address: money.MustParseAddress("0x2000000000000000000000000000000000000012")},
		BaseDecimals:  18,
		QuoteDecimals: 6,
	}
}

func baseCfg() Config {
	return Config{
		Cooldown:     time.Second,
		SignalTTL:    10 * time.Second,
		MinSpreadBps: dec("10"),
		MinProfitUSD: dec("0.01"),
		GasPriceGwei: 1,
		Fees:         FeeModel{CexTakerBps: dec("10"), DexSwapBps: dec("30"), GasUSD: dec("0.1")},
	}
}

// TestGenerate_ProducesBuyCexSellDexSignal scripts a DEX sell-side quote
// well above the CEX ask, which should surface as a BUY_CEX_SELL_DEX signal.
func TestGenerate_ProducesBuyCexSellDexSignal(t *testing.T) {
	pair := testPairConfig()
	book := testBook(t, "1999", "2000")

	// Selling 1 WETH nets 2100 USDC on DEX (raw 6dp) -> dexSellPrice=2100,
	// well above cexAsk=2000 -> spread A positive and large.
	dex := fakeDex{outputByOutToken: map[money.Address]*big.Int{
		pair.QuoteToken.Address: big.NewInt(2100_000000),
		pair.BaseToken.Address:  big.NewInt(1_000000000000000000), // 1 WETH back, makes spread B ~0
	}}

	inv := inventory.NewTracker()
	inv.UpdateFromCEX("binance", map[string]inventory.Balance{"USDC": {Free: dec("1000000")}})
	inv.UpdateFromWallet("wallet", map[string]money.Decimal{"WETH": dec("100")})

	gen := New(fakeExchange{book: book}, dex, inv, baseCfg())

	sig, err := gen.Generate(context.Background(), pair, dec("1"), "binance", "wallet", time.Now())
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, BuyCexSellDex, sig.Direction)
	assert.True(t, sig.Expected.Net.Equal(sig.Expected.Gross.Sub(sig.Expected.Fees)))
	assert.True(t, sig.Size.IsPositive())
	assert.True(t, sig.Expiry.After(sig.Timestamp))
}

func TestGenerate_NothingWhenSpreadBelowMinimum(t *testing.T) {
	pair := testPairConfig()
	book := testBook(t, "1999", "2000")

	// DEX prices match CEX almost exactly -> spreads near zero.
	dex := fakeDex{outputByOutToken: map[money.Address]*big.Int{
		pair.QuoteToken.Address: big.NewInt(2000_000000),
		pair.BaseToken.Address:  big.NewInt(1_000000000000000000),
	}}

	inv := inventory.NewTracker()
	gen := New(fakeExchange{book: book}, dex, inv, baseCfg())

	sig, err := gen.Generate(context.Background(), pair, dec("1"), "binance", "wallet", time.Now())
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestGenerate_RespectsCooldown(t *testing.T) {
	pair := testPairConfig()
	book := testBook(t, "1999", "2000")
	dex := fakeDex{outputByOutToken: map[money.Address]*big.Int{
		pair.QuoteToken.Address: big.NewInt(2100_000000),
		pair.BaseToken.Address:  big.NewInt(1_000000000000000000),
	}}
	inv := inventory.NewTracker()
	inv.UpdateFromCEX("binance", map[string]inventory.Balance{"USDC": {Free: dec("1000000")}})
	inv.UpdateFromWallet("wallet", map[string]money.Decimal{"WETH": dec("100")})

	cfg := baseCfg()
	cfg.Cooldown = time.Minute
	gen := New(fakeExchange{book: book}, dex, inv, cfg)

	now := time.Now()
	first, err := gen.Generate(context.Background(), pair, dec("1"), "binance", "wallet", now)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := gen.Generate(context.Background(), pair, dec("1"), "binance", "wallet", now.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, second, "cooldown should suppress a second signal for the same pair")
}

func TestGenerate_PropagatesOrderBookFetchError(t *testing.T) {
	pair := testPairConfig()
	gen := New(fakeExchange{err: assert.AnError}, fakeDex{}, inventory.NewTracker(), baseCfg())
	_, err := gen.Generate(context.Background(), pair, dec("1"), "binance", "wallet", time.Now())
	assert.Error(t, err)
}

func TestSignal_IsValidChecksAllConditions(t *testing.T) {
	now := time.Now()
	sig := Signal{
		Expiry:       now.Add(time.Minute),
		InventoryOK:  true,
		WithinLimits: true,
		Expected:     Economics{Net: dec("1")},
		Score:        dec("10"),
	}
	assert.True(t, sig.IsValid(now))

	expired := sig
	expired.Expiry = now.Add(-time.Second)
	assert.False(t, expired.IsValid(now))

	noInventory := sig
	noInventory.InventoryOK = false
	assert.False(t, noInventory.IsValid(now))
}

func TestFeeModel_TotalFeeBps(t *testing.T) {
	fm := FeeModel{CexTakerBps: dec("10"), DexSwapBps: dec("30"), GasUSD: dec("2")}
	total := fm.TotalFeeBps(dec("2000"))
	// 10 + 30 + (2/2000*10000=10) = 50
	assert.True(t, total.Equal(dec("50")), "got %s", total)
}
