package executor

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/inventory"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/pricing"
	"github.com/blackhole-labs/arbforge/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) money.Decimal { return money.NewFromString(s) }

func testSignal(id string, now time.Time) *signal.Signal {
	return &signal.Signal{
		ID:           id,
		PairSymbol:   "ETHUSDT",
		Direction:    signal.BuyCexSellDex,
		CexPrice:     dec("2000"),
		DexPrice:     dec("2040"),
		Size:         dec("1"),
		Expected:     signal.Economics{Gross: dec("40"), Fees: dec("8"), Net: dec("32")},
		Score:        dec("70"),
		Timestamp:    now,
		Expiry:       now.Add(time.Minute),
		InventoryOK:  true,
		WithinLimits: true,
	}
}

// stubExchange fills every LimitIOC call fully at the requested limit price
// unless configured to fail or partially fill.
type stubExchange struct {
	fillRatio money.Decimal // default 1.0 when zero value
	failLimit bool
	marketCt  atomic.Int32
}

func (s *stubExchange) LimitIOC(_ context.Context, _, _ string, size, price money.Decimal) (CexFill, error) {
	if s.failLimit {
		return CexFill{}, assert.AnError
	}
	ratio := s.fillRatio
	if ratio.IsZero() {
		ratio = money.One
	}
	return CexFill{Status: FillFilled, FilledSize: size.Mul(ratio), Price: price, OrderID: "ord-1"}, nil
}

func (s *stubExchange) Market(_ context.Context, _, _ string, _ money.Decimal) (CexFill, error) {
	s.marketCt.Add(1)
	return CexFill{Status: FillFilled}, nil
}

func TestMachine_Execute_HappyPathReachesDone(t *testing.T) {
	cex := &stubExchange{}
	dex := fakeDexEngine{output: 2040_000000}
	inv := inventory.NewTracker()

	cfg := DefaultConfig()
	m := New(cex, dex, inv, cfg)

	now := time.Now()
	sig := testSignal("sig-1", now)
	ec := m.Execute(context.Background(), sig, "binance", "wallet")

	require.IsType(t, Done{}, ec.State)
	done := ec.State.(Done)
	assert.True(t, done.ActualNetPnL.IsPositive(), "expected positive pnl, got %s", done.ActualNetPnL)
}

// TestMachine_Execute_IdempotentOnDuplicateSignal covers testable property 6:
// the same signal id executed twice completes DONE once, and the second
// attempt fails fast with the duplicate-signal sentinel.
func TestMachine_Execute_IdempotentOnDuplicateSignal(t *testing.T) {
	cex := &stubExchange{}
	dex := fakeDexEngine{output: 2040_000000}
	inv := inventory.NewTracker()
	m := New(cex, dex, inv, DefaultConfig())

	now := time.Now()
	sig := testSignal("sig-dup", now)

	first := m.Execute(context.Background(), sig, "binance", "wallet")
	require.IsType(t, Done{}, first.State)

	second := m.Execute(context.Background(), sig, "binance", "wallet")
	require.IsType(t, Failed{}, second.State)
	failed := second.State.(Failed)
	assert.Contains(t, failed.Reason, errs.ErrDuplicateSignal.Error())
}

// TestMachine_Execute_UnwindsOnLeg2Failure covers the "Executor unwind"
// scenario: leg1 (CEX) fills fully, leg2 (DEX) fails simulation, and the
// machine issues a reverse CEX market order before terminating FAILED.
func TestMachine_Execute_UnwindsOnLeg2Failure(t *testing.T) {
	cex := &stubExchange{}
	dex := fakeDexEngine{fail: true}
	inv := inventory.NewTracker()
	m := New(cex, dex, inv, DefaultConfig())

	now := time.Now()
	sig := testSignal("sig-unwind", now)
	ec := m.Execute(context.Background(), sig, "binance", "wallet")

	require.IsType(t, Failed{}, ec.State)
	assert.Equal(t, int32(1), cex.marketCt.Load(), "expected exactly one reverse market order")
	assert.True(t, ec.FillSize1.Equal(sig.Size))
}

// TestMachine_Execute_FailsOnPartialFill asserts a leg1 fill below
// min_fill_ratio fails without attempting leg2 or any unwind.
func TestMachine_Execute_FailsOnPartialFill(t *testing.T) {
	cex := &stubExchange{fillRatio: dec("0.5")}
	dex := fakeDexEngine{output: 2040_000000}
	inv := inventory.NewTracker()
	m := New(cex, dex, inv, DefaultConfig())

	now := time.Now()
	sig := testSignal("sig-partial", now)
	ec := m.Execute(context.Background(), sig, "binance", "wallet")

	require.IsType(t, Failed{}, ec.State)
	failed := ec.State.(Failed)
	assert.Contains(t, failed.Reason, errs.ErrPartialFill.Error())
	assert.Equal(t, int32(0), cex.marketCt.Load(), "leg1-only failure should not unwind")
}

// TestMachine_Execute_CircuitBreakerOpensAfterConsecutiveFailures covers
// testable property 7: repeated leg failures trip the breaker, after which
// further signals fail fast with ErrCircuitOpen without touching the venues.
func TestMachine_Execute_CircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cex := &stubExchange{failLimit: true}
	dex := fakeDexEngine{output: 2040_000000}
	inv := inventory.NewTracker()
	cfg := DefaultConfig()
	cfg.CircuitFailureThreshold = 2
	cfg.CircuitWindow = time.Minute
	cfg.CircuitCooldown = time.Minute
	m := New(cex, dex, inv, cfg)

	now := time.Now()
	for i := 0; i < 2; i++ {
		sig := testSignal(signalID(i), now)
		ec := m.Execute(context.Background(), sig, "binance", "wallet")
		require.IsType(t, Failed{}, ec.State)
	}

	sig := testSignal("sig-after-trip", now)
	ec := m.Execute(context.Background(), sig, "binance", "wallet")
	require.IsType(t, Failed{}, ec.State)
	failed := ec.State.(Failed)
	assert.Contains(t, failed.Reason, errs.ErrCircuitOpen.Error())
}

func signalID(i int) string {
	ids := []string{"sig-a", "sig-b", "sig-c"}
	return ids[i]
}

// fakeDexEngine satisfies DexEngine directly without routing through the
// full pricing.Engine machinery.
type fakeDexEngine struct {
	output int64
	fail   bool
}

func (f fakeDexEngine) GetQuote(_ context.Context, _, _ money.Address, _ *big.Int, _ int64, _ money.Address) (pricing.Quote, error) {
	if f.fail {
		return pricing.Quote{}, assert.AnError
	}
	out := big.NewInt(f.output)
	return pricing.Quote{ExpectedOutput: out, SimulatedOutput: out}, nil
}
