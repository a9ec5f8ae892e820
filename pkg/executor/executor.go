// Package executor implements the two-leg atomic executor: a tagged-union
// state machine that sequences a CEX leg and a DEX leg, enforces per-leg
// timeouts, unwinds on partial completion, and is gated by a circuit
// breaker and replay protection.
package executor

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/inventory"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/pricing"
	"github.com/blackhole-labs/arbforge/pkg/signal"
	"github.com/sony/gobreaker/v2"
)

// FillStatus mirrors the consumed Exchange's NormalizedOrder.status values.
type FillStatus string

const (
	FillFilled          FillStatus = "filled"
	FillPartiallyFilled FillStatus = "partially_filled"
	FillExpired         FillStatus = "expired"
)

// CexFill is the result of a CEX leg attempt.
type CexFill struct {
	Status     FillStatus
	FilledSize money.Decimal
	Price      money.Decimal
	OrderID    string
}

// Exchange is the CEX surface the Executor consumes for both the primary
// leg and any unwind.
type Exchange interface {
	LimitIOC(ctx context.Context, symbol, side string, size, price money.Decimal) (CexFill, error)
	Market(ctx context.Context, symbol, side string, size money.Decimal) (CexFill, error)
}

// DexEngine is the DEX surface the Executor consumes, satisfied by
// *pricing.Engine.
type DexEngine interface {
	GetQuote(ctx context.Context, in, out money.Address, amountIn *big.Int, gasPriceGwei int64, sender money.Address) (pricing.Quote, error)
}

// Config holds the Executor's tunables.
type Config struct {
	DexFirst                bool // true: DEX leg executes first (flashbots/private mempool submission)
	Leg1Timeout             time.Duration
	Leg2Timeout             time.Duration
	MinFillRatio            money.Decimal // default 0.8
	ReplayTTL               time.Duration // default 60s; must exceed Leg2Timeout
	CircuitFailureThreshold uint32
	CircuitWindow           time.Duration
	CircuitCooldown         time.Duration
	Sender                  money.Address
	GasPriceGwei            int64
}

// DefaultConfig matches the defaults named in spec.md §4.8/§4.9.
func DefaultConfig() Config {
	return Config{
		Leg1Timeout:             15 * time.Second,
		Leg2Timeout:             15 * time.Second,
		MinFillRatio:            money.NewFromString("0.8"),
		ReplayTTL:               60 * time.Second,
		CircuitFailureThreshold: 3,
		CircuitWindow:           5 * time.Minute,
		CircuitCooldown:         2 * time.Minute,
	}
}

// ExecutionContext is the evolving record tied 1:1 to a Signal; only the
// Executor mutates it.
type ExecutionContext struct {
	Signal       *signal.Signal
	State        State
	Leg1Venue    string
	Leg2Venue    string
	FillPrice1   money.Decimal
	FillSize1    money.Decimal
	OrderID1     string
	TxHash2      string
	ActualNetPnL money.Decimal
	StartedAt    time.Time
	FinishedAt   time.Time
	Error        string
}

// Machine runs signals through the two-leg state machine.
type Machine struct {
	cex     Exchange
	dex     DexEngine
	inv     *inventory.Tracker
	cfg     Config
	breaker *gobreaker.CircuitBreaker[legFill]
	replay  *replayWindow
}

// New constructs a Machine.
func New(cex Exchange, dex DexEngine, inv *inventory.Tracker, cfg Config) *Machine {
	return &Machine{
		cex:     cex,
		dex:     dex,
		inv:     inv,
		cfg:     cfg,
		breaker: newBreaker(cfg.CircuitFailureThreshold, cfg.CircuitWindow, cfg.CircuitCooldown),
		replay:  newReplayWindow(cfg.ReplayTTL),
	}
}

// Execute drives sig through VALIDATING -> LEG1_PENDING -> LEG1_FILLED ->
// LEG2_PENDING -> DONE, or to FAILED/UNWINDING->FAILED along the way. The
// returned ExecutionContext's State is always a terminal state (Done or
// Failed) when Execute returns.
func (m *Machine) Execute(ctx context.Context, sig *signal.Signal, leg1Venue, leg2Venue string) *ExecutionContext {
	now := time.Now()
	ec := &ExecutionContext{Signal: sig, State: Validating{}, StartedAt: now, Leg1Venue: leg1Venue, Leg2Venue: leg2Venue}

	if err := m.validate(sig, now); err != nil {
		return m.fail(ec, err)
	}
	m.replay.Record(sig.ID, now)

	ec.State = Leg1Pending{Venue: leg1Venue}
	fill1, err := m.runLeg1(ctx, sig)
	if err != nil {
		return m.fail(ec, err)
	}
	ec.FillPrice1 = fill1.price
	ec.FillSize1 = fill1.size
	ec.OrderID1 = fill1.orderID
	ec.State = Leg1Filled{Venue: leg1Venue, FillPrice: fill1.price, FillSize: fill1.size}

	ec.State = Leg2Pending{Venue: leg2Venue}
	err = m.runLeg2(ctx, sig)
	if err != nil {
		ec.State = Unwinding{Reason: err.Error()}
		if uerr := m.unwind(ctx, sig, fill1); uerr != nil {
			err = fmt.Errorf("%w (unwind failed: %v)", err, uerr)
		}
		return m.fail(ec, err)
	}

	pnl := realizedPnL(sig, m.cfg.DexFirst)
	ec.ActualNetPnL = pnl
	ec.FinishedAt = time.Now()
	ec.State = Done{FinishedAt: ec.FinishedAt, ActualNetPnL: pnl}
	return ec
}

func (m *Machine) validate(sig *signal.Signal, now time.Time) error {
	if m.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("executor: circuit breaker open: %w", errs.ErrCircuitOpen)
	}
	if m.replay.SeenRecently(sig.ID, now) {
		return fmt.Errorf("executor: duplicate signal %s: %w", sig.ID, errs.ErrDuplicateSignal)
	}
	if !sig.IsValid(now) {
		return fmt.Errorf("executor: signal %s is not valid: %w", sig.ID, errs.ErrPreTradeVeto)
	}
	return nil
}

type legFill struct {
	price   money.Decimal
	size    money.Decimal
	orderID string
}

// runLeg1 executes the first leg per the configured ordering policy,
// reporting through the circuit breaker. A leg1 timeout terminates with no
// unwind, per spec.md §4.8.
func (m *Machine) runLeg1(ctx context.Context, sig *signal.Signal) (legFill, error) {
	legCtx, cancel := context.WithTimeout(ctx, m.cfg.Leg1Timeout)
	defer cancel()

	if m.cfg.DexFirst {
		return m.withBreaker(m.dexLeg(legCtx, sig))
	}
	return m.withBreaker(m.cexLeg(legCtx, sig))
}

// runLeg2 executes the second leg. Its result (without a fill, since leg2's
// own fill is not separately tracked on ExecutionContext — only realized
// P&L at DONE) determines whether unwind is required.
func (m *Machine) runLeg2(ctx context.Context, sig *signal.Signal) error {
	legCtx, cancel := context.WithTimeout(ctx, m.cfg.Leg2Timeout)
	defer cancel()

	var err error
	if m.cfg.DexFirst {
		_, err = m.withBreaker(m.cexLeg(legCtx, sig))
	} else {
		_, err = m.withBreaker(m.dexLeg(legCtx, sig))
	}
	return err
}

// withBreaker runs a leg thunk through the circuit breaker so every
// leg failure (including a leg2 failure) counts toward the trip threshold.
func (m *Machine) withBreaker(thunk func() (legFill, error)) (legFill, error) {
	return m.breaker.Execute(func() (legFill, error) {
		return thunk()
	})
}

// cexSide returns the CEX order side for sig's direction: buying on CEX for
// BUY_CEX_SELL_DEX, selling on CEX for BUY_DEX_SELL_CEX.
func cexSide(sig *signal.Signal) string {
	if sig.Direction == signal.BuyCexSellDex {
		return "buy"
	}
	return "sell"
}

// cexLeg places a limit-IOC order at cex_price*1.001 on the appropriate
// side; a fill ratio below min_fill_ratio fails with "Partial fill below
// threshold" regardless of which leg slot it occupies.
func (m *Machine) cexLeg(ctx context.Context, sig *signal.Signal) func() (legFill, error) {
	return func() (legFill, error) {
		limitPrice := sig.CexPrice.Mul(money.NewFromString("1.001"))
		fill, err := m.cex.LimitIOC(ctx, sig.PairSymbol, cexSide(sig), sig.Size, limitPrice)
		if err != nil {
			return legFill{}, fmt.Errorf("executor: cex leg: %w", errs.WithKind(errs.KindExecution, err))
		}
		if fill.Status != FillFilled {
			return legFill{}, fmt.Errorf("executor: cex leg rejected (status=%s): %w", fill.Status, errs.ErrCEXReject)
		}
		ratio := fill.FilledSize.Div(sig.Size)
		if ratio.LessThan(m.cfg.MinFillRatio) {
			return legFill{}, fmt.Errorf("executor: partial fill below threshold (%.4s < %.4s): %w", ratio, m.cfg.MinFillRatio, errs.ErrPartialFill)
		}
		return legFill{price: fill.Price, size: fill.FilledSize, orderID: fill.OrderID}, nil
	}
}

// dexLeg synthesizes a swap via the pricing engine: success iff the
// resulting quote is valid and simulated output > 0.
func (m *Machine) dexLeg(ctx context.Context, sig *signal.Signal) func() (legFill, error) {
	return func() (legFill, error) {
		in, out := dexRouteTokens(sig)
		amountIn := money.TokenAmountFromHuman(sig.Size, 18)
		quote, err := m.dex.GetQuote(ctx, in, out, amountIn.Raw, m.cfg.GasPriceGwei, m.cfg.Sender)
		if err != nil {
			return legFill{}, fmt.Errorf("executor: dex leg: %w", errs.WithKind(errs.KindExecution, err))
		}
		if !quote.Valid() || quote.SimulatedOutput == nil || quote.SimulatedOutput.Sign() <= 0 {
			return legFill{}, fmt.Errorf("executor: dex leg simulation invalid: %w", errs.ErrDEXSimulation)
		}
		return legFill{price: sig.DexPrice, size: sig.Size}, nil
	}
}

// dexRouteTokens resolves the DEX leg's swap direction from the pair's
// base/quote token addresses carried on sig: BUY_CEX_SELL_DEX sells the base
// token bought on the CEX leg for quote; BUY_DEX_SELL_CEX buys base with
// quote so it can be sold on the CEX leg.
func dexRouteTokens(sig *signal.Signal) (in, out money.Address) {
	if sig.Direction == signal.BuyCexSellDex {
		return sig.BaseToken, sig.QuoteToken
	}
	return sig.QuoteToken, sig.BaseToken
}

// unwind closes the open side after a leg2 failure: a CEX leg is unwound
// with a market order in the reverse direction; a DEX leg is unwound with
// a reversed quote. An unwind error is returned to Execute, which appends it
// to the leg2 error; the context still terminates in FAILED and the caller
// logs that error.
func (m *Machine) unwind(ctx context.Context, sig *signal.Signal, leg1 legFill) error {
	reverseSide := "sell"
	if cexSide(sig) == "sell" {
		reverseSide = "buy"
	}
	if m.cfg.DexFirst {
		// Leg1 was DEX; unwinding a DEX leg issues an opposite-direction quote.
		in, out := dexRouteTokens(sig)
		amountIn := money.TokenAmountFromHuman(leg1.size, 18)
		_, err := m.dex.GetQuote(ctx, out, in, amountIn.Raw, m.cfg.GasPriceGwei, m.cfg.Sender)
		return err
	}
	_, err := m.cex.Market(ctx, sig.PairSymbol, reverseSide, leg1.size)
	return err
}

func (m *Machine) fail(ec *ExecutionContext, err error) *ExecutionContext {
	ec.FinishedAt = time.Now()
	ec.Error = err.Error()
	ec.State = Failed{FinishedAt: ec.FinishedAt, Reason: err.Error()}
	return ec
}

// realizedPnL implements spec.md §4.8's P&L formulas:
//
//	BUY_CEX_SELL_DEX: (dex_price - cex_price) * size - fees
//	BUY_DEX_SELL_CEX: (cex_price - dex_price) * size - fees
//
// fees approximated as size * leg1_price * 0.004 (two-side taker + swap),
// where leg1_price is the DEX price when dexFirst routes the DEX leg first
// and the CEX price otherwise.
func realizedPnL(sig *signal.Signal, dexFirst bool) money.Decimal {
	leg1Price := sig.CexPrice
	if dexFirst {
		leg1Price = sig.DexPrice
	}
	fees := sig.Size.Mul(leg1Price).Mul(money.NewFromString("0.004"))
	var gross money.Decimal
	if sig.Direction == signal.BuyCexSellDex {
		gross = sig.DexPrice.Sub(sig.CexPrice).Mul(sig.Size)
	} else {
		gross = sig.CexPrice.Sub(sig.DexPrice).Mul(sig.Size)
	}
	return gross.Sub(fees)
}
