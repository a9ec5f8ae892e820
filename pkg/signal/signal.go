// Package signal fuses a CEX order book and a DEX quote into a directional
// arbitrage Signal, applying cooldown, TTL, fee, slippage, and inventory
// accounting per spec.md §4.5.
package signal

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/inventory"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/orderbook"
	"github.com/blackhole-labs/arbforge/pkg/pricing"
)

// Direction is the round-trip the Signal proposes.
type Direction int

const (
	BuyCexSellDex Direction = iota
	BuyDexSellCex
)

// Economics is the projected P&L breakdown for a candidate signal.
type Economics struct {
	Gross money.Decimal
	Fees  money.Decimal
	Net   money.Decimal
}

// Signal is immutable except for Score; produced by Generate, referenced by
// the Executor, discarded after its terminal state.
type Signal struct {
	ID            string
	PairSymbol    string
	BaseToken     money.Address
	QuoteToken    money.Address
	Direction     Direction
	CexPrice      money.Decimal
	DexPrice      money.Decimal
	SpreadBps     money.Decimal
	Size          money.Decimal
	Expected      Economics
	Score         money.Decimal
	Timestamp     time.Time
	Expiry        time.Time
	InventoryOK   bool
	WithinLimits  bool
}

// IsValid reports whether the signal is still usable: unexpired, inventory
// checked out, within configured limits, positive expected net, positive
// score.
func (s Signal) IsValid(now time.Time) bool {
	return now.Before(s.Expiry) &&
		s.InventoryOK &&
		s.WithinLimits &&
		s.Expected.Net.IsPositive() &&
		s.Score.IsPositive()
}

// Exchange is the CEX surface the Generator consumes.
type Exchange interface {
	FetchOrderBook(ctx context.Context, symbol string, depth int) (orderbook.Book, error)
}

// DexQuoter is the DEX surface the Generator consumes, satisfied by
// pricing.Engine.
type DexQuoter interface {
	GetQuote(ctx context.Context, in, out money.Address, amountIn *big.Int, gasPriceGwei int64, sender money.Address) (pricing.Quote, error)
}

// FeeModel supplies the per-venue fee inputs for total_fee_bps.
type FeeModel struct {
	CexTakerBps money.Decimal
	DexSwapBps  money.Decimal
	GasUSD      money.Decimal
}

// TotalFeeBps returns cex_taker_bps + dex_swap_bps + (gas_usd/trade_value *
// 10000).
func (f FeeModel) TotalFeeBps(tradeValue money.Decimal) money.Decimal {
	if !tradeValue.IsPositive() {
		return f.CexTakerBps.Add(f.DexSwapBps)
	}
	gasBps := f.GasUSD.Div(tradeValue).Mul(money.BpsDivisor)
	return f.CexTakerBps.Add(f.DexSwapBps).Add(gasBps)
}

// PairConfig names the instruments a Generate call routes between.
type PairConfig struct {
	Symbol        string // CEX symbol, e.g. "ETHUSDT"
	BaseToken     money.Token
	QuoteToken    money.Token
	BaseDecimals  uint8
	QuoteDecimals uint8
}

// Config holds the Generator's tunables.
type Config struct {
	Cooldown      time.Duration
	SignalTTL     time.Duration
	MinSpreadBps  money.Decimal
	MinProfitUSD  money.Decimal
	GasPriceGwei  int64
	Sender        money.Address
	Fees          FeeModel
}

// Generator joins CEX book + DEX quote into a Signal.
type Generator struct {
	cex       Exchange
	dex       DexQuoter
	inventory *inventory.Tracker
	cfg       Config

	mu           sync.Mutex
	lastSignalAt map[string]time.Time
}

// New constructs a Generator.
func New(cex Exchange, dex DexQuoter, inv *inventory.Tracker, cfg Config) *Generator {
	return &Generator{
		cex:          cex,
		dex:          dex,
		inventory:    inv,
		cfg:          cfg,
		lastSignalAt: make(map[string]time.Time),
	}
}

// idFor deterministically derives a signal id from pair + timestamp so
// repeated Generate calls within the same tick boundary don't collide.
func idFor(pair string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", pair, ts.UnixNano())
}

// Generate runs the full pipeline for one pair. A nil Signal with a nil
// error means "no actionable opportunity this tick" (cooldown active, no
// direction met min_spread_bps, or net profit below threshold) — distinct
// from an error, which always indicates an I/O or validation failure.
func (g *Generator) Generate(ctx context.Context, pair PairConfig, size money.Decimal, buyVenue, sellVenue string, now time.Time) (*Signal, error) {
	g.mu.Lock()
	last, seen := g.lastSignalAt[pair.Symbol]
	if seen && now.Sub(last) < g.cfg.Cooldown {
		g.mu.Unlock()
		return nil, nil
	}
	g.mu.Unlock()

	book, err := g.cex.FetchOrderBook(ctx, pair.Symbol, 20)
	if err != nil {
		return nil, fmt.Errorf("signal: fetch_order_book: %w", err)
	}
	cexBid, cexAsk := book.BestBid, book.BestAsk

	baseAmount := money.TokenAmountFromHuman(size, pair.BaseDecimals)
	sellQuote, err := g.dex.GetQuote(ctx, pair.BaseToken.Address, pair.QuoteToken.Address, baseAmount.Raw, g.cfg.GasPriceGwei, g.cfg.Sender)
	if err != nil {
		return nil, fmt.Errorf("signal: dex sell-side quote: %w", err)
	}
	if sellQuote.SimulatedOutput == nil || sellQuote.SimulatedOutput.Sign() <= 0 {
		return nil, fmt.Errorf("signal: dex sell-side quote returned zero output: %w", errs.ErrSimulationFailed)
	}
	dexSellPrice := money.TokenAmount{Raw: sellQuote.SimulatedOutput, Decimals: pair.QuoteDecimals}.Human().Div(size)

	quoteSpend := size.Mul(cexAsk)
	quoteAmount := money.TokenAmountFromHuman(quoteSpend, pair.QuoteDecimals)
	buyQuote, err := g.dex.GetQuote(ctx, pair.QuoteToken.Address, pair.BaseToken.Address, quoteAmount.Raw, g.cfg.GasPriceGwei, g.cfg.Sender)
	if err != nil {
		return nil, fmt.Errorf("signal: dex buy-side quote: %w", err)
	}
	if buyQuote.SimulatedOutput == nil || buyQuote.SimulatedOutput.Sign() <= 0 {
		return nil, fmt.Errorf("signal: dex buy-side quote returned zero output: %w", errs.ErrSimulationFailed)
	}
	dexBasePurchased := money.TokenAmount{Raw: buyQuote.SimulatedOutput, Decimals: pair.BaseDecimals}.Human()
	dexBuyPrice := quoteSpend.Div(dexBasePurchased)

	spreadA, err := money.RelBps(dexSellPrice, cexAsk) // buy CEX, sell DEX
	if err != nil {
		return nil, fmt.Errorf("signal: spread A: %w", err)
	}
	spreadB, err := money.RelBps(cexBid, dexBuyPrice) // buy DEX, sell CEX
	if err != nil {
		return nil, fmt.Errorf("signal: spread B: %w", err)
	}

	var direction Direction
	var spreadBps, legPrice1 money.Decimal
	switch {
	case spreadA.GreaterThanOrEqual(g.cfg.MinSpreadBps) && spreadA.GreaterThanOrEqual(spreadB):
		direction, spreadBps, legPrice1 = BuyCexSellDex, spreadA, cexAsk
	case spreadB.GreaterThanOrEqual(g.cfg.MinSpreadBps):
		direction, spreadBps, legPrice1 = BuyDexSellCex, spreadB, dexBuyPrice
	default:
		return nil, nil
	}

	tradeValue := size.Mul(legPrice1)
	gross := spreadBps.Div(money.BpsDivisor).Mul(tradeValue)
	feeBps := g.cfg.Fees.TotalFeeBps(tradeValue)
	fees := feeBps.Div(money.BpsDivisor).Mul(tradeValue)
	net := gross.Sub(fees)

	if net.LessThan(g.cfg.MinProfitUSD) {
		return nil, nil
	}

	inventoryOK := g.checkInventory(direction, pair, size, cexAsk, cexBid, buyVenue, sellVenue)

	sig := &Signal{
		ID:           idFor(pair.Symbol, now),
		PairSymbol:   pair.Symbol,
		BaseToken:    pair.BaseToken.Address,
		QuoteToken:   pair.QuoteToken.Address,
		Direction:    direction,
		CexPrice:     pickCexPrice(direction, cexAsk, cexBid),
		DexPrice:     pickDexPrice(direction, dexSellPrice, dexBuyPrice),
		SpreadBps:    spreadBps,
		Size:         size,
		Expected:     Economics{Gross: gross, Fees: fees, Net: net},
		Timestamp:    now,
		Expiry:       now.Add(g.cfg.SignalTTL),
		InventoryOK:  inventoryOK,
		WithinLimits: true,
	}

	g.mu.Lock()
	g.lastSignalAt[pair.Symbol] = now
	g.mu.Unlock()

	return sig, nil
}

func pickCexPrice(dir Direction, ask, bid money.Decimal) money.Decimal {
	if dir == BuyCexSellDex {
		return ask
	}
	return bid
}

func pickDexPrice(dir Direction, sellPrice, buyPrice money.Decimal) money.Decimal {
	if dir == BuyCexSellDex {
		return sellPrice
	}
	return buyPrice
}

// checkInventory implements spec.md §4.5 step 7: for BUY_CEX_SELL_DEX
// require CEX quote balance >= size*cex_ask*1.01 AND wallet base >= size;
// mirrored for the opposite direction.
func (g *Generator) checkInventory(dir Direction, pair PairConfig, size, cexAsk, cexBid money.Decimal, buyVenue, sellVenue string) bool {
	buffer := money.NewFromString("1.01")
	if dir == BuyCexSellDex {
		requiredQuote := size.Mul(cexAsk).Mul(buffer)
		v := g.inventory.CanExecute(buyVenue, pair.QuoteToken.Symbol, requiredQuote, sellVenue, pair.BaseToken.Symbol, size)
		return v.OK
	}
	requiredBase := size
	v := g.inventory.CanExecute(buyVenue, pair.BaseToken.Symbol, requiredBase, sellVenue, pair.QuoteToken.Symbol, size.Mul(cexBid))
	return v.OK
}
