// Package inventory tracks per-venue balances, admits trades against
// available balance, and reports rebalance skew across venues.
package inventory

import (
	"fmt"
	"sync"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
)

// Balance is one asset's balance at one venue.
type Balance struct {
	Free   money.Decimal
	Locked money.Decimal
}

// Total returns Free + Locked.
func (b Balance) Total() money.Decimal {
	return b.Free.Add(b.Locked)
}

// ReasonCode is a machine-readable verdict reason for CanExecute.
type ReasonCode string

const (
	ReasonOK                       ReasonCode = "ok"
	ReasonInsufficientBuyBalance   ReasonCode = "insufficientBuyBalance"
	ReasonInsufficientSellBalance  ReasonCode = "insufficientSellBalance"
)

// Verdict is the outcome of a CanExecute admission check.
type Verdict struct {
	OK     bool
	Reason ReasonCode
}

// Tracker exclusively owns per-venue balance snapshots. All mutation is
// synchronous; callers on the single orchestrator scheduler never need
// external synchronization, but the mutex makes the type safe if the
// goroutine-per-leg executor (spec.md §9 redesign) reads concurrently with
// an orchestrator-driven update.
type Tracker struct {
	mu        sync.RWMutex
	snapshots map[string]map[string]Balance // venue -> asset -> balance
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{snapshots: make(map[string]map[string]Balance)}
}

// UpdateFromCEX replaces venue's full balance snapshot with the CEX's
// free/locked report.
func (t *Tracker) UpdateFromCEX(venue string, balances map[string]Balance) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Balance, len(balances))
	for asset, b := range balances {
		out[asset] = b
	}
	t.snapshots[venue] = out
}

// UpdateFromWallet replaces venue's snapshot with on-chain wallet amounts,
// treating the entire balance as free (a wallet has no resting-order lock
// concept).
func (t *Tracker) UpdateFromWallet(venue string, amounts map[string]money.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Balance, len(amounts))
	for asset, amt := range amounts {
		out[asset] = Balance{Free: amt}
	}
	t.snapshots[venue] = out
}

// GetAvailable returns the free amount of asset at venue; zero if absent.
func (t *Tracker) GetAvailable(venue, asset string) money.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	venueBalances, ok := t.snapshots[venue]
	if !ok {
		return money.Zero
	}
	return venueBalances[asset].Free
}

// CanExecute checks that both legs of a round-trip trade have sufficient
// free balance, returning a machine-readable verdict.
func (t *Tracker) CanExecute(buyVenue, buyAsset string, buyAmount money.Decimal, sellVenue, sellAsset string, sellAmount money.Decimal) Verdict {
	if t.GetAvailable(buyVenue, buyAsset).LessThan(buyAmount) {
		return Verdict{OK: false, Reason: ReasonInsufficientBuyBalance}
	}
	if t.GetAvailable(sellVenue, sellAsset).LessThan(sellAmount) {
		return Verdict{OK: false, Reason: ReasonInsufficientSellBalance}
	}
	return Verdict{OK: true, Reason: ReasonOK}
}

// RecordTrade applies a fill's balance deltas in place: base decreases (or
// increases) by base_amount and quote moves the opposite direction by
// quote_amount, minus the fee from fee_asset. side "buy" spends quote for
// base; "sell" spends base for quote.
func (t *Tracker) RecordTrade(venue, side, base, quote string, baseAmount, quoteAmount, fee money.Decimal, feeAsset string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	venueBalances, ok := t.snapshots[venue]
	if !ok {
		return fmt.Errorf("inventory: unknown venue %q: %w", venue, errs.ErrUnknownVenue)
	}

	switch side {
	case "buy":
		venueBalances[base] = adjustFree(venueBalances[base], baseAmount)
		venueBalances[quote] = adjustFree(venueBalances[quote], quoteAmount.Neg())
	case "sell":
		venueBalances[base] = adjustFree(venueBalances[base], baseAmount.Neg())
		venueBalances[quote] = adjustFree(venueBalances[quote], quoteAmount)
	default:
		return fmt.Errorf("inventory: unknown trade side %q: %w", side, errs.ErrInvalidInput)
	}

	if fee.IsPositive() {
		venueBalances[feeAsset] = adjustFree(venueBalances[feeAsset], fee.Neg())
	}
	return nil
}

func adjustFree(b Balance, delta money.Decimal) Balance {
	b.Free = b.Free.Add(delta)
	return b
}

// Skew is the per-venue share of an asset's total holdings and the maximum
// deviation from an even split across venues.
type Skew struct {
	SharesByVenue   map[string]money.Decimal
	MaxDeviation    money.Decimal
	NeedsRebalance  bool
}

// rebalanceThreshold is the fraction (30%) at or above which Skew signals a
// rebalance is due.
var rebalanceThreshold = money.FromBps(3000)

// SkewOf computes per-venue percentage shares of asset and the maximum
// deviation from an even split; needs_rebalance iff maxDeviation >= 30%.
func (t *Tracker) SkewOf(asset string) Skew {
	t.mu.RLock()
	defer t.mu.RUnlock()

	type venueTotal struct {
		venue string
		total money.Decimal
	}
	var totals []venueTotal
	grandTotal := money.Zero
	for venue, balances := range t.snapshots {
		bal, ok := balances[asset]
		if !ok {
			continue
		}
		total := bal.Total()
		totals = append(totals, venueTotal{venue: venue, total: total})
		grandTotal = grandTotal.Add(total)
	}

	shares := make(map[string]money.Decimal, len(totals))
	if grandTotal.IsZero() || len(totals) == 0 {
		return Skew{SharesByVenue: shares}
	}

	evenShare := money.One.Div(money.NewFromInt(int64(len(totals))))
	maxDeviation := money.Zero
	for _, vt := range totals {
		share := vt.total.Div(grandTotal)
		shares[vt.venue] = share
		dev := share.Sub(evenShare).Abs()
		if dev.GreaterThan(maxDeviation) {
			maxDeviation = dev
		}
	}

	return Skew{
		SharesByVenue:  shares,
		MaxDeviation:   maxDeviation,
		NeedsRebalance: maxDeviation.GreaterThanOrEqual(rebalanceThreshold),
	}
}
