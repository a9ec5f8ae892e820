package orderbook

import (
	"fmt"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
)

// Fill is one consumed level during a walk-the-book simulation.
type Fill struct {
	Price money.Decimal
	Qty   money.Decimal
}

// WalkResult is the outcome of walking one side of the book for a target
// quantity.
type WalkResult struct {
	AvgPrice       money.Decimal
	TotalCost      money.Decimal
	SlippageBps    money.Decimal
	LevelsConsumed int
	FullyFilled    bool
	Fills          []Fill
}

// WalkTheBook simulates filling qty on the given side: Buy walks asks
// ascending, Sell walks bids descending, taking min(remaining, level_qty) at
// each level and accumulating cost.
func (b Book) WalkTheBook(side Side, qty money.Decimal) (WalkResult, error) {
	if !qty.IsPositive() {
		return WalkResult{}, fmt.Errorf("orderbook: walk quantity must be positive: %w", errs.ErrNonPositiveSize)
	}

	levels := b.levelsFor(side)
	best := b.bestFor(side)

	remaining := qty
	totalCost := money.Zero
	totalQty := money.Zero
	var fills []Fill

	for _, l := range levels {
		if !remaining.IsPositive() {
			break
		}
		taken := l.Qty
		if remaining.LessThan(taken) {
			taken = remaining
		}
		fills = append(fills, Fill{Price: l.Price, Qty: taken})
		totalCost = totalCost.Add(taken.Mul(l.Price))
		totalQty = totalQty.Add(taken)
		remaining = remaining.Sub(taken)
	}

	avgPrice := money.Zero
	if totalQty.IsPositive() {
		avgPrice = totalCost.Div(totalQty)
	}

	slippageBps, err := money.AbsRelBps(avgPrice, best)
	if err != nil {
		return WalkResult{}, fmt.Errorf("orderbook: walk slippage: %w", err)
	}

	return WalkResult{
		AvgPrice:       avgPrice,
		TotalCost:      totalCost,
		SlippageBps:    slippageBps,
		LevelsConsumed: len(fills),
		FullyFilled:    !remaining.IsPositive(),
		Fills:          fills,
	}, nil
}

// DepthAtBps sums the size resting within bps of the best price on the given
// side: for Buy (asks) that is [best, best*(1+bps/10000)]; for Sell (bids)
// it is [best*(1-bps/10000), best].
func (b Book) DepthAtBps(side Side, bps int64) money.Decimal {
	best := b.bestFor(side)
	band := money.FromBps(bps)

	var bound money.Decimal
	if side == Buy {
		bound = best.Mul(money.One.Add(band))
	} else {
		bound = best.Mul(money.One.Sub(band))
	}

	total := money.Zero
	for _, l := range b.levelsFor(side) {
		if side == Buy {
			if l.Price.GreaterThan(bound) {
				break
			}
		} else {
			if l.Price.LessThan(bound) {
				break
			}
		}
		total = total.Add(l.Qty)
	}
	return total
}

// Imbalance computes (sum_bid_qty - sum_ask_qty)/(sum_bid_qty + sum_ask_qty)
// over the top N levels of each side; 0 if the denominator is 0.
func (b Book) Imbalance(n int) money.Decimal {
	bidQty := sumTopN(b.Bids, n)
	askQty := sumTopN(b.Asks, n)
	denom := bidQty.Add(askQty)
	if denom.IsZero() {
		return money.Zero
	}
	return bidQty.Sub(askQty).Div(denom)
}

func sumTopN(levels []Level, n int) money.Decimal {
	total := money.Zero
	for i, l := range levels {
		if i >= n {
			break
		}
		total = total.Add(l.Qty)
	}
	return total
}

// EffectiveSpread is the relative gap between round-trip average execution
// prices for qty, expressed in bps of the mid: walking qty as a buy (through
// asks) and as a sell (through bids), then comparing the two averages.
func (b Book) EffectiveSpread(qty money.Decimal) (money.Decimal, error) {
	buy, err := b.WalkTheBook(Buy, qty)
	if err != nil {
		return money.Zero, fmt.Errorf("orderbook: effective spread buy leg: %w", err)
	}
	sell, err := b.WalkTheBook(Sell, qty)
	if err != nil {
		return money.Zero, fmt.Errorf("orderbook: effective spread sell leg: %w", err)
	}
	if b.Mid.IsZero() {
		return money.Zero, fmt.Errorf("orderbook: %s mid is zero: %w", b.Symbol, errs.ErrInvalidInput)
	}
	gap := buy.AvgPrice.Sub(sell.AvgPrice)
	return gap.Div(b.Mid).Mul(money.BpsDivisor), nil
}
