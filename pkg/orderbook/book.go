// Package orderbook implements Level-2 order-book analytics over decimal
// arithmetic: walk-the-book fills, depth, imbalance, and effective spread.
package orderbook

import (
	"fmt"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
)

// Side selects which side of the book an operation targets.
type Side int

const (
	Buy Side = iota
	Sell
)

// Level is one price level: a price and the quantity resting at it.
type Level struct {
	Price money.Decimal
	Qty   money.Decimal
}

// Book is a normalized Level-2 order book. Bids are sorted price descending,
// asks price ascending, both non-empty, with best_ask > best_bid.
type Book struct {
	Symbol    string
	Timestamp time.Time
	Bids      []Level
	Asks      []Level
	BestBid   money.Decimal
	BestAsk   money.Decimal
	Mid       money.Decimal
	SpreadBps money.Decimal
}

// New validates and constructs a normalized Book from raw bid/ask levels.
// bids and asks must already be sorted (descending, ascending respectively);
// New only validates the invariant, it does not sort.
func New(symbol string, timestamp time.Time, bids, asks []Level) (Book, error) {
	if len(bids) == 0 || len(asks) == 0 {
		return Book{}, fmt.Errorf("orderbook: empty side for %s: %w", symbol, errs.ErrEmptyOrderBook)
	}
	if err := checkMonotonic(bids, true); err != nil {
		return Book{}, fmt.Errorf("orderbook: %s bids: %w", symbol, err)
	}
	if err := checkMonotonic(asks, false); err != nil {
		return Book{}, fmt.Errorf("orderbook: %s asks: %w", symbol, err)
	}

	bestBid := bids[0].Price
	bestAsk := asks[0].Price
	if !bestAsk.GreaterThan(bestBid) {
		return Book{}, fmt.Errorf("orderbook: %s best_ask %s must exceed best_bid %s: %w",
			symbol, bestAsk, bestBid, errs.ErrNonMonotonicBook)
	}

	mid := bestBid.Add(bestAsk).Div(money.TwoDecimal)
	if mid.IsZero() {
		return Book{}, fmt.Errorf("orderbook: %s spread: mid price is zero", symbol)
	}
	spreadBps := bestAsk.Sub(bestBid).Div(mid).Mul(money.BpsDivisor)

	return Book{
		Symbol:    symbol,
		Timestamp: timestamp,
		Bids:      append([]Level(nil), bids...),
		Asks:      append([]Level(nil), asks...),
		BestBid:   bestBid,
		BestAsk:   bestAsk,
		Mid:       mid,
		SpreadBps: spreadBps,
	}, nil
}

func checkMonotonic(levels []Level, descending bool) error {
	for i := 1; i < len(levels); i++ {
		prev, cur := levels[i-1].Price, levels[i].Price
		ok := cur.LessThan(prev)
		if !descending {
			ok = cur.GreaterThan(prev)
		}
		if !ok {
			return fmt.Errorf("levels not strictly monotonic at index %d: %w", i, errs.ErrNonMonotonicBook)
		}
	}
	for _, l := range levels {
		if !l.Qty.IsPositive() {
			return fmt.Errorf("non-positive level quantity %s: %w", l.Qty, errs.ErrInvalidInput)
		}
	}
	return nil
}

func (b Book) levelsFor(side Side) []Level {
	if side == Buy {
		return b.Asks
	}
	return b.Bids
}

func (b Book) bestFor(side Side) money.Decimal {
	if side == Buy {
		return b.BestAsk
	}
	return b.BestBid
}

// TotalLiquidity sums the quantity resting on one side of the book.
func (b Book) TotalLiquidity(side Side) money.Decimal {
	total := money.Zero
	for _, l := range b.levelsFor(side) {
		total = total.Add(l.Qty)
	}
	return total
}
