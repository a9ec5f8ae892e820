// Package scoring computes a weighted composite score for a candidate
// arbitrage signal, with time decay applied as the signal ages toward its
// expiry.
package scoring

import (
	"github.com/blackhole-labs/arbforge/pkg/money"
)

// SkewLevel is the minimal view of inventory skew the Scorer needs: whether
// the base asset is currently flagged RED by the Inventory Tracker.
type SkewLevel int

const (
	SkewGreen SkewLevel = iota
	SkewRed
)

// LiquidityScorer is the pluggable hook for the liquidity sub-score.
// spec.md §9's Open Question keeps this a documented constant placeholder
// (ConstantLiquidityScorer) behind this interface so a depth-aware
// implementation can be substituted without touching the composite.
type LiquidityScorer interface {
	Score(pairAddress money.Address) money.Decimal
}

// ConstantLiquidityScorer is the specified placeholder: every pair scores
// the same constant 80, regardless of actual depth.
type ConstantLiquidityScorer struct{}

func (ConstantLiquidityScorer) Score(money.Address) money.Decimal {
	return money.NewFromInt(80)
}

// HistoryTracker reports the rolling success ratio for a pair over its most
// recent results, used by the history sub-score.
type HistoryTracker interface {
	// SuccessRatio returns (ratio, sampleCount) over the most recent window
	// (20 results) for pair.
	SuccessRatio(pairAddress money.Address) (ratio money.Decimal, sampleCount int)
}

// Weights configures the composite score's linear combination; the zero
// value is invalid, use DefaultWeights.
type Weights struct {
	Spread    money.Decimal
	Liquidity money.Decimal
	Inventory money.Decimal
	History   money.Decimal
}

// DefaultWeights sums to 1.0, matching a typical weighted-composite
// configuration.
func DefaultWeights() Weights {
	return Weights{
		Spread:    money.FromBps(4000), // 0.40
		Liquidity: money.FromBps(2000), // 0.20
		Inventory: money.FromBps(2000), // 0.20
		History:   money.FromBps(2000), // 0.20
	}
}

// Thresholds configures the spread sub-score's linear ramp.
type Thresholds struct {
	MinSpreadBps       int64
	ExcellentSpreadBps int64
}

// DefaultThresholds matches spec.md's admission floor for min_spread_bps.
func DefaultThresholds() Thresholds {
	return Thresholds{MinSpreadBps: 10, ExcellentSpreadBps: 100}
}

// Scorer computes the weighted composite score for a candidate signal.
type Scorer struct {
	weights    Weights
	thresholds Thresholds
	liquidity  LiquidityScorer
	history    HistoryTracker
}

// New constructs a Scorer. A nil LiquidityScorer defaults to
// ConstantLiquidityScorer; a nil HistoryTracker yields the "insufficient
// samples" default of 50 for every pair.
func New(weights Weights, thresholds Thresholds, liquidity LiquidityScorer, history HistoryTracker) *Scorer {
	if liquidity == nil {
		liquidity = ConstantLiquidityScorer{}
	}
	return &Scorer{weights: weights, thresholds: thresholds, liquidity: liquidity, history: history}
}

var (
	hundred = money.NewFromInt(100)
	fifty   = money.NewFromInt(50)
	twenty  = money.NewFromInt(20)
	sixty   = money.NewFromInt(60)
)

// spreadScore is linear from 0 at min_spread_bps to 100 at
// excellent_spread_bps, clipped to [0,100].
func (s *Scorer) spreadScore(spreadBps money.Decimal) money.Decimal {
	minBps := money.NewFromInt(s.thresholds.MinSpreadBps)
	maxBps := money.NewFromInt(s.thresholds.ExcellentSpreadBps)
	span := maxBps.Sub(minBps)
	if span.IsZero() {
		return clip(money.Zero, money.Zero, hundred)
	}
	frac := spreadBps.Sub(minBps).Div(span).Mul(hundred)
	return clip(frac, money.Zero, hundred)
}

func clip(v, lo, hi money.Decimal) money.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// inventoryScore is 20 if skew for the base token is RED, 60 otherwise.
func (s *Scorer) inventoryScore(skew SkewLevel) money.Decimal {
	if skew == SkewRed {
		return twenty
	}
	return sixty
}

// historyScore is the rolling success ratio scaled to [0,100]; 50 when
// fewer than 3 samples exist.
func (s *Scorer) historyScore(pairAddress money.Address) money.Decimal {
	if s.history == nil {
		return fifty
	}
	ratio, n := s.history.SuccessRatio(pairAddress)
	if n < 3 {
		return fifty
	}
	return clip(ratio.Mul(hundred), money.Zero, hundred)
}

// Score computes the weighted composite for pairAddress given the
// candidate's spread and the current inventory skew level, clipped to
// [0,100] and rounded to one decimal.
func (s *Scorer) Score(pairAddress money.Address, spreadBps money.Decimal, skew SkewLevel) money.Decimal {
	spread := s.spreadScore(spreadBps)
	liquidity := clip(s.liquidity.Score(pairAddress), money.Zero, hundred)
	inventory := s.inventoryScore(skew)
	history := s.historyScore(pairAddress)

	composite := spread.Mul(s.weights.Spread).
		Add(liquidity.Mul(s.weights.Liquidity)).
		Add(inventory.Mul(s.weights.Inventory)).
		Add(history.Mul(s.weights.History))

	return clip(composite, money.Zero, hundred).Round(1)
}

// ApplyDecay scales score by max(0, 1 - age/ttl * 0.5), per spec.md §4.6.
func ApplyDecay(score money.Decimal, age, ttl money.Decimal) money.Decimal {
	if ttl.IsZero() {
		return money.Zero
	}
	half := money.FromBps(5000) // 0.5
	factor := money.One.Sub(age.Div(ttl).Mul(half))
	if factor.IsNegative() {
		factor = money.Zero
	}
	return score.Mul(factor)
}
