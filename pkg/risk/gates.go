// Package risk implements the three layered admission gates applied to
// every candidate signal: pre-trade validation, portfolio risk limits, and
// an absolute, non-configurable safety floor.
package risk

import (
	"fmt"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
)

// Candidate is the minimal view of a Signal a gate needs to evaluate.
type Candidate struct {
	SpreadBps    money.Decimal
	CexPrice     money.Decimal
	DexPrice     money.Decimal
	Size         money.Decimal
	ExpectedNet  money.Decimal
	TradeUSD     money.Decimal
	CreatedAt    time.Time
	Now          time.Time
}

// Gate is implemented by every admission stage so the orchestrator chains
// them uniformly.
type Gate interface {
	Evaluate(c Candidate) error
}

// maxPretradeAge and maxPretradeSpreadBps are the pre-trade validator's
// sanity bounds from spec.md §4.7.
const (
	maxPretradeAge       = 5 * time.Second
	maxPretradeSpreadBps = 500
)

// PreTradeValidator rejects stale, crossed, or malformed candidates before
// any risk accounting runs.
type PreTradeValidator struct{}

func (PreTradeValidator) Evaluate(c Candidate) error {
	if !c.CexPrice.IsPositive() || !c.DexPrice.IsPositive() {
		return fmt.Errorf("risk: pre-trade: non-positive price: %w", errs.ErrPreTradeVeto)
	}
	if !c.Size.IsPositive() {
		return fmt.Errorf("risk: pre-trade: non-positive size: %w", errs.ErrPreTradeVeto)
	}
	if c.SpreadBps.Abs().GreaterThan(money.NewFromInt(maxPretradeSpreadBps)) {
		return fmt.Errorf("risk: pre-trade: spread %s bps exceeds sanity bound (bad data): %w", c.SpreadBps, errs.ErrPreTradeVeto)
	}
	if c.Now.Sub(c.CreatedAt) > maxPretradeAge {
		return fmt.Errorf("risk: pre-trade: candidate age exceeds %s: %w", maxPretradeAge, errs.ErrPreTradeVeto)
	}
	return nil
}

// RiskLimits is the operator-configurable portfolio risk policy.
type RiskLimits struct {
	MaxTradeUSD          money.Decimal
	MaxTradePctCapital   money.Decimal
	MaxDailyLossUSD      money.Decimal
	MaxDrawdownPct       money.Decimal
	MaxConsecutiveLosses int
	MaxTradesPerHour     int
}

// PortfolioState is the live accounting RiskManager evaluates against.
type PortfolioState struct {
	Capital             money.Decimal
	PeakCapital         money.Decimal
	DailyLossUSD        money.Decimal // negative value for a loss
	ConsecutiveLosses   int
	TradesInLastHour    int
}

// RiskManager enforces per-trade, daily-loss, drawdown, consecutive-loss,
// and trade-frequency caps.
type RiskManager struct {
	Limits RiskLimits
	State  PortfolioState
}

func (r RiskManager) Evaluate(c Candidate) error {
	if c.TradeUSD.GreaterThan(r.Limits.MaxTradeUSD) {
		return fmt.Errorf("risk: per-trade cap %s exceeded by %s: %w", r.Limits.MaxTradeUSD, c.TradeUSD, errs.ErrRiskVeto)
	}
	if r.State.Capital.IsPositive() {
		pct := c.TradeUSD.Div(r.State.Capital)
		if pct.GreaterThan(r.Limits.MaxTradePctCapital) {
			return fmt.Errorf("risk: per-trade pct-of-capital cap exceeded: %w", errs.ErrRiskVeto)
		}
	}
	if r.State.DailyLossUSD.LessThan(r.Limits.MaxDailyLossUSD) {
		return fmt.Errorf("risk: daily loss cap breached: %w", errs.ErrRiskVeto)
	}
	if r.State.PeakCapital.IsPositive() {
		drawdown := r.State.PeakCapital.Sub(r.State.Capital).Div(r.State.PeakCapital)
		if drawdown.GreaterThan(r.Limits.MaxDrawdownPct) {
			return fmt.Errorf("risk: drawdown cap breached: %w", errs.ErrRiskVeto)
		}
	}
	if r.State.ConsecutiveLosses >= r.Limits.MaxConsecutiveLosses {
		return fmt.Errorf("risk: consecutive-loss cap reached: %w", errs.ErrRiskVeto)
	}
	if r.State.TradesInLastHour >= r.Limits.MaxTradesPerHour {
		return fmt.Errorf("risk: trades-per-hour cap reached: %w", errs.ErrRiskVeto)
	}
	return nil
}

// Hard floors the operator cannot raise, per spec.md §4.7. Unexported so no
// config path can override them.
const (
	safetyMaxTradeUSD      = 25
	safetyMinDailyLossUSD  = -20
	safetyMinCapitalUSD    = 50
	safetyMaxTradesPerHour = 30
)

// SafetyCheck is the final, absolute gate. Its failure is fatal to the
// orchestrator loop (errs.Fatal reports true for its error).
type SafetyCheck struct {
	CapitalUSD       money.Decimal
	DailyLossUSD     money.Decimal
	TradesInLastHour int
}

func (s SafetyCheck) Evaluate(c Candidate) error {
	if c.TradeUSD.GreaterThan(money.NewFromInt(safetyMaxTradeUSD)) {
		return fmt.Errorf("risk: safety: trade_usd %s exceeds hard floor %d: %w", c.TradeUSD, safetyMaxTradeUSD, errs.ErrSafetyVeto)
	}
	if s.DailyLossUSD.LessThan(money.NewFromInt(safetyMinDailyLossUSD)) {
		return fmt.Errorf("risk: safety: daily loss %s below hard floor %d: %w", s.DailyLossUSD, safetyMinDailyLossUSD, errs.ErrSafetyVeto)
	}
	if s.CapitalUSD.LessThan(money.NewFromInt(safetyMinCapitalUSD)) {
		return fmt.Errorf("risk: safety: capital %s below hard floor %d: %w", s.CapitalUSD, safetyMinCapitalUSD, errs.ErrSafetyVeto)
	}
	if s.TradesInLastHour > safetyMaxTradesPerHour {
		return fmt.Errorf("risk: safety: trades/hour %d exceeds hard floor %d: %w", s.TradesInLastHour, safetyMaxTradesPerHour, errs.ErrSafetyVeto)
	}
	return nil
}

// Chain evaluates gates in order, short-circuiting at the first rejection.
func Chain(c Candidate, gates ...Gate) error {
	for _, g := range gates {
		if err := g.Evaluate(c); err != nil {
			return err
		}
	}
	return nil
}
