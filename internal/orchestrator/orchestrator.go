// Package orchestrator drives the tick loop that ties every core component
// together: per spec.md §2's data flow, each tick walks the tracked pairs,
// consults the pricing engine and signal generator, runs the admission
// gates, scores, executes, and records the outcome.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blackhole-labs/arbforge/internal/alert"
	"github.com/blackhole-labs/arbforge/internal/db"
	"github.com/blackhole-labs/arbforge/internal/metrics"
	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/executor"
	"github.com/blackhole-labs/arbforge/pkg/inventory"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/risk"
	"github.com/blackhole-labs/arbforge/pkg/scoring"
	"github.com/blackhole-labs/arbforge/pkg/signal"
	"go.uber.org/zap"
)

// TrackedPair binds a signal.PairConfig to the venues it trades between and
// the trade size each tick proposes.
type TrackedPair struct {
	Config    signal.PairConfig
	BuyVenue  string
	SellVenue string
	Size      float64
}

// Config holds the orchestrator's tunables.
type Config struct {
	TickInterval       time.Duration
	BackoffInterval    time.Duration
	KillSwitchPath     string
	StartingCapitalUSD money.Decimal
	Pairs              []TrackedPair
}

// Loop owns the tick cadence and wires Signal Generator -> Risk gates ->
// Scorer -> Executor, per spec.md §2. It also owns the live portfolio
// accounting (capital, daily loss, consecutive losses, trade frequency)
// that the RiskManager and SafetyCheck gates evaluate against: neither gate
// mutates its own state, so the loop updates the pointers it was handed in
// gates after every terminal executor outcome.
type Loop struct {
	cfg       Config
	generator *signal.Generator
	scorer    *scoring.Scorer
	gates     []risk.Gate
	riskMgr   *risk.RiskManager
	safety    *risk.SafetyCheck
	exec      *executor.Machine
	inv       *inventory.Tracker
	recorder  db.Recorder
	notifier  alert.Notifier
	log       *zap.Logger

	tradeTimestamps []time.Time
}

// New constructs a Loop from its fully wired dependencies. gates must
// contain a *risk.RiskManager and a *risk.SafetyCheck (any order, alongside
// any other risk.Gate) so the loop can seed and update their live portfolio
// state from cfg.StartingCapitalUSD.
func New(cfg Config, gen *signal.Generator, scorer *scoring.Scorer, gates []risk.Gate, exec *executor.Machine, inv *inventory.Tracker, recorder db.Recorder, notifier alert.Notifier, log *zap.Logger) *Loop {
	l := &Loop{cfg: cfg, generator: gen, scorer: scorer, gates: gates, exec: exec, inv: inv, recorder: recorder, notifier: notifier, log: log}
	for _, g := range gates {
		switch gate := g.(type) {
		case *risk.RiskManager:
			l.riskMgr = gate
		case *risk.SafetyCheck:
			l.safety = gate
		}
	}
	if l.riskMgr != nil {
		l.riskMgr.State.Capital = cfg.StartingCapitalUSD
		l.riskMgr.State.PeakCapital = cfg.StartingCapitalUSD
	}
	if l.safety != nil {
		l.safety.CapitalUSD = cfg.StartingCapitalUSD
	}
	return l
}

// Run drives the loop until ctx is cancelled, a safety veto fires, or the
// kill switch file appears. It returns nil on a clean stop.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if l.killSwitchActive() {
			urgentAlert(l.log, l.notifier, "kill switch file present, stopping")
			return nil
		}

		if err := l.tick(ctx); err != nil {
			l.log.Error("tick failed", zap.Error(err))
			if errs.Fatal(err) {
				urgentAlert(l.log, l.notifier, fmt.Sprintf("safety veto fired, stopping: %v", err))
				return nil
			}
			time.Sleep(l.cfg.BackoffInterval)
		}
		metrics.TicksTotal.Inc()
	}
}

func skewLevel(skew inventory.Skew) scoring.SkewLevel {
	if skew.NeedsRebalance {
		return scoring.SkewRed
	}
	return scoring.SkewGreen
}

func urgentAlert(log *zap.Logger, notifier alert.Notifier, msg string) {
	log.Error("URGENT: " + msg)
	_ = notifier.Urgent(msg)
}

func (l *Loop) killSwitchActive() bool {
	if l.cfg.KillSwitchPath == "" {
		return false
	}
	_, err := os.Stat(l.cfg.KillSwitchPath)
	return err == nil
}

// tick processes every tracked pair in order, per spec.md §5's "all
// operations for one pair complete before the next pair is processed."
func (l *Loop) tick(ctx context.Context) error {
	now := time.Now()
	for _, pair := range l.cfg.Pairs {
		if err := l.processPair(ctx, pair, now); err != nil {
			if errs.Fatal(err) {
				return err
			}
			l.log.Warn("pair processing failed", zap.String("pair", pair.Config.Symbol), zap.Error(err))
		}
	}
	return nil
}

func (l *Loop) processPair(ctx context.Context, pair TrackedPair, now time.Time) error {
	size := money.NewFromFloat(pair.Size)
	sig, err := l.generator.Generate(ctx, pair.Config, size, pair.BuyVenue, pair.SellVenue, now)
	if err != nil {
		return fmt.Errorf("orchestrator: generate signal: %w", err)
	}
	if sig == nil {
		return nil
	}
	metrics.SignalsGenerated.WithLabelValues(pair.Config.Symbol).Inc()

	candidate := risk.Candidate{
		SpreadBps:   sig.SpreadBps,
		CexPrice:    sig.CexPrice,
		DexPrice:    sig.DexPrice,
		Size:        sig.Size,
		ExpectedNet: sig.Expected.Net,
		TradeUSD:    sig.Size.Mul(sig.CexPrice),
		CreatedAt:   sig.Timestamp,
		Now:         now,
	}
	if err := risk.Chain(candidate, l.gates...); err != nil {
		l.log.Info("signal vetoed", zap.String("pair", pair.Config.Symbol), zap.Error(err))
		return err
	}

	skew := l.inv.SkewOf(pair.Config.BaseToken.Symbol)
	sig.Score = l.scorer.Score(pair.Config.BaseToken.Address, sig.SpreadBps, skewLevel(skew))

	ec := l.exec.Execute(ctx, sig, pair.BuyVenue, pair.SellVenue)
	return l.recordOutcome(pair, sig, ec)
}

func (l *Loop) recordOutcome(pair TrackedPair, sig *signal.Signal, ec *executor.ExecutionContext) error {
	result := "failed"
	if executor.IsTerminal(ec.State) {
		if _, ok := ec.State.(executor.Done); ok {
			result = "done"
			l.log.Info(fmt.Sprintf("SUCCESS: PnL=%s", ec.ActualNetPnL.String()), zap.String("pair", pair.Config.Symbol))
			pnl, _ := ec.ActualNetPnL.Float64()
			metrics.RealizedPnLUSD.WithLabelValues(pair.Config.Symbol).Add(pnl)
			l.updatePortfolio(sig.Timestamp, ec.ActualNetPnL)
		} else {
			l.log.Warn(fmt.Sprintf("FAILED: %s", ec.Error), zap.String("pair", pair.Config.Symbol))
			l.updatePortfolio(sig.Timestamp, money.Zero)
		}
	}
	metrics.ExecutionsTotal.WithLabelValues(pair.Config.Symbol, result).Inc()

	if l.recorder == nil {
		return nil
	}
	// sig.Expected.Fees is the signal-time total projected fee (CEX taker +
	// DEX swap + gas, per signal.FeeModel.TotalFeeBps); split evenly across
	// the two venue-fee columns since the executor doesn't track per-leg
	// actuals separately, and gas is already folded into that total.
	halfFee := sig.Expected.Fees.Div(money.NewFromInt(2))
	return l.recorder.Record(db.ArbRecord{
		ID:         sig.ID,
		Timestamp:  sig.Timestamp,
		BuyVenue:   pair.BuyVenue,
		SellVenue:  pair.SellVenue,
		Symbol:     pair.Config.Symbol,
		BuyPrice:   sig.CexPrice.String(),
		SellPrice:  sig.DexPrice.String(),
		Amount:     sig.Size.String(),
		FeeBuy:     halfFee.String(),
		FeeSell:    halfFee.String(),
		GasCostUSD: "0",
	})
}

// updatePortfolio folds one executed trade's outcome into the live
// RiskManager/SafetyCheck state every gate evaluates on the next tick.
// pnl is zero for a failed (non-Done) terminal outcome. Daily-loss
// accounting accumulates since loop start rather than resetting at
// midnight UTC, a simplification noted here rather than silently assumed.
func (l *Loop) updatePortfolio(tradeAt time.Time, pnl money.Decimal) {
	l.tradeTimestamps = append(l.tradeTimestamps, tradeAt)
	cutoff := tradeAt.Add(-time.Hour)
	fresh := l.tradeTimestamps[:0]
	for _, ts := range l.tradeTimestamps {
		if ts.After(cutoff) {
			fresh = append(fresh, ts)
		}
	}
	l.tradeTimestamps = fresh
	tradesInLastHour := len(l.tradeTimestamps)

	if l.riskMgr != nil {
		l.riskMgr.State.Capital = l.riskMgr.State.Capital.Add(pnl)
		if l.riskMgr.State.Capital.GreaterThan(l.riskMgr.State.PeakCapital) {
			l.riskMgr.State.PeakCapital = l.riskMgr.State.Capital
		}
		if pnl.IsNegative() {
			l.riskMgr.State.DailyLossUSD = l.riskMgr.State.DailyLossUSD.Add(pnl)
			l.riskMgr.State.ConsecutiveLosses++
		} else {
			l.riskMgr.State.ConsecutiveLosses = 0
		}
		l.riskMgr.State.TradesInLastHour = tradesInLastHour
	}
	if l.safety != nil {
		l.safety.CapitalUSD = l.safety.CapitalUSD.Add(pnl)
		if pnl.IsNegative() {
			l.safety.DailyLossUSD = l.safety.DailyLossUSD.Add(pnl)
		}
		l.safety.TradesInLastHour = tradesInLastHour
	}
}
