// Package configs loads arbforge's YAML configuration via viper (grounded
// on the teacher's yaml.v3-based configs.LoadConfig, generalized to viper
// for env-var overrides, matching spec.md §6's "environment toggles").
package configs

import (
	"fmt"
	"time"

	"github.com/blackhole-labs/arbforge/internal/orchestrator"
	"github.com/blackhole-labs/arbforge/pkg/executor"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/risk"
	"github.com/blackhole-labs/arbforge/pkg/scoring"
	"github.com/blackhole-labs/arbforge/pkg/signal"
	"github.com/spf13/viper"
)

// PairYAML is one tracked pair's YAML entry.
type PairYAML struct {
	Symbol        string `mapstructure:"symbol"`
	BaseToken     string `mapstructure:"baseToken"`
	QuoteToken    string `mapstructure:"quoteToken"`
	BaseDecimals  uint8  `mapstructure:"baseDecimals"`
	QuoteDecimals uint8  `mapstructure:"quoteDecimals"`
	BuyVenue      string `mapstructure:"buyVenue"`
	SellVenue     string `mapstructure:"sellVenue"`
	Size          float64 `mapstructure:"size"`
}

// Config is the full YAML-decoded configuration tree.
type Config struct {
	Production     bool       `mapstructure:"production"`
	RPC            string     `mapstructure:"rpc"`
	KillSwitchPath string     `mapstructure:"killSwitchPath"`
	Pairs          []PairYAML `mapstructure:"pairs"`

	TickIntervalSec    int     `mapstructure:"tickIntervalSec"`
	BackoffIntervalSec int     `mapstructure:"backoffIntervalSec"`
	StartingCapitalUSD float64 `mapstructure:"startingCapitalUsd"`

	Signal struct {
		CooldownSec      int     `mapstructure:"cooldownSec"`
		SignalTTLSec     int     `mapstructure:"signalTtlSec"`
		MinSpreadBps     float64 `mapstructure:"minSpreadBps"`
		MinProfitUSD     float64 `mapstructure:"minProfitUsd"`
		GasPriceGwei     int64   `mapstructure:"gasPriceGwei"`
		CexTakerFeeBps   float64 `mapstructure:"cexTakerFeeBps"`
		DexSwapFeeBps    float64 `mapstructure:"dexSwapFeeBps"`
		GasUSD           float64 `mapstructure:"gasUsd"`
	} `mapstructure:"signal"`

	Risk struct {
		MaxTradeUSD          float64 `mapstructure:"maxTradeUsd"`
		MaxTradePctCapital   float64 `mapstructure:"maxTradePctCapital"`
		MaxDailyLossUSD      float64 `mapstructure:"maxDailyLossUsd"`
		MaxDrawdownPct       float64 `mapstructure:"maxDrawdownPct"`
		MaxConsecutiveLosses int     `mapstructure:"maxConsecutiveLosses"`
		MaxTradesPerHour     int     `mapstructure:"maxTradesPerHour"`
	} `mapstructure:"risk"`

	Executor struct {
		DexFirst                bool `mapstructure:"dexFirst"`
		Leg1TimeoutSec          int  `mapstructure:"leg1TimeoutSec"`
		Leg2TimeoutSec          int  `mapstructure:"leg2TimeoutSec"`
		MinFillRatio            float64 `mapstructure:"minFillRatio"`
		ReplayTTLSec            int  `mapstructure:"replayTtlSec"`
		CircuitFailureThreshold uint32 `mapstructure:"circuitFailureThreshold"`
		CircuitWindowSec        int  `mapstructure:"circuitWindowSec"`
		CircuitCooldownSec      int  `mapstructure:"circuitCooldownSec"`
	} `mapstructure:"executor"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chatId"`
	} `mapstructure:"telegram"`

	MySQLDSN string `mapstructure:"mysqlDsn"`
	PnLCSVPath string `mapstructure:"pnlCsvPath"`
}

// Load reads path (YAML) via viper, allowing ARBFORGE_-prefixed environment
// variables to override any key, per spec.md §6's environment toggles.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ARBFORGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("configs: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("configs: unmarshal: %w", err)
	}
	return &cfg, nil
}

// ToSignalConfig builds pkg/signal.Config from the YAML tree.
func (c *Config) ToSignalConfig(sender money.Address) signal.Config {
	return signal.Config{
		Cooldown:     time.Duration(c.Signal.CooldownSec) * time.Second,
		SignalTTL:    time.Duration(c.Signal.SignalTTLSec) * time.Second,
		MinSpreadBps: money.NewFromFloat(c.Signal.MinSpreadBps),
		MinProfitUSD: money.NewFromFloat(c.Signal.MinProfitUSD),
		GasPriceGwei: c.Signal.GasPriceGwei,
		Sender:       sender,
		Fees: signal.FeeModel{
			CexTakerBps: money.NewFromFloat(c.Signal.CexTakerFeeBps),
			DexSwapBps:  money.NewFromFloat(c.Signal.DexSwapFeeBps),
			GasUSD:      money.NewFromFloat(c.Signal.GasUSD),
		},
	}
}

// ToRiskLimits builds pkg/risk.RiskLimits from the YAML tree.
func (c *Config) ToRiskLimits() risk.RiskLimits {
	return risk.RiskLimits{
		MaxTradeUSD:          money.NewFromFloat(c.Risk.MaxTradeUSD),
		MaxTradePctCapital:   money.NewFromFloat(c.Risk.MaxTradePctCapital),
		MaxDailyLossUSD:      money.NewFromFloat(c.Risk.MaxDailyLossUSD),
		MaxDrawdownPct:       money.NewFromFloat(c.Risk.MaxDrawdownPct),
		MaxConsecutiveLosses: c.Risk.MaxConsecutiveLosses,
		MaxTradesPerHour:     c.Risk.MaxTradesPerHour,
	}
}

// ToExecutorConfig builds pkg/executor.Config from the YAML tree.
func (c *Config) ToExecutorConfig(sender money.Address) executor.Config {
	cfg := executor.DefaultConfig()
	cfg.DexFirst = c.Executor.DexFirst
	if c.Executor.Leg1TimeoutSec > 0 {
		cfg.Leg1Timeout = time.Duration(c.Executor.Leg1TimeoutSec) * time.Second
	}
	if c.Executor.Leg2TimeoutSec > 0 {
		cfg.Leg2Timeout = time.Duration(c.Executor.Leg2TimeoutSec) * time.Second
	}
	if c.Executor.MinFillRatio > 0 {
		cfg.MinFillRatio = money.NewFromFloat(c.Executor.MinFillRatio)
	}
	if c.Executor.ReplayTTLSec > 0 {
		cfg.ReplayTTL = time.Duration(c.Executor.ReplayTTLSec) * time.Second
	}
	if c.Executor.CircuitFailureThreshold > 0 {
		cfg.CircuitFailureThreshold = c.Executor.CircuitFailureThreshold
	}
	if c.Executor.CircuitWindowSec > 0 {
		cfg.CircuitWindow = time.Duration(c.Executor.CircuitWindowSec) * time.Second
	}
	if c.Executor.CircuitCooldownSec > 0 {
		cfg.CircuitCooldown = time.Duration(c.Executor.CircuitCooldownSec) * time.Second
	}
	cfg.Sender = sender
	cfg.GasPriceGwei = c.Signal.GasPriceGwei
	return cfg
}

// ToOrchestratorConfig builds internal/orchestrator.Config; resolveToken
// looks up a money.Token by its symbol (from the chain client's configured
// token set).
func (c *Config) ToOrchestratorConfig(resolveToken func(symbol string) (money.Token, error)) (orchestrator.Config, error) {
	pairs := make([]orchestrator.TrackedPair, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		base, err := resolveToken(p.BaseToken)
		if err != nil {
			return orchestrator.Config{}, fmt.Errorf("configs: resolve base token %s: %w", p.BaseToken, err)
		}
		quote, err := resolveToken(p.QuoteToken)
		if err != nil {
			return orchestrator.Config{}, fmt.Errorf("configs: resolve quote token %s: %w", p.QuoteToken, err)
		}
		pairs = append(pairs, orchestrator.TrackedPair{
			Config: signal.PairConfig{
				Symbol:        p.Symbol,
				BaseToken:     base,
				QuoteToken:    quote,
				BaseDecimals:  p.BaseDecimals,
				QuoteDecimals: p.QuoteDecimals,
			},
			BuyVenue:  p.BuyVenue,
			SellVenue: p.SellVenue,
			Size:      p.Size,
		})
	}
	return orchestrator.Config{
		TickInterval:       time.Duration(c.TickIntervalSec) * time.Second,
		BackoffInterval:    time.Duration(c.BackoffIntervalSec) * time.Second,
		KillSwitchPath:     c.KillSwitchPath,
		StartingCapitalUSD: money.NewFromFloat(c.StartingCapitalUSD),
		Pairs:              pairs,
	}, nil
}
