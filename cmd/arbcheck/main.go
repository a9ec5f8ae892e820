// Command arbcheck runs one signal-generation pass for a single pair and
// exits 0 if an actionable opportunity was found, 1 otherwise, per spec.md
// §6's one-shot CLI surface (useful for cron/alerting outside the daemon).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blackhole-labs/arbforge/internal/chainclient"
	"github.com/blackhole-labs/arbforge/internal/exchange"
	"github.com/blackhole-labs/arbforge/internal/simulator"
	"github.com/blackhole-labs/arbforge/pkg/inventory"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/pricing"
	"github.com/blackhole-labs/arbforge/pkg/scoring"
	"github.com/blackhole-labs/arbforge/pkg/signal"
	"github.com/spf13/cobra"
)

func main() {
	var (
		symbol      string
		baseSymbol  string
		baseToken   string
		quoteToken  string
		rpc         string
		sizeFloat   float64
		minSpread   float64
		gasGwei     int64
	)

	root := &cobra.Command{
		Use:   "arbcheck",
		Short: "Run one signal-generation pass and report whether an arbitrage opportunity exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			chain, err := chainclient.New(ctx, rpc, 30)
			if err != nil {
				return fmt.Errorf("arbcheck: dial chain: %w", err)
			}
			sim, err := simulator.New(ctx, rpc, "arb_simulateRoute")
			if err != nil {
				return fmt.Errorf("arbcheck: dial simulator: %w", err)
			}
			engine := pricing.New(chain, sim, money.ZeroAddress, 3)
			exch := exchange.New(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY"))

			base := money.Token{Symbol: baseSymbol, Decimals: 18, Address: money.MustParseAddress(baseToken)}
			quote := money.Token{Symbol: "USDT", Decimals: 6, Address: money.MustParseAddress(quoteToken)}

			inv := inventory.NewTracker()
			inv.UpdateFromCEX("binance", map[string]inventory.Balance{
				quote.Symbol: {Free: money.NewFromFloat(1e9)},
				base.Symbol:  {Free: money.NewFromFloat(1e9)},
			})
			inv.UpdateFromWallet("dex", map[string]money.Decimal{
				base.Symbol:  money.NewFromFloat(1e9),
				quote.Symbol: money.NewFromFloat(1e9),
			})

			gen := signal.New(exch, engine, inv, signal.Config{
				Cooldown:     0,
				SignalTTL:    time.Minute,
				MinSpreadBps: money.NewFromFloat(minSpread),
				MinProfitUSD: money.Zero,
				GasPriceGwei: gasGwei,
				Sender:       money.ZeroAddress,
			})

			sig, err := gen.Generate(ctx, signal.PairConfig{
				Symbol:        symbol,
				BaseToken:     base,
				QuoteToken:    quote,
				BaseDecimals:  18,
				QuoteDecimals: 6,
			}, money.NewFromFloat(sizeFloat), "binance", "dex", time.Now())
			if err != nil {
				return fmt.Errorf("arbcheck: generate: %w", err)
			}
			if sig == nil {
				fmt.Println("no opportunity")
				os.Exit(1)
			}

			level := scoring.SkewGreen
			if inv.SkewOf(base.Symbol).NeedsRebalance {
				level = scoring.SkewRed
			}
			sig.Score = scoring.New(scoring.DefaultWeights(), scoring.DefaultThresholds(), nil, nil).Score(base.Address, sig.SpreadBps, level)

			fmt.Printf("spread_bps=%s cex=%s dex=%s expected_net=%s score=%s\n",
				sig.SpreadBps, sig.CexPrice, sig.DexPrice, sig.Expected.Net, sig.Score)
			if !sig.IsValid(time.Now()) {
				fmt.Println("signal present but not actionable")
				os.Exit(1)
			}
			return nil
		},
	}

	root.Flags().StringVar(&symbol, "symbol", "ETHUSDT", "CEX trading symbol")
	root.Flags().StringVar(&baseSymbol, "base-symbol", "ETH", "base asset symbol used for inventory lookups")
	root.Flags().StringVar(&baseToken, "base-token", "", "base token address on-chain")
	root.Flags().StringVar(&quoteToken, "quote-token", "", "quote token address on-chain")
	root.Flags().StringVar(&rpc, "rpc", "", "chain RPC URL")
	root.Flags().Float64Var(&sizeFloat, "size", 1.0, "trade size in base units")
	root.Flags().Float64Var(&minSpread, "min-spread-bps", 10, "minimum spread in bps to act on")
	root.Flags().Int64Var(&gasGwei, "gas-gwei", 20, "gas price in gwei for simulation")
	root.MarkFlagRequired("base-token")
	root.MarkFlagRequired("quote-token")
	root.MarkFlagRequired("rpc")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
