// Command rebalance reports per-venue inventory skew for an asset and
// proposes a transfer size to restore an even split, reproducing spec.md
// §8's Binance=2/Wallet=8 concrete skew scenario as an operator tool.
package main

import (
	"fmt"
	"os"

	"github.com/blackhole-labs/arbforge/pkg/inventory"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/spf13/cobra"
)

func main() {
	var (
		asset         string
		binanceAmount float64
		walletAmount  float64
	)

	root := &cobra.Command{
		Use:   "rebalance",
		Short: "Report inventory skew between venues and propose a rebalance transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := inventory.NewTracker()
			inv.UpdateFromCEX("binance", map[string]inventory.Balance{
				asset: {Free: money.NewFromFloat(binanceAmount)},
			})
			inv.UpdateFromWallet("wallet", map[string]money.Decimal{
				asset: money.NewFromFloat(walletAmount),
			})

			skew := inv.SkewOf(asset)
			fmt.Printf("asset=%s shares=%v max_deviation=%s needs_rebalance=%v\n",
				asset, sharesAsFloat(skew.SharesByVenue), skew.MaxDeviation, skew.NeedsRebalance)

			if !skew.NeedsRebalance {
				fmt.Println("no rebalance needed")
				return nil
			}

			total := money.NewFromFloat(binanceAmount + walletAmount)
			evenShare := total.Div(money.TwoDecimal)
			binance := money.NewFromFloat(binanceAmount)
			if binance.GreaterThan(evenShare) {
				fmt.Printf("transfer %s %s from binance to wallet\n", binance.Sub(evenShare), asset)
			} else {
				wallet := money.NewFromFloat(walletAmount)
				fmt.Printf("transfer %s %s from wallet to binance\n", wallet.Sub(evenShare), asset)
			}
			os.Exit(1)
			return nil
		},
	}

	root.Flags().StringVar(&asset, "asset", "ETH", "asset symbol to check")
	root.Flags().Float64Var(&binanceAmount, "binance", 2, "balance held on binance")
	root.Flags().Float64Var(&walletAmount, "wallet", 8, "balance held in the on-chain wallet")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func sharesAsFloat(shares map[string]money.Decimal) map[string]float64 {
	out := make(map[string]float64, len(shares))
	for venue, share := range shares {
		f, _ := share.Float64()
		out[venue] = f
	}
	return out
}
