// Command obdump fetches a symbol's order book from Binance and prints its
// walk-the-book, depth, imbalance, and effective-spread analytics.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/blackhole-labs/arbforge/internal/exchange"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/orderbook"
	"github.com/spf13/cobra"
)

func main() {
	var depth int
	var qty float64

	root := &cobra.Command{
		Use:   "obdump <symbol>",
		Short: "Dump order-book analytics for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := exchange.New(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY"))
			book, err := client.FetchOrderBook(context.Background(), args[0], depth)
			if err != nil {
				return err
			}
			fmt.Printf("symbol=%s mid=%s spread_bps=%s best_bid=%s best_ask=%s\n",
				book.Symbol, book.Mid, book.SpreadBps, book.BestBid, book.BestAsk)

			size := money.NewFromFloat(qty)
			buyWalk, err := book.WalkTheBook(orderbook.Buy, size)
			if err == nil {
				fmt.Printf("buy %s: avg=%s slippage_bps=%s filled=%v\n", size, buyWalk.AvgPrice, buyWalk.SlippageBps, buyWalk.FullyFilled)
			}
			sellWalk, err := book.WalkTheBook(orderbook.Sell, size)
			if err == nil {
				fmt.Printf("sell %s: avg=%s slippage_bps=%s filled=%v\n", size, sellWalk.AvgPrice, sellWalk.SlippageBps, sellWalk.FullyFilled)
			}
			effSpread, err := book.EffectiveSpread(size)
			if err != nil {
				return err
			}
			fmt.Printf("imbalance(top5)=%s effective_spread_bps=%s depth_10bps_bid=%s depth_10bps_ask=%s\n",
				book.Imbalance(5), effSpread, book.DepthAtBps(orderbook.Sell, 10), book.DepthAtBps(orderbook.Buy, 10))
			return nil
		},
	}
	root.Flags().IntVar(&depth, "depth", 20, "order book depth")
	root.Flags().Float64Var(&qty, "qty", 1.0, "quantity to walk/spread-check")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
