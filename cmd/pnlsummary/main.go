// Command pnlsummary aggregates a PnL CSV (written by internal/db.CSVWriter)
// into per-symbol and overall totals, per spec.md §6's operator-facing
// reporting surface.
package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/spf13/cobra"
)

type symbolTotals struct {
	count   int
	gross   money.Decimal
	net     money.Decimal
	fees    money.Decimal
}

func main() {
	var path string
	root := &cobra.Command{
		Use:   "pnlsummary",
		Short: "Summarize a PnL CSV by symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("pnlsummary: open %s: %w", path, err)
			}
			defer f.Close()

			r := csv.NewReader(f)
			header, err := r.Read()
			if err != nil {
				return fmt.Errorf("pnlsummary: read header: %w", err)
			}
			col := make(map[string]int, len(header))
			for i, name := range header {
				col[name] = i
			}
			required := []string{"symbol", "gross_pnl", "net_pnl", "fees"}
			for _, name := range required {
				if _, ok := col[name]; !ok {
					return fmt.Errorf("pnlsummary: csv missing required column %q", name)
				}
			}

			totals := make(map[string]*symbolTotals)
			order := make([]string, 0)
			overall := &symbolTotals{}

			for {
				row, err := r.Read()
				if err != nil {
					break
				}
				symbol := row[col["symbol"]]
				t, ok := totals[symbol]
				if !ok {
					t = &symbolTotals{}
					totals[symbol] = t
					order = append(order, symbol)
				}
				gross := money.NewFromString(row[col["gross_pnl"]])
				net := money.NewFromString(row[col["net_pnl"]])
				fees := money.NewFromString(row[col["fees"]])

				t.count++
				t.gross = t.gross.Add(gross)
				t.net = t.net.Add(net)
				t.fees = t.fees.Add(fees)

				overall.count++
				overall.gross = overall.gross.Add(gross)
				overall.net = overall.net.Add(net)
				overall.fees = overall.fees.Add(fees)
			}

			for _, symbol := range order {
				t := totals[symbol]
				fmt.Printf("%-12s trades=%-6d gross=%-12s fees=%-12s net=%s\n", symbol, t.count, t.gross, t.fees, t.net)
			}
			fmt.Printf("%-12s trades=%-6d gross=%-12s fees=%-12s net=%s\n", "TOTAL", overall.count, overall.gross, overall.fees, overall.net)
			return nil
		},
	}
	root.Flags().StringVar(&path, "csv", "pnl.csv", "path to the PnL CSV file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
