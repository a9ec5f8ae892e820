package db

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// csvHeader matches spec.md §6 exactly, column order included.
var csvHeader = []string{
	"id", "timestamp", "buy_venue", "sell_venue", "symbol",
	"buy_price", "sell_price", "amount", "gross_pnl", "net_pnl",
	"net_pnl_bps", "fees", "gas_cost",
}

// CSVWriter appends ArbRecord rows to an open PnL CSV in insertion order.
// The format is mandated by spec.md §6, so this uses stdlib encoding/csv
// rather than a third-party CSV/dataframe library.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVWriter wraps dst. If headerWritten is false (a fresh file), the
// header row is written on the first Append call.
func NewCSVWriter(dst io.Writer, headerWritten bool) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(dst), wroteHeader: headerWritten}
}

// Append writes one row for rec, flushing immediately so a crash does not
// lose the row.
func (c *CSVWriter) Append(rec ArbRecord) error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return fmt.Errorf("db: write csv header: %w", err)
		}
		c.wroteHeader = true
	}
	row := []string{
		rec.ID,
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.BuyVenue,
		rec.SellVenue,
		rec.Symbol,
		rec.BuyPrice,
		rec.SellPrice,
		rec.Amount,
		rec.GrossPnL().String(),
		rec.NetPnL().String(),
		rec.NetPnLBps().String(),
		rec.TotalFees().String(),
		rec.GasCostUSD,
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("db: write csv row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}
