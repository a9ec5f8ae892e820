// Package db persists ArbRecord rows to MySQL via gorm (grounded on the
// teacher's MySQLRecorder in internal/db/transaction_recorder.go) and,
// optionally, to a PnL CSV matching spec.md §6's exact header.
package db

import (
	"fmt"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/money"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ArbRecord is one completed (successful or failed-after-fill) arbitrage
// attempt, per spec.md §3's ArbRecord data model.
type ArbRecord struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	Timestamp  time.Time `gorm:"index;not null"`
	BuyVenue   string    `gorm:"type:varchar(32);not null"`
	SellVenue  string    `gorm:"type:varchar(32);not null"`
	Symbol     string    `gorm:"type:varchar(32);not null"`
	BuyPrice   string    `gorm:"type:varchar(78);not null"`
	SellPrice  string    `gorm:"type:varchar(78);not null"`
	Amount     string    `gorm:"type:varchar(78);not null"`
	GasCostUSD string    `gorm:"type:varchar(78);not null"`
	FeeBuy     string    `gorm:"type:varchar(78);not null"`
	FeeSell    string    `gorm:"type:varchar(78);not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (ArbRecord) TableName() string { return "arb_records" }

// buyNotional returns buy_price*amount and sellNotional sell_price*amount,
// the basis for gross_pnl/fees.
func (r ArbRecord) buyNotional() money.Decimal  { return dec(r.BuyPrice).Mul(dec(r.Amount)) }
func (r ArbRecord) sellNotional() money.Decimal { return dec(r.SellPrice).Mul(dec(r.Amount)) }

// dec parses s as a money.Decimal, treating an empty string (an unset fee or
// gas field on an older or partially-populated record) as zero rather than
// panicking.
func dec(s string) money.Decimal {
	if s == "" {
		return money.Zero
	}
	return money.NewFromString(s)
}

// GrossPnL is sell_notional - buy_notional, per spec.md §3.
func (r ArbRecord) GrossPnL() money.Decimal { return r.sellNotional().Sub(r.buyNotional()) }

// TotalFees is fee_buy + fee_sell + gas_cost.
func (r ArbRecord) TotalFees() money.Decimal {
	return dec(r.FeeBuy).Add(dec(r.FeeSell)).Add(dec(r.GasCostUSD))
}

// NetPnL is gross_pnl - total_fees.
func (r ArbRecord) NetPnL() money.Decimal { return r.GrossPnL().Sub(r.TotalFees()) }

// NetPnLBps is net_pnl / buy_notional * 10000, zero if buy_notional is zero.
func (r ArbRecord) NetPnLBps() money.Decimal {
	notional := r.buyNotional()
	if notional.IsZero() {
		return money.Zero
	}
	return r.NetPnL().Div(notional).Mul(money.BpsDivisor)
}

// Recorder is the persistence surface the orchestrator writes to on every
// terminal executor state.
type Recorder interface {
	Record(r ArbRecord) error
}

// MySQLRecorder implements Recorder over gorm+mysql.
type MySQLRecorder struct {
	db *gorm.DB
}

// NewMySQLRecorder opens dsn and migrates the arb_records table.
func NewMySQLRecorder(dsn string) (*MySQLRecorder, error) {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect mysql: %w", err)
	}
	if err := gdb.AutoMigrate(&ArbRecord{}); err != nil {
		return nil, fmt.Errorf("db: migrate schema: %w", err)
	}
	return &MySQLRecorder{db: gdb}, nil
}

func (r *MySQLRecorder) Record(rec ArbRecord) error {
	if result := r.db.Create(&rec); result.Error != nil {
		return fmt.Errorf("db: record arb: %w", result.Error)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *MySQLRecorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecentByPair returns the most recent records for symbol, newest first,
// capped at limit.
func (r *MySQLRecorder) RecentByPair(symbol string, limit int) ([]ArbRecord, error) {
	var records []ArbRecord
	result := r.db.Where("symbol = ?", symbol).Order("timestamp DESC").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("db: recent by pair: %w", result.Error)
	}
	return records, nil
}
