package exchange

import (
	"context"

	"github.com/blackhole-labs/arbforge/pkg/executor"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/orderbook"
)

// Fake is an in-memory Exchange/executor.Exchange test double serving a
// fixed book; the arbcheck and obdump CLIs use the live client instead.
type Fake struct {
	Book        orderbook.Book
	FetchErr    error
	FillRatio   money.Decimal // defaults to fully filled when zero
	OrderErr    error
	MarketCalls int
}

func (f *Fake) FetchOrderBook(_ context.Context, _ string, _ int) (orderbook.Book, error) {
	return f.Book, f.FetchErr
}

func (f *Fake) LimitIOC(_ context.Context, _, _ string, size, price money.Decimal) (executor.CexFill, error) {
	if f.OrderErr != nil {
		return executor.CexFill{}, f.OrderErr
	}
	ratio := f.FillRatio
	if ratio.IsZero() {
		ratio = money.One
	}
	return executor.CexFill{Status: executor.FillFilled, FilledSize: size.Mul(ratio), Price: price}, nil
}

func (f *Fake) Market(_ context.Context, _, _ string, _ money.Decimal) (executor.CexFill, error) {
	f.MarketCalls++
	return executor.CexFill{Status: executor.FillFilled}, nil
}
