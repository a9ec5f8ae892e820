// Package exchange adapts github.com/adshao/go-binance/v2 to the
// signal.Exchange / executor.Exchange consumed interfaces, normalizing
// Binance's REST responses into pkg/orderbook and pkg/executor types.
package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/blackhole-labs/arbforge/pkg/executor"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/orderbook"
)

// Client adapts a binance.Client to the exchange interfaces this project
// consumes (signal.Exchange for order book reads, executor.Exchange for
// order placement).
type Client struct {
	api *binance.Client
}

// New wraps an authenticated binance.Client.
func New(apiKey, secretKey string) *Client {
	return &Client{api: binance.NewClient(apiKey, secretKey)}
}

// FetchOrderBook implements signal.Exchange, normalizing Binance's
// bid/ask strings into orderbook.Book.
func (c *Client) FetchOrderBook(ctx context.Context, symbol string, depth int) (orderbook.Book, error) {
	res, err := c.api.NewDepthService().Symbol(symbol).Limit(depth).Do(ctx)
	if err != nil {
		return orderbook.Book{}, fmt.Errorf("exchange: fetch depth: %w", err)
	}
	bids := make([]orderbook.Level, 0, len(res.Bids))
	for _, b := range res.Bids {
		bids = append(bids, orderbook.Level{Price: money.NewFromString(b.Price), Qty: money.NewFromString(b.Quantity)})
	}
	asks := make([]orderbook.Level, 0, len(res.Asks))
	for _, a := range res.Asks {
		asks = append(asks, orderbook.Level{Price: money.NewFromString(a.Price), Qty: money.NewFromString(a.Quantity)})
	}
	return orderbook.New(symbol, time.Now(), bids, asks)
}

// LimitIOC implements executor.Exchange, placing an immediate-or-cancel
// limit order and normalizing the fill status.
func (c *Client) LimitIOC(ctx context.Context, symbol, side string, size, price money.Decimal) (executor.CexFill, error) {
	order, err := c.api.NewCreateOrderService().
		Symbol(symbol).
		Side(binanceSide(side)).
		Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeIOC).
		Quantity(size.String()).
		Price(price.String()).
		Do(ctx)
	if err != nil {
		return executor.CexFill{}, fmt.Errorf("exchange: limit ioc: %w", err)
	}
	return normalizeOrder(order), nil
}

// Market implements executor.Exchange's unwind path.
func (c *Client) Market(ctx context.Context, symbol, side string, size money.Decimal) (executor.CexFill, error) {
	order, err := c.api.NewCreateOrderService().
		Symbol(symbol).
		Side(binanceSide(side)).
		Type(binance.OrderTypeMarket).
		Quantity(size.String()).
		Do(ctx)
	if err != nil {
		return executor.CexFill{}, fmt.Errorf("exchange: market order: %w", err)
	}
	return normalizeOrder(order), nil
}

func binanceSide(side string) binance.SideType {
	if side == "buy" {
		return binance.SideTypeBuy
	}
	return binance.SideTypeSell
}

func normalizeOrder(order *binance.CreateOrderResponse) executor.CexFill {
	status := executor.FillExpired
	switch order.Status {
	case binance.OrderStatusTypeFilled:
		status = executor.FillFilled
	case binance.OrderStatusTypePartiallyFilled:
		status = executor.FillPartiallyFilled
	}
	price := order.Price
	if dec := money.NewFromString(price); dec.IsZero() && len(order.Fills) > 0 {
		price = order.Fills[0].Price
	}
	return executor.CexFill{
		Status:     status,
		FilledSize: money.NewFromString(order.ExecutedQuantity),
		Price:      money.NewFromString(price),
		OrderID:    fmt.Sprintf("%d", order.OrderID),
	}
}
