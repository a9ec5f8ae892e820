// Package mempool subscribes to a pending-transaction WebSocket feed and
// decodes known swap-function selectors into ParsedSwap records, filtering
// to pairs the Pricing Engine actually tracks before forwarding.
package mempool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/gorilla/websocket"
)

// ParsedSwap is a decoded pending swap transaction, per spec.md §6.
type ParsedSwap struct {
	TxHash   string
	Pool     money.Address
	TokenIn  money.Address
	TokenOut money.Address
	AmountIn string
}

// knownSelectors maps the six swap-function 4-byte selectors this feed
// recognizes to a human label; unrecognized selectors are dropped.
var knownSelectors = map[string]string{
	"0x38ed1739": "swapExactTokensForTokens",
	"0x8803dbee": "swapTokensForExactTokens",
	"0x7ff36ab5": "swapExactETHForTokens",
	"0x4a25d94a": "swapTokensForExactETH",
	"0x18cbafe5": "swapExactTokensForETH",
	"0xfb3bdb41": "swapETHForExactTokens",
}

// rawMessage is the feed's wire shape: selector plus already-decoded
// calldata fields (decoding raw ABI calldata is the feed provider's job;
// this client only filters and normalizes).
type rawMessage struct {
	TxHash   string `json:"txHash"`
	Selector string `json:"selector"`
	Pool     string `json:"pool"`
	TokenIn  string `json:"tokenIn"`
	TokenOut string `json:"tokenOut"`
	AmountIn string `json:"amountIn"`
}

// TrackedPoolTokens reports which tracked pool addresses (tokenA, tokenB)
// touches; satisfied directly by *pricing.Engine.OnPendingSwap.
type TrackedPoolTokens interface {
	OnPendingSwap(tokenA, tokenB money.Address) []money.Address
}

// Stream consumes a mempool WebSocket feed and delivers ParsedSwap records
// matching a tracked pool to out, closing out when ctx is done or the
// connection drops.
func Stream(ctx context.Context, url string, tracked TrackedPoolTokens, out chan<- ParsedSwap) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("mempool: dial %s: %w", url, errs.WithKind(errs.KindInfrastructure, err))
	}
	defer conn.Close()
	defer close(out)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("mempool: read: %w", errs.ErrRPCError)
		}
		var raw rawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			continue
		}
		if _, known := knownSelectors[raw.Selector]; !known {
			continue
		}
		tokenIn, err1 := money.ParseAddress(raw.TokenIn)
		tokenOut, err2 := money.ParseAddress(raw.TokenOut)
		if err1 != nil || err2 != nil {
			continue
		}
		if matches := tracked.OnPendingSwap(tokenIn, tokenOut); len(matches) == 0 {
			continue
		}
		pool, err := money.ParseAddress(raw.Pool)
		if err != nil {
			continue
		}
		select {
		case out <- ParsedSwap{TxHash: raw.TxHash, Pool: pool, TokenIn: tokenIn, TokenOut: tokenOut, AmountIn: raw.AmountIn}:
		case <-ctx.Done():
			return nil
		}
	}
}
