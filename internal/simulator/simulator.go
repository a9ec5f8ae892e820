// Package simulator implements pricing.Simulator against a fork-RPC
// endpoint (e.g. Anvil/Hardhat fork) using go-ethereum's low-level
// rpc.Client for the custom eth_call-style simulation method, since no
// generated binding exists for an arbitrary multi-hop route.
package simulator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blackhole-labs/arbforge/pkg/amm"
	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/pricing"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client calls a fork node's simulate_route-equivalent RPC method.
type Client struct {
	rpc    *rpc.Client
	method string // e.g. "arb_simulateRoute", the fork node's custom method
}

// New dials a fork RPC endpoint (typically localhost, a disposable
// per-attempt fork) over rpc.DialContext.
func New(ctx context.Context, url, method string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("simulator: dial %s: %w", url, errs.WithKind(errs.KindInfrastructure, err))
	}
	return &Client{rpc: c, method: method}, nil
}

// routeParam is the wire shape sent to the fork node for one hop.
type routeParam struct {
	Pool string `json:"pool"`
	In   string `json:"tokenIn"`
	Out  string `json:"tokenOut"`
}

// simulateResult is the wire shape the fork node returns, mirroring
// spec.md §6's simulate_route contract.
type simulateResult struct {
	Success   bool   `json:"success"`
	AmountOut string `json:"amountOut"`
	GasUsed   uint64 `json:"gasUsed"`
	Error     string `json:"error"`
}

// SimulateRoute implements pricing.Simulator.
func (c *Client) SimulateRoute(ctx context.Context, route amm.Route, amountIn *big.Int, sender money.Address) (pricing.SimulationResult, error) {
	hops := make([]routeParam, 0, len(route.Hops))
	for _, h := range route.Hops {
		hops = append(hops, routeParam{Pool: h.Pool.Address.String(), In: h.TokenIn.String(), Out: h.TokenOut.String()})
	}

	var res simulateResult
	if err := c.rpc.CallContext(ctx, &res, c.method, hops, amountIn.String(), sender.String()); err != nil {
		return pricing.SimulationResult{}, fmt.Errorf("simulator: %w", errs.WithKind(errs.KindInfrastructure, err))
	}
	if !res.Success {
		return pricing.SimulationResult{Success: false, Error: res.Error}, nil
	}

	amountOut, ok := new(big.Int).SetString(res.AmountOut, 10)
	if !ok {
		return pricing.SimulationResult{}, fmt.Errorf("simulator: malformed amountOut %q", res.AmountOut)
	}
	return pricing.SimulationResult{Success: true, AmountOut: amountOut, GasUsed: res.GasUsed}, nil
}

// EnsureSenderReady implements the consumed fork simulator's
// ensure_sender_ready via the node's matching RPC method, sending only
// sender and amountIn; route is not passed to the node.
func (c *Client) EnsureSenderReady(ctx context.Context, route amm.Route, amountIn *big.Int, sender money.Address) error {
	var ok bool
	if err := c.rpc.CallContext(ctx, &ok, c.method+"_ensureReady", sender.String(), amountIn.String()); err != nil {
		return fmt.Errorf("simulator: ensure sender ready: %w", errs.WithKind(errs.KindInfrastructure, err))
	}
	return nil
}
