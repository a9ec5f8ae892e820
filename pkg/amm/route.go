package amm

import (
	"fmt"
	"math/big"

	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
)

// Hop is one leg of a Route: swap through Pool from TokenIn to TokenOut.
type Hop struct {
	Pool     Pair
	TokenIn  money.Address
	TokenOut money.Address
}

// Route is an ordered sequence of hops: |path| = |pools| + 1, each
// consecutive (pool, tokenIn->tokenOut) well-formed.
type Route struct {
	Hops []Hop
}

// In returns the route's starting token.
func (r Route) In() money.Address {
	if len(r.Hops) == 0 {
		return money.ZeroAddress
	}
	return r.Hops[0].TokenIn
}

// Out returns the route's ending token.
func (r Route) Out() money.Address {
	if len(r.Hops) == 0 {
		return money.ZeroAddress
	}
	return r.Hops[len(r.Hops)-1].TokenOut
}

// Path returns the full token path visited, length len(Hops)+1.
func (r Route) Path() []money.Address {
	if len(r.Hops) == 0 {
		return nil
	}
	path := make([]money.Address, 0, len(r.Hops)+1)
	path = append(path, r.Hops[0].TokenIn)
	for _, h := range r.Hops {
		path = append(path, h.TokenOut)
	}
	return path
}

// Output simulates amountIn through every hop in order — the exact-integer
// composition pool_n.amount_out(...pool_1.amount_out(x)) required by
// spec.md §8 property 3 — and returns the final output amount.
func (r Route) Output(amountIn *big.Int) (*big.Int, error) {
	if len(r.Hops) == 0 {
		return nil, fmt.Errorf("amm: route has no hops: %w", errs.ErrInvalidInput)
	}
	current := amountIn
	for i, h := range r.Hops {
		out, err := h.Pool.AmountOut(current, h.TokenIn)
		if err != nil {
			return nil, fmt.Errorf("amm: hop %d (%s): %w", i, h.Pool.Address, err)
		}
		current = out
	}
	return current, nil
}

// Hops the route takes; used by gas estimation which scales with hop count.
func (r Route) HopCount() int { return len(r.Hops) }
