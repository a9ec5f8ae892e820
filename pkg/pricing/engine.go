// Package pricing owns the live pool set and produces validated quotes by
// combining the AMM router with an external fork simulator.
package pricing

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/amm"
	"github.com/blackhole-labs/arbforge/pkg/errs"
	"github.com/blackhole-labs/arbforge/pkg/money"
)

// PoolSource fetches pool metadata for the Pricing Engine. Consumed,
// implemented by internal/chainclient against live RPC.
type PoolSource interface {
	FetchPool(ctx context.Context, address money.Address) (amm.Pair, error)
}

// SimulationResult is the outcome of running a route through a forked chain.
type SimulationResult struct {
	Success    bool
	AmountOut  *big.Int
	GasUsed    uint64
	Error      string
}

// Simulator executes a route against a forked chain to cross-check the
// AMM's calculated output. Consumed, implemented by internal/simulator.
type Simulator interface {
	SimulateRoute(ctx context.Context, route amm.Route, amountIn *big.Int, sender money.Address) (SimulationResult, error)
}

// Quote packages a routed trade with both the AMM-calculated and the
// simulator-confirmed output.
type Quote struct {
	Route            amm.Route
	AmountIn         *big.Int
	ExpectedOutput   *big.Int
	SimulatedOutput  *big.Int
	GasUsed          uint64
	Timestamp        time.Time
}

// driftDenominator encodes the 0.1% validity tolerance from
// spec.md §4.4: |expected - simulated| * 1000 < expected.
const driftDenominator = 1000

// Valid reports whether the quote's simulated output is within 0.1% of the
// AMM-calculated expected output.
func (q Quote) Valid() bool {
	if q.ExpectedOutput == nil || q.ExpectedOutput.Sign() == 0 {
		return false
	}
	diff := new(big.Int).Sub(q.ExpectedOutput, q.SimulatedOutput)
	diff.Abs(diff)
	diff.Mul(diff, big.NewInt(driftDenominator))
	return diff.Cmp(q.ExpectedOutput) < 0
}

// Engine owns the authoritative pool set and a RouteFinder snapshot,
// replaced atomically on refresh per spec.md §9's cyclic-ownership note.
type Engine struct {
	mu          sync.RWMutex
	pools       map[money.Address]amm.Pair
	wethAddress money.Address
	maxHops     int

	routeFinder atomic.Pointer[amm.RouteFinder]

	source    PoolSource
	simulator Simulator
}

// New constructs an Engine against the given PoolSource and Simulator.
func New(source PoolSource, simulator Simulator, wethAddress money.Address, maxHops int) *Engine {
	if maxHops <= 0 {
		maxHops = 3
	}
	e := &Engine{
		pools:       make(map[money.Address]amm.Pair),
		wethAddress: wethAddress,
		maxHops:     maxHops,
		source:      source,
		simulator:   simulator,
	}
	e.routeFinder.Store(amm.NewRouteFinder(nil, wethAddress))
	return e
}

// LoadPools fetches every address's pool metadata and atomically replaces
// the owned set and RouteFinder. Concurrency is bounded by the number of
// addresses; each fetch runs in its own goroutine.
func (e *Engine) LoadPools(ctx context.Context, addresses []money.Address) error {
	type result struct {
		addr money.Address
		pair amm.Pair
		err  error
	}
	results := make(chan result, len(addresses))

	var wg sync.WaitGroup
	for _, addr := range addresses {
		wg.Add(1)
		go func(addr money.Address) {
			defer wg.Done()
			pair, err := e.source.FetchPool(ctx, addr)
			results <- result{addr: addr, pair: pair, err: err}
		}(addr)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	next := make(map[money.Address]amm.Pair, len(addresses))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		next[r.addr] = r.pair
	}
	if firstErr != nil {
		return fmt.Errorf("pricing: load_pools: %w", firstErr)
	}

	e.replace(next)
	return nil
}

// RefreshPool refetches one pool and rebuilds the RouteFinder. On a fetch
// error it returns that error and leaves the existing entry (and the current
// RouteFinder) in place; it does not log the error itself.
func (e *Engine) RefreshPool(ctx context.Context, address money.Address) error {
	pair, err := e.source.FetchPool(ctx, address)
	if err != nil {
		return fmt.Errorf("pricing: refresh_pool %s: %w", address, err)
	}

	e.mu.Lock()
	e.pools[address] = pair
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.routeFinder.Store(amm.NewRouteFinder(snapshot, e.wethAddress))
	return nil
}

func (e *Engine) replace(pools map[money.Address]amm.Pair) {
	e.mu.Lock()
	e.pools = pools
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.routeFinder.Store(amm.NewRouteFinder(snapshot, e.wethAddress))
}

func (e *Engine) snapshotLocked() []amm.Pair {
	snapshot := make([]amm.Pair, 0, len(e.pools))
	for _, p := range e.pools {
		snapshot = append(snapshot, p)
	}
	return snapshot
}

// Pools returns a snapshot copy of the currently-owned pool set, keyed by
// pool address.
func (e *Engine) Pools() map[money.Address]amm.Pair {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[money.Address]amm.Pair, len(e.pools))
	for k, v := range e.pools {
		out[k] = v
	}
	return out
}

// GetQuote routes in->out, invokes the simulator against the chosen route,
// and packages the result into a Quote. Fails with ErrNoRoute if no route
// exists or ErrSimulationFailed if the fork simulator rejects it.
func (e *Engine) GetQuote(ctx context.Context, in, out money.Address, amountIn *big.Int, gasPriceGwei int64, sender money.Address) (Quote, error) {
	rf := e.routeFinder.Load()
	route, _ := rf.FindBestRoute(in, out, amountIn, gasPriceGwei, e.maxHops)
	if route == nil {
		return Quote{}, fmt.Errorf("pricing: no route %s->%s: %w", in, out, errs.ErrNoRoute)
	}

	// expected_output (spec §4.4) is the route's gross calculated output,
	// not FindBestRoute's gas-adjusted net used only for route ranking —
	// Valid() reconciles against the simulator's gross amount_out.
	expectedOutput, err := route.Output(amountIn)
	if err != nil {
		return Quote{}, fmt.Errorf("pricing: route output: %w", errs.WithKind(errs.KindMarket, err))
	}

	sim, err := e.simulator.SimulateRoute(ctx, *route, amountIn, sender)
	if err != nil {
		return Quote{}, fmt.Errorf("pricing: simulate_route: %w", errs.WithKind(errs.KindMarket, err))
	}
	if !sim.Success || sim.AmountOut == nil || sim.AmountOut.Sign() <= 0 {
		return Quote{}, fmt.Errorf("pricing: simulation failed (%s): %w", sim.Error, errs.ErrSimulationFailed)
	}

	return Quote{
		Route:           *route,
		AmountIn:        amountIn,
		ExpectedOutput:  expectedOutput,
		SimulatedOutput: sim.AmountOut,
		GasUsed:         sim.GasUsed,
		Timestamp:       time.Now(),
	}, nil
}

// OnPendingSwap is the mempool hook: when a pending swap touches both
// tokens of a tracked pool, it returns that pool's address. It does not
// refresh or schedule anything itself, and no caller in this repository
// (including the orchestrator) calls RefreshPool for the returned pools.
func (e *Engine) OnPendingSwap(tokenA, tokenB money.Address) []money.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var affected []money.Address
	for addr, pool := range e.pools {
		matches := (pool.Token0.Address.Equal(tokenA) && pool.Token1.Address.Equal(tokenB)) ||
			(pool.Token0.Address.Equal(tokenB) && pool.Token1.Address.Equal(tokenA))
		if matches {
			affected = append(affected, addr)
		}
	}
	return affected
}
