package amm

import (
	"math/big"

	"github.com/blackhole-labs/arbforge/pkg/money"
)

const defaultMaxHops = 3

// neighbor is one graph edge out of a token: pair plus the counterparty
// token reached by trading through it.
type neighbor struct {
	pair    Pair
	counter money.Address
}

// RouteFinder is an undirected multigraph over token addresses built from a
// snapshot slice of Pairs, per spec.md §9: "RouteFinder takes a snapshot
// slice; refresh rebuilds the RouteFinder from the new slice" — it never
// holds a live reference back into the Pricing Engine's mutable pool set.
type RouteFinder struct {
	wethAddress money.Address
	adjacency   map[money.Address][]neighbor
}

// NewRouteFinder builds the graph from a snapshot of pairs. wethAddress is
// used by the gas-to-output conversion in CompareRoutes.
func NewRouteFinder(pairs []Pair, wethAddress money.Address) *RouteFinder {
	rf := &RouteFinder{
		wethAddress: wethAddress,
		adjacency:   make(map[money.Address][]neighbor),
	}
	for _, p := range pairs {
		rf.adjacency[p.Token0.Address] = append(rf.adjacency[p.Token0.Address], neighbor{pair: p, counter: p.Token1.Address})
		rf.adjacency[p.Token1.Address] = append(rf.adjacency[p.Token1.Address], neighbor{pair: p, counter: p.Token0.Address})
	}
	return rf
}

// FindAllRoutes enumerates simple paths from in to out via depth-first
// search, visiting each token at most once, bounded to maxHops+1 tokens.
// Output order is DFS discovery order, stable for a given graph.
func (rf *RouteFinder) FindAllRoutes(in, out money.Address, maxHops int) []Route {
	if maxHops <= 0 {
		maxHops = defaultMaxHops
	}
	var routes []Route
	visited := map[money.Address]bool{in: true}
	var hops []Hop

	var dfs func(current money.Address)
	dfs = func(current money.Address) {
		if len(hops) >= maxHops {
			return
		}
		for _, nb := range rf.adjacency[current] {
			if visited[nb.counter] {
				continue
			}
			hop := Hop{Pool: nb.pair, TokenIn: current, TokenOut: nb.counter}
			hops = append(hops, hop)
			visited[nb.counter] = true

			if nb.counter.Equal(out) {
				routeCopy := make([]Hop, len(hops))
				copy(routeCopy, hops)
				routes = append(routes, Route{Hops: routeCopy})
			} else {
				dfs(nb.counter)
			}

			visited[nb.counter] = false
			hops = hops[:len(hops)-1]
		}
	}
	dfs(in)
	return routes
}

// RankedRoute pairs a Route with its gas-adjusted net output score.
type RankedRoute struct {
	Route       Route
	GrossOutput *big.Int
	GasCostOut  *big.Int
	NetOutput   *big.Int
}

// gweiToWei scales a gwei gas price into wei.
var gweiToWei = big.NewInt(1_000_000_000)

// CompareRoutes ranks every route from in to out by gas-adjusted net output
// descending, per spec.md §4.2:
//
//	gross_output = ∏ amount_out along hops
//	gas_estimate = 150000 + 100000 * hops
//	gas_cost_wei = gas_estimate * gas_price_gwei * 10^9
//	net_output = max(0, gross - gas_cost_in_out)
func (rf *RouteFinder) CompareRoutes(in, out money.Address, amountIn *big.Int, gasPriceGwei int64, maxHops int) []RankedRoute {
	routes := rf.FindAllRoutes(in, out, maxHops)
	ranked := make([]RankedRoute, 0, len(routes))

	for _, route := range routes {
		gross, err := route.Output(amountIn)
		if err != nil {
			continue
		}

		gasEstimate := big.NewInt(150_000 + 100_000*int64(route.HopCount()))
		gasCostWei := new(big.Int).Mul(gasEstimate, big.NewInt(gasPriceGwei))
		gasCostWei.Mul(gasCostWei, gweiToWei)

		gasCostOut := rf.gasCostInOutputToken(out, gasCostWei)

		net := new(big.Int).Sub(gross, gasCostOut)
		if net.Sign() < 0 {
			net = big.NewInt(0)
		}

		ranked = append(ranked, RankedRoute{
			Route:       route,
			GrossOutput: gross,
			GasCostOut:  gasCostOut,
			NetOutput:   net,
		})
	}

	// Stable sort by NetOutput descending; ties keep DFS discovery order
	// (the ranking is a stable insertion-sort-by-swap over the DFS list).
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].NetOutput.Cmp(ranked[j-1].NetOutput) > 0; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

// FindBestRoute returns the top-ranked route and its net output, or
// (nil, 0) if no routes exist from in to out.
func (rf *RouteFinder) FindBestRoute(in, out money.Address, amountIn *big.Int, gasPriceGwei int64, maxHops int) (*Route, *big.Int) {
	ranked := rf.CompareRoutes(in, out, amountIn, gasPriceGwei, maxHops)
	if len(ranked) == 0 {
		return nil, big.NewInt(0)
	}
	best := ranked[0]
	return &best.Route, best.NetOutput
}

// gasCostInOutputToken converts a wei-denominated gas cost into units of
// outToken, per spec.md §4.2's "gas-to-output conversion":
//
//   - If outToken is WETH, the cost is already in wei — return it directly.
//   - Otherwise find the neighbor pool of outToken with the largest WETH
//     reserve, take its WETH->outToken spot price (decimals-adjusted, Q18),
//     and convert with ceil-division to avoid underestimating cost.
//   - If no WETH pool neighbors outToken, gas is treated as zero — absence
//     of a pivot yields zero cost, never a gross-only "best output."
func (rf *RouteFinder) gasCostInOutputToken(outToken money.Address, gasCostWei *big.Int) *big.Int {
	if outToken.Equal(rf.wethAddress) {
		return new(big.Int).Set(gasCostWei)
	}

	var bestPool *Pair
	var bestWethReserve *big.Int
	for _, nb := range rf.adjacency[outToken] {
		if !nb.counter.Equal(rf.wethAddress) {
			continue
		}
		wethReserve := reserveOf(nb.pair, rf.wethAddress)
		if bestWethReserve == nil || wethReserve.Cmp(bestWethReserve) > 0 {
			p := nb.pair
			bestPool = &p
			bestWethReserve = wethReserve
		}
	}
	if bestPool == nil {
		return big.NewInt(0)
	}

	spot, err := bestPool.SpotPrice(rf.wethAddress) // WETH -> outToken, Q18
	if err != nil || spot.Sign() == 0 {
		return big.NewInt(0)
	}

	// spot is a whole-token price scaled by 1e18, so the wei cost is taken to
	// whole WETH and the result back to outToken's raw units:
	// outAmount = ceil(gasCostWei * spot * 10^decOut / (1e18 * 10^decWeth))
	wethTok, _ := bestPool.OtherToken(outToken)
	outTok, _ := bestPool.OtherToken(rf.wethAddress)
	num := new(big.Int).Mul(gasCostWei, spot)
	num.Mul(num, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(outTok.Decimals)), nil))
	den := new(big.Int).Mul(q18, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(wethTok.Decimals)), nil))
	num.Add(num, new(big.Int).Sub(den, big.NewInt(1))) // ceil
	return num.Div(num, den)
}

func reserveOf(p Pair, token money.Address) *big.Int {
	if p.Token0.Address.Equal(token) {
		return p.Reserve0
	}
	return p.Reserve1
}
