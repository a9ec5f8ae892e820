package chainclient

import (
	"context"

	"github.com/blackhole-labs/arbforge/pkg/amm"
	"github.com/blackhole-labs/arbforge/pkg/money"
)

// FakePoolSource is an in-memory pricing.PoolSource double, grounded on the
// teacher's pkg/contractclient test-double style (env-configured fixtures
// swapped for a map keyed by pool address).
type FakePoolSource struct {
	Pools map[money.Address]amm.Pair
	Err   error
}

func (f *FakePoolSource) FetchPool(_ context.Context, address money.Address) (amm.Pair, error) {
	if f.Err != nil {
		return amm.Pair{}, f.Err
	}
	return f.Pools[address], nil
}
