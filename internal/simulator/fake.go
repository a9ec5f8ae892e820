package simulator

import (
	"context"
	"math/big"

	"github.com/blackhole-labs/arbforge/pkg/amm"
	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/blackhole-labs/arbforge/pkg/pricing"
)

// Fake is an in-memory pricing.Simulator double for tests.
type Fake struct {
	Result pricing.SimulationResult
	Err    error
}

func (f *Fake) SimulateRoute(_ context.Context, _ amm.Route, _ *big.Int, _ money.Address) (pricing.SimulationResult, error) {
	return f.Result, f.Err
}
