package executor

import (
	"time"

	"github.com/blackhole-labs/arbforge/pkg/money"
)

// State is a tagged union over the Executor's state machine, per spec.md §9
// ("a tagged variant per Executor state with per-state data is preferable
// to a free-form enum + scattered optional fields"). Each concrete type
// carries exactly the data meaningful to that state.
type State interface {
	isState()
	Name() string
}

// Idle is the pre-validation state, before any gate has run.
type Idle struct{}

func (Idle) isState()      {}
func (Idle) Name() string  { return "IDLE" }

// Validating checks circuit breaker, replay protection, and signal
// validity before any leg is attempted.
type Validating struct{}

func (Validating) isState()     {}
func (Validating) Name() string { return "VALIDATING" }

// Leg1Pending is in-flight execution of the first leg.
type Leg1Pending struct {
	Venue string
}

func (Leg1Pending) isState()     {}
func (Leg1Pending) Name() string { return "LEG1_PENDING" }

// Leg1Filled records leg1's confirmed fill.
type Leg1Filled struct {
	Venue     string
	FillPrice money.Decimal
	FillSize  money.Decimal
}

func (Leg1Filled) isState()     {}
func (Leg1Filled) Name() string { return "LEG1_FILLED" }

// Leg2Pending is in-flight execution of the second leg.
type Leg2Pending struct {
	Venue string
}

func (Leg2Pending) isState()     {}
func (Leg2Pending) Name() string { return "LEG2_PENDING" }

// Unwinding is closing the open side after a leg2 failure or timeout.
type Unwinding struct {
	Reason string
}

func (Unwinding) isState()     {}
func (Unwinding) Name() string { return "UNWINDING" }

// Done is the success terminal state.
type Done struct {
	FinishedAt time.Time
	ActualNetPnL money.Decimal
}

func (Done) isState()     {}
func (Done) Name() string { return "DONE" }

// Failed is the failure terminal state.
type Failed struct {
	FinishedAt time.Time
	Reason     string
}

func (Failed) isState()     {}
func (Failed) Name() string { return "FAILED" }

// IsTerminal reports whether s is a terminal state (Done or Failed).
func IsTerminal(s State) bool {
	switch s.(type) {
	case Done, Failed:
		return true
	default:
		return false
	}
}
