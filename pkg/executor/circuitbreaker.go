package executor

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// newBreaker configures a gobreaker circuit breaker: it opens once
// consecutive failures reach failureThreshold, stays open for cooldown, then
// half-opens to probe a single request before fully resetting. While closed,
// the failure counts are cleared every window (a fixed cyclic interval, not
// a sliding window).
func newBreaker(failureThreshold uint32, window, cooldown time.Duration) *gobreaker.CircuitBreaker[legFill] {
	return gobreaker.NewCircuitBreaker[legFill](gobreaker.Settings{
		Name:        "executor",
		MaxRequests: 1,
		Interval:    window,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
	})
}
