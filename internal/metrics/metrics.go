// Package metrics exposes the Prometheus gauges and counters the
// orchestrator updates once per tick and once per terminal execution.
// CircuitBreakerOpen and InventorySkew are registered but nothing in the
// orchestrator sets them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "arbforge_ticks_total",
		Help: "Number of orchestrator ticks completed.",
	})

	SignalsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbforge_signals_generated_total",
		Help: "Signals produced by the generator, labeled by pair.",
	}, []string{"pair"})

	ExecutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbforge_executions_total",
		Help: "Executor terminal outcomes, labeled by pair and result.",
	}, []string{"pair", "result"})

	RealizedPnLUSD = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "arbforge_realized_pnl_usd_total",
		Help: "Cumulative realized PnL in USD, labeled by pair.",
	}, []string{"pair"})

	CircuitBreakerOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "arbforge_circuit_breaker_open",
		Help: "1 if the executor's circuit breaker is currently open.",
	})

	InventorySkew = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arbforge_inventory_skew_max_deviation",
		Help: "Maximum per-venue deviation from an even split, labeled by asset.",
	}, []string{"asset"})
)

// Register wires every collector into reg. Called once from cmd/arbforge.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		TicksTotal, SignalsGenerated, ExecutionsTotal, RealizedPnLUSD,
		CircuitBreakerOpen, InventorySkew,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
