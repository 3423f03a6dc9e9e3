// Package metrics registers the Prometheus instrumentation for bridge runs,
// nonce hygiene, and allocation/distribution jobs.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// registerer is a var-seam so tests can register against a throwaway
	// registry instead of the global one.
	registerer = prometheus.DefaultRegisterer

	BridgeAttemptsTotal *prometheus.CounterVec
	BridgePollDuration  *prometheus.HistogramVec
	NonceStuckRecoveries *prometheus.CounterVec
	AllocationRunsTotal prometheus.Counter
	DistributionRecipientsTotal *prometheus.CounterVec
)

// Init registers every collector exactly once, mirroring logger.Init's
// sync.Once singleton shape.
func Init() {
	once.Do(func() {
		BridgeAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_attempts_total",
			Help: "Bridge send attempts by provider and terminal status.",
		}, []string{"provider", "status"})

		BridgePollDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bridge_poll_duration_seconds",
			Help:    "Time spent polling a bridge route to a terminal state.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s..512s
		}, []string{"provider"})

		NonceStuckRecoveries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nonce_stuck_recoveries_total",
			Help: "Stuck-nonce clears performed by NonceHygiene.ClearStuck.",
		}, []string{"chain"})

		AllocationRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "allocation_runs_total",
			Help: "Allocation plans produced by Planner.Plan.",
		})

		DistributionRecipientsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "distribution_recipients_total",
			Help: "Recipients paid out by Distributor.Run, by chain and dispatch mode.",
		}, []string{"chain", "mode"})

		registerer.MustRegister(
			BridgeAttemptsTotal,
			BridgePollDuration,
			NonceStuckRecoveries,
			AllocationRunsTotal,
			DistributionRecipientsTotal,
		)
	})
}
