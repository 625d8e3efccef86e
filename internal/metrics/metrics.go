package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasksync",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	syncCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tasksync",
			Name:      "sync_cycles_total",
			Help:      "Completed sync cycles by result.",
		},
		[]string{"result"},
	)

	syncedItems = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tasksync",
			Name:      "synced_items_total",
			Help:      "Mutations acknowledged by the remote.",
		},
	)

	failedItems = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tasksync",
			Name:      "failed_items_total",
			Help:      "Mutations that failed within a cycle.",
		},
	)

	deadLettered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tasksync",
			Name:      "dead_lettered_total",
			Help:      "Mutations evicted to the dead-letter store.",
		},
	)

	pendingMutations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tasksync",
			Name:      "pending_mutations",
			Help:      "Mutation log entries awaiting synchronization.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			syncCycles,
			syncedItems,
			failedItems,
			deadLettered,
			pendingMutations,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// ObserveCycle records one completed sync cycle.
func ObserveCycle(success bool, synced, failed int) {
	result := "success"
	if !success {
		result = "failure"
	}
	syncCycles.WithLabelValues(result).Inc()
	syncedItems.Add(float64(synced))
	failedItems.Add(float64(failed))
}

// IncDeadLettered counts one eviction to the dead-letter store.
func IncDeadLettered() {
	deadLettered.Inc()
}

// SetPendingMutations updates the backlog gauge.
func SetPendingMutations(n int) {
	pendingMutations.Set(float64(n))
}
