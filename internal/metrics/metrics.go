// Package metrics holds the ledger's Prometheus collectors. They register
// with the default registry and are served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "artisanhub"

// EntriesCreated counts ledger entries recorded, by type and currency.
var EntriesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "entries_created_total",
	Help:      "Total ledger entries recorded.",
}, []string{"type", "currency"})

// StatusChanges counts applied status updates.
var StatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "status_changes_total",
	Help:      "Total status updates applied, by previous and new status.",
}, []string{"from", "to"})

var UpdateRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "update_retries_total",
	Help:      "Status updates retried after a concurrent write bumped the version.",
})

var UpdateConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "update_conflicts_total",
	Help:      "Status updates rejected with a version conflict.",
})

// StoreErrors counts failed store calls by ledger operation.
var StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "store_errors_total",
	Help:      "Store failures surfaced to callers.",
}, []string{"op"})

var RequestsThrottled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_throttled_total",
	Help:      "Requests rejected by the per-client rate limiter.",
})
