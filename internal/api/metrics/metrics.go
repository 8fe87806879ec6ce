// Package metrics defines and registers the custom Prometheus metrics for the
// sync server. It is the single source of truth for metric names, labels, and
// help strings; HTTP-level metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kosync"

// AuthAttemptsTotal counts per-request credential checks.
// Label:
//   - outcome: "success", "failure", or "throttled"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of credential checks, labelled by outcome.",
	},
	[]string{"outcome"},
)

// ProgressUpdatesTotal counts progress upserts.
// Label:
//   - result: "ok" or "error"
var ProgressUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "progress_updates_total",
		Help:      "Total number of progress update requests, labelled by result.",
	},
	[]string{"result"},
)

// ProgressReadsTotal counts progress lookups.
// Label:
//   - result: "ok", "not_found", or "error"
var ProgressReadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "progress_reads_total",
		Help:      "Total number of progress read requests, labelled by result.",
	},
	[]string{"result"},
)

// RegisterDocumentGauge exposes the aggregate number of stored progress
// records across all users, evaluated at scrape time.
func RegisterDocumentGauge(count func() float64) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Current number of progress records across all users.",
		},
		count,
	)
}

// UsersCreatedTotal counts account creations.
// Label:
//   - path: "self" (device registration) or "admin" (management endpoint)
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of accounts created, labelled by creation path.",
	},
	[]string{"path"},
)
