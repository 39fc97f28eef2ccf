// Package metrics exposes Prometheus counters for the core operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ItemsIngested counts catalog writes by result ("created" or "merged").
	ItemsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boodschap_items_ingested_total",
		Help: "Catalog items created or merged by ingest calls.",
	}, []string{"result"})

	// SessionsStarted counts shopping sessions started.
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boodschap_sessions_started_total",
		Help: "Shopping sessions started.",
	})

	// SessionsClosed counts sessions closed, by leftover policy.
	SessionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boodschap_sessions_closed_total",
		Help: "Shopping sessions closed, labeled by close policy.",
	}, []string{"policy"})

	// SyncItems counts items pushed to the external shopping list, by result
	// status (ok, not_found, error).
	SyncItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boodschap_sync_items_total",
		Help: "Items synced to the external shopping list, by status.",
	}, []string{"status"})
)

// Handler serves the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
