// Package metrics holds the tracker's prometheus counters.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups the counters the tracker updates. A nil *Collector is
// valid and records nothing.
type Collector struct {
	CacheFallback    *prometheus.CounterVec
	MatchesSaved     prometheus.Counter
	SeasonDeleted    prometheus.Counter
	UpstreamRequests *prometheus.CounterVec
}

// New builds the counters and registers them with the default registry.
// Registration errors are ignored, so building a second collector is safe.
func New() *Collector {
	collector := &Collector{
		CacheFallback: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tracker_cache_fallback_total", Help: "Reconciliations that fell back to live data"},
			[]string{"op"}),

		MatchesSaved: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tracker_matches_saved_total", Help: "Match documents written to the cache"}),

		SeasonDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tracker_season_cleanup_deleted_total", Help: "Stale-season documents removed from the cache"}),

		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tracker_upstream_requests_total", Help: "Requests sent to the stats provider"},
			[]string{"endpoint", "status"}),
	}
	for _, metric := range []prometheus.Collector{
		collector.CacheFallback,
		collector.MatchesSaved,
		collector.SeasonDeleted,
		collector.UpstreamRequests,
	} {
		_ = prometheus.Register(metric)
	}

	return collector
}

// Fallback counts a degraded reconciliation step.
func (c *Collector) Fallback(op string) {
	if c == nil {
		return
	}
	c.CacheFallback.With(prometheus.Labels{"op": op}).Inc()
}

// Saved counts n newly cached documents.
func (c *Collector) Saved(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.MatchesSaved.Add(float64(n))
}

// Deleted counts n documents removed by season cleanup.
func (c *Collector) Deleted(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.SeasonDeleted.Add(float64(n))
}

// Upstream counts one provider call by endpoint and HTTP status.
func (c *Collector) Upstream(endpoint string, status int) {
	if c == nil {
		return
	}
	c.UpstreamRequests.With(prometheus.Labels{"endpoint": endpoint, "status": strconv.Itoa(status)}).Inc()
}
