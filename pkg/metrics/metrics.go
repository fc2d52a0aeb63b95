// ============================================================================
// FairPool Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: pkg/metrics
// File: metrics.go
// Purpose: Expose a FairPool's live state as Prometheus gauges.
//
// Unlike a counter-style collector that needs RecordX calls sprinkled
// through the hot path, Collector implements prometheus.Collector directly
// and reads FairPool's own accessors (Pending, Running, Threads) on every
// scrape. There is nothing to keep in sync and nothing that can drift: the
// scraped values are exactly what FairPool would report if asked right now.
//
// Metrics:
//   - fairpool_pending_jobs{pool}: jobs queued but not yet picked up
//   - fairpool_running_jobs{pool}: jobs a worker is currently invoking
//   - fairpool_threads{pool}: live worker goroutine count
//
// HTTP Endpoint:
//   StartServer exposes /metrics for Prometheus to scrape, mirroring the
//   teacher's fixed-port convenience server.
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// poolStats is the subset of *pool.FairPool that Collector depends on. It
// exists so tests can supply a fake without spinning up real workers, and so
// pkg/metrics does not need pkg/pool's full API surface.
type poolStats interface {
	Name() string
	Pending() int
	Running() int64
	Threads() int
}

// Collector exposes one FairPool's live state as Prometheus gauges.
type Collector struct {
	pool poolStats

	pendingDesc *prometheus.Desc
	runningDesc *prometheus.Desc
	threadsDesc *prometheus.Desc
}

// NewCollector returns a Collector for p. Register it with a
// prometheus.Registerer (or prometheus.MustRegister) to expose it.
func NewCollector(p poolStats) *Collector {
	labels := []string{"pool"}
	return &Collector{
		pool: p,
		pendingDesc: prometheus.NewDesc(
			"fairpool_pending_jobs", "Jobs queued but not yet picked up by a worker.", labels, nil,
		),
		runningDesc: prometheus.NewDesc(
			"fairpool_running_jobs", "Jobs a worker is currently invoking.", labels, nil,
		),
		threadsDesc: prometheus.NewDesc(
			"fairpool_threads", "Live worker goroutine count.", labels, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pendingDesc
	ch <- c.runningDesc
	ch <- c.threadsDesc
}

// Collect implements prometheus.Collector, reading the pool's live state.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	name := c.pool.Name()
	ch <- prometheus.MustNewConstMetric(c.pendingDesc, prometheus.GaugeValue, float64(c.pool.Pending()), name)
	ch <- prometheus.MustNewConstMetric(c.runningDesc, prometheus.GaugeValue, float64(c.pool.Running()), name)
	ch <- prometheus.MustNewConstMetric(c.threadsDesc, prometheus.GaugeValue, float64(c.pool.Threads()), name)
}

// StartServer starts a Prometheus metrics HTTP server on port, serving
// /metrics. It blocks until the server exits.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
