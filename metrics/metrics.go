// Package metrics instruments a pool.Pool for Prometheus. It stays
// decoupled from the pool package itself — callers wire a Collector in
// via pool.WithSubmitHook, pool.WithPanicHook and pool.WithJobDoneHook,
// the same "pool treats its collaborators as opaque" shape the rest of
// this module follows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics exposed for a single pool.
type Collector struct {
	queueDepth    prometheus.Gauge
	activeWorkers prometheus.Gauge
	jobsProcessed prometheus.Counter
	jobsPanicked  prometheus.Counter
}

// NewCollector builds and registers a Collector against reg. Passing
// prometheus.NewRegistry() keeps tests isolated from the global default
// registry; passing prometheus.DefaultRegisterer matches typical
// production wiring.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatchpool_queue_depth",
			Help: "Number of envelopes currently queued awaiting a worker.",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatchpool_active_workers",
			Help: "Number of workers currently executing a job.",
		}),
		jobsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatchpool_jobs_processed_total",
			Help: "Total number of jobs that ran to completion without panicking.",
		}),
		jobsPanicked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatchpool_jobs_panicked_total",
			Help: "Total number of jobs recovered from a panic.",
		}),
	}

	reg.MustRegister(c.queueDepth, c.activeWorkers, c.jobsProcessed, c.jobsPanicked)
	return c
}

// ObserveQueueDepth records the queue depth sampled after a Submit.
func (c *Collector) ObserveQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}

// WorkerStarted marks one more worker as busy. Intended for
// pool.WithJobStartHook.
func (c *Collector) WorkerStarted() {
	c.activeWorkers.Inc()
}

// WorkerStopped marks one fewer worker as busy. Intended for
// pool.WithJobEndHook.
func (c *Collector) WorkerStopped() {
	c.activeWorkers.Dec()
}

// RecordJobDone increments the processed-jobs counter.
func (c *Collector) RecordJobDone() {
	c.jobsProcessed.Inc()
}

// RecordJobPanicked increments the panicked-jobs counter.
func (c *Collector) RecordJobPanicked() {
	c.jobsPanicked.Inc()
}

// Handler returns the HTTP handler that serves this collector's metrics
// in the Prometheus text exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
