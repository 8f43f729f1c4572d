package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpoolhq/dispatchpool/pool"
)

func TestCollectorRegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["dispatchpool_queue_depth"])
	assert.True(t, names["dispatchpool_active_workers"])
	assert.True(t, names["dispatchpool_jobs_processed_total"])
	assert.True(t, names["dispatchpool_jobs_panicked_total"])
}

func TestCollectorObservesQueueDepth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveQueueDepth(3)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "dispatchpool_queue_depth 3")
}

func TestCollectorCountsProcessedAndPanicked(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordJobDone()
	c.RecordJobDone()
	c.RecordJobPanicked()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)
	body := rec.Body.String()

	assert.True(t, strings.Contains(body, "dispatchpool_jobs_processed_total 2"))
	assert.True(t, strings.Contains(body, "dispatchpool_jobs_panicked_total 1"))
}

func TestCollectorTracksActiveWorkers(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.WorkerStarted()
	c.WorkerStarted()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "dispatchpool_active_workers 2")

	c.WorkerStopped()

	rec = httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "dispatchpool_active_workers 1")
}

// TestCollectorWiresIntoPoolHooks proves the Collector's methods satisfy
// the exact function shapes pool.Option expects, end to end through a
// real Pool rather than by signature inspection alone.
func TestCollectorWiresIntoPoolHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	p, err := pool.New(2,
		pool.WithSubmitHook(c.ObserveQueueDepth),
		pool.WithJobDoneHook(c.RecordJobDone),
		pool.WithPanicHook(c.RecordJobPanicked),
		pool.WithJobStartHook(c.WorkerStarted),
		pool.WithJobEndHook(c.WorkerStopped),
	)
	require.NoError(t, err)

	blocking := make(chan struct{})
	release := make(chan struct{})
	p.Submit(func() {
		close(blocking)
		<-release
	})
	<-blocking

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "dispatchpool_active_workers 1")
	close(release)

	done := make(chan struct{}, 1)
	p.Submit(func() { done <- struct{}{} })
	p.Submit(func() { panic("boom") })
	<-done

	p.Close()

	rec = httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)
	body := rec.Body.String()

	assert.Contains(t, body, "dispatchpool_active_workers 0")
	assert.Contains(t, body, "dispatchpool_jobs_processed_total 2")
	assert.Contains(t, body, "dispatchpool_jobs_panicked_total 1")
}
