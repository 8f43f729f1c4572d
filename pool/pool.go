// Package pool implements a fixed-size worker pool backed by a single
// shared dispatch queue. N worker goroutines contend for one logical
// consumer; jobs submitted to the pool are delivered in submission order
// but may be claimed by any idle worker. Shutdown is two-phase: every
// worker is sent a terminate envelope before any of them are joined, so a
// worker that's mid-job never causes the others to wait for a terminate
// meant for it.
package pool

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Pool is a fixed-size pool of workers sharing one dispatch queue.
// The zero value is not usable; construct one with New or MustNew.
type Pool struct {
	workers  []*worker
	queue    *dispatchQueue
	messages *messageLog

	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    atomic.Bool

	// deletionLock guards against a Manager disposing of this Pool while a
	// caller is still actively using it: every caller holding the pool
	// takes a read lock via reserve, and Close takes the write lock before
	// it does anything else. This is the same reservation idiom a cache of
	// pools needs regardless of what a single pool's own shutdown looks
	// like.
	deletionLock sync.RWMutex

	opts options
}

// New builds a Pool with the given fixed number of workers. size must be
// at least 1; size == 0 is a programmer error that must fail loudly at
// construction, and returning an error (rather than panicking directly)
// is the idiomatic Go way to surface that at the call site — see MustNew
// for callers that want a panic instead.
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool: size must be >= 1, got %d", size)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{
		queue:    newDispatchQueue(),
		messages: newMessageLog(),
		opts:     o,
	}

	p.workers = make([]*worker, size)
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		w := newWorker(i, p.queue, p.messages, o.logger, o.onPanic, o.onJobDone, o.onJobStart, o.onJobEnd)
		p.workers[i] = w
		go func() {
			defer p.wg.Done()
			w.run()
		}()
	}

	return p, nil
}

// MustNew is New, but panics instead of returning an error. It exists for
// callers — typically a CLI entrypoint — that want the source's original
// fail-at-construction behavior rather than a returned error.
func MustNew(size int, opts ...Option) *Pool {
	p, err := New(size, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Submit hands a job to the pool. It does not block the caller beyond the
// dispatch queue's own internal locking, and it does not guarantee any
// ordering relative to other concurrent Submit calls beyond the FIFO
// order the queue itself provides.
//
// Submit after Close panics: shutdown accepts no further submissions, and
// in practice a caller can't reach a closed Pool's Submit unless it has
// kept a reference around past the point it should have stopped using it.
func (p *Pool) Submit(job Job) {
	if p.closed.Load() {
		panic("pool: submit on a closed pool")
	}
	p.queue.send(envelope{kind: envelopeJob, job: job})
	if p.opts.onSubmit != nil {
		p.opts.onSubmit(p.queue.depth())
	}
}

// Close triggers the pool's graceful, two-phase shutdown: every worker is
// sent a terminate envelope (phase A) before any worker is joined (phase
// B). Interleaving those two phases per-worker would risk a still-busy
// sibling greedily claiming a terminate meant for the worker currently
// being joined, so phase A always runs to completion first.
//
// Close waits for every in-flight job to finish; a job that never returns
// hangs Close indefinitely. This is accepted: the pool has no notion of
// job cancellation. Close is idempotent and safe to call more than once.
func (p *Pool) Close() {
	p.deletionLock.Lock()
	defer p.deletionLock.Unlock()
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		for range p.workers {
			p.queue.send(envelope{kind: envelopeTerminate})
		}
		p.queue.close()
		p.wg.Wait()
	})
}

// reserve takes a read lock that prevents Close from completing until the
// caller releases it, returning false if the pool has already finished
// closing. It's used by Manager to keep a cached pool alive for as long
// as a caller is actively using it.
func (p *Pool) reserve() bool {
	p.deletionLock.RLock()
	if p.closed.Load() {
		p.deletionLock.RUnlock()
		return false
	}
	return true
}

// release gives up a read lock taken by reserve.
func (p *Pool) release() {
	p.deletionLock.RUnlock()
}

// Snapshot returns a deep copy of the pool's shared message log, safe to
// retain after the call returns.
func (p *Pool) Snapshot() []string {
	return p.messages.snapshot()
}

// Log appends a message to the pool's shared message log. Submitted jobs
// that want to record what they did call this from within their own
// closure; the log is the cross-worker collaborator every worker in the
// pool shares.
func (p *Pool) Log(msg string) {
	p.messages.append(msg)
}

// QueueDepth reports how many envelopes are currently queued, awaiting a
// worker. It's a point-in-time estimate for metrics, not a guarantee.
func (p *Pool) QueueDepth() int {
	return p.queue.depth()
}

// Size reports the fixed number of workers this pool was constructed
// with.
func (p *Pool) Size() int {
	return len(p.workers)
}

// WorkerStat is a point-in-time view of one worker's per-server state.
type WorkerStat struct {
	ID           int
	ServerID     uint64
	RequestCount uint64
}

// WorkerStats returns one WorkerStat per worker. requestCount is, by
// design, reached only by its owning worker goroutine and carries no
// synchronization of its own — so this method only produces a consistent
// snapshot once every worker has stopped running jobs, i.e. after Close
// has returned.
func (p *Pool) WorkerStats() []WorkerStat {
	stats := make([]WorkerStat, len(p.workers))
	for i, w := range p.workers {
		stats[i] = WorkerStat{ID: w.id, ServerID: w.serverID, RequestCount: w.requestCount}
	}
	return stats
}
