package pool

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Manager is a self-expiring, lazily-constructed cache of named Pools,
// safe for concurrent use. It's meant for a server that wants an
// independent fixed-size pool per tenant, per route, or per client key,
// without building and tearing down a Pool by hand for every one of them.
//
// A pool that goes unused for staleExpiration is evicted and Closed. A
// pool that has been alive for longer than maxLifetime is evicted on its
// next use (even if still busy; it is Closed once released), and that use
// gets a fresh pool.
type Manager struct {
	pools           *ttlcache.Cache[string, *Pool]
	poolSize        int
	reservationLock sync.Mutex
	staleExpiration time.Duration
	maxLifetime     time.Duration
	poolOpts        []Option
	createdAt       sync.Map // key -> time.Time, used to enforce maxLifetime
}

// NewManager builds a Manager. poolSize is the fixed worker count every
// managed Pool is created with.
func NewManager(poolSize int, staleExpiration, maxLifetime time.Duration, opts ...Option) *Manager {
	cache := ttlcache.New(ttlcache.WithTTL[string, *Pool](staleExpiration))
	cache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, *Pool]) {
		item.Value().Close()
	})
	go cache.Start()

	return &Manager{
		pools:           cache,
		poolSize:        poolSize,
		staleExpiration: staleExpiration,
		maxLifetime:     maxLifetime,
		poolOpts:        opts,
	}
}

// Get returns the Pool for key, building and caching a fresh one if
// necessary. It returns the pool in a reserved state: the caller must
// call the returned release func once it's done submitting to this pool,
// so the manager knows it's safe to evict and close.
func (m *Manager) Get(key string) (*Pool, func()) {
	m.reservationLock.Lock()

	var p *Pool
	if item := m.pools.Get(key); item != nil {
		p = item.Value()
		// A pool past maxLifetime is dropped from the cache and closed once
		// its outstanding reservations are released; a fresh one replaces it.
		if age, ok := m.createdAt.Load(key); ok && time.Since(age.(time.Time)) > m.maxLifetime {
			m.pools.Delete(key)
			m.createdAt.Delete(key)
			go p.Close()
			p = nil
		}
	}
	if p == nil {
		p = MustNew(m.poolSize, m.poolOpts...)
		m.pools.Set(key, p, ttlcache.DefaultTTL)
		m.createdAt.Store(key, time.Now())
	}

	// reserve prevents eviction from closing this pool until release is
	// called; if it's already closing, the cached entry is stale — retry.
	if !p.reserve() {
		m.reservationLock.Unlock()
		return m.Get(key)
	}

	m.reservationLock.Unlock()
	return p, p.release
}

// Len reports how many pools are currently cached.
func (m *Manager) Len() int {
	return m.pools.Len()
}

// Close evicts and closes every cached pool and stops the manager's
// background expiry loop.
func (m *Manager) Close() {
	m.pools.DeleteAll()
	m.pools.Stop()
}
