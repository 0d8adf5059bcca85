// Package memo provides a concurrent memoization cache on top of arc:
// keys are sharded across independent ARC stores behind per-shard locks,
// and concurrent misses for the same key collapse into a single
// computation via singleflight.
package memo

import (
	"context"
	"sync"

	"github.com/IvanBrykalov/arcmemo/arc"
	"github.com/IvanBrykalov/arcmemo/internal/singleflight"
	"github.com/IvanBrykalov/arcmemo/internal/util"
)

// ErrNoLoader is returned by Do when no Loader was configured in Options.
var ErrNoLoader = errorsNew("memo: no Loader provided")

// lightweight local errors.New to avoid importing std 'errors' everywhere
func errorsNew(s string) error { return &strErr{s} }

type strErr struct{ s string }

func (e *strErr) Error() string { return e.s }

// Options configures a Cache. MaxSize is required; zero values elsewhere
// get sane defaults in New:
//   - Shards <= 0 => auto (≈ 2*GOMAXPROCS, rounded to a power of two)
//   - nil Metrics => NoopMetrics on every shard
type Options[K comparable, V any] struct {
	// MaxSize is the total resident entry limit, split evenly (ceil)
	// across shards.
	MaxSize int

	// Shards sets the number of independent ARC stores. Rounded up to a
	// power of two; 0 picks an automatic value.
	Shards int

	// Loader produces the value for a key on miss. Used by Do; optional
	// if all callers go through DoWith.
	Loader func(ctx context.Context, k K) (V, error)

	// Metrics receives the arc store signals from every shard. Counters
	// aggregate naturally across shards; size/adaptation gauges reflect
	// the last-reporting shard, so prefer Stats for sharded totals.
	Metrics arc.Metrics

	// OnEvict is called under a shard lock whenever a resident entry
	// loses its value; keep callbacks lightweight.
	OnEvict func(k K, v V)
}

// Cache is a sharded, memoizing front-end over arc stores.
// All methods are safe for concurrent use by multiple goroutines.
type Cache[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	loader func(ctx context.Context, k K) (V, error)

	// singleflight group coalescing concurrent computations per key.
	sf singleflight.Group[K, V]

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_        util.CacheLinePad
	attempts util.PaddedAtomicInt64 // misses that entered a flight
	loads    util.PaddedAtomicInt64 // computations actually executed
}

type shard[K comparable, V any] struct {
	mu    sync.Mutex
	store *arc.Store[K, V]
}

// New constructs a Cache with the provided Options.
// It returns arc.ErrInvalidMaxSize when Options.MaxSize < 1.
func New[K comparable, V any](opt Options[K, V]) (*Cache[K, V], error) {
	if opt.MaxSize < 1 {
		return nil, arc.ErrInvalidMaxSize
	}

	n := opt.Shards
	if n <= 0 {
		n = util.ReasonableShardCount()
	} else {
		n = int(util.NextPow2(uint64(n)))
	}

	perShard := (opt.MaxSize + n - 1) / n // split capacity evenly (ceil)
	shards := make([]*shard[K, V], n)
	for i := range shards {
		st, err := arc.New[K, V](arc.Options[K, V]{
			MaxSize: perShard,
			Metrics: opt.Metrics,
			OnEvict: opt.OnEvict,
		})
		if err != nil {
			return nil, err
		}
		shards[i] = &shard[K, V]{store: st}
	}

	return &Cache[K, V]{
		shards: shards,
		hash:   util.Fnv64a[K],
		loader: opt.Loader,
	}, nil
}

// Do returns the memoized value for k, computing it via Options.Loader on
// miss. Concurrent misses for the same key run the Loader once; misses
// for different keys compute in parallel. Returns ErrNoLoader if no
// Loader was configured.
func (c *Cache[K, V]) Do(ctx context.Context, k K) (V, error) {
	if c.loader == nil {
		var zero V
		return zero, ErrNoLoader
	}
	return c.DoWith(ctx, k, func(ctx context.Context) (V, error) {
		return c.loader(ctx, k)
	})
}

// DoWith is Do with a per-call compute callback instead of the configured
// Loader. compute runs outside the shard lock; its error propagates
// unchanged and nothing is cached for the key.
func (c *Cache[K, V]) DoWith(ctx context.Context, k K, compute func(ctx context.Context) (V, error)) (V, error) {
	sh := c.shardFor(k)

	// Fast path: resident hit.
	sh.mu.Lock()
	v, ok := sh.store.Get(k)
	sh.mu.Unlock()
	if ok {
		return v, nil
	}

	// Miss: at most one computation per key in flight.
	c.attempts.Add(1)
	return c.sf.Do(ctx, k, func() (V, error) {
		// Re-check after winning the flight: a previous leader may have
		// admitted the value already.
		sh.mu.Lock()
		v, ok := sh.store.Get(k)
		sh.mu.Unlock()
		if ok {
			return v, nil
		}

		c.loads.Add(1)
		v, err := compute(ctx)
		if err != nil {
			return v, err
		}

		sh.mu.Lock()
		sh.store.Admit(k, v)
		sh.mu.Unlock()
		return v, nil
	})
}

// Contains reports whether k is resident, without promotion or counter
// effects.
func (c *Cache[K, V]) Contains(k K) bool {
	sh := c.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.store.Contains(k)
}

// Len returns the total number of resident entries across all shards.
func (c *Cache[K, V]) Len() int {
	total := 0
	for _, sh := range c.shards {
		sh.mu.Lock()
		total += sh.store.Len()
		sh.mu.Unlock()
	}
	return total
}

// Clear resets every shard (queues, counters, adaptation target) and the
// cache-level load counters.
func (c *Cache[K, V]) Clear() {
	for _, sh := range c.shards {
		sh.mu.Lock()
		sh.store.Clear()
		sh.mu.Unlock()
	}
	c.attempts.Store(0)
	c.loads.Store(0)
}

// Stats is an aggregated snapshot across shards plus flight counters.
type Stats struct {
	Hits    uint64
	Misses  uint64
	MaxSize int
	Entries int
	// Loads counts computations actually executed; Coalesced counts
	// miss attempts that were resolved by another caller's computation
	// instead of running their own.
	Loads     int64
	Coalesced int64
	Shards    int
}

// Stats aggregates shard stats under the shard locks.
func (c *Cache[K, V]) Stats() Stats {
	st := Stats{Shards: len(c.shards)}
	for _, sh := range c.shards {
		sh.mu.Lock()
		s := sh.store.Stats()
		sh.mu.Unlock()

		st.Hits += s.Hits
		st.Misses += s.Misses
		st.MaxSize += s.MaxSize
		st.Entries += s.T1Size + s.T2Size
	}
	st.Loads = c.loads.Load()
	st.Coalesced = c.attempts.Load() - st.Loads
	return st
}

// ShardStats returns the per-shard ARC snapshots, in shard order. Useful
// for inspecting how the adaptation targets diverge across shards.
func (c *Cache[K, V]) ShardStats() []arc.Stats {
	out := make([]arc.Stats, len(c.shards))
	for i, sh := range c.shards {
		sh.mu.Lock()
		out[i] = sh.store.Stats()
		sh.mu.Unlock()
	}
	return out
}

// shardFor picks a shard by hashing the key and masking with len-1.
// len(c.shards) is guaranteed to be a power of two.
func (c *Cache[K, V]) shardFor(k K) *shard[K, V] {
	h := c.hash(k)
	return c.shards[int(h)&(len(c.shards)-1)]
}
