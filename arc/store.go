package arc

import "math"

// Store is an ARC-managed memoization cache. It owns four queues (resident
// T1/T2, ghost B1/B2) and an adaptive target p that splits the resident
// space between recency and frequency.
//
// The following size relations hold after every operation:
//
//	|T1| + |T2| ≤ max            (resident limit)
//	|T1| + |B1| ≤ max            (recency side)
//	|T2| + |B2| ≤ 2·max          (frequency side)
//	|T1| + |B1| + |T2| + |B2| ≤ 2·max
//	0 ≤ p ≤ max
//
// and the four queues are pairwise disjoint by key. Once the combined
// history reaches max, the resident set stays exactly full.
//
// A Store is NOT safe for concurrent use; it assumes a single logical
// owner per instance. See the memo package for a concurrent front-end.
type Store[K comparable, V any] struct {
	max int
	p   float64

	t1 *residentQueue[K, V]
	t2 *residentQueue[K, V]
	b1 *ghostQueue[K]
	b2 *ghostQueue[K]

	hits   uint64
	misses uint64

	metrics Metrics
	onEvict func(K, V)
}

// New constructs a Store with the provided Options.
// It returns ErrInvalidMaxSize when Options.MaxSize < 1.
func New[K comparable, V any](opt Options[K, V]) (*Store[K, V], error) {
	if opt.MaxSize < 1 {
		return nil, ErrInvalidMaxSize
	}
	m := opt.Metrics
	if m == nil {
		m = NoopMetrics{}
	}
	s := &Store[K, V]{
		max:     opt.MaxSize,
		metrics: m,
		onEvict: opt.OnEvict,
	}
	s.Clear()
	return s, nil
}

// MustNew is New that panics on configuration errors.
// Handy for examples, benchmarks, and compile-time-constant capacities.
func MustNew[K comparable, V any](opt Options[K, V]) *Store[K, V] {
	s, err := New(opt)
	if err != nil {
		panic(err)
	}
	return s
}

// GetOrCompute returns the cached value for key, producing it via compute
// on any kind of miss. A ghost hit (the key is remembered in B1/B2) still
// recomputes — ghosts hold no values — but steers adaptation and admits
// the fresh value directly into T2.
//
// compute must be deterministic for the key and is called at most once per
// invocation. If it fails, the error propagates unchanged and no queue or
// adaptation state is modified; only the miss counter has advanced.
func (s *Store[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	s.Admit(key, v)
	return v, nil
}

// Get looks key up among the resident entries and applies the hit
// protocol: a T1 hit graduates the entry to the MRU end of T2, a T2 hit
// refreshes its recency. Absence counts as a miss even though nothing is
// inserted; callers that go on to produce the value hand it to Admit.
func (s *Store[K, V]) Get(key K) (V, bool) {
	if v, ok := s.t1.remove(key); ok {
		// First re-use while resident: the entry has now been seen
		// twice and belongs on the frequency side.
		s.t2.pushMRU(key, v)
		s.hits++
		s.metrics.Hit()
		s.metrics.Size(s.t1.len(), s.t2.len(), s.b1.len(), s.b2.len())
		return v, true
	}
	if v, ok := s.t2.moveToMRU(key); ok {
		s.hits++
		s.metrics.Hit()
		return v, true
	}
	s.misses++
	s.metrics.Miss()
	var zero V
	return zero, false
}

// Admit installs a value produced after a Get miss, applying the ARC
// replacement rules: ghost hits adapt p and re-enter T2, unseen keys enter
// T1. Admitting a key that turns out to be resident refreshes it in place.
func (s *Store[K, V]) Admit(key K, value V) {
	// Refresh paths: the owner interleaved operations and the key
	// regained residency between the miss and this admit.
	if _, ok := s.t1.remove(key); ok {
		s.t2.pushMRU(key, value)
		return
	}
	if s.t2.contains(key) {
		s.t2.remove(key)
		s.t2.pushMRU(key, value)
		return
	}

	switch {
	case s.b1.contains(key):
		// The recency history remembers this key: T1 deserved more
		// room. Grow the target, make room, re-admit into T2.
		s.p = math.Min(s.p+adaptStep(s.b1.len(), s.b2.len()), float64(s.max))
		s.metrics.Adapt(s.p)
		s.metrics.GhostHit(ListB1)
		s.replace()
		s.b1.remove(key)
		s.t2.pushMRU(key, value)

	case s.b2.contains(key):
		// The frequency history remembers this key: shrink the T1
		// target to protect T2.
		s.p = math.Max(s.p-adaptStep(s.b2.len(), s.b1.len()), 0)
		s.metrics.Adapt(s.p)
		s.metrics.GhostHit(ListB2)
		s.replace()
		s.b2.remove(key)
		s.t2.pushMRU(key, value)

	default:
		// Unseen key. Trim whichever half of the DBL(2c) directory is
		// at its bound, then admit at the MRU end of T1 — even when
		// that pushes T1 past p; only the hard limits bind here.
		if s.t1.len()+s.b1.len() == s.max {
			s.evictRecencySide()
		} else {
			s.evictFrequencySide()
		}
		s.t1.pushMRU(key, value)
	}

	s.metrics.Size(s.t1.len(), s.t2.len(), s.b1.len(), s.b2.len())
}

// Stats returns a snapshot of counters, sizes, and the adaptation target.
func (s *Store[K, V]) Stats() Stats {
	return Stats{
		Hits:    s.hits,
		Misses:  s.misses,
		MaxSize: s.max,
		T1Size:  s.t1.len(),
		T2Size:  s.t2.len(),
		P:       s.p,
	}
}

// Clear empties all four queues, zeroes the counters, and resets the
// adaptation target to the middle of the resident space.
func (s *Store[K, V]) Clear() {
	s.t1 = newResidentQueue[K, V]()
	s.t2 = newResidentQueue[K, V]()
	s.b1 = newGhostQueue[K]()
	s.b2 = newGhostQueue[K]()
	s.hits = 0
	s.misses = 0
	s.p = float64(s.max) / 2
	s.metrics.Adapt(s.p)
	s.metrics.Size(0, 0, 0, 0)
}

// Len returns the number of resident entries.
func (s *Store[K, V]) Len() int { return s.t1.len() + s.t2.len() }

// Contains reports residency without promoting the entry or touching the
// hit/miss counters.
func (s *Store[K, V]) Contains(key K) bool {
	return s.t1.contains(key) || s.t2.contains(key)
}

// MaxSize returns the configured resident entry limit.
func (s *Store[K, V]) MaxSize() int { return s.max }

// -------------------- eviction primitives --------------------

// replace demotes one resident entry to its ghost list. p is the single
// tie-break: T1's LRU goes when T1 exceeds the target, otherwise T2's LRU
// goes. A large p protects recency, a small p protects frequency.
func (s *Store[K, V]) replace() {
	if s.t1.len() > 0 && float64(s.t1.len()) > s.p {
		s.demote(s.t1, s.b1, ListT1)
	} else {
		s.demote(s.t2, s.b2, ListT2)
	}
}

// demote moves the LRU entry of a resident queue into its ghost queue,
// discarding the value. No-op when the queue is empty.
func (s *Store[K, V]) demote(from *residentQueue[K, V], to *ghostQueue[K], l List) {
	k, v, ok := from.popLRU()
	if !ok {
		return
	}
	to.pushMRU(k)
	s.metrics.Evict(l)
	if s.onEvict != nil {
		s.onEvict(k, v)
	}
}

// evictRecencySide runs when T1 and B1 together are at the resident limit.
// If any B1 history remains, the oldest ghost is retired and a resident
// entry is demoted; otherwise T1 itself holds max entries and its LRU is
// dropped outright — no ghost is kept for it.
func (s *Store[K, V]) evictRecencySide() {
	if s.b1.len() > 0 {
		if _, ok := s.b1.popLRU(); ok {
			s.metrics.Evict(ListB1)
		}
		s.replace()
		return
	}
	if k, v, ok := s.t1.popLRU(); ok {
		s.metrics.Evict(ListT1)
		if s.onEvict != nil {
			s.onEvict(k, v)
		}
	}
}

// evictFrequencySide runs for unseen keys while the recency side still has
// room. Nothing happens until the combined directory reaches the resident
// limit; at the full DBL(2c) bound the oldest B2 ghost goes first.
func (s *Store[K, V]) evictFrequencySide() {
	total := s.t1.len() + s.b1.len() + s.t2.len() + s.b2.len()
	if total < s.max {
		return
	}
	if total == 2*s.max {
		if _, ok := s.b2.popLRU(); ok {
			s.metrics.Evict(ListB2)
		}
	}
	s.replace()
}

// adaptStep sizes one adaptation move: the ratio of the opposite history's
// length to the hit history's length, floored at a single full step. The
// divisor is never zero — the just-hit ghost key still sits in that queue.
func adaptStep(hit, opposite int) float64 {
	return math.Max(float64(opposite)/float64(hit), 1.0)
}
