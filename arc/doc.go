// Package arc implements an Adaptive Replacement Cache (ARC) store for
// memoizing pure, deterministic computations keyed by their call arguments.
//
// Design
//
//   - Four queues: resident entries live in T1 (seen once since admission)
//     or T2 (seen repeatedly); ghost keys of recently evicted entries live
//     in B1 (evicted from T1) or B2 (evicted from T2). Ghosts carry no
//     value — they are the policy's memory of what it threw away.
//
//   - Adaptation: a floating-point target p in [0, MaxSize] balances the
//     resident space between T1 (recency) and T2 (frequency). A ghost hit
//     in B1 grows p (the cache should have kept more recent entries); a
//     ghost hit in B2 shrinks it. Each step is the ratio of the opposite
//     history's length to the hit history's length, floored at one.
//
//   - Queues are ordered maps: a container/list for order plus a
//     key→element index, so membership tests, promotions and "pop oldest"
//     are all O(1).
//
//   - GetOrCompute is the primary operation: a resident hit returns the
//     cached value (promoting T1 entries into T2); any miss — ghost or
//     cold — runs the supplied compute callback and admits its result
//     under the ARC replacement rules. A failing compute leaves the
//     queues and p untouched; the error propagates unchanged.
//
//   - Metrics: Options.Metrics receives Hit/Miss/GhostHit/Evict/Adapt/Size
//     signals. NoopMetrics is the default; the metrics/prom package
//     provides a Prometheus adapter.
//
// Basic usage
//
//	s := arc.MustNew[string, int](arc.Options[string, int]{MaxSize: 1024})
//	v, err := s.GetOrCompute("answer", func() (int, error) {
//	    return expensive("answer"), nil
//	})
//	fmt.Println(s.Stats())
//
// Concurrency
//
// A Store assumes a single logical owner: no method is safe for concurrent
// use. The memo package wraps stores with per-shard locking and
// singleflight load coalescing for concurrent callers.
package arc
