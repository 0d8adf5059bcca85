// Package singleflight coalesces concurrent calls that would produce the
// same value, so a memoized computation runs at most once per key at a
// time.
package singleflight

import (
	"context"
	"sync"
)

// Group deduplicates in-flight calls by key. The first caller for a key
// becomes the leader and runs fn; concurrent callers for the same key
// wait for the leader's result.
//
// Publishing (val, err) happens-before close(done), so followers reading
// after <-done observe the final values. A follower whose ctx is
// cancelled stops waiting, but the leader's fn keeps running; thread ctx
// into fn if the underlying work must be cancellable.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed once val/err are published
	val  V
	err  error
}

// Do runs fn at most once for concurrently supplied equal keys and
// returns the shared result. Followers cancelled via ctx return ctx.Err()
// without affecting the leader.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		// A flight for this key is in progress; join it.
		done := c.done
		g.mu.Unlock()

		select {
		case <-done:
			return c.val, c.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	// Leader path: run fn outside the lock, publish, wake followers.
	v, err := fn()
	c.val, c.err = v, err
	close(c.done)

	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()

	return v, err
}
