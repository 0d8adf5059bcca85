package memo

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/arcmemo/arc"
)

func TestNew_InvalidMaxSize(t *testing.T) {
	t.Parallel()

	_, err := New[string, int](Options[string, int]{MaxSize: 0})
	if !errors.Is(err, arc.ErrInvalidMaxSize) {
		t.Fatalf("want arc.ErrInvalidMaxSize, got %v", err)
	}
}

func TestCache_DoMemoizes(t *testing.T) {
	t.Parallel()

	var calls int64
	c, err := New[string, string](Options[string, string]{
		MaxSize: 64,
		Shards:  4,
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			return "v:" + k, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := c.Do(ctx, "a")
		if err != nil || v != "v:a" {
			t.Fatalf("Do a: v=%q err=%v", v, err)
		}
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("loader calls: got %d, want 1", got)
	}
	if !c.Contains("a") {
		t.Fatal("a must be resident")
	}

	st := c.Stats()
	if st.Hits != 2 || st.Loads != 1 || st.Entries != 1 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestCache_DoWithoutLoader(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{MaxSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Do(context.Background(), "k"); !errors.Is(err, ErrNoLoader) {
		t.Fatalf("want ErrNoLoader, got %v", err)
	}

	// DoWith works without a configured Loader.
	v, err := c.DoWith(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("DoWith: v=%d err=%v", v, err)
	}
}

func TestCache_LoaderErrorNotCached(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var calls int64
	c, err := New[string, int](Options[string, int]{
		MaxSize: 8,
		Loader: func(_ context.Context, k string) (int, error) {
			n := atomic.AddInt64(&calls, 1)
			if n == 1 {
				return 0, boom
			}
			return 42, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Do(context.Background(), "k"); !errors.Is(err, boom) {
		t.Fatalf("first Do: want boom, got %v", err)
	}
	if c.Contains("k") {
		t.Fatal("failed loads must not be cached")
	}

	v, err := c.Do(context.Background(), "k")
	if err != nil || v != 42 {
		t.Fatalf("second Do must retry the loader: v=%d err=%v", v, err)
	}
}

// Concurrent Do calls for the same key coalesce into one loader run;
// subsequent calls are resident hits.
func TestCache_Do_Singleflight(t *testing.T) {
	var calls int64
	c, err := New[string, string](Options[string, string]{
		MaxSize: 64,
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(5 * time.Millisecond) // simulate real work
			return "v:" + k, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	const n = 64
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := c.Do(ctx, "k")
			if err != nil {
				return err
			}
			if v != "v:k" {
				return fmt.Errorf("got %q", v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("loader must run exactly once, got %d", got)
	}

	// Callers either hit the fast path (if the leader admitted first) or
	// coalesced into the flight; exactly one computation ran either way.
	st := c.Stats()
	if st.Loads != 1 {
		t.Fatalf("Loads: got %d, want 1", st.Loads)
	}
	if st.Coalesced < 0 || st.Coalesced > n-1 {
		t.Fatalf("Coalesced out of range: got %d", st.Coalesced)
	}
}

func TestCache_ClearResetsEverything(t *testing.T) {
	t.Parallel()

	c, err := New[int, int](Options[int, int]{
		MaxSize: 32,
		Shards:  2,
		Loader:  func(_ context.Context, k int) (int, error) { return k * k, nil },
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		if _, err := c.Do(ctx, i%20); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() == 0 {
		t.Fatal("cache must hold entries before Clear")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len after Clear: got %d", c.Len())
	}
	st := c.Stats()
	if st.Hits != 0 || st.Misses != 0 || st.Loads != 0 || st.Coalesced != 0 {
		t.Fatalf("stats after Clear: %+v", st)
	}
	for _, s := range c.ShardStats() {
		if s.T1Size != 0 || s.T2Size != 0 || s.P != float64(s.MaxSize)/2 {
			t.Fatalf("shard not reset: %v", s)
		}
	}
}

func TestCache_ShardStats(t *testing.T) {
	t.Parallel()

	c, err := New[int, int](Options[int, int]{
		MaxSize: 16,
		Shards:  3, // rounded up to 4
		Loader:  func(_ context.Context, k int) (int, error) { return k, nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(c.ShardStats()); got != 4 {
		t.Fatalf("shard count must round to a power of two: got %d, want 4", got)
	}

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		if _, err := c.Do(ctx, i); err != nil {
			t.Fatal(err)
		}
	}

	var entries int
	for _, s := range c.ShardStats() {
		entries += s.T1Size + s.T2Size
	}
	if st := c.Stats(); st.Entries != entries || st.Shards != 4 {
		t.Fatalf("aggregate mismatch: %+v vs per-shard total %d", st, entries)
	}
}

// A follower whose context is cancelled stops waiting; the leader's load
// still completes and is cached.
func TestCache_FollowerCancellation(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	c, err := New[string, string](Options[string, string]{
		MaxSize: 8,
		Loader: func(_ context.Context, k string) (string, error) {
			close(started)
			<-release
			return "v:" + k, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	leaderDone := make(chan error, 1)
	go func() {
		_, err := c.Do(context.Background(), "k")
		leaderDone <- err
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	followerDone := make(chan error, 1)
	go func() {
		_, err := c.Do(ctx, "k")
		followerDone <- err
	}()
	cancel()

	if err := <-followerDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("follower: want context.Canceled, got %v", err)
	}

	close(release)
	if err := <-leaderDone; err != nil {
		t.Fatalf("leader: %v", err)
	}
	if v, err := c.Do(context.Background(), "k"); err != nil || v != "v:k" {
		t.Fatalf("value must be cached after leader finishes: v=%q err=%v", v, err)
	}
}
