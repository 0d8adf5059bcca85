// Command bench runs a synthetic memoization workload against the cache
// and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IvanBrykalov/arcmemo/memo"
	pmet "github.com/IvanBrykalov/arcmemo/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")
		shards   = flag.Int("shards", 0, "number of shards (0=auto)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		loadCost = flag.Duration("loadcost", 0, "simulated compute cost per miss (e.g. 200us)")

		keys     = flag.Int("keys", 1_000_000, "keyspace size")
		preloadN = flag.Int("preload", 0, "warm the cache with the N hottest keys before the run")
		zipfS    = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV    = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "arcmemo", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	cost := *loadCost
	c, err := memo.New[string, string](memo.Options[string, string]{
		MaxSize: *capacity,
		Shards:  *shards,
		Metrics: metrics,
		Loader: func(_ context.Context, k string) (string, error) {
			if cost > 0 {
				time.Sleep(cost)
			}
			return "v:" + k, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	// ---- Snapshot flags for goroutines ----
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Preload ----
	// Zipf concentrates traffic on the low key indices, so warming
	// sequentially warms the hottest part of the keyspace.
	if n := *preloadN; n > 0 {
		if n > *keys {
			n = *keys
		}
		for i := 0; i < n; i++ {
			if _, err := c.Do(context.Background(), "k:"+strconv.Itoa(i)); err != nil {
				log.Fatal(err)
			}
		}
		log.Printf("preloaded %d keys", n)
	}

	// ---- Load generation ----
	var total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				k := "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
				if _, err := c.Do(ctx, k); err != nil && ctx.Err() == nil {
					log.Printf("Do(%s): %v", k, err)
					return
				}
				atomic.AddUint64(&total, 1)
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	st := c.Stats()

	hitRate := 0.0
	if st.Hits+st.Misses > 0 {
		hitRate = float64(st.Hits) / float64(st.Hits+st.Misses) * 100
	}

	// Adaptation targets diverge per shard; show the spread.
	pMin, pMax, pSum := -1.0, -1.0, 0.0
	for _, s := range c.ShardStats() {
		if pMin < 0 || s.P < pMin {
			pMin = s.P
		}
		if s.P > pMax {
			pMax = s.P
		}
		pSum += s.P
	}

	fmt.Printf("cap=%d shards=%d workers=%d keys=%d preload=%d dur=%v seed=%d loadcost=%v\n",
		*capacity, st.Shards, workersN, *keys, *preloadN, elapsed, seedBase, cost)
	fmt.Printf("ops=%d (%.0f ops/s)  loads=%d  coalesced=%d\n",
		ops, float64(ops)/elapsed.Seconds(), st.Loads, st.Coalesced)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%  entries=%d\n",
		st.Hits, st.Misses, hitRate, st.Entries)
	fmt.Printf("p: min=%.2f avg=%.2f max=%.2f (per-shard cap=%d)\n",
		pMin, pSum/float64(st.Shards), pMax, st.MaxSize/st.Shards)
}
