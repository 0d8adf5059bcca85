// Package prom exports arc store metrics to Prometheus.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/arcmemo/arc"
)

// Adapter implements arc.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
//
// Counters aggregate correctly when one Adapter is shared by several
// stores (e.g. the shards of a memo.Cache). The size and target gauges
// reflect whichever store reported last, so wire gauges to a single store
// or read memo.Cache.Stats for sharded totals.
type Adapter struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	ghostHits *prometheus.CounterVec
	evicts    *prometheus.CounterVec
	target    prometheus.Gauge
	sizes     *prometheus.GaugeVec
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Resident cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses (including ghost hits, which recompute)",
			ConstLabels: constLabels,
		}),
		ghostHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "ghost_hits_total",
				Help:        "Misses whose key was found in eviction history, by ghost list",
				ConstLabels: constLabels,
			},
			[]string{"list"},
		),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Entries evicted, by source list",
				ConstLabels: constLabels,
			},
			[]string{"list"},
		),
		target: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "t1_target",
			Help:        "Adaptive T1 target size p",
			ConstLabels: constLabels,
		}),
		sizes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "list_size",
				Help:        "Current queue lengths, by list",
				ConstLabels: constLabels,
			},
			[]string{"list"},
		),
	}
	reg.MustRegister(a.hits, a.misses, a.ghostHits, a.evicts, a.target, a.sizes)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// GhostHit increments the ghost-hit counter for the given list.
func (a *Adapter) GhostHit(l arc.List) {
	a.ghostHits.WithLabelValues(l.String()).Inc()
}

// Evict increments the eviction counter for the given list.
func (a *Adapter) Evict(l arc.List) {
	a.evicts.WithLabelValues(l.String()).Inc()
}

// Adapt updates the adaptation target gauge.
func (a *Adapter) Adapt(p float64) { a.target.Set(p) }

// Size updates the per-list size gauges.
func (a *Adapter) Size(t1, t2, b1, b2 int) {
	a.sizes.WithLabelValues(arc.ListT1.String()).Set(float64(t1))
	a.sizes.WithLabelValues(arc.ListT2.String()).Set(float64(t2))
	a.sizes.WithLabelValues(arc.ListB1.String()).Set(float64(b1))
	a.sizes.WithLabelValues(arc.ListB2.String()).Set(float64(b2))
}

// Compile-time check: ensure Adapter implements arc.Metrics.
var _ arc.Metrics = (*Adapter)(nil)
