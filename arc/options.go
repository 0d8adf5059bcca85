package arc

import "errors"

// ErrInvalidMaxSize is returned by New when Options.MaxSize is not a
// positive integer. An unbounded memoization cache is deliberately not
// supported; pick a capacity.
var ErrInvalidMaxSize = errors.New("arc: MaxSize must be a positive integer")

// Options configures a Store. MaxSize is required; everything else has a
// usable zero value:
//   - nil Metrics => NoopMetrics
//   - nil OnEvict => no callback
type Options[K comparable, V any] struct {
	// MaxSize is the resident entry limit. The combined eviction history
	// (ghost keys) may grow up to twice this size.
	MaxSize int

	// Metrics receives hit/miss/ghost-hit/eviction/adaptation signals.
	Metrics Metrics

	// OnEvict is called whenever a resident entry loses its value, either
	// by demotion to a ghost or by being dropped outright. It runs inside
	// store operations; keep it lightweight.
	OnEvict func(k K, v V)
}
