package arc

// List identifies one of the four ARC queues in metrics signals.
type List int

const (
	// ListT1 — resident entries seen once since admission.
	ListT1 List = iota
	// ListT2 — resident entries seen repeatedly.
	ListT2
	// ListB1 — ghost history of T1 evictions.
	ListB1
	// ListB2 — ghost history of T2 evictions.
	ListB2
)

// String returns a stable lower-case label for the list.
func (l List) String() string {
	switch l {
	case ListT1:
		return "t1"
	case ListT2:
		return "t2"
	case ListB1:
		return "b1"
	case ListB2:
		return "b2"
	default:
		return "unknown"
	}
}

// Metrics exposes store-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	// GhostHit fires when a recomputed key was found in eviction history
	// (always in addition to Miss: the value had to be produced again).
	GhostHit(l List)
	// Evict fires when an entry leaves the named list under capacity
	// pressure: demotions out of T1/T2 and ghost drops out of B1/B2.
	Evict(l List)
	// Adapt reports the new T1 target after an adaptation step.
	Adapt(p float64)
	// Size reports the current queue lengths after any operation that
	// moved entries between lists.
	Size(t1, t2, b1, b2 int)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                    {}
func (NoopMetrics) Miss()                   {}
func (NoopMetrics) GhostHit(List)           {}
func (NoopMetrics) Evict(List)              {}
func (NoopMetrics) Adapt(float64)           {}
func (NoopMetrics) Size(t1, t2, b1, b2 int) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
