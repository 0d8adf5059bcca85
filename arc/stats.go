package arc

import "fmt"

// Stats is a point-in-time snapshot of a store's counters and queue sizes.
// Field order is fixed and matches the printed representation; consumers
// that serialize stats should preserve it.
type Stats struct {
	Hits    uint64
	Misses  uint64
	MaxSize int
	T1Size  int
	T2Size  int
	// P is the adaptive T1 target (the split point between recency and
	// frequency space), a real number in [0, MaxSize].
	P float64
}

// String renders the snapshot in stats(hits=…, misses=…, …) form.
func (st Stats) String() string {
	return fmt.Sprintf("stats(hits=%d, misses=%d, max_size=%d, t1_size=%d, t2_size=%d, p=%g)",
		st.Hits, st.Misses, st.MaxSize, st.T1Size, st.T2Size, st.P)
}
