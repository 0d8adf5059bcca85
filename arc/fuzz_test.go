//go:build go1.18

package arc

import (
	"fmt"
	"testing"
)

// Fuzz the store with arbitrary access sequences over a small keyspace
// and verify the size/disjointness relations after every operation.
// Each input byte encodes one key; the keyspace is a few multiples of the
// capacity so resident hits, ghost hits, and cold misses all occur.
func FuzzStore_Invariants(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3, 0, 4, 0})
	f.Add([]byte{0, 0, 0, 0})
	f.Add([]byte("scan-resistance"))
	f.Add([]byte{9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 9, 8, 7, 6})

	f.Fuzz(func(t *testing.T, ops []byte) {
		// Cap the sequence length to keep individual cases fast.
		const limit = 1 << 10
		if len(ops) > limit {
			ops = ops[:limit]
		}

		const maxSize = 4
		s := MustNew[int, string](Options[int, string]{MaxSize: maxSize})

		for i, op := range ops {
			k := int(op) % (maxSize * 4)
			want := fmt.Sprintf("v%d", k)
			got, err := s.GetOrCompute(k, func() (string, error) { return want, nil })
			if err != nil {
				t.Fatalf("op %d: GetOrCompute(%d): %v", i, k, err)
			}
			if got != want {
				t.Fatalf("op %d: value for %d: got %q, want %q", i, k, got, want)
			}
			checkInvariants(t, s)

			st := s.Stats()
			if st.Hits+st.Misses != uint64(i+1) {
				t.Fatalf("op %d: hits+misses=%d, want %d", i, st.Hits+st.Misses, i+1)
			}
		}
	})
}
