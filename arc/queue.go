package arc

import "container/list"

// entry is a resident key/value pair stored in a queue element.
type entry[K comparable, V any] struct {
	key K
	val V
}

// residentQueue keeps key/value entries in strict recency order:
// Front is MRU, Back is LRU. All operations are O(1).
type residentQueue[K comparable, V any] struct {
	order *list.List // element values are *entry[K, V]
	idx   map[K]*list.Element
}

func newResidentQueue[K comparable, V any]() *residentQueue[K, V] {
	return &residentQueue[K, V]{
		order: list.New(),
		idx:   make(map[K]*list.Element),
	}
}

func (q *residentQueue[K, V]) len() int { return q.order.Len() }

func (q *residentQueue[K, V]) contains(k K) bool {
	_, ok := q.idx[k]
	return ok
}

// pushMRU inserts a new entry at the MRU end. The key must not be present.
func (q *residentQueue[K, V]) pushMRU(k K, v V) {
	q.idx[k] = q.order.PushFront(&entry[K, V]{key: k, val: v})
}

// moveToMRU refreshes the entry's recency and returns its value.
func (q *residentQueue[K, V]) moveToMRU(k K) (V, bool) {
	el, ok := q.idx[k]
	if !ok {
		var zero V
		return zero, false
	}
	q.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).val, true
}

// remove detaches the entry by key and returns its value.
func (q *residentQueue[K, V]) remove(k K) (V, bool) {
	el, ok := q.idx[k]
	if !ok {
		var zero V
		return zero, false
	}
	q.order.Remove(el)
	delete(q.idx, k)
	return el.Value.(*entry[K, V]).val, true
}

// popLRU removes and returns the oldest entry.
func (q *residentQueue[K, V]) popLRU() (K, V, bool) {
	el := q.order.Back()
	if el == nil {
		var zk K
		var zv V
		return zk, zv, false
	}
	e := el.Value.(*entry[K, V])
	q.order.Remove(el)
	delete(q.idx, e.key)
	return e.key, e.val, true
}

// ghostQueue keeps keys only, in the same MRU→LRU order as residentQueue.
// It records eviction history without holding values.
type ghostQueue[K comparable] struct {
	order *list.List // element values are K
	idx   map[K]*list.Element
}

func newGhostQueue[K comparable]() *ghostQueue[K] {
	return &ghostQueue[K]{
		order: list.New(),
		idx:   make(map[K]*list.Element),
	}
}

func (q *ghostQueue[K]) len() int { return q.order.Len() }

func (q *ghostQueue[K]) contains(k K) bool {
	_, ok := q.idx[k]
	return ok
}

// pushMRU records k as the most recent eviction. The key must not be present.
func (q *ghostQueue[K]) pushMRU(k K) {
	q.idx[k] = q.order.PushFront(k)
}

// remove forgets k. Returns false if k was not recorded.
func (q *ghostQueue[K]) remove(k K) bool {
	el, ok := q.idx[k]
	if !ok {
		return false
	}
	q.order.Remove(el)
	delete(q.idx, k)
	return true
}

// popLRU drops and returns the oldest recorded key.
func (q *ghostQueue[K]) popLRU() (K, bool) {
	el := q.order.Back()
	if el == nil {
		var zero K
		return zero, false
	}
	k := el.Value.(K)
	q.order.Remove(el)
	delete(q.idx, k)
	return k, true
}
