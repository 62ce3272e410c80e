package openlist

import (
	"math/rand"
	"unsafe"
)

// Priority of an entry, compared lexicographically, lower is better
type Key struct {
	Primary int
	Tie     int
}

func (k Key) Less(o Key) bool {
	if k.Primary != o.Primary {
		return k.Primary < o.Primary
	}
	return k.Tie < o.Tie
}

type item[E any] struct {
	key   Key
	value E
}

// Binary min-heap of entries ordered by their Key. Not safe for concurrent use
type OpenList[E any] struct {
	heap []item[E]
}

func New[E any]() *OpenList[E] {
	return &OpenList[E]{}
}

func (o *OpenList[E]) Insert(key Key, value E) {
	o.heap = append(o.heap, item[E]{key, value})
	o.siftUp(len(o.heap) - 1)
}

// Remove the entry with the lowest key, panics on an empty list
func (o *OpenList[E]) RemoveMin() (Key, E) {
	if len(o.heap) == 0 {
		panic("openlist: RemoveMin on empty list")
	}
	return o.removeAt(0)
}

// Remove a uniformly chosen entry, panics on an empty list
func (o *OpenList[E]) RemoveRandom(r *rand.Rand) (Key, E) {
	if len(o.heap) == 0 {
		panic("openlist: RemoveRandom on empty list")
	}
	return o.removeAt(r.Intn(len(o.heap)))
}

func (o *OpenList[E]) Empty() bool {
	return len(o.heap) == 0
}

func (o *OpenList[E]) Len() int {
	return len(o.heap)
}

func (o *OpenList[E]) Clear() {
	clear(o.heap)
	o.heap = o.heap[:0]
}

// Approximate memory usage of the list in bytes
func (o *OpenList[E]) ApproxBytes() int {
	var it item[E]
	return int(unsafe.Sizeof(*o)) + cap(o.heap)*int(unsafe.Sizeof(it))
}

func (o *OpenList[E]) removeAt(i int) (Key, E) {
	removed := o.heap[i]
	last := len(o.heap) - 1
	o.heap[i] = o.heap[last]
	var zero item[E]
	o.heap[last] = zero
	o.heap = o.heap[:last]

	if i < last {
		// The moved element may belong below or above its new slot
		if !o.siftDown(i) {
			o.siftUp(i)
		}
	}
	return removed.key, removed.value
}

func (o *OpenList[E]) siftUp(i int) {
	it := o.heap[i]
	for i > 0 {
		parent := (i - 1) / 2
		if !it.key.Less(o.heap[parent].key) {
			break
		}
		o.heap[i] = o.heap[parent]
		i = parent
	}
	o.heap[i] = it
}

// Returns true if the element moved
func (o *OpenList[E]) siftDown(i int) bool {
	start := i
	it := o.heap[i]
	n := len(o.heap)
	for {
		child := 2*i + 1
		if child >= n {
			break
		}
		if right := child + 1; right < n && o.heap[right].key.Less(o.heap[child].key) {
			child = right
		}
		if !o.heap[child].key.Less(it.key) {
			break
		}
		o.heap[i] = o.heap[child]
		i = child
	}
	o.heap[i] = it
	return i != start
}
