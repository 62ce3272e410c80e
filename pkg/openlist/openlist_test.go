package openlist

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkHeap[E any](t *testing.T, o *OpenList[E]) {
	t.Helper()
	for i := 1; i < len(o.heap); i++ {
		parent := (i - 1) / 2
		if o.heap[i].key.Less(o.heap[parent].key) {
			t.Fatalf("heap violated at %d: %v < parent %v", i, o.heap[i].key, o.heap[parent].key)
		}
	}
}

func TestKeyOrder(t *testing.T) {
	assert.True(t, Key{1, 5}.Less(Key{2, 0}))
	assert.True(t, Key{1, 0}.Less(Key{1, 1}))
	assert.False(t, Key{1, 1}.Less(Key{1, 1}))
	assert.False(t, Key{3, 0}.Less(Key{2, 9}))
}

func TestHeapInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	o := New[int]()
	live := 0

	for i := 0; i < 5000; i++ {
		switch op := r.Intn(4); {
		case op < 2 || o.Empty():
			o.Insert(Key{r.Intn(50), r.Intn(10)}, i)
			live++
		case op == 2:
			o.RemoveMin()
			live--
		default:
			o.RemoveRandom(r)
			live--
		}
		checkHeap(t, o)
		require.Equal(t, live, o.Len())
	}
}

func TestRemoveMinOrder(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	o := New[string]()
	var keys []Key
	for i := 0; i < 200; i++ {
		k := Key{r.Intn(20), r.Intn(20)}
		keys = append(keys, k)
		o.Insert(k, "x")
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	for _, want := range keys {
		got, _ := o.RemoveMin()
		require.Equal(t, want, got)
	}
	assert.True(t, o.Empty())
}

func TestRemoveRandomUniform(t *testing.T) {
	const (
		size   = 8
		trials = 40000
	)
	r := rand.New(rand.NewSource(42))
	counts := make([]int, size)
	o := New[int]()

	for n := 0; n < trials; n++ {
		o.Clear()
		for i := 0; i < size; i++ {
			o.Insert(Key{i, 0}, i)
		}
		_, v := o.RemoveRandom(r)
		counts[v]++
		checkHeap(t, o)
	}

	expected := float64(trials) / size
	for i, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.1, "value %d drawn %d times", i, c)
	}
}

func TestEmptyPanics(t *testing.T) {
	o := New[int]()
	assert.Panics(t, func() { o.RemoveMin() })
	assert.Panics(t, func() { o.RemoveRandom(rand.New(rand.NewSource(1))) })
}

func TestApproxBytes(t *testing.T) {
	o := New[[4]int64]()
	empty := o.ApproxBytes()
	for i := 0; i < 100; i++ {
		o.Insert(Key{i, i}, [4]int64{})
	}
	assert.GreaterOrEqual(t, o.ApproxBytes(), empty+100*32)
}
