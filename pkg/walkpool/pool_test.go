package walkpool

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nodes are their own costs
func identity(n int) int { return n }

func values[N any](p *Pool[N]) []float64 {
	var out []float64
	for _, w := range p.walks {
		out = append(out, w.Value)
	}
	return out
}

func TestActivation(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	p := New[int](5, 2)

	assert.Nil(t, p.RandomWalk(r))
	p.Add([]int{0, 1}, 0.5, "a")
	assert.False(t, p.Active())
	assert.Nil(t, p.RandomWalk(r))

	p.Add([]int{0, 2}, 0.4, "b")
	assert.True(t, p.Active())
	assert.NotNil(t, p.RandomWalk(r))
	assert.False(t, p.Add(nil, 0, "c"))
}

func TestEvictionWorstOldestFirst(t *testing.T) {
	p := New[int](3, 1)
	require.True(t, p.Add([]int{0}, 0.9, "first"))
	require.True(t, p.Add([]int{0}, 0.2, "second"))
	require.True(t, p.Add([]int{0}, 0.9, "third"))

	// Full: the older of the two 0.9 walks goes
	require.True(t, p.Add([]int{0}, 0.5, "fourth"))
	var owners []string
	for _, w := range p.walks {
		owners = append(owners, w.Owner)
	}
	assert.ElementsMatch(t, []string{"second", "third", "fourth"}, owners)

	// Worse than every stored walk
	assert.False(t, p.Add([]int{0}, 1.5, "fifth"))
	assert.ElementsMatch(t, []float64{0.2, 0.9, 0.5}, values(p))
	assert.Equal(t, 3, p.Len())
}

func TestAddCopies(t *testing.T) {
	p := New[int](2, 1)
	nodes := []int{0, 1, 2}
	p.Add(nodes, 0, "a")
	nodes[1] = 99
	assert.Equal(t, []int{0, 1, 2}, p.walks[0].Nodes)
}

func TestPrune(t *testing.T) {
	p := New[int](10, 1)
	p.Add([]int{0, 1, 2, 3, 4}, 0.1, "long")
	p.Add([]int{0, 7, 8}, 0.2, "expensive")
	p.Add([]int{0, 2}, 0.3, "short")

	held := p.walks[0]
	removed := p.Prune(2, identity)
	assert.Equal(t, 1, removed)
	require.Equal(t, 2, p.Len())

	for _, w := range p.walks {
		for _, n := range w.Nodes {
			assert.LessOrEqual(t, n, 2)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, held.Nodes, "pruning must not modify walks in use")
}

func TestRandomSubsequence(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	w := &Walk[int]{Nodes: []int{0, 1, 2, 3}}
	lengths := map[int]bool{}
	for i := 0; i < 200; i++ {
		sub := RandomSubsequence(w, r)
		require.NotEmpty(t, sub)
		assert.Equal(t, w.Nodes[:len(sub)], sub)
		lengths[len(sub)] = true
	}
	assert.Len(t, lengths, 4)
	assert.Nil(t, RandomSubsequence[int](nil, r))
}

func TestConcurrentUse(t *testing.T) {
	p := New[int](8, 2)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				p.Add([]int{0, i % 5}, r.Float64(), "worker")
				if w := p.RandomWalk(r); w != nil {
					_ = RandomSubsequence(w, r)
				}
				if i%50 == 0 {
					p.Prune(3, identity)
				}
			}
		}(int64(g))
	}
	wg.Wait()
	assert.LessOrEqual(t, p.Len(), 8)
}
