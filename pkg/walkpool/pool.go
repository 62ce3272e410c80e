package walkpool

import (
	"math/rand"
	"sync"
)

// Stored trajectory. Lower value is better
type Walk[N any] struct {
	Nodes []N
	Value float64
	Owner string
	seq   uint64
}

func (w *Walk[N]) Len() int {
	return len(w.Nodes)
}

// Pool is a bounded, mutex-guarded collection of trajectories that restarts
// draw from. It is activated once it holds 'activation' walks
type Pool[N any] struct {
	mu         sync.Mutex
	capacity   int
	activation int
	walks      []*Walk[N]
	seq        uint64
}

func New[N any](capacity, activation int) *Pool[N] {
	return &Pool[N]{
		capacity:   max(capacity, 1),
		activation: max(activation, 1),
	}
}

func (p *Pool[N]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.walks)
}

func (p *Pool[N]) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.walks) >= p.activation
}

// Add stores a copy of the trajectory. When the pool is full the worst walk
// is evicted (the oldest one among equally bad walks), unless the new walk
// is worse than all of them, in which case it is dropped.
// Returns whether the walk was stored
func (p *Pool[N]) Add(nodes []N, value float64, owner string) bool {
	if len(nodes) == 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.walks) >= p.capacity {
		worst := 0
		for i, w := range p.walks {
			if w.Value > p.walks[worst].Value ||
				(w.Value == p.walks[worst].Value && w.seq < p.walks[worst].seq) {
				worst = i
			}
		}
		if value > p.walks[worst].Value {
			return false
		}
		last := len(p.walks) - 1
		p.walks[worst] = p.walks[last]
		p.walks[last] = nil
		p.walks = p.walks[:last]
	}

	c := make([]N, len(nodes))
	copy(c, nodes)
	p.seq++
	p.walks = append(p.walks, &Walk[N]{Nodes: c, Value: value, Owner: owner, seq: p.seq})
	return true
}

// RandomWalk returns a uniformly chosen walk, or nil while the pool is inactive.
// The walk must not be modified
func (p *Pool[N]) RandomWalk(r *rand.Rand) *Walk[N] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.walks) == 0 || len(p.walks) < p.activation {
		return nil
	}
	return p.walks[r.Intn(len(p.walks))]
}

// Prune truncates every walk before its first node whose floor exceeds
// the bound, and removes walks left with only their initial node.
// Returns the number of removed walks
func (p *Pool[N]) Prune(bound int, floor func(N) int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.walks[:0]
	removed := 0
	for _, w := range p.walks {
		cut := len(w.Nodes)
		for i, n := range w.Nodes {
			if floor(n) > bound {
				cut = i
				break
			}
		}
		if cut <= 1 {
			removed++
			continue
		}
		if cut < len(w.Nodes) {
			// Never truncate in place, callers may hold the walk
			w = &Walk[N]{Nodes: w.Nodes[:cut:cut], Value: w.Value, Owner: w.Owner, seq: w.seq}
		}
		kept = append(kept, w)
	}
	for i := len(kept); i < len(p.walks); i++ {
		p.walks[i] = nil
	}
	p.walks = kept
	return removed
}

// RandomSubsequence returns a copy of a random non-empty prefix of the walk
func RandomSubsequence[N any](w *Walk[N], r *rand.Rand) []N {
	if w == nil || len(w.Nodes) == 0 {
		return nil
	}
	n := 1 + r.Intn(len(w.Nodes))
	out := make([]N, n)
	copy(out, w.Nodes[:n])
	return out
}
