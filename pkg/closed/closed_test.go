package closed

import (
	"math/rand"
	"testing"

	"github.com/IlikeChooros/go-arvand/pkg/heuristic"
	"github.com/IlikeChooros/go-arvand/pkg/task"
	"github.com/IlikeChooros/go-arvand/pkg/task/tasktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func root(tk *task.Task) Entry {
	return NewEntry(tk.Init, Ancestor{Parent: NoHandle}, 0)
}

func TestInsertFind(t *testing.T) {
	tk := tasktest.TwoFlips()
	l := New()

	assert.False(t, l.Contains(tk.Init))
	h := l.Insert(root(tk))
	assert.True(t, l.Contains(tk.Init))

	found, ok := l.Find(task.NewState([]int{0, 0}))
	require.True(t, ok)
	assert.Equal(t, h, found)
	assert.Equal(t, 1, l.Len())

	assert.Panics(t, func() { l.Insert(root(tk)) })
}

func TestHeuristicCache(t *testing.T) {
	tk := tasktest.TwoFlips()
	l := New()
	e := root(tk)
	e.SetValue("FF", 3)
	e.SetValue("LM", heuristic.DeadEnd)
	e.SetPreferred("FF", []*task.Operator{tk.Operators[0]})
	e.RecordDeadEnd()
	h := l.Insert(e)

	got := l.Get(h)
	v, ok := got.Value("FF")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.True(t, got.IsDeadEndFor("LM"))
	assert.False(t, got.IsDeadEndFor("FF"))
	assert.True(t, got.IsDeadEnd())
	assert.Len(t, got.Preferred("FF"), 1)

	_, ok = got.Value("BLIND")
	assert.False(t, ok)
	l.SetValue(h, "BLIND", 1)
	got = l.Get(h)
	v, _ = got.Value("BLIND")
	assert.Equal(t, 1, v)
}

// Random walks over the line task: the closed list must keep one entry per
// state, improving updates never increase g or depth, and every traced path
// reproduces its state
func TestUniquenessAndTracePath(t *testing.T) {
	tk := tasktest.Line(6)
	gen := tk.Generator()
	r := rand.New(rand.NewSource(42))
	l := New()
	l.Insert(root(tk))

	for walk := 0; walk < 500; walk++ {
		parent, _ := l.Find(tk.Init)
		for step := 0; step < 10; step++ {
			pe := l.Get(parent)
			ops := gen.ApplicableOps(pe.State, nil)
			op := ops[r.Intn(len(ops))]
			s := tk.Apply(pe.State, op)
			a := Ancestor{Parent: parent, Op: op, G: pe.G + 1, Cost: pe.Cost + op.Cost, Depth: pe.Depth + 1}

			h, ok := l.Find(s)
			if !ok {
				h = l.Insert(NewEntry(s, a, 0))
			} else {
				before := l.Get(h)
				if l.Update(h, a, false) {
					after := l.Get(h)
					assert.LessOrEqual(t, after.G, before.G)
				}
			}
			parent = h
		}
	}

	assert.Equal(t, 7, l.Len())
	for v := 0; v <= 6; v++ {
		s := task.NewState([]int{v})
		h, ok := l.Find(s)
		require.True(t, ok, "state %d", v)

		end := tk.Init
		for _, op := range l.TracePath(h) {
			require.True(t, op.Applicable(end))
			end = tk.Apply(end, op)
		}
		assert.True(t, end.Equal(s))
		// Shortest paths on a line are found by enough random walks
		assert.Equal(t, v, l.Get(h).Depth)
	}
}

func TestUpdateRejectsWorse(t *testing.T) {
	tk := tasktest.TwoFlips()
	l := New()
	r := l.Insert(root(tk))
	s := tk.Apply(tk.Init, tk.Operators[0])
	h := l.Insert(NewEntry(s, Ancestor{Parent: r, Op: tk.Operators[0], G: 5, Cost: 5, Depth: 5}, 0))

	assert.False(t, l.Update(h, Ancestor{Parent: r, Op: tk.Operators[0], G: 6, Cost: 6, Depth: 6}, false))
	assert.True(t, l.Update(h, Ancestor{Parent: r, Op: tk.Operators[0], G: 1, Cost: 1, Depth: 1}, false))
	assert.Equal(t, 1, l.Get(h).G)
}

func TestUpdateCostModel(t *testing.T) {
	tk := tasktest.TwoFlips()
	l := New()
	r := l.Insert(root(tk))
	s := tk.Apply(tk.Init, tk.Operators[0])
	h := l.Insert(NewEntry(s, Ancestor{Parent: r, Op: tk.Operators[0], G: 5, Cost: 5, Depth: 5}, 0))
	shallow := Ancestor{Parent: r, Op: tk.Operators[0], G: 9, Cost: 9, Depth: 1}

	// shallower but more expensive, g must not grow
	assert.False(t, l.Update(h, shallow, false))
	assert.Equal(t, 5, l.Get(h).G)

	assert.True(t, l.Update(h, shallow, true))
	assert.Equal(t, 1, l.Get(h).Depth)
	assert.False(t, l.Update(h, Ancestor{Parent: r, Op: tk.Operators[0], G: 1, Cost: 1, Depth: 1}, true))
}

func TestClearAndBytes(t *testing.T) {
	tk := tasktest.TwoFlips()
	l := New()
	empty := l.ApproxBytes()
	h := l.Insert(root(tk))
	l.SetSearchNum(h, 4)
	assert.Equal(t, 4, l.Get(h).SearchNum)
	assert.Greater(t, l.ApproxBytes(), empty)

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Contains(tk.Init))
	assert.Empty(t, l.TracePath(NoHandle))
}
