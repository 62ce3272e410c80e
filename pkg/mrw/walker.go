package mrw

import (
	"math"
	"math/rand"

	"github.com/IlikeChooros/go-arvand/pkg/heuristic"
	"github.com/IlikeChooros/go-arvand/pkg/task"
)

// Value of a walk that ended in a dead end or could not start
const DeadEndValue = math.MaxInt32

// Walk without a cost bound
const Unbounded = -1

type WalkInfo struct {
	Path task.Plan
	// True cost of the path
	Cost int
	// Heuristic value at the endpoint, or DeadEndValue
	Value       int
	GoalVisited bool
	// Steps taken minus the requested length, negative if the walk stopped early
	LengthOffset int
	// Sum of the number of applicable operators over visited states
	Branching int
}

// Walker performs random walks for one engine
type Walker struct {
	task   *task.Task
	rand   *rand.Rand
	params Params
	h      heuristic.Heuristic

	ops     []*task.Operator
	weights []float64
	prefs   []*task.Operator

	// MDA statistics, per operator index
	failures  []int
	successes []int
	// MHA statistics, per operator index
	preferred []int
}

func NewWalker(t *task.Task, r *rand.Rand) *Walker {
	n := len(t.Operators)
	return &Walker{
		task:      t,
		rand:      r,
		failures:  make([]int, n),
		successes: make([]int, n),
		preferred: make([]int, n),
	}
}

// Prepare resets the learned action statistics before a batch of walks
func (w *Walker) Prepare(p Params, h heuristic.Heuristic) {
	w.params = p
	w.h = h
	clear(w.failures)
	clear(w.successes)
	clear(w.preferred)
}

// Walk performs a random walk of at most 'length' steps from 's', never
// exceeding 'costBound' (unless Unbounded)
func (w *Walker) Walk(s task.State, length, costBound int) WalkInfo {
	info := WalkInfo{}
	cur := s
	steps := 0
	failed := false

	for steps < length {
		w.ops = w.task.Generator().ApplicableOps(cur, w.ops[:0])
		if costBound != Unbounded {
			kept := w.ops[:0]
			for _, op := range w.ops {
				if info.Cost+op.Cost <= costBound {
					kept = append(kept, op)
				}
			}
			w.ops = kept
		}
		info.Branching += len(w.ops)
		if len(w.ops) == 0 {
			break
		}

		op := w.choose(w.ops)
		cur = w.task.Apply(cur, op)
		info.Path = append(info.Path, op)
		info.Cost += op.Cost
		steps++

		if w.task.IsGoal(cur) {
			info.GoalVisited = true
			break
		}
		if w.params.LengthJump > 0 && steps%w.params.LengthJump == 0 && steps < length {
			w.h.SetRecompute(cur)
			w.h.Evaluate(cur)
			if w.h.IsDeadEnd() {
				failed = true
				break
			}
		}
	}
	info.LengthOffset = steps - length

	switch {
	case info.GoalVisited:
		info.Value = 0
	case failed:
		info.Value = DeadEndValue
	default:
		w.h.SetRecompute(cur)
		w.h.Evaluate(cur)
		if w.h.IsDeadEnd() {
			info.Value = DeadEndValue
		} else {
			info.Value = w.h.Value()
		}
	}
	w.learn(info)
	return info
}

func (w *Walker) learn(info WalkInfo) {
	switch w.params.WalkType {
	case MDA:
		for _, op := range info.Path {
			if info.Value == DeadEndValue {
				w.failures[op.Index]++
			} else {
				w.successes[op.Index]++
			}
		}
	case MHA:
		if info.Value == DeadEndValue || info.GoalVisited {
			return
		}
		w.prefs = w.h.PreferredOperators(w.prefs[:0])
		for _, op := range w.prefs {
			w.preferred[op.Index]++
		}
	}
}

func (w *Walker) choose(ops []*task.Operator) *task.Operator {
	if w.params.WalkType == Pure || len(ops) == 1 {
		return ops[w.rand.Intn(len(ops))]
	}

	// Gibbs sampling, shifted by the best score for numerical stability
	w.weights = w.weights[:0]
	best := math.Inf(-1)
	for _, op := range ops {
		q := w.score(op)
		w.weights = append(w.weights, q)
		best = max(best, q)
	}
	sum := 0.0
	for i, q := range w.weights {
		w.weights[i] = math.Exp((q - best) / w.params.Temp)
		sum += w.weights[i]
	}

	r := w.rand.Float64() * sum
	for i, wt := range w.weights {
		r -= wt
		if r <= 0 {
			return ops[i]
		}
	}
	return ops[len(ops)-1]
}

// Higher is more likely to be chosen
func (w *Walker) score(op *task.Operator) float64 {
	if w.params.WalkType == MDA {
		f, s := w.failures[op.Index], w.successes[op.Index]
		if f+s == 0 {
			return 0
		}
		return -float64(f) / float64(f+s)
	}
	return float64(w.preferred[op.Index])
}
