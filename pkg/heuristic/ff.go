package heuristic

import (
	"math"

	"github.com/IlikeChooros/go-arvand/pkg/openlist"
	"github.com/IlikeChooros/go-arvand/pkg/task"
)

const unreached = math.MaxInt32

// Relaxed operator with a single effect, built from an operator effect
// (preconditions include the effect condition) or from an axiom (op == nil)
type unaryOp struct {
	op      *task.Operator
	pre     []int
	eff     int
	cost    int
	// per evaluation
	unsat   int
	costSum int
}

// FF computes the cost of a relaxed plan extracted from the additive
// heuristic's best supporters. Preferred operators are the applicable
// operators of that relaxed plan. Relaxed unreachability of the goal is
// a reliable dead end
type FF struct {
	task    *task.Task
	offsets []int
	unary   []unaryOp
	// fact -> unary operators having it as a precondition
	preOf     [][]int
	noPre     []int
	goal      []int
	cost      []int
	supporter []int
	marked    []bool
	inPlan    []bool
	queue     *openlist.OpenList[int]

	state     task.State
	h         int
	deadEnd   bool
	preferred []*task.Operator
}

func NewFF(t *task.Task) *FF {
	ff := &FF{task: t, queue: openlist.New[int]()}
	n := 0
	for _, v := range t.Vars {
		ff.offsets = append(ff.offsets, n)
		n += v.Domain
	}
	fact := func(f task.Fact) int { return ff.offsets[f.Var] + f.Val }

	for _, op := range t.Operators {
		for _, e := range op.Eff {
			u := unaryOp{op: op, eff: fact(task.Fact{Var: e.Var, Val: e.Val}), cost: op.SearchCost(t.UseMetric)}
			for _, p := range op.Pre {
				u.pre = append(u.pre, fact(p))
			}
			for _, c := range e.Cond {
				u.pre = append(u.pre, fact(c))
			}
			ff.unary = append(ff.unary, u)
		}
	}
	for _, ax := range t.Axioms {
		u := unaryOp{eff: fact(task.Fact{Var: ax.Var, Val: ax.Val})}
		for _, c := range ax.Cond {
			u.pre = append(u.pre, fact(c))
		}
		ff.unary = append(ff.unary, u)
	}

	ff.preOf = make([][]int, n)
	for i, u := range ff.unary {
		if len(u.pre) == 0 {
			ff.noPre = append(ff.noPre, i)
		}
		for _, p := range u.pre {
			ff.preOf[p] = append(ff.preOf[p], i)
		}
	}
	for _, g := range t.Goal {
		ff.goal = append(ff.goal, fact(g))
	}
	ff.cost = make([]int, n)
	ff.supporter = make([]int, n)
	ff.marked = make([]bool, n)
	ff.inPlan = make([]bool, len(t.Operators))
	return ff
}

func (ff *FF) enqueue(f, cost, supporter int) {
	if cost < ff.cost[f] {
		ff.cost[f] = cost
		ff.supporter[f] = supporter
		ff.queue.Insert(openlist.Key{Primary: cost}, f)
	}
}

func (ff *FF) Evaluate(s task.State) {
	ff.state = s
	ff.preferred = ff.preferred[:0]
	ff.queue.Clear()
	for i := range ff.cost {
		ff.cost[i] = unreached
		ff.supporter[i] = -1
		ff.marked[i] = false
	}
	for i := range ff.unary {
		ff.unary[i].unsat = len(ff.unary[i].pre)
		ff.unary[i].costSum = 0
	}
	for v := 0; v < s.Len(); v++ {
		ff.enqueue(ff.offsets[v]+s.Value(v), 0, -1)
	}
	for _, i := range ff.noPre {
		ff.enqueue(ff.unary[i].eff, ff.unary[i].cost, i)
	}

	// Generalized Dijkstra over facts, additive costs
	for !ff.queue.Empty() {
		key, f := ff.queue.RemoveMin()
		if key.Primary > ff.cost[f] {
			continue
		}
		for _, i := range ff.preOf[f] {
			u := &ff.unary[i]
			u.unsat--
			u.costSum += key.Primary
			if u.unsat == 0 {
				ff.enqueue(u.eff, u.costSum+u.cost, i)
			}
		}
	}

	for _, g := range ff.goal {
		if ff.cost[g] == unreached {
			ff.deadEnd = true
			ff.h = 0
			return
		}
	}
	ff.deadEnd = false

	clear(ff.inPlan)
	ff.h = 0
	stack := append([]int(nil), ff.goal...)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ff.marked[f] || ff.cost[f] == 0 {
			continue
		}
		ff.marked[f] = true
		u := &ff.unary[ff.supporter[f]]
		if u.op != nil && !ff.inPlan[u.op.Index] {
			ff.inPlan[u.op.Index] = true
			ff.h += u.cost
			if u.op.Applicable(s) {
				ff.preferred = append(ff.preferred, u.op)
			}
		}
		stack = append(stack, u.pre...)
	}

	if ff.h == 0 && !ff.task.IsGoal(s) {
		ff.h = 1
	}
}

func (ff *FF) IsDeadEnd() bool { return ff.deadEnd }
func (ff *FF) Value() int      { return ff.h }

func (ff *FF) PreferredOperators(out []*task.Operator) []*task.Operator {
	return append(out, ff.preferred...)
}

func (ff *FF) SetRecompute(task.State)   {}
func (ff *FF) DeadEndsAreReliable() bool { return true }
func (ff *FF) Name() string              { return "FF" }
