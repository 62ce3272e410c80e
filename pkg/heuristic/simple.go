package heuristic

import "github.com/IlikeChooros/go-arvand/pkg/task"

// Number of unsatisfied goal facts. Prefers applicable operators that
// achieve one of them
type GoalCount struct {
	task  *task.Task
	state task.State
	h     int
}

func NewGoalCount(t *task.Task) *GoalCount {
	return &GoalCount{task: t}
}

func (g *GoalCount) Evaluate(s task.State) {
	g.state = s
	g.h = 0
	for _, f := range g.task.Goal {
		if s.Value(f.Var) != f.Val {
			g.h++
		}
	}
}

func (g *GoalCount) IsDeadEnd() bool           { return false }
func (g *GoalCount) Value() int                { return g.h }
func (g *GoalCount) SetRecompute(task.State)   {}
func (g *GoalCount) DeadEndsAreReliable() bool { return true }
func (g *GoalCount) Name() string              { return "GOALCOUNT" }

func (g *GoalCount) PreferredOperators(out []*task.Operator) []*task.Operator {
	if g.h == 0 {
		return out
	}
	ops := g.task.Generator().ApplicableOps(g.state, nil)
	for _, op := range ops {
		if g.achievesGoal(op) {
			out = append(out, op)
		}
	}
	return out
}

func (g *GoalCount) achievesGoal(op *task.Operator) bool {
	for _, e := range op.Eff {
		if !g.state.Holds(e.Cond) {
			continue
		}
		for _, f := range g.task.Goal {
			if f.Var == e.Var && f.Val == e.Val && g.state.Value(f.Var) != f.Val {
				return true
			}
		}
	}
	return false
}

// Zero on goal states, otherwise the cheapest operator cost
type Blind struct {
	task    *task.Task
	minCost int
	h       int
}

func NewBlind(t *task.Task) *Blind {
	b := &Blind{task: t, minCost: 1}
	for i, op := range t.Operators {
		if c := op.SearchCost(t.UseMetric); i == 0 || c < b.minCost {
			b.minCost = c
		}
	}
	return b
}

func (b *Blind) Evaluate(s task.State) {
	if b.task.IsGoal(s) {
		b.h = 0
	} else {
		b.h = b.minCost
	}
}

func (b *Blind) IsDeadEnd() bool                                          { return false }
func (b *Blind) Value() int                                               { return b.h }
func (b *Blind) PreferredOperators(out []*task.Operator) []*task.Operator { return out }
func (b *Blind) SetRecompute(task.State)                                  {}
func (b *Blind) DeadEndsAreReliable() bool                                { return true }
func (b *Blind) Name() string                                             { return "BLIND" }

// Func adapts plain functions to the Heuristic interface
type Func struct {
	Label string
	// Returns the estimate and whether 's' is a dead end
	Fn func(s task.State) (int, bool)
	// Optional preferred operators for 's'
	Prefer   func(s task.State, out []*task.Operator) []*task.Operator
	Reliable bool

	state   task.State
	h       int
	deadEnd bool
	// Number of 'Evaluate' calls, useful to observe caching
	Evaluations int
}

func (f *Func) Evaluate(s task.State) {
	f.Evaluations++
	f.state = s
	f.h, f.deadEnd = f.Fn(s)
}

func (f *Func) IsDeadEnd() bool { return f.deadEnd }
func (f *Func) Value() int      { return f.h }

func (f *Func) PreferredOperators(out []*task.Operator) []*task.Operator {
	if f.Prefer == nil {
		return out
	}
	return f.Prefer(f.state, out)
}

func (f *Func) SetRecompute(task.State)   {}
func (f *Func) DeadEndsAreReliable() bool { return f.Reliable }
func (f *Func) Name() string              { return f.Label }
