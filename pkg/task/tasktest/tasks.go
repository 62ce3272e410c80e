// Package tasktest provides small planning tasks for tests
package tasktest

import (
	"fmt"

	"github.com/IlikeChooros/go-arvand/pkg/task"
)

func mustFinalize(t *task.Task) *task.Task {
	if err := t.Finalize(); err != nil {
		panic(err)
	}
	return t
}

// Two binary variables starting at (0,0) with goal (1,1), one unit-cost
// operator for each variable
func TwoFlips() *task.Task {
	return mustFinalize(&task.Task{
		Vars: []task.Variable{{Name: "x", Domain: 2}, {Name: "y", Domain: 2}},
		Init: task.NewState([]int{0, 0}),
		Goal: []task.Fact{{Var: 0, Val: 1}, {Var: 1, Val: 1}},
		Operators: []*task.Operator{
			{Name: "flip-x", Pre: []task.Fact{{Var: 0, Val: 0}}, Eff: []task.Effect{{Var: 0, Val: 1}}, Cost: 1},
			{Name: "flip-y", Pre: []task.Fact{{Var: 1, Val: 0}}, Eff: []task.Effect{{Var: 1, Val: 1}}, Cost: 1},
		},
	})
}

// Single variable moving along 0..n, with 'fwd-i' (i -> i+1) and
// 'back-i' (i+1 -> i) unit-cost operators, goal is position n
func Line(n int) *task.Task {
	t := &task.Task{
		Vars: []task.Variable{{Name: "pos", Domain: n + 1}},
		Init: task.NewState([]int{0}),
		Goal: []task.Fact{{Var: 0, Val: n}},
	}
	for i := 0; i < n; i++ {
		t.Operators = append(t.Operators,
			&task.Operator{
				Name: fmt.Sprintf("fwd-%d", i),
				Pre:  []task.Fact{{Var: 0, Val: i}},
				Eff:  []task.Effect{{Var: 0, Val: i + 1}},
				Cost: 1,
			},
			&task.Operator{
				Name: fmt.Sprintf("back-%d", i),
				Pre:  []task.Fact{{Var: 0, Val: i + 1}},
				Eff:  []task.Effect{{Var: 0, Val: i}},
				Cost: 1,
			},
		)
	}
	return mustFinalize(t)
}

// Position 0..3 with goal 3: a direct 'jump' costing 10 and three unit steps.
// Uses action costs
func Detour() *task.Task {
	step := func(from int) *task.Operator {
		return &task.Operator{
			Name: fmt.Sprintf("step-%d", from),
			Pre:  []task.Fact{{Var: 0, Val: from}},
			Eff:  []task.Effect{{Var: 0, Val: from + 1}},
			Cost: 1,
		}
	}
	return mustFinalize(&task.Task{
		Vars: []task.Variable{{Name: "pos", Domain: 4}},
		Init: task.NewState([]int{0}),
		Goal: []task.Fact{{Var: 0, Val: 3}},
		Operators: []*task.Operator{
			{Name: "jump", Pre: []task.Fact{{Var: 0, Val: 0}}, Eff: []task.Effect{{Var: 0, Val: 3}}, Cost: 10},
			step(0), step(1), step(2),
		},
		UseMetric: true,
	})
}

// Position 0..3 with goal 2. From 0 the 'trap' operator leads to 3,
// which has no applicable operators
func Trap() *task.Task {
	return mustFinalize(&task.Task{
		Vars: []task.Variable{{Name: "pos", Domain: 4}},
		Init: task.NewState([]int{0}),
		Goal: []task.Fact{{Var: 0, Val: 2}},
		Operators: []*task.Operator{
			{Name: "trap", Pre: []task.Fact{{Var: 0, Val: 0}}, Eff: []task.Effect{{Var: 0, Val: 3}}, Cost: 1},
			{Name: "go-1", Pre: []task.Fact{{Var: 0, Val: 0}}, Eff: []task.Effect{{Var: 0, Val: 1}}, Cost: 1},
			{Name: "go-2", Pre: []task.Fact{{Var: 0, Val: 1}}, Eff: []task.Effect{{Var: 0, Val: 2}}, Cost: 1},
		},
	})
}

// Goal is unreachable: 'x' can never be set
func Unsolvable() *task.Task {
	return mustFinalize(&task.Task{
		Vars: []task.Variable{{Name: "x", Domain: 2}, {Name: "y", Domain: 2}},
		Init: task.NewState([]int{0, 0}),
		Goal: []task.Fact{{Var: 0, Val: 1}},
		Operators: []*task.Operator{
			{Name: "flip-y", Pre: []task.Fact{{Var: 1, Val: 0}}, Eff: []task.Effect{{Var: 1, Val: 1}}, Cost: 1},
			{Name: "unflip-y", Pre: []task.Fact{{Var: 1, Val: 1}}, Eff: []task.Effect{{Var: 1, Val: 0}}, Cost: 1},
		},
	})
}

// Plan looks up the named operators of 't'
func Plan(t *task.Task, names ...string) task.Plan {
	p := make(task.Plan, 0, len(names))
	for _, n := range names {
		op := t.Operator(n)
		if op == nil {
			panic("tasktest: unknown operator " + n)
		}
		p = append(p, op)
	}
	return p
}
