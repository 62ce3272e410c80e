package task

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInapplicable    = errors.New("operator not applicable")
	ErrGoalNotReached  = errors.New("goal not satisfied")
	ErrMalformedTask   = errors.New("malformed task")
	ErrUnknownVariable = errors.New("unknown variable")
)

type Task struct {
	Vars      []Variable
	Init      State
	Goal      []Fact
	Operators []*Operator
	Axioms    []Axiom
	// Task has action costs, see Operator.SearchCost
	UseMetric bool

	evaluator *AxiomEvaluator
	generator SuccessorGenerator
}

// Finalize checks the task for consistency, evaluates the axioms on the
// initial state and builds the default successor generator
func (t *Task) Finalize() error {
	n := len(t.Vars)
	if t.Init.Len() != n {
		return fmt.Errorf("%w: initial state has %d values, want %d", ErrMalformedTask, t.Init.Len(), n)
	}

	check := func(where string, facts ...Fact) error {
		for _, f := range facts {
			if f.Var < 0 || f.Var >= n {
				return fmt.Errorf("%w: %s references variable %d", ErrMalformedTask, where, f.Var)
			}
			if f.Val < 0 || f.Val >= t.Vars[f.Var].Domain {
				return fmt.Errorf("%w: %s assigns %d to %q (domain %d)",
					ErrMalformedTask, where, f.Val, t.Vars[f.Var].Name, t.Vars[f.Var].Domain)
			}
		}
		return nil
	}

	if err := check("goal", t.Goal...); err != nil {
		return err
	}
	for i, op := range t.Operators {
		op.Index = i
		if op.Cost < 0 {
			return fmt.Errorf("%w: operator %q has negative cost", ErrMalformedTask, op.Name)
		}
		if err := check(op.Name, op.Pre...); err != nil {
			return err
		}
		for _, e := range op.Eff {
			if err := check(op.Name, append([]Fact{{e.Var, e.Val}}, e.Cond...)...); err != nil {
				return err
			}
			if t.Vars[e.Var].Derived {
				return fmt.Errorf("%w: operator %q sets derived variable %q", ErrMalformedTask, op.Name, t.Vars[e.Var].Name)
			}
		}
	}
	for _, ax := range t.Axioms {
		if err := check("axiom", append([]Fact{{ax.Var, ax.Val}}, ax.Cond...)...); err != nil {
			return err
		}
		if !t.Vars[ax.Var].Derived {
			return fmt.Errorf("%w: axiom sets non-derived variable %q", ErrMalformedTask, t.Vars[ax.Var].Name)
		}
	}

	t.evaluator = NewAxiomEvaluator(t.Vars, t.Axioms)
	values := t.Init.Values()
	t.evaluator.Evaluate(values)
	t.Init = State{values: values}
	t.generator = NewFlatGenerator(t.Operators)
	return nil
}

func (t *Task) Generator() SuccessorGenerator {
	if t.generator == nil {
		t.generator = NewFlatGenerator(t.Operators)
	}
	return t.generator
}

// Replace the default successor generator
func (t *Task) SetGenerator(g SuccessorGenerator) {
	t.generator = g
}

// Apply returns the successor of 's' under 'op', with axioms evaluated.
// The caller must make sure 'op' is applicable
func (t *Task) Apply(s State, op *Operator) State {
	values := s.Values()
	for _, e := range op.Eff {
		if s.Holds(e.Cond) {
			values[e.Var] = e.Val
		}
	}
	if t.evaluator != nil {
		t.evaluator.Evaluate(values)
	}
	return State{values: values}
}

func (t *Task) IsGoal(s State) bool {
	return s.Holds(t.Goal)
}

// Validate replays the plan from the initial state, returning the final state
func (t *Task) Validate(p Plan) (State, error) {
	s := t.Init
	for i, op := range p {
		if !op.Applicable(s) {
			return s, fmt.Errorf("%w: step %d (%s) in state %s", ErrInapplicable, i, op.Name, s)
		}
		s = t.Apply(s, op)
	}
	if !t.IsGoal(s) {
		return s, fmt.Errorf("%w: final state %s", ErrGoalNotReached, s)
	}
	return s, nil
}

func (t *Task) VariableIndex(name string) (int, error) {
	for i, v := range t.Vars {
		if v.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
}

func (t *Task) Operator(name string) *Operator {
	for _, op := range t.Operators {
		if op.Name == name {
			return op
		}
	}
	return nil
}

// Layered fixpoint evaluation of derived variables
type AxiomEvaluator struct {
	derived []int
	layers  [][]Axiom
	defs    []int
}

func NewAxiomEvaluator(vars []Variable, axioms []Axiom) *AxiomEvaluator {
	ev := &AxiomEvaluator{defs: make([]int, len(vars))}
	for i, v := range vars {
		if v.Derived {
			ev.derived = append(ev.derived, i)
		}
		ev.defs[i] = v.Default
	}

	sorted := make([]Axiom, len(axioms))
	copy(sorted, axioms)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Layer < sorted[j].Layer })
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Layer == sorted[i].Layer {
			j++
		}
		ev.layers = append(ev.layers, sorted[i:j])
		i = j
	}
	return ev
}

func (ev *AxiomEvaluator) Evaluate(values []int) {
	if len(ev.layers) == 0 {
		return
	}
	for _, v := range ev.derived {
		values[v] = ev.defs[v]
	}
	for _, layer := range ev.layers {
		for changed := true; changed; {
			changed = false
			for _, ax := range layer {
				if values[ax.Var] == ax.Val {
					continue
				}
				fires := true
				for _, c := range ax.Cond {
					if values[c.Var] != c.Val {
						fires = false
						break
					}
				}
				if fires {
					values[ax.Var] = ax.Val
					changed = true
				}
			}
		}
	}
}
