package task

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Single variable assignment, 'Var' is the index into Task.Vars
type Fact struct {
	Var int
	Val int
}

func (f Fact) String() string {
	return fmt.Sprintf("%d=%d", f.Var, f.Val)
}

type Variable struct {
	Name   string
	Domain int
	// Derived variables are never set by operators, only by axioms
	Derived bool
	// Value of a derived variable, before any axiom fires
	Default int
}

// Effect sets 'Var' to 'Val', if every fact in 'Cond' holds in the state
// the operator is applied to
type Effect struct {
	Cond []Fact
	Var  int
	Val  int
}

type Operator struct {
	Name string
	Pre  []Fact
	Eff  []Effect
	// True cost, as given by the task
	Cost int
	// Position in Task.Operators
	Index int
}

// Cost used by the search engines: 'Cost + 1' when the task uses action
// costs (so zero-cost operators still count), otherwise unit cost
func (o *Operator) SearchCost(useMetric bool) int {
	if useMetric {
		return o.Cost + 1
	}
	return 1
}

func (o *Operator) Applicable(s State) bool {
	for _, f := range o.Pre {
		if s.values[f.Var] != f.Val {
			return false
		}
	}
	return true
}

func (o *Operator) String() string {
	return o.Name
}

// Derived-variable rule, fires when all 'Cond' facts hold
type Axiom struct {
	Cond  []Fact
	Var   int
	Val   int
	Layer int
}

// State is an immutable assignment of values to the task's variables
type State struct {
	values []int
}

func NewState(values []int) State {
	v := make([]int, len(values))
	copy(v, values)
	return State{values: v}
}

func (s State) Value(v int) int {
	return s.values[v]
}

func (s State) Len() int {
	return len(s.values)
}

// Copy of the underlying values
func (s State) Values() []int {
	v := make([]int, len(s.values))
	copy(v, s.values)
	return v
}

// Holds returns true if every fact is satisfied in this state
func (s State) Holds(facts []Fact) bool {
	for _, f := range facts {
		if s.values[f.Var] != f.Val {
			return false
		}
	}
	return true
}

func (s State) Equal(o State) bool {
	if len(s.values) != len(o.values) {
		return false
	}
	for i := range s.values {
		if s.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

// Compact hash key of the assignment, two states have the same key
// if and only if they are equal
func (s State) Key() string {
	buf := make([]byte, 0, len(s.values))
	for _, v := range s.values {
		buf = binary.AppendUvarint(buf, uint64(v))
	}
	return string(buf)
}

// Approximate memory footprint of the state in bytes
func (s State) ApproxBytes() int {
	return 24 + 8*len(s.values)
}

func (s State) String() string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
