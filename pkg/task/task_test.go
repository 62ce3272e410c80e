package task_test

import (
	"bytes"
	"testing"

	"github.com/IlikeChooros/go-arvand/pkg/task"
	"github.com/IlikeChooros/go-arvand/pkg/task/tasktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lampTask = `
metric: true
variables:
  - {name: switch, domain: 2}
  - {name: power, domain: 2}
  - {name: lit, domain: 2, derived: true}
init: {switch: 0, power: 1}
goal: {lit: 1}
operators:
  - name: toggle
    cost: 2
    pre: {switch: 0}
    eff: {switch: 1}
  - name: cut
    cost: 0
    pre: {power: 1}
    eff: {power: 0}
    cond_eff:
      - {when: {switch: 1}, set: {switch: 0}}
axioms:
  - {layer: 0, when: {switch: 1, power: 1}, set: {lit: 1}}
`

func TestParseAndApply(t *testing.T) {
	tk, err := task.Parse([]byte(lampTask))
	require.NoError(t, err)

	require.Len(t, tk.Vars, 3)
	assert.True(t, tk.UseMetric)
	assert.Equal(t, []int{0, 1, 0}, tk.Init.Values())
	assert.False(t, tk.IsGoal(tk.Init))

	toggle, cut := tk.Operator("toggle"), tk.Operator("cut")
	require.NotNil(t, toggle)
	require.NotNil(t, cut)
	assert.Equal(t, 3, toggle.SearchCost(true))
	assert.Equal(t, 1, cut.SearchCost(true))
	assert.Equal(t, 1, cut.SearchCost(false))

	s := tk.Apply(tk.Init, toggle)
	assert.Equal(t, []int{1, 1, 1}, s.Values(), "axiom should derive 'lit'")
	assert.True(t, tk.IsGoal(s))

	// Conditional effect resets the switch, axiom no longer holds
	s = tk.Apply(s, cut)
	assert.Equal(t, []int{0, 0, 0}, s.Values())
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unknown variable": "variables: [{name: x, domain: 2}]\ngoal: {y: 1}",
		"empty domain":     "variables: [{name: x, domain: 0}]",
		"out of domain":    "variables: [{name: x, domain: 2}]\ngoal: {x: 5}",
		"duplicate":        "variables: [{name: x, domain: 2}, {name: x, domain: 2}]",
		"derived effect": `
variables: [{name: x, domain: 2, derived: true}]
operators: [{name: a, eff: {x: 1}}]`,
		"not yaml": "variables: [",
	}
	for name, src := range cases {
		_, err := task.Parse([]byte(src))
		assert.Error(t, err, name)
	}
}

func TestValidate(t *testing.T) {
	tk := tasktest.TwoFlips()

	_, err := tk.Validate(tasktest.Plan(tk, "flip-x", "flip-y"))
	assert.NoError(t, err)

	_, err = tk.Validate(tasktest.Plan(tk, "flip-x"))
	assert.ErrorIs(t, err, task.ErrGoalNotReached)

	_, err = tk.Validate(tasktest.Plan(tk, "flip-x", "flip-x"))
	assert.ErrorIs(t, err, task.ErrInapplicable)
}

func TestStateKey(t *testing.T) {
	a := task.NewState([]int{1, 300, 0})
	b := task.NewState([]int{1, 300, 0})
	c := task.NewState([]int{1, 44, 2})

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Equal(b))
	assert.NotEqual(t, a.Key(), c.Key())
	assert.False(t, a.Equal(c))
}

func TestSuccessorGenerator(t *testing.T) {
	tk := tasktest.Line(3)
	ops := tk.Generator().ApplicableOps(tk.Init, nil)
	require.Len(t, ops, 1)
	assert.Equal(t, "fwd-0", ops[0].Name)

	s := tk.Apply(tk.Init, ops[0])
	ops = tk.Generator().ApplicableOps(s, ops[:0])
	var names []string
	for _, op := range ops {
		names = append(names, op.Name)
	}
	assert.ElementsMatch(t, []string{"fwd-1", "back-0"}, names)
}

func TestPlanWrite(t *testing.T) {
	tk := tasktest.TwoFlips()
	p := tasktest.Plan(tk, "flip-x", "flip-y")

	var buf bytes.Buffer
	_, err := p.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "(flip-x)\n(flip-y)\n", buf.String())
	assert.Equal(t, 2, p.Cost())
}
