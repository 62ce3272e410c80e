package wastar

import (
	"context"
	"math/rand"
	"testing"

	"github.com/IlikeChooros/go-arvand/pkg/closed"
	"github.com/IlikeChooros/go-arvand/pkg/plan"
	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/IlikeChooros/go-arvand/pkg/task"
	"github.com/IlikeChooros/go-arvand/pkg/task/tasktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBooster struct {
	plans []task.Plan
}

func (b *recordingBooster) Improve(_ context.Context, p task.Plan, _ string) (task.Plan, error) {
	b.plans = append(b.plans, p)
	return p, nil
}

func newRunner(t *task.Task, params Params) (*Runner, *plan.Register, *closed.List) {
	list := closed.New()
	reg := plan.NewRegister(t, nil)
	return NewRunner(t, list, reg, rand.New(rand.NewSource(1)), params), reg, list
}

func TestRunnerSolves(t *testing.T) {
	tk := tasktest.Detour()
	params := DefaultParams()
	params.Weights = []int{GBFS, 1}
	params.RunBooster = true
	r, reg, _ := newRunner(tk, params)
	booster := &recordingBooster{}
	r.SetBooster(booster)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Solved)
	// not iterative, stops after the first solution
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 3, reg.Best())
	assert.Len(t, booster.plans, 1)
}

func TestRunnerIterative(t *testing.T) {
	tk := tasktest.Detour()
	params := DefaultParams()
	params.Weights = []int{GBFS, 3, 1}
	r, reg, _ := newRunner(tk, params)
	restarts := 0
	r.SetIterative(true).SetListener(search.NewListener().OnRestart(func(search.Stats) { restarts++ }))

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, 2, restarts)
	assert.Equal(t, 3, reg.Best())
	// later iterations are bounded by the first plan's cost
	assert.Equal(t, 1, reg.Solutions())
}

func TestRunnerNodeLimitGrowth(t *testing.T) {
	tk := tasktest.Line(10)
	params := DefaultParams()
	params.Weights = []int{GBFS}
	params.InitNodeLimit = 1
	params.NodeLimitFactor = 100
	params.LoopWeights = true
	r, reg, _ := newRunner(tk, params)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, 10, reg.Best())
}

func TestRunnerNodeLimitSinglePass(t *testing.T) {
	tk := tasktest.Line(10)
	params := DefaultParams()
	params.Weights = []int{GBFS}
	params.InitNodeLimit = 1
	r, reg, _ := newRunner(tk, params)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Solved)
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, reg.Found())
}

func TestRunnerRevertsOnMemory(t *testing.T) {
	tk := tasktest.Line(300)
	params := DefaultParams()
	params.Weights = []int{GBFS}
	params.KBLimit = 0
	params.LoopWeights = true
	r, _, list := newRunner(tk, params)
	r.SetMRWAfter(true)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Reverted)
	assert.Equal(t, 2, res.OutOfMemory)
	assert.Equal(t, 2, res.Iterations)
	assert.Zero(t, list.Len())
}

func TestRunnerUnknownHeuristic(t *testing.T) {
	tk := tasktest.TwoFlips()
	params := DefaultParams()
	params.Heuristics = []string{"LM_CUT"}
	r, _, _ := newRunner(tk, params)
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRunnerEmptySchedule(t *testing.T) {
	params := DefaultParams()
	params.Weights = nil
	r, _, _ := newRunner(tasktest.TwoFlips(), params)
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoWeights)
}

func TestBoundingString(t *testing.T) {
	assert.Equal(t, "FULL", BoundFull.String())
	assert.Equal(t, "DAS", BoundDAS.String())
}
