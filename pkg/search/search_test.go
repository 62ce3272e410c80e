package search

import (
	"context"
	"testing"
	"time"

	"github.com/IlikeChooros/go-arvand/pkg/task"
	"github.com/stretchr/testify/assert"
)

func TestLimiterSingleLimits(t *testing.T) {
	limiter := NewLimiter()

	if !limiter.Ok(1000000, 1000000) {
		t.Error("Default limiter should search infinitely")
	}

	limiter.SetLimits(DefaultLimits().SetExpansions(100))
	limiter.Reset()
	if ok := limiter.Ok(101, 0); ok {
		t.Errorf(">Expansions=%d: ok=%v, want=%v", 101, ok, !ok)
	}
	if ok := limiter.Ok(100, 0); !ok {
		t.Errorf("<=Expansions=%d: ok=%v, want=%v", 100, ok, !ok)
	}

	limiter.SetLimits(DefaultLimits().SetKBLimit(10))
	limiter.Reset()
	if ok := limiter.Ok(1, 10.5); ok {
		t.Errorf(">KB=%v: ok=%v, want=%v", 10.5, ok, !ok)
	}
	limiter.EvaluateStopReason(1, 10.5)
	if limiter.StopReason() != StopMemory || limiter.StopReason().Status() != OutOfMemory {
		t.Errorf("reason=%v, want=%v", limiter.StopReason(), StopReason(StopMemory))
	}

	limiter.SetLimits(DefaultLimits().SetMovetime(50))
	limiter.Reset()
	time.Sleep(time.Millisecond * 60)
	if ok := limiter.Ok(1, 1); ok {
		t.Errorf(">Movetime: ok=%v, want=%v", ok, !ok)
	}

	limiter.Reset()
	if ok := limiter.Ok(1, 1); !ok {
		t.Errorf("<Movetime: ok=%v, want=%v", ok, !ok)
	}
}

func TestLimiterContext(t *testing.T) {
	limiter := NewLimiter()
	ctx, cancel := context.WithCancel(context.Background())
	limiter.SetContext(ctx)
	limiter.Reset()

	if !limiter.Ok(0, 0) {
		t.Fatal("limiter stopped before cancellation")
	}
	cancel()
	if limiter.Ok(0, 0) {
		t.Fatal("limiter should stop after cancellation")
	}
	limiter.EvaluateStopReason(0, 0)
	if got := limiter.StopReason().String(); got != "Interrupt" {
		t.Errorf("reason=%s, want=Interrupt", got)
	}
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "None", StopReason(StopNone).String())
	assert.Equal(t, "Movetime|Expansions", StopReason(StopMovetime|StopExpansions).String())
	assert.Equal(t, OutOfTime, StopReason(StopExpansions).Status())
	assert.Equal(t, OutOfMemory, StopReason(StopMemory|StopMovetime).Status())
}

func TestSeeds(t *testing.T) {
	s := NewSeeds(5, 9)
	assert.Equal(t, []int64{5, 9, 10, 11}, []int64{s.Next(), s.Next(), s.Next(), s.Next()})

	SetSeedGeneratorFn(func() int64 { return 100 })
	empty := NewSeeds()
	assert.Equal(t, int64(100), empty.Next())
	assert.Equal(t, int64(101), empty.Next())
}

type countingEngine struct {
	steps, stopAt int
}

func (c *countingEngine) Name() string      { return "counter" }
func (c *countingEngine) Initialize() error { c.steps = 0; return nil }
func (c *countingEngine) Plan() task.Plan   { return nil }
func (c *countingEngine) Step() Status {
	c.steps++
	if c.steps == c.stopAt {
		return Solved
	}
	return InProgress
}

func TestRun(t *testing.T) {
	e := &countingEngine{stopAt: 10}
	status, err := Run(context.Background(), e, nil)
	assert.NoError(t, err)
	assert.Equal(t, Solved, status)
	assert.Equal(t, 10, e.steps)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, _ = Run(ctx, &countingEngine{stopAt: -1}, nil)
	assert.Equal(t, OutOfTime, status)
}

func TestListenerChain(t *testing.T) {
	var calls []string
	a := NewListener().OnSolution(func(Stats) { calls = append(calls, "a") })
	b := NewListener().OnSolution(func(Stats) { calls = append(calls, "b") }).
		OnStop(func(Stats) { calls = append(calls, "stop") })

	l := a.Chain(b)
	l.InvokeSolution(Stats{})
	l.InvokeStop(Stats{})
	l.InvokeProgress(Stats{})

	var nilListener *Listener
	nilListener.InvokeStop(Stats{})

	assert.Equal(t, []string{"a", "b", "stop"}, calls)
}

func TestTimerBudget(t *testing.T) {
	timer := NewTimer()
	assert.False(t, timer.Expired())

	timer.SetBudget(0)
	assert.True(t, timer.Expired())

	timer.SetBudget(time.Hour)
	timer.Reset()
	assert.False(t, timer.Expired())
	assert.Equal(t, 500*time.Millisecond, DefaultLimits().SetSeconds(0.5).Budget())
}
