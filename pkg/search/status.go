package search

import (
	"context"

	"github.com/IlikeChooros/go-arvand/pkg/task"
)

// Result of an engine step or a whole search
type Status int

const (
	InProgress Status = iota
	Solved
	// Search space exhausted without a solution
	Failed
	// Expansion or wall-clock budget exhausted
	OutOfTime
	// Memory estimate exceeded the configured limit
	OutOfMemory
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "IN_PROGRESS"
	case Solved:
		return "SOLVED"
	case Failed:
		return "FAILED"
	case OutOfTime:
		return "OUT_OF_TIME"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	default:
		return "UNKNOWN"
	}
}

// Engine is a step-wise search algorithm
type Engine interface {
	Name() string
	Initialize() error
	// Perform one iteration, anything other than InProgress is terminal
	Step() Status
	// Plan found by the last Solved step
	Plan() task.Plan
}

// Run initializes the engine and steps it until it returns a terminal status,
// the context is cancelled or the limiter's budget runs out. The limiter may be nil
func Run(ctx context.Context, e Engine, limiter *Limiter) (Status, error) {
	if err := e.Initialize(); err != nil {
		return Failed, err
	}
	if limiter == nil {
		limiter = NewLimiter()
	}
	limiter.SetContext(ctx)
	limiter.Reset()

	status := InProgress
	for status == InProgress {
		if !limiter.Ok(0, 0) {
			limiter.EvaluateStopReason(0, 0)
			return limiter.StopReason().Status(), nil
		}
		status = e.Step()
	}
	return status, nil
}
