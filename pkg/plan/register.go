package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/IlikeChooros/go-arvand/pkg/task"
)

// Returned when a plan fails validation, callers must treat it as fatal
var ErrInvalidPlan = errors.New("invalid plan")

// No solution was found yet
const NoSolution = -1

// Register holds the best solution cost found by any engine.
// Best is read without locking, the cost only changes under the mutex
// while the improving plan is persisted
type Register struct {
	mu        sync.Mutex
	best      atomic.Int64
	task      *task.Task
	writer    Writer
	solutions int
	plan      task.Plan
	logger    *slog.Logger
	observers []func(cost int, source string)
}

func NewRegister(t *task.Task, w Writer) *Register {
	if w == nil {
		w = &MemoryWriter{}
	}
	r := &Register{task: t, writer: w, logger: slog.Default()}
	r.best.Store(NoSolution)
	return r
}

func (r *Register) SetLogger(l *slog.Logger) *Register {
	if l != nil {
		r.logger = l
	}
	return r
}

// Called under the register's mutex after every improving plan
func (r *Register) Observe(f func(cost int, source string)) *Register {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, f)
	return r
}

// Best solution cost, or NoSolution. Lock-free, may be slightly stale
func (r *Register) Best() int {
	return int(r.best.Load())
}

func (r *Register) Found() bool {
	return r.Best() != NoSolution
}

// Number of improving plans saved
func (r *Register) Solutions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.solutions
}

// Copy of the best plan saved so far
func (r *Register) BestPlan() task.Plan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plan.Clone()
}

// Save validates the plan and, if it is cheaper than the best known
// solution, persists it and lowers the best cost. Returns the plan's true cost
func (r *Register) Save(p task.Plan, source string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.task.Validate(p); err != nil {
		return 0, fmt.Errorf("%w from %s: %w", ErrInvalidPlan, source, err)
	}

	cost := p.Cost()
	if best := r.Best(); best != NoSolution && cost >= best {
		return cost, nil
	}

	if err := r.writer.Write(p, r.solutions+1); err != nil {
		return cost, fmt.Errorf("writing plan: %w", err)
	}
	r.solutions++
	r.plan = p.Clone()
	r.best.Store(int64(cost))
	r.logger.Info("new best plan", "source", source, "cost", cost, "length", len(p))
	for _, f := range r.observers {
		f(cost, source)
	}
	return cost, nil
}
