package heuristic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/IlikeChooros/go-arvand/pkg/task"
)

// Value stored for a state a heuristic reported as a dead end
const DeadEnd = -1

var ErrUnknownHeuristic = errors.New("unknown heuristic")

// Heuristic evaluates states. Implementations keep the result of the last
// 'Evaluate' call, so a single instance must not be shared between goroutines
type Heuristic interface {
	Evaluate(s task.State)
	IsDeadEnd() bool
	// Estimate of the last evaluated state, valid only if not a dead end
	Value() int
	// Append the operators suggested for the last evaluated state
	PreferredOperators(out []*task.Operator) []*task.Operator
	// Invalidate any internal cache for 's', next evaluation must recompute
	SetRecompute(s task.State)
	DeadEndsAreReliable() bool
	// Used as the cache key for stored values
	Name() string
}

// Factory builds a fresh heuristic instance for a task
type Factory func(t *task.Task) Heuristic

var registry = map[string]Factory{
	"FF":        func(t *task.Task) Heuristic { return NewFF(t) },
	"GOALCOUNT": func(t *task.Task) Heuristic { return NewGoalCount(t) },
	"BLIND":     func(t *task.Task) Heuristic { return NewBlind(t) },
}

// Known heuristic names, in no particular order
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToUpper(name), "_", "")
}

func Known(name string) bool {
	_, ok := registry[normalize(name)]
	return ok
}

// New creates a heuristic by its name, ignoring case and underscores
func New(name string, t *task.Task) (Heuristic, error) {
	f, ok := registry[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHeuristic, name)
	}
	return f(t), nil
}
