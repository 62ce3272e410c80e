package mrw

import (
	"context"
	"fmt"

	"github.com/IlikeChooros/go-arvand/pkg/heuristic"
	"github.com/IlikeChooros/go-arvand/pkg/learner"
	"github.com/IlikeChooros/go-arvand/pkg/plan"
	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/IlikeChooros/go-arvand/pkg/task"
	"github.com/IlikeChooros/go-arvand/pkg/walkpool"
)

// Improver post-processes a found plan, saving improvements itself
type Improver interface {
	Improve(ctx context.Context, p task.Plan, source string) (task.Plan, error)
}

// Shared holds the state every MRW worker of a run cooperates through
type Shared struct {
	Params   SharedParams
	Configs  []Params
	Task     *task.Task
	Register *plan.Register
	Learner  *learner.UCB
	// nil unless restarts are SMART
	Pool *walkpool.Pool[Node]
	// Optional
	Booster   Improver
	Iterative bool
	// Called with every configuration the learner selects, optional
	OnConfig func(arm int)
}

// NewShared validates the configurations and builds the learner and,
// for SMART restarts, the walk pool
func NewShared(t *task.Task, reg *plan.Register, configs []Params, params SharedParams, seeds *search.Seeds) (*Shared, error) {
	if len(configs) == 0 {
		return nil, ErrNoConfigs
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	budgets := make([]learner.Budget, len(configs))
	for i, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("config %d: %w", i, err)
		}
		if !heuristic.Known(c.Heuristic) {
			return nil, fmt.Errorf("config %d: %w: %q", i, heuristic.ErrUnknownHeuristic, c.Heuristic)
		}
		budgets[i] = learner.Budget{NumWalk: c.NumWalk, MaxSteps: c.MaxSteps}
	}

	c := params.UCBConst
	if params.Dovetail {
		c = -1
	}
	s := &Shared{
		Params:   params,
		Configs:  configs,
		Task:     t,
		Register: reg,
		Learner:  learner.New(c, params.AdjustOnline, seeds.Rand(), budgets),
	}
	if params.Restart == RestartSmart {
		s.Pool = walkpool.New[Node](params.PoolSize, params.PoolActivation)
	}
	return s, nil
}

// Heuristic names used by the configurations, in order of first use
func (s *Shared) heuristicNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, c := range s.Configs {
		if !seen[c.Heuristic] {
			seen[c.Heuristic] = true
			names = append(names, c.Heuristic)
		}
	}
	return names
}
