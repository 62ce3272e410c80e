package wastar

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/IlikeChooros/go-arvand/pkg/closed"
	"github.com/IlikeChooros/go-arvand/pkg/heuristic"
	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/plan"
	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/IlikeChooros/go-arvand/pkg/task"
)

// Which solution cost bounds an iteration
type Bounding int

const (
	// Best cost found by any engine
	BoundFull Bounding = iota
	// Unbounded
	BoundNone
	// Best cost found by this runner
	BoundWA
	// Like BoundWA, reset at the start of every pass through the weights
	BoundDAS
)

func (b Bounding) String() string {
	switch b {
	case BoundFull:
		return "FULL"
	case BoundNone:
		return "NONE"
	case BoundWA:
		return "WA"
	case BoundDAS:
		return "DAS"
	}
	return fmt.Sprintf("Bounding(%d)", int(b))
}

type Params struct {
	// Heuristics whose estimates order the open lists
	Heuristics []string
	// Heuristics providing preferred operators
	Preferred       []string
	Weights         []int
	RandOpen        bool
	PreferredReward int
	KBLimit         float64
	Epsilon         float64
	// Heuristic perturbation range, 0 disables it
	HRange int
	// Expansion limit of the first pass, -1 for none
	InitNodeLimit   int64
	NodeLimitFactor float64
	Bounding        Bounding
	IgnoreCosts     bool
	LoopWeights     bool

	RunBooster bool
	BoosterKB  float64
	// seconds, -1 for none
	BoosterTime float64
}

func DefaultParams() Params {
	return Params{
		Heuristics:      []string{"FF"},
		Preferred:       []string{"FF"},
		Weights:         []int{GBFS, 5, 3, 2, 1},
		PreferredReward: DefaultPreferredReward,
		KBLimit:         -1,
		InitNodeLimit:   -1,
		NodeLimitFactor: 2,
		Bounding:        BoundFull,
		BoosterKB:       -1,
		BoosterTime:     -1,
	}
}

// Improver post-processes a found plan, saving improvements itself
type Improver interface {
	Improve(ctx context.Context, p task.Plan, source string) (task.Plan, error)
}

// Summary of a runner's iterations
type Result struct {
	Iterations  int
	Solved      bool
	OutOfMemory int
	// Stopped because memory ran out too often
	Reverted bool
}

// Runner performs the sequence of deferred searches over the weight schedule.
// All iterations share the closed list and heuristic instances
type Runner struct {
	params     Params
	task       *task.Task
	closed     *closed.List
	register   *plan.Register
	rand       *rand.Rand
	logger     *slog.Logger
	listener   *search.Listener
	booster    Improver
	iterative  bool
	mrwAfter   bool
	heuristics map[string]heuristic.Heuristic
}

func NewRunner(t *task.Task, list *closed.List, reg *plan.Register, r *rand.Rand, params Params) *Runner {
	return &Runner{
		params:     params,
		task:       t,
		closed:     list,
		register:   reg,
		rand:       r,
		logger:     logging.Discard(),
		heuristics: make(map[string]heuristic.Heuristic),
	}
}

func (r *Runner) SetLogger(l *slog.Logger) *Runner {
	r.logger = logging.OrDiscard(l)
	return r
}

func (r *Runner) SetListener(l *search.Listener) *Runner {
	r.listener = l
	return r
}

func (r *Runner) SetBooster(b Improver) *Runner {
	r.booster = b
	return r
}

// Keep iterating after the first solution
func (r *Runner) SetIterative(v bool) *Runner {
	r.iterative = v
	return r
}

// MRW will continue after the runner, enables reverting on repeated memory outs
func (r *Runner) SetMRWAfter(v bool) *Runner {
	r.mrwAfter = v
	return r
}

func (r *Runner) heuristic(name string) (heuristic.Heuristic, error) {
	if h, ok := r.heuristics[name]; ok {
		return h, nil
	}
	h, err := heuristic.New(name, r.task)
	if err != nil {
		return nil, err
	}
	r.heuristics[name] = h
	return h, nil
}

// Add every configured heuristic, estimates first, in configuration order
func (r *Runner) addHeuristics(e *Engine) error {
	names := slices.Clone(r.params.Heuristics)
	for _, n := range r.params.Preferred {
		if !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	for _, n := range names {
		h, err := r.heuristic(n)
		if err != nil {
			return err
		}
		e.AddHeuristic(h, slices.Contains(r.params.Heuristics, n), slices.Contains(r.params.Preferred, n))
	}
	return nil
}

func (r *Runner) Run(ctx context.Context) (Result, error) {
	var (
		res       Result
		weights   = r.params.Weights
		nodeLimit = r.params.InitNodeLimit
		firstIter = -1
		bound     = -1
	)
	if len(weights) == 0 {
		return res, ErrNoWeights
	}

	for it := 0; ; {
		if !r.iterative && r.register.Found() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		weight := weights[it%len(weights)]
		passStart := it%len(weights) == 0
		if nodeLimit > 0 && r.params.NodeLimitFactor > 1 && it > 0 && passStart {
			// keep the same limit for one pass after the first solution
			if firstIter == -1 || it > firstIter+len(weights) {
				nodeLimit = int64(float64(nodeLimit) * r.params.NodeLimitFactor)
			}
		}

		opts := DefaultOptions()
		opts.Name = "wa"
		opts.Weight = weight
		opts.SearchNum = it
		opts.IgnoreCosts = r.params.IgnoreCosts
		opts.RandOpen = r.params.RandOpen
		opts.Epsilon = r.params.Epsilon
		opts.PreferredReward = r.params.PreferredReward
		opts.KBLimit = r.params.KBLimit
		opts.ExpansionLimit = nodeLimit
		opts.HRange = r.params.HRange
		opts.Iterative = r.iterative

		engine := New(r.task, r.closed, r.register, r.rand, opts).
			SetLogger(r.logger.With("iteration", it)).
			SetListener(r.listener)
		if err := r.addHeuristics(engine); err != nil {
			return res, err
		}

		switch r.params.Bounding {
		case BoundNone:
			engine.SetLocalBound(-1)
		case BoundWA, BoundDAS:
			if r.params.Bounding == BoundDAS && passStart {
				bound = -1
			}
			engine.SetLocalBound(bound)
		}

		r.logger.Info("search iteration",
			"iteration", it,
			"weight", weight,
			"node_limit", nodeLimit,
			"bound", bound,
			"bounding", r.params.Bounding,
		)
		if it > 0 {
			r.listener.InvokeRestart(engine.Stats())
		}

		status, err := engine.Search(ctx)
		if err != nil {
			return res, err
		}

		if engine.Found() {
			if firstIter < 0 {
				firstIter = it
			}
			p := engine.Plan()
			cost, err := r.register.Save(p, "wa")
			if err != nil {
				return res, err
			}
			if bound == -1 || cost < bound {
				bound = cost
			}
			if r.params.RunBooster && r.booster != nil {
				if _, err := r.booster.Improve(ctx, p, "wa"); err != nil {
					return res, err
				}
			}
			res.Solved = true
		}

		if status == search.OutOfMemory {
			res.OutOfMemory++
			r.logger.Info("ran out of memory", "count", res.OutOfMemory)
			if res.OutOfMemory%len(weights) == 0 {
				r.logger.Info("emptying closed list", "entries", r.closed.Len())
				r.closed.Clear()
			}
			if r.mrwAfter && res.OutOfMemory >= 2*len(weights) {
				r.logger.Info("hit memory limit too many times, reverting to MRW")
				res.Reverted = true
				it++
				res.Iterations = it
				break
			}
		}

		it++
		res.Iterations = it
		if !r.params.LoopWeights && it >= len(weights) {
			break
		}
	}
	return res, nil
}
