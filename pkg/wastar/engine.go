package wastar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/IlikeChooros/go-arvand/pkg/closed"
	"github.com/IlikeChooros/go-arvand/pkg/heuristic"
	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/openlist"
	"github.com/IlikeChooros/go-arvand/pkg/plan"
	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/IlikeChooros/go-arvand/pkg/task"
)

const (
	// Weight of a greedy best-first search
	GBFS = -1

	DefaultPreferredReward = 1000

	// Memory is estimated every this many expansions
	memoryCheckInterval = 100
)

var (
	ErrNoHeuristics = errors.New("no heuristic with estimates added")
	ErrNoWeights    = errors.New("empty weight schedule")
)

type Options struct {
	Name string
	// WA* weight, or GBFS
	Weight int
	// Identifies this search on the shared closed list
	SearchNum   int
	IgnoreCosts bool
	// Shuffle operators before pushing successors
	RandOpen bool
	// Probability of popping a random entry instead of the minimum
	Epsilon float64
	// Subtracted from the preferred queues' priority on progress
	PreferredReward int
	// -1 for no limit
	KBLimit        float64
	ExpansionLimit int64
	// Use LocalBound instead of the register's best cost, -1 means unbounded
	UseLocalBound bool
	LocalBound    int
	// Symmetric random perturbation of heuristic values, 0 disables it
	HRange int
	// Keep searching when the register already holds a plan
	Iterative bool
}

func DefaultOptions() Options {
	return Options{
		Weight:          GBFS,
		PreferredReward: DefaultPreferredReward,
		KBLimit:         -1,
		ExpansionLimit:  -1,
		LocalBound:      -1,
	}
}

type successor struct {
	parent closed.Handle
	op     *task.Operator
}

type queue struct {
	h             heuristic.Heuristic
	preferredOnly bool
	priority      int
	open          *openlist.OpenList[successor]
}

// Engine is a deferred-evaluation weighted A* (or greedy best-first) search
// over a closed list that may be shared with other engines run one after
// another. Successors are pushed with their parent's heuristic value and
// evaluated only when popped
type Engine struct {
	opts     Options
	task     *task.Task
	closed   *closed.List
	register *plan.Register
	rand     *rand.Rand
	logger   *slog.Logger
	listener *search.Listener
	limiter  *search.Limiter

	heuristics     []heuristic.Heuristic
	prefHeuristics []heuristic.Heuristic
	queues         []*queue
	bestH          []int

	// preferred operators of the state being expanded
	preferred []*task.Operator
	isPref    []bool

	current  task.State
	ancestor closed.Ancestor

	expanded  int
	generated int
	deadEnds  int
	lastKB    float64
	plan      task.Plan
	status    search.Status
	ops       []*task.Operator
}

func New(t *task.Task, list *closed.List, reg *plan.Register, r *rand.Rand, opts Options) *Engine {
	limits := search.DefaultLimits()
	if opts.ExpansionLimit > 0 {
		limits.SetExpansions(opts.ExpansionLimit)
	}
	if opts.KBLimit >= 0 {
		limits.SetKBLimit(opts.KBLimit)
	}
	if opts.Name == "" {
		opts.Name = "wa"
	}
	return &Engine{
		opts:     opts,
		task:     t,
		closed:   list,
		register: reg,
		rand:     r,
		logger:   logging.Discard(),
		limiter:  search.NewLimiter().SetLimits(limits),
		isPref:   make([]bool, len(t.Operators)),
	}
}

func (e *Engine) SetLogger(l *slog.Logger) *Engine {
	e.logger = logging.OrDiscard(l).With("engine", e.opts.Name)
	return e
}

func (e *Engine) SetListener(l *search.Listener) *Engine {
	e.listener = l
	return e
}

func (e *Engine) Name() string     { return e.opts.Name }
func (e *Engine) Options() Options { return e.opts }
func (e *Engine) Plan() task.Plan  { return e.plan }
func (e *Engine) Found() bool      { return e.plan != nil }

// AddHeuristic registers a heuristic. With 'useEstimates' it gets two open
// lists (all successors and preferred successors only), with 'usePreferred'
// its preferred operators fill the preferred lists
func (e *Engine) AddHeuristic(h heuristic.Heuristic, useEstimates, usePreferred bool) {
	e.heuristics = append(e.heuristics, h)
	e.bestH = append(e.bestH, -1)
	if useEstimates {
		e.queues = append(e.queues,
			&queue{h: h, open: openlist.New[successor]()},
			&queue{h: h, preferredOnly: true, open: openlist.New[successor]()},
		)
	}
	if usePreferred {
		e.prefHeuristics = append(e.prefHeuristics, h)
	}
	e.logger.Debug("adding heuristic", "name", h.Name(), "estimates", useEstimates, "preferred", usePreferred)
}

func (e *Engine) SetLocalBound(bound int) {
	e.opts.UseLocalBound = true
	e.opts.LocalBound = bound
}

func (e *Engine) Initialize() error {
	if len(e.queues) == 0 {
		return ErrNoHeuristics
	}
	if e.opts.Weight == GBFS {
		e.logger.Info("conducting delayed greedy best-first search", "search_num", e.opts.SearchNum)
	} else {
		e.logger.Info("conducting delayed weighted A* search", "weight", e.opts.Weight, "search_num", e.opts.SearchNum)
	}
	if e.opts.HRange > 0 {
		e.logger.Info("perturbing heuristic values", "range", e.opts.HRange)
	}

	for _, q := range e.queues {
		q.open.Clear()
		q.priority = 0
	}
	for i := range e.bestH {
		e.bestH[i] = -1
	}
	e.expanded, e.generated, e.deadEnds = 0, 0, 0
	e.lastKB = 0
	e.plan = nil
	e.status = search.InProgress
	e.current = e.task.Init
	e.ancestor = closed.Ancestor{Parent: closed.NoHandle}
	return nil
}

// Search runs the engine until it terminates or the context is cancelled
func (e *Engine) Search(ctx context.Context) (search.Status, error) {
	status, err := search.Run(ctx, e, e.limiter)
	e.status = status
	stats := e.Stats()
	e.logger.Info("search finished",
		"status", status,
		"expanded", e.expanded,
		"generated", e.generated,
		"dead_ends", e.deadEnds,
		"closed", e.closed.Len(),
		"memory_kb", e.MemoryEstimate()/1000,
	)
	e.listener.InvokeStop(stats)
	return status, err
}

func (e *Engine) Stats() search.Stats {
	cost := -1
	if e.plan != nil {
		cost = e.plan.Cost()
	}
	return search.Stats{
		Engine:    e.opts.Name,
		Expanded:  e.expanded,
		Generated: e.generated,
		DeadEnds:  e.deadEnds,
		BestH:     append([]int(nil), e.bestH...),
		Cost:      cost,
		Elapsed:   e.limiter.Timer.Elapsed(),
		Status:    e.status,
	}
}

// Approximate memory used by the open lists and the closed list, in bytes
func (e *Engine) MemoryEstimate() int {
	size := e.closed.ApproxBytes()
	for _, q := range e.queues {
		size += q.open.ApproxBytes()
	}
	return size
}

func (e *Engine) bound() int {
	if e.opts.UseLocalBound {
		return e.opts.LocalBound
	}
	return e.register.Best()
}

// Value compared against the bound
func (e *Engine) currentCost() int {
	if e.opts.IgnoreCosts {
		return e.ancestor.Depth
	}
	return e.ancestor.Cost
}

func (e *Engine) Step() search.Status {
	// another engine already solved the task
	if !e.opts.Iterative && e.register.Found() {
		return search.Solved
	}
	// Deferred evaluation: states that cannot beat the bound are never evaluated
	if b := e.bound(); b != -1 && e.currentCost() >= b {
		return e.fetchNext()
	}

	var (
		handle closed.Handle
		expand bool
	)
	if h, ok := e.closed.Find(e.current); !ok {
		handle = e.closed.Insert(e.evaluate())
		expand = true
	} else {
		handle = h
		stored := e.closed.Get(h)
		if e.closed.Update(h, e.ancestor, e.opts.IgnoreCosts) && e.opts.Weight != GBFS {
			expand = true
		}
		if stored.SearchNum < e.opts.SearchNum && e.expandClosed(stored) {
			e.closed.SetSearchNum(h, e.opts.SearchNum)
			expand = true
		}
		if expand {
			e.fillMissing(h, stored)
			e.preferredFromClosed(e.closed.Get(h))
		}
	}

	if expand {
		e.expanded++
		if e.opts.KBLimit >= 0 && e.expanded%memoryCheckInterval == 0 {
			e.lastKB = float64(e.MemoryEstimate()) / 1000
		}
		if !e.limiter.Ok(int64(e.expanded), e.lastKB) {
			e.limiter.EvaluateStopReason(int64(e.expanded), e.lastKB)
			return e.limiter.StopReason().Status()
		}

		entry := e.closed.Get(handle)
		if entry.IsDeadEnd() {
			e.deadEnds++
		} else {
			if e.checkGoal(handle, entry) {
				return search.Solved
			}
			if e.checkProgress(entry) {
				e.reportProgress()
				e.rewardProgress()
			}
			e.generateSuccessors(handle, entry)
		}
	}
	return e.fetchNext()
}

// Re-expansion policy for entries closed by an older search
func (e *Engine) expandClosed(stored closed.Entry) bool {
	switch {
	case e.opts.Weight == GBFS:
		return true
	case e.opts.IgnoreCosts:
		return e.ancestor.Depth <= stored.Depth
	default:
		return e.ancestor.G <= stored.G
	}
}

// Evaluate every heuristic on the current state and build its closed entry
func (e *Engine) evaluate() closed.Entry {
	entry := closed.NewEntry(e.current, e.ancestor, e.opts.SearchNum)
	for _, h := range e.heuristics {
		h.SetRecompute(e.current)
	}
	for _, h := range e.heuristics {
		h.Evaluate(e.current)
		if h.IsDeadEnd() {
			entry.SetValue(h.Name(), heuristic.DeadEnd)
			if h.DeadEndsAreReliable() {
				entry.RecordDeadEnd()
			}
			continue
		}
		v := h.Value()
		if v < 0 {
			panic(fmt.Sprintf("wastar: heuristic %s returned negative value %d", h.Name(), v))
		}
		entry.SetValue(h.Name(), v)
	}

	e.clearPreferred()
	for _, h := range e.prefHeuristics {
		if h.IsDeadEnd() {
			continue
		}
		prefs := h.PreferredOperators(nil)
		e.addPreferred(prefs)
		entry.SetPreferred(h.Name(), prefs)
	}
	return entry
}

// Values of heuristics this engine uses but an earlier engine did not
func (e *Engine) fillMissing(handle closed.Handle, stored closed.Entry) {
	for _, h := range e.heuristics {
		if _, ok := stored.Value(h.Name()); ok {
			continue
		}
		h.SetRecompute(stored.State)
		h.Evaluate(stored.State)
		v := h.Value()
		if h.IsDeadEnd() {
			v = heuristic.DeadEnd
		}
		e.closed.SetValue(handle, h.Name(), v)
	}
}

// Rebuild the preferred operators from the cached per-heuristic sets
func (e *Engine) preferredFromClosed(entry closed.Entry) {
	e.clearPreferred()
	for _, h := range e.prefHeuristics {
		if !entry.IsDeadEndFor(h.Name()) {
			e.addPreferred(entry.Preferred(h.Name()))
		}
	}
}

func (e *Engine) clearPreferred() {
	for _, op := range e.preferred {
		e.isPref[op.Index] = false
	}
	e.preferred = e.preferred[:0]
}

func (e *Engine) addPreferred(ops []*task.Operator) {
	for _, op := range ops {
		if !e.isPref[op.Index] {
			e.isPref[op.Index] = true
			e.preferred = append(e.preferred, op)
		}
	}
}

// The first queue's heuristic reporting zero signals a goal, confirmed
// against the goal facts when the task has action costs
func (e *Engine) checkGoal(handle closed.Handle, entry closed.Entry) bool {
	name := e.queues[0].h.Name()
	if entry.IsDeadEndFor(name) {
		return false
	}
	if v, ok := entry.Value(name); !ok || v != 0 {
		return false
	}
	if e.task.UseMetric && !e.task.IsGoal(e.current) {
		return false
	}
	e.plan = e.closed.TracePath(handle)
	e.logger.Info("solution found", "length", len(e.plan), "cost", e.plan.Cost(), "expanded", e.expanded)
	e.listener.InvokeSolution(e.Stats())
	return true
}

func (e *Engine) checkProgress(entry closed.Entry) bool {
	progress := false
	for i, h := range e.heuristics {
		if entry.IsDeadEndFor(h.Name()) {
			continue
		}
		v, _ := entry.Value(h.Name())
		if e.bestH[i] == -1 || v < e.bestH[i] {
			e.bestH[i] = v
			progress = true
		}
	}
	return progress
}

func (e *Engine) reportProgress() {
	e.logger.Debug("best heuristic values",
		"h", e.bestH,
		"expanded", e.expanded,
		"generated", e.generated,
		"dead_ends", e.deadEnds,
		"closed", e.closed.Len(),
	)
	e.listener.InvokeProgress(e.Stats())
}

func (e *Engine) rewardProgress() {
	if e.opts.PreferredReward == 0 {
		return
	}
	for _, q := range e.queues {
		if q.preferredOnly {
			q.priority -= e.opts.PreferredReward
		}
	}
}

func (e *Engine) generateSuccessors(handle closed.Handle, entry closed.Entry) {
	e.ops = e.task.Generator().ApplicableOps(e.current, e.ops[:0])
	depth := entry.Depth + 1

	for _, q := range e.queues {
		name := q.h.Name()
		if entry.IsDeadEndFor(name) {
			continue
		}
		h, _ := entry.Value(name)
		ops := e.ops
		if q.preferredOnly {
			ops = e.preferred
		}
		if e.opts.RandOpen && len(ops) > 1 {
			for j := 0; j < len(ops)-1; j++ {
				k := j + e.rand.Intn(len(ops)-j)
				ops[j], ops[k] = ops[k], ops[j]
			}
		}

		for _, op := range ops {
			g := entry.G + op.SearchCost(e.task.UseMetric)
			myH := h
			if e.opts.HRange > 0 {
				myH += e.rand.Intn(2*e.opts.HRange+1) - e.opts.HRange
			}

			var key openlist.Key
			if e.opts.Weight == GBFS {
				key.Primary = myH
				if e.opts.IgnoreCosts {
					key.Tie = depth
				} else {
					key.Tie = g
				}
			} else {
				if e.opts.IgnoreCosts {
					key.Primary = e.opts.Weight*myH + depth
				} else {
					key.Primary = e.opts.Weight*myH + g
				}
				key.Tie = myH
			}
			q.open.Insert(key, successor{parent: handle, op: op})
		}
	}
	e.generated += len(e.ops)
}

// Non-empty queue with the lowest priority counter
func (e *Engine) selectQueue() *queue {
	var best *queue
	for _, q := range e.queues {
		if !q.open.Empty() && (best == nil || q.priority < best.priority) {
			best = q
		}
	}
	return best
}

// The minimum entry, or with probability epsilon a random one
func (e *Engine) pop(q *queue) (openlist.Key, successor) {
	if e.opts.Epsilon == 0 || e.rand.Float64() > e.opts.Epsilon {
		return q.open.RemoveMin()
	}
	return q.open.RemoveRandom(e.rand)
}

func (e *Engine) fetchNext() search.Status {
	q := e.selectQueue()
	if q == nil {
		e.logger.Info("completely explored state space, no solution")
		return search.Failed
	}

	_, next := e.pop(q)
	q.priority++

	parent := e.closed.Get(next.parent)
	e.current = e.task.Apply(parent.State, next.op)
	e.ancestor = closed.Ancestor{
		Parent: next.parent,
		Op:     next.op,
		G:      parent.G + next.op.SearchCost(e.task.UseMetric),
		Cost:   parent.Cost + next.op.Cost,
		Depth:  parent.Depth + 1,
	}
	return search.InProgress
}
