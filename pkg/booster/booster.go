// Package booster improves found plans. Action elimination drops redundant
// operators, then a plan neighbourhood graph search looks for the cheapest
// plan among the states close to the current plan's trajectory
package booster

import (
	"context"
	"log/slog"

	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/openlist"
	"github.com/IlikeChooros/go-arvand/pkg/plan"
	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/IlikeChooros/go-arvand/pkg/task"
)

type Options struct {
	// Memory budget of the neighbourhood graph in kilobytes, -1 for none
	KBLimit float64
	// seconds, -1 for none
	TimeLimit float64
	// Maximum number of graph states, -1 for none
	NodeLimit int64
	// Neighbourhood radius of the first round
	Distance int
	// Skip the graph search
	EliminationOnly bool
}

func DefaultOptions() Options {
	return Options{
		KBLimit:   -1,
		TimeLimit: -1,
		NodeLimit: -1,
		Distance:  1,
	}
}

// Booster saves every improvement through the register
type Booster struct {
	task     *task.Task
	register *plan.Register
	logger   *slog.Logger
	opts     Options
}

func New(t *task.Task, reg *plan.Register, opts Options) *Booster {
	return &Booster{
		task:     t,
		register: reg,
		logger:   logging.Discard(),
		opts:     opts,
	}
}

func (b *Booster) SetLogger(l *slog.Logger) *Booster {
	b.logger = logging.OrDiscard(l).With("component", "booster")
	return b
}

func (b *Booster) limiter(ctx context.Context) *search.Limiter {
	limits := search.DefaultLimits()
	if b.opts.NodeLimit > 0 {
		limits.SetExpansions(b.opts.NodeLimit)
	}
	if b.opts.KBLimit >= 0 {
		limits.SetKBLimit(b.opts.KBLimit)
	}
	if b.opts.TimeLimit > 0 {
		limits.SetSeconds(b.opts.TimeLimit)
	}
	l := search.NewLimiter().SetLimits(limits)
	l.SetContext(ctx)
	l.Reset()
	return l
}

// Improve returns the cheapest plan found, 'p' itself if nothing better was
func (b *Booster) Improve(ctx context.Context, p task.Plan, source string) (task.Plan, error) {
	source += "/booster"
	best := p
	if reduced := Eliminate(b.task, p); reduced.Cost() < best.Cost() {
		b.logger.Debug("action elimination", "from", best.Cost(), "to", reduced.Cost())
		if _, err := b.register.Save(reduced, source); err != nil {
			return best, err
		}
		best = reduced
	}
	if b.opts.EliminationOnly {
		return best, nil
	}

	limiter := b.limiter(ctx)
	d := max(b.opts.Distance, 1)
	prevSize := -1
	for limiter.Ok(0, 0) {
		g := newGraph(b.task)
		complete := g.expand(best, d, limiter)
		found := g.cheapest()
		improved := found != nil && found.Cost() < best.Cost()
		b.logger.Debug("neighbourhood search",
			"distance", d,
			"states", g.Len(),
			"cost", best.Cost(),
			"improved", improved,
		)
		if improved {
			var err error
			if best, err = b.save(found, source); err != nil {
				return best, err
			}
			continue
		}
		// stopped by the budget, or the graph covers every reachable state
		if !complete || g.Len() == prevSize {
			break
		}
		prevSize = g.Len()
		d *= 2
	}
	return best, nil
}

// Save 'p' and its action-eliminated form when that is cheaper, returns
// the cheaper of the two
func (b *Booster) save(p task.Plan, source string) (task.Plan, error) {
	if _, err := b.register.Save(p, source); err != nil {
		return p, err
	}
	reduced := Eliminate(b.task, p)
	if reduced.Cost() >= p.Cost() {
		return p, nil
	}
	b.logger.Debug("action elimination", "from", p.Cost(), "to", reduced.Cost())
	if _, err := b.register.Save(reduced, source); err != nil {
		return p, err
	}
	return reduced, nil
}

// Eliminate performs action elimination: an operator is removed together
// with every later operator that becomes inapplicable, if the rest still
// reaches the goal
func Eliminate(t *task.Task, p task.Plan) task.Plan {
	p = p.Clone()
	for i := 0; i < len(p); {
		s := t.Init
		for _, op := range p[:i] {
			s = t.Apply(s, op)
		}

		kept := p[:i:i]
		for _, op := range p[i+1:] {
			if op.Applicable(s) {
				s = t.Apply(s, op)
				kept = append(kept, op)
			}
		}
		if t.IsGoal(s) {
			p = kept
			continue
		}
		i++
	}
	return p
}

type edge struct {
	parent string
	op     *task.Operator
}

// States close to a plan's trajectory
type graph struct {
	task   *task.Task
	states map[string]task.State
	bytes  int
	ops    []*task.Operator
}

func newGraph(t *task.Task) *graph {
	return &graph{task: t, states: make(map[string]task.State)}
}

func (g *graph) Len() int { return len(g.states) }

func (g *graph) add(s task.State) bool {
	key := s.Key()
	if _, ok := g.states[key]; ok {
		return false
	}
	g.states[key] = s
	g.bytes += s.ApproxBytes() + 2*len(key) + 16
	return true
}

// Collect the plan's states and everything within 'd' operators of them.
// Returns false if the limiter stopped the expansion
func (g *graph) expand(p task.Plan, d int, limiter *search.Limiter) bool {
	s := g.task.Init
	frontier := []task.State{s}
	g.add(s)
	for _, op := range p {
		s = g.task.Apply(s, op)
		if g.add(s) {
			frontier = append(frontier, s)
		}
	}

	for range d {
		var next []task.State
		for _, s := range frontier {
			g.ops = g.task.Generator().ApplicableOps(s, g.ops[:0])
			for _, op := range g.ops {
				succ := g.task.Apply(s, op)
				if g.add(succ) {
					next = append(next, succ)
				}
				if !limiter.Ok(int64(len(g.states)), float64(g.bytes)/1000) {
					return false
				}
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}
	return true
}

// Uniform cost search from the initial state inside the graph
func (g *graph) cheapest() task.Plan {
	open := openlist.New[string]()
	dist := make(map[string]int, len(g.states))
	parents := make(map[string]edge, len(g.states))

	init := g.task.Init.Key()
	dist[init] = 0
	open.Insert(openlist.Key{}, init)

	for !open.Empty() {
		key, id := open.RemoveMin()
		if key.Primary > dist[id] {
			continue
		}
		s := g.states[id]
		if g.task.IsGoal(s) {
			return g.trace(parents, id)
		}

		g.ops = g.task.Generator().ApplicableOps(s, g.ops[:0])
		for _, op := range g.ops {
			succ := g.task.Apply(s, op)
			sk := succ.Key()
			if _, ok := g.states[sk]; !ok {
				continue
			}
			cost := key.Primary + op.Cost
			if d, ok := dist[sk]; ok && d <= cost {
				continue
			}
			dist[sk] = cost
			parents[sk] = edge{parent: id, op: op}
			open.Insert(openlist.Key{Primary: cost, Tie: key.Tie + 1}, sk)
		}
	}
	return nil
}

func (g *graph) trace(parents map[string]edge, id string) task.Plan {
	var p task.Plan
	for {
		e, ok := parents[id]
		if !ok {
			break
		}
		p = append(p, e.op)
		id = e.parent
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}
