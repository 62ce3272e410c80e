package mrw

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/search"
	"golang.org/x/sync/errgroup"
)

// Group runs MRW workers sharing one Shared context
type Group struct {
	g        *errgroup.Group
	ctx      context.Context
	shared   *Shared
	seeds    *search.Seeds
	logger   *slog.Logger
	listener *search.Listener

	mu       sync.Mutex
	started  int
	statuses map[string]search.Status
}

func NewGroup(ctx context.Context, shared *Shared, seeds *search.Seeds) *Group {
	g, ctx := errgroup.WithContext(ctx)
	return &Group{
		g:        g,
		ctx:      ctx,
		shared:   shared,
		seeds:    seeds,
		logger:   logging.Discard(),
		statuses: make(map[string]search.Status),
	}
}

func (g *Group) SetLogger(l *slog.Logger) *Group {
	g.logger = logging.OrDiscard(l)
	return g
}

func (g *Group) SetListener(l *search.Listener) *Group {
	g.listener = l
	return g
}

// Context cancelled when any worker fails
func (g *Group) Context() context.Context {
	return g.ctx
}

func (g *Group) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	name := fmt.Sprintf("mrw-%d", g.started)
	g.started++
	return name
}

func (g *Group) engine(name string) *Engine {
	return New(g.shared, name, g.seeds.Rand()).
		SetLogger(g.logger).
		SetListener(g.listener)
}

func (g *Group) record(name string, s search.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[name] = s
}

// Go starts 'n' workers in the background
func (g *Group) Go(n int) {
	for range n {
		name := g.next()
		e := g.engine(name)
		g.g.Go(func() error {
			status, err := e.Search(g.ctx)
			g.record(name, status)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
}

// Run a worker on the calling goroutine, with its own wall-clock budget
func (g *Group) Run(timeLimit float64) (search.Status, error) {
	name := g.next()
	status, err := g.engine(name).SetTimeLimit(timeLimit).Search(g.ctx)
	g.record(name, status)
	return status, err
}

// Wait for the background workers, returns the first error
func (g *Group) Wait() error {
	return g.g.Wait()
}

// Terminal status per worker name
func (g *Group) Statuses() map[string]search.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]search.Status, len(g.statuses))
	for k, v := range g.statuses {
		out[k] = v
	}
	return out
}
