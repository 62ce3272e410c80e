// Package planner runs a configured portfolio: MRW workers in the background,
// the WA* runner on the calling goroutine, and MRW again after WA* when there
// is still something to gain
package planner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/IlikeChooros/go-arvand/pkg/booster"
	"github.com/IlikeChooros/go-arvand/pkg/closed"
	"github.com/IlikeChooros/go-arvand/pkg/config"
	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/metrics"
	"github.com/IlikeChooros/go-arvand/pkg/mrw"
	"github.com/IlikeChooros/go-arvand/pkg/plan"
	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/IlikeChooros/go-arvand/pkg/task"
	"github.com/IlikeChooros/go-arvand/pkg/wastar"
)

var ErrNothingToRun = errors.New("neither WA* nor MRW is configured")

// Result summarises a run
type Result struct {
	Plan      task.Plan
	Cost      int
	Solutions int
	// Set when WA* ran
	WA *wastar.Result
	// Terminal status of every MRW worker
	Workers map[string]search.Status
	Elapsed time.Duration
}

func (r Result) Solved() bool {
	return r.Cost != plan.NoSolution
}

type Planner struct {
	task     *task.Task
	settings *config.Settings
	logger   *slog.Logger
	metrics  *metrics.Collectors
	writer   plan.Writer
}

func New(t *task.Task, s *config.Settings) *Planner {
	return &Planner{
		task:     t,
		settings: s,
		logger:   logging.Discard(),
	}
}

func (p *Planner) SetLogger(l *slog.Logger) *Planner {
	p.logger = logging.OrDiscard(l)
	return p
}

// Optional, nil records nothing
func (p *Planner) SetMetrics(c *metrics.Collectors) *Planner {
	p.metrics = c
	return p
}

// Overrides the writer built from the plan file setting
func (p *Planner) SetWriter(w plan.Writer) *Planner {
	p.writer = w
	return p
}

func (p *Planner) planWriter() plan.Writer {
	switch {
	case p.writer != nil:
		return p.writer
	case p.settings.PlanFile != "":
		return &plan.FileWriter{Path: p.settings.PlanFile, Iterative: p.settings.Iterative}
	}
	return &plan.MemoryWriter{}
}

func (p *Planner) booster(reg *plan.Register, kb, seconds float64) *booster.Booster {
	opts := booster.DefaultOptions()
	opts.KBLimit = kb
	opts.TimeLimit = seconds
	return booster.New(p.task, reg, opts).SetLogger(p.logger)
}

// Run blocks until the portfolio finishes, the context is cancelled or the
// configured time limit passes. Running out of time is not an error
func (p *Planner) Run(ctx context.Context) (Result, error) {
	s := p.settings
	if s.WA == nil && !s.RunsMRW() {
		return Result{}, ErrNothingToRun
	}

	start := time.Now()
	if s.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.TimeLimit*float64(time.Second)))
		defer cancel()
	}
	// background workers stop once the calling goroutine is done
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	reg := plan.NewRegister(p.task, p.planWriter()).
		SetLogger(p.logger).
		Observe(p.metrics.ObserveSolution)
	seeds := search.NewSeeds(s.Seeds...)
	listener := p.metrics.Listener()

	var (
		res    Result
		group  *mrw.Group
		runErr error
	)
	if s.RunsMRW() {
		shared, err := mrw.NewShared(p.task, reg, s.MRW, *s.Shared, seeds)
		if err != nil {
			return res, err
		}
		shared.Iterative = s.Iterative
		shared.OnConfig = p.metrics.ObserveArm
		if s.Shared.RunBooster {
			shared.Booster = p.booster(reg, s.Shared.BoosterKB, s.Shared.BoosterTime)
		}
		group = mrw.NewGroup(ctx, shared, seeds).SetLogger(p.logger).SetListener(listener)
		ctx = group.Context()

		finish := s.WA == nil || s.Shared.TimeLimit > 0
		background := s.Shared.NumThreads
		if finish {
			background--
		}
		p.logger.Info("starting MRW", "workers", s.Shared.NumThreads, "configs", len(s.MRW))
		group.Go(background)
		if finish {
			_, runErr = group.Run(s.Shared.TimeLimit)
		}
	}

	if s.WA != nil && runErr == nil {
		runner := wastar.NewRunner(p.task, closed.New(), reg, seeds.Rand(), *s.WA).
			SetLogger(p.logger).
			SetListener(listener).
			SetIterative(s.Iterative).
			SetMRWAfter(group != nil)
		if s.WA.RunBooster {
			runner.SetBooster(p.booster(reg, s.WA.BoosterKB, s.WA.BoosterTime))
		}
		var wa wastar.Result
		wa, runErr = runner.Run(ctx)
		res.WA = &wa

		if runErr == nil && group != nil && (s.Iterative || !reg.Found()) && ctx.Err() == nil {
			limit := s.Shared.TimeLimit
			if s.Shared.NumThreads == 1 {
				limit = -1
			}
			p.logger.Info("continuing with MRW", "solved", reg.Found())
			_, runErr = group.Run(limit)
		}
	}

	if group != nil {
		stop()
		if err := group.Wait(); err != nil && runErr == nil {
			runErr = err
		}
		res.Workers = group.Statuses()
	}

	if reg.Found() {
		res.Plan = reg.BestPlan()
	}
	res.Cost = reg.Best()
	res.Solutions = reg.Solutions()
	res.Elapsed = time.Since(start)
	p.logger.Info("planner finished",
		"cost", res.Cost,
		"solutions", res.Solutions,
		"elapsed", res.Elapsed,
	)
	return res, runErr
}
