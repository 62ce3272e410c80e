// Package bench compares two planner configurations on a suite of tasks.
// Every task is run several times with the same seed for both configurations,
// and the run goes to the configuration with the cheaper plan
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IlikeChooros/go-arvand/pkg/config"
	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/planner"
	"golang.org/x/sync/errgroup"
)

var ErrEmptySuite = errors.New("no tasks to benchmark")

type job struct {
	entry Entry
	seed  int64
}

type Versus struct {
	VersusStats
	First  *config.Settings
	Second *config.Settings
	Tasks  []Entry
	// Runs per task
	Runs    int
	Workers int

	logger   *slog.Logger
	listener *Listener
}

func NewVersus(first, second *config.Settings, tasks []Entry) *Versus {
	return &Versus{
		First:   first,
		Second:  second,
		Tasks:   tasks,
		Runs:    1,
		Workers: 2,
		logger:  logging.Discard(),
	}
}

func (v *Versus) Setup(runs, workers int) *Versus {
	v.Runs = max(runs, 1)
	v.Workers = max(workers, 1)
	return v
}

func (v *Versus) SetLogger(l *slog.Logger) *Versus {
	v.logger = logging.OrDiscard(l)
	return v
}

func (v *Versus) SetListener(l *Listener) *Versus {
	v.listener = l
	return v
}

// Split the jobs equally between the workers, the first ones take the rest
func (v *Versus) shares() [][]job {
	var jobs []job
	for _, e := range v.Tasks {
		for r := range v.Runs {
			jobs = append(jobs, job{entry: e, seed: int64(r + 1)})
		}
	}

	workers := min(v.Workers, len(jobs))
	shares := make([][]job, workers)
	n, rest := len(jobs)/workers, len(jobs)%workers
	start := 0
	for i := range shares {
		size := n
		if i < rest {
			size++
		}
		shares[i] = jobs[start : start+size]
		start += size
	}
	return shares
}

// Run blocks until every job is done or the context is cancelled,
// a planner error stops the benchmark
func (v *Versus) Run(ctx context.Context) (Summary, error) {
	if len(v.Tasks) == 0 {
		return Summary{}, ErrEmptySuite
	}
	shares := v.shares()
	g, ctx := errgroup.WithContext(ctx)
	for id, share := range shares {
		g.Go(func() error {
			return v.worker(ctx, id, share)
		})
	}
	err := g.Wait()

	summary := Summary{
		Runs:         v.Total(),
		FirstWins:    v.FirstWins(),
		SecondWins:   v.SecondWins(),
		Ties:         v.Ties(),
		FirstSolved:  int(v.firstSolved.Load()),
		SecondSolved: int(v.secondSolved.Load()),
		Workers:      len(shares),
	}
	v.listener.invokeSummary(summary)
	return summary, err
}

func (v *Versus) worker(ctx context.Context, id int, jobs []job) error {
	logger := v.logger.With("worker", id)
	for _, j := range jobs {
		if ctx.Err() != nil {
			return nil
		}
		first, err := v.play(ctx, v.First, j)
		if err != nil {
			return fmt.Errorf("%s, first configuration: %w", j.entry.Name, err)
		}
		second, err := v.play(ctx, v.Second, j)
		if err != nil {
			return fmt.Errorf("%s, second configuration: %w", j.entry.Name, err)
		}

		outcome := compare(first, second)
		v.record(outcome, first, second)
		logger.Debug("run finished",
			"task", j.entry.Name,
			"seed", j.seed,
			"first", first.Cost,
			"second", second.Cost,
			"winner", outcome,
		)
		v.listener.invokeRun(RunInfo{
			Worker:   id,
			Task:     j.entry.Name,
			Seed:     j.seed,
			First:    first,
			Second:   second,
			Outcome:  outcome,
			Finished: v.Total(),
		})
	}
	return nil
}

func (v *Versus) play(ctx context.Context, s *config.Settings, j job) (planner.Result, error) {
	settings := *s
	settings.Seeds = []int64{j.seed}
	settings.PlanFile = ""
	return planner.New(j.entry.Task, &settings).SetLogger(v.logger).Run(ctx)
}
