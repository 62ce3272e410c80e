package bench

import (
	"sync/atomic"

	"github.com/IlikeChooros/go-arvand/pkg/planner"
	"github.com/IlikeChooros/go-arvand/pkg/task"
)

// Result of running both configurations once on a task
type Outcome int

const (
	FirstWins  Outcome = 1
	SecondWins Outcome = -1
	Tie        Outcome = 0
)

func (o Outcome) String() string {
	switch o {
	case FirstWins:
		return "first"
	case SecondWins:
		return "second"
	}
	return "tie"
}

// A solved run beats an unsolved one, then the cheaper plan wins
func compare(first, second planner.Result) Outcome {
	switch {
	case first.Solved() && !second.Solved():
		return FirstWins
	case !first.Solved() && second.Solved():
		return SecondWins
	case !first.Solved() || first.Cost == second.Cost:
		return Tie
	case first.Cost < second.Cost:
		return FirstWins
	}
	return SecondWins
}

// Entry is a named task of a benchmark suite
type Entry struct {
	Name string
	Task *task.Task
}

type VersusStats struct {
	firstWins    atomic.Uint32
	secondWins   atomic.Uint32
	ties         atomic.Uint32
	firstSolved  atomic.Uint32
	secondSolved atomic.Uint32
}

func (vs *VersusStats) FirstWins() int {
	return int(vs.firstWins.Load())
}

func (vs *VersusStats) SecondWins() int {
	return int(vs.secondWins.Load())
}

func (vs *VersusStats) Ties() int {
	return int(vs.ties.Load())
}

func (vs *VersusStats) Total() int {
	return vs.FirstWins() + vs.SecondWins() + vs.Ties()
}

func (vs *VersusStats) record(o Outcome, first, second planner.Result) {
	switch o {
	case FirstWins:
		vs.firstWins.Add(1)
	case SecondWins:
		vs.secondWins.Add(1)
	default:
		vs.ties.Add(1)
	}
	if first.Solved() {
		vs.firstSolved.Add(1)
	}
	if second.Solved() {
		vs.secondSolved.Add(1)
	}
}

// RunInfo describes one finished run
type RunInfo struct {
	Worker  int
	Task    string
	Seed    int64
	First   planner.Result
	Second  planner.Result
	Outcome Outcome
	// Runs finished so far by all workers
	Finished int
}

type Summary struct {
	Runs         int
	FirstWins    int
	SecondWins   int
	Ties         int
	FirstSolved  int
	SecondSolved int
	Workers      int
}

// Listener callbacks are called from the worker goroutines
type Listener struct {
	onRun     func(RunInfo)
	onSummary func(Summary)
}

func NewListener() *Listener {
	return &Listener{}
}

func (l *Listener) OnRun(f func(RunInfo)) *Listener {
	l.onRun = f
	return l
}

func (l *Listener) OnSummary(f func(Summary)) *Listener {
	l.onSummary = f
	return l
}

func (l *Listener) invokeRun(info RunInfo) {
	if l != nil && l.onRun != nil {
		l.onRun(info)
	}
}

func (l *Listener) invokeSummary(s Summary) {
	if l != nil && l.onSummary != nil {
		l.onSummary(s)
	}
}
