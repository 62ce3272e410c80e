package search

import "time"

// Snapshot of an engine's counters
type Stats struct {
	Engine    string
	Expanded  int
	Generated int
	Evaluated int
	DeadEnds  int
	// Best heuristic value per heuristic, -1 if none seen yet
	BestH []int
	// Cost of the reported solution, -1 otherwise
	Cost    int
	Elapsed time.Duration
	Status  Status
}

// Listener function callback, receives the engine's current statistics
type ListenerFunc func(Stats)

// Listener is called by the engines from their own goroutine, callbacks shared
// between engines running in parallel must synchronize themselves
type Listener struct {
	// called when some heuristic's best value decreases
	onProgress ListenerFunc
	// called when the engine finds a plan
	onSolution ListenerFunc
	// called on a restart (MRW) or a new iteration (WA*)
	onRestart ListenerFunc
	// called when an engine's search finishes
	onStop ListenerFunc
}

func NewListener() *Listener {
	return &Listener{}
}

func (l *Listener) OnProgress(f ListenerFunc) *Listener {
	l.onProgress = f
	return l
}

func (l *Listener) OnSolution(f ListenerFunc) *Listener {
	l.onSolution = f
	return l
}

func (l *Listener) OnRestart(f ListenerFunc) *Listener {
	l.onRestart = f
	return l
}

func (l *Listener) OnStop(f ListenerFunc) *Listener {
	l.onStop = f
	return l
}

// Combine listeners, callbacks are called in order
func (l *Listener) Chain(other *Listener) *Listener {
	if other == nil {
		return l
	}
	if l == nil {
		return other
	}
	chain := func(a, b ListenerFunc) ListenerFunc {
		switch {
		case a == nil:
			return b
		case b == nil:
			return a
		}
		return func(s Stats) { a(s); b(s) }
	}
	return &Listener{
		onProgress: chain(l.onProgress, other.onProgress),
		onSolution: chain(l.onSolution, other.onSolution),
		onRestart:  chain(l.onRestart, other.onRestart),
		onStop:     chain(l.onStop, other.onStop),
	}
}

func (l *Listener) InvokeProgress(s Stats) {
	if l != nil && l.onProgress != nil {
		l.onProgress(s)
	}
}

func (l *Listener) InvokeSolution(s Stats) {
	if l != nil && l.onSolution != nil {
		l.onSolution(s)
	}
}

func (l *Listener) InvokeRestart(s Stats) {
	if l != nil && l.onRestart != nil {
		l.onRestart(s)
	}
}

func (l *Listener) InvokeStop(s Stats) {
	if l != nil && l.onStop != nil {
		l.onStop(s)
	}
}
