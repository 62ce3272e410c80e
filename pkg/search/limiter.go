package search

import (
	"context"
	"strings"
)

type StopReason int

const (
	StopNone       StopReason = iota
	StopInterrupt             = 1 // Context cancelled
	StopMovetime              = 2 // Time limit reached
	StopMemory                = 4 // Memory limit reached
	StopExpansions            = 8 // Expansion limit reached
)

var stopNames = [...]struct {
	flag StopReason
	name string
}{
	{StopInterrupt, "Interrupt"},
	{StopMovetime, "Movetime"},
	{StopMemory, "Memory"},
	{StopExpansions, "Expansions"},
}

// Names of the set flags joined with '|'
func (sr StopReason) String() string {
	if sr == StopNone {
		return "None"
	}
	names := make([]string, 0, len(stopNames))
	for _, n := range stopNames {
		if sr&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// Terminal status matching the stop reason, memory takes precedence
func (sr StopReason) Status() Status {
	switch {
	case sr&StopMemory != 0:
		return OutOfMemory
	case sr == StopNone:
		return InProgress
	default:
		return OutOfTime
	}
}

func toMask(val bool, flag StopReason) StopReason {
	if val {
		return flag
	}
	return StopNone
}

// Limiter checks search budgets, it belongs to the searching goroutine.
// Cancelling the context stops the search
type Limiter struct {
	limits *Limits
	Timer  *Timer
	reason StopReason
	ctx    context.Context
}

func NewLimiter() *Limiter {
	return &Limiter{
		limits: DefaultLimits(),
		Timer:  NewTimer(),
		ctx:    context.Background(),
	}
}

func (l *Limiter) Reset() {
	l.Timer.SetBudget(l.limits.Budget())
	l.Timer.Reset()
	l.reason = StopNone
}

func (l *Limiter) SetContext(ctx context.Context) {
	l.ctx = ctx
}

func (l *Limiter) SetLimits(limits *Limits) *Limiter {
	l.limits = limits
	return l
}

func (l *Limiter) Limits() *Limits {
	return l.limits
}

func (l *Limiter) Stop() bool {
	return l.ctx.Err() != nil
}

func (l *Limiter) LimitMask(expansions int64, kb float64) StopReason {
	stop := l.Stop()
	// If infinite, only the stop signal matters
	if l.limits.Infinite {
		return toMask(stop, StopInterrupt)
	}

	mask := toMask(stop, StopInterrupt)
	mask |= toMask(l.Timer.Expired(), StopMovetime)
	mask |= toMask(l.limits.KBLimit >= 0 && kb > l.limits.KBLimit, StopMemory)
	mask |= toMask(l.limits.Expansions > 0 && expansions > l.limits.Expansions, StopExpansions)
	return mask
}

// Whether the search may continue
func (l *Limiter) Ok(expansions int64, kb float64) bool {
	return l.LimitMask(expansions, kb) == StopNone
}

// Record why the search stopped, valid until the next Reset
func (l *Limiter) EvaluateStopReason(expansions int64, kb float64) {
	l.reason = l.LimitMask(expansions, kb)
}

func (l *Limiter) StopReason() StopReason {
	return l.reason
}

func (l *Limiter) Elapsed() int {
	return max(int(l.Timer.Elapsed().Milliseconds()), 1)
}
