package search

import (
	"encoding/json"
	"strings"
	"time"
)

type Limits struct {
	// Maximum number of expansions, -1 for no limit
	Expansions int64
	// Wall-clock budget in milliseconds, -1 for no limit
	Movetime int
	// Memory estimate budget in kilobytes, -1 for no limit
	KBLimit  float64
	Infinite bool
}

func (l Limits) String() string {
	builder := strings.Builder{}
	_ = json.NewEncoder(&builder).Encode(l)
	return builder.String()
}

const (
	DefaultExpansionLimit int64   = -1
	DefaultMovetimeLimit  int     = -1
	DefaultKBLimit        float64 = -1
)

func DefaultLimits() *Limits {
	return &Limits{
		Expansions: DefaultExpansionLimit,
		Movetime:   DefaultMovetimeLimit,
		KBLimit:    DefaultKBLimit,
		Infinite:   true,
	}
}

// Set the maximum number of node expansions
func (l *Limits) SetExpansions(n int64) *Limits {
	l.Expansions = n
	l.Infinite = false
	return l
}

// Set the maximum search time in milliseconds
func (l *Limits) SetMovetime(movetime int) *Limits {
	l.Movetime = movetime
	l.Infinite = false
	return l
}

// Set the maximum time in seconds, as used by the MRW time limit
func (l *Limits) SetSeconds(seconds float64) *Limits {
	if seconds < 0 {
		return l.SetMovetime(-1)
	}
	return l.SetMovetime(int(seconds * 1000))
}

// Wall-clock budget, negative for none
func (l *Limits) Budget() time.Duration {
	if l.Movetime < 0 {
		return -1
	}
	return time.Duration(l.Movetime) * time.Millisecond
}

// Set the memory budget in kilobytes
func (l *Limits) SetKBLimit(kb float64) *Limits {
	l.KBLimit = kb
	l.Infinite = false
	return l
}

func (l *Limits) SetInfinite(infinite bool) {
	l.Infinite = infinite
}
