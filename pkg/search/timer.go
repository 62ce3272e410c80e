package search

import (
	"time"
)

// Timer tracks a wall-clock budget measured from its last Reset.
// A negative budget never expires
type Timer struct {
	start  time.Time
	budget time.Duration
}

func NewTimer() *Timer {
	return &Timer{start: time.Now(), budget: -1}
}

func (t *Timer) SetBudget(d time.Duration) {
	t.budget = d
}

func (t *Timer) Budget() time.Duration {
	return t.budget
}

func (t *Timer) Expired() bool {
	return t.budget >= 0 && t.Elapsed() >= t.budget
}

func (t *Timer) Reset() {
	t.start = time.Now()
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
