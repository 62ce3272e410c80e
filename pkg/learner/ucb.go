package learner

import (
	"math"
	"math/rand"
	"sync"
)

const (
	// Walk budget given to an arm on its first use when adjusting online
	InitialNumWalk  = 100
	InitialMaxSteps = 1

	NumWalkUpperBound  = 2000
	MaxStepsUpperBound = 7
)

// Budget of an MRW configuration, adjusted online by the learner
type Budget struct {
	NumWalk  int
	MaxSteps int
}

// UCB selects among arms with the UCB1 rule. A negative exploration
// constant switches to dovetailing: the least used arm is picked.
// Safe for concurrent use
type UCB struct {
	mu      sync.Mutex
	c       float64
	adjust  bool
	rand    *rand.Rand
	n       []int
	sum     []float64
	budgets []Budget
	total   int
}

// New learner over arms with the given initial budgets
func New(c float64, adjustOnline bool, r *rand.Rand, budgets []Budget) *UCB {
	if len(budgets) == 0 {
		panic("learner: no arms")
	}
	b := make([]Budget, len(budgets))
	copy(b, budgets)
	return &UCB{
		c:       c,
		adjust:  adjustOnline,
		rand:    r,
		n:       make([]int, len(b)),
		sum:     make([]float64, len(b)),
		budgets: b,
	}
}

func (u *UCB) Arms() int {
	return len(u.n)
}

// Mean reward of the arm, pending selections count as zero reward
func (u *UCB) Value(arm int) float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.value(arm)
}

func (u *UCB) value(arm int) float64 {
	if u.n[arm] == 0 {
		return 0
	}
	return u.sum[arm] / float64(u.n[arm])
}

// Number of times the arm was selected
func (u *UCB) Count(arm int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.n[arm]
}

func (u *UCB) score(arm int) float64 {
	if u.c < 0 {
		return float64(u.total - u.n[arm])
	}
	return u.value(arm) + u.c*math.Sqrt(2*math.Log(float64(u.total))/float64(u.n[arm]))
}

// Config selects the next arm to run, returning it with its budget.
// The selection is counted immediately with a provisional zero reward,
// so concurrent callers are steered away from the same arm
func (u *UCB) Config() (int, Budget) {
	u.mu.Lock()
	defer u.mu.Unlock()

	arm := 0
	unused := false
	if len(u.n) == 1 {
		unused = u.n[0] == 0
	} else {
		var untried, best []int
		bestScore := math.Inf(-1)
		for i := range u.n {
			if u.n[i] == 0 {
				untried = append(untried, i)
				continue
			}
			switch s := u.score(i); {
			case s > bestScore:
				bestScore = s
				best = append(best[:0], i)
			case s == bestScore:
				best = append(best, i)
			}
		}

		switch {
		case len(untried) > 0:
			arm = untried[u.rand.Intn(len(untried))]
			unused = true
		case len(best) == 1:
			arm = best[0]
		default:
			arm = best[u.rand.Intn(len(best))]
		}
	}

	if u.adjust {
		b := &u.budgets[arm]
		if unused {
			b.NumWalk = InitialNumWalk
			b.MaxSteps = InitialMaxSteps
		} else {
			b.NumWalk = min(2*b.NumWalk, NumWalkUpperBound)
			b.MaxSteps = min(b.MaxSteps+1, MaxStepsUpperBound)
		}
	}

	// virtual loss
	u.n[arm]++
	u.total++
	return arm, u.budgets[arm]
}

// Reward maps a heuristic value into [0, 1] relative to 'bound':
// 1 if the value reached zero, 0 if it did not improve on the bound
func Reward(h, bound int) float64 {
	if bound == 0 {
		return 1
	}
	h = min(h, bound)
	return float64(bound-h) / float64(bound)
}

// Update records the outcome of a run of 'arm', that reached heuristic
// value 'h' starting from 'bound'
func (u *UCB) Update(arm, h, bound int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sum[arm] += Reward(h, bound)
}
