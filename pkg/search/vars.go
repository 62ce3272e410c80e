package search

import (
	"math/rand"
	"sync"
	"time"
)

type SeedGeneratorFnType func() int64

var SeedGeneratorFn SeedGeneratorFnType = func() int64 {
	return time.Now().UnixNano()
}

// Set custom seed generator function for the engines' random number generators,
// by default uses current time in nanoseconds
func SetSeedGeneratorFn(f SeedGeneratorFnType) {
	if f != nil {
		SeedGeneratorFn = f
	}
}

// Seeds hands out seeds from a configured list in order. Once the list
// is used up, the last seed is incremented on every request.
// If the list is empty, SeedGeneratorFn provides the first seed
type Seeds struct {
	mu   sync.Mutex
	list []int64
	next int
	last int64
}

func NewSeeds(list ...int64) *Seeds {
	return &Seeds{list: list}
}

func (s *Seeds) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.next < len(s.list):
		s.last = s.list[s.next]
	case s.next == 0:
		s.last = SeedGeneratorFn()
	default:
		s.last++
	}
	s.next++
	return s.last
}

// New random generator with the next seed
func (s *Seeds) Rand() *rand.Rand {
	return rand.New(rand.NewSource(s.Next()))
}
