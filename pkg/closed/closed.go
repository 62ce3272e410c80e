package closed

import (
	"sync"
	"unsafe"

	"github.com/IlikeChooros/go-arvand/pkg/heuristic"
	"github.com/IlikeChooros/go-arvand/pkg/task"
)

// Stable index of an entry in the closed list
type Handle int32

// Parent of the initial state's entry
const NoHandle Handle = -1

// Path to an entry, as stored in the closed list
type Ancestor struct {
	Parent Handle
	Op     *task.Operator
	// Accumulated search cost (see task.Operator.SearchCost)
	G int
	// Accumulated true cost
	Cost  int
	Depth int
}

type Entry struct {
	State task.State
	Ancestor
	SearchNum int

	// heuristic name -> value or heuristic.DeadEnd
	values map[string]int
	// heuristic name -> preferred operators
	preferred map[string][]*task.Operator
	deadEnd   bool
}

func NewEntry(s task.State, a Ancestor, searchNum int) Entry {
	return Entry{
		State:     s,
		Ancestor:  a,
		SearchNum: searchNum,
		values:    make(map[string]int),
		preferred: make(map[string][]*task.Operator),
	}
}

func (e *Entry) SetValue(name string, h int) {
	e.values[name] = h
}

// Cached value of the heuristic, 'ok' is false if it was never evaluated
func (e *Entry) Value(name string) (h int, ok bool) {
	h, ok = e.values[name]
	return
}

func (e *Entry) IsDeadEndFor(name string) bool {
	h, ok := e.values[name]
	return ok && h == heuristic.DeadEnd
}

// Mark as a dead end, reported by a heuristic with reliable dead ends
func (e *Entry) RecordDeadEnd() {
	e.deadEnd = true
}

func (e *Entry) IsDeadEnd() bool {
	return e.deadEnd
}

func (e *Entry) SetPreferred(name string, ops []*task.Operator) {
	e.preferred[name] = ops
}

func (e *Entry) Preferred(name string) []*task.Operator {
	return e.preferred[name]
}

func (e *Entry) approxBytes() int {
	n := int(unsafe.Sizeof(*e)) + e.State.ApproxBytes() + len(e.State.Key())
	for name := range e.values {
		n += len(name) + 16
	}
	for name, ops := range e.preferred {
		n += len(name) + 24 + 8*len(ops)
	}
	return n
}

// List is the table of visited states, at most one entry per assignment.
// Entries live in an arena and are addressed by Handle
type List struct {
	mu      sync.RWMutex
	index   map[string]Handle
	entries []Entry
	bytes   int
}

func New() *List {
	return &List{index: make(map[string]Handle)}
}

func (l *List) Contains(s task.State) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.index[s.Key()]
	return ok
}

func (l *List) Find(s task.State) (Handle, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.index[s.Key()]
	return h, ok
}

// Insert a first visit, panics if the state is already present
func (l *List) Insert(e Entry) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := e.State.Key()
	if _, ok := l.index[key]; ok {
		panic("closed: duplicate insert of " + e.State.String())
	}
	if e.values == nil {
		e.values = make(map[string]int)
	}
	if e.preferred == nil {
		e.preferred = make(map[string][]*task.Operator)
	}
	h := Handle(len(l.entries))
	l.entries = append(l.entries, e)
	l.index[key] = h
	l.bytes += e.approxBytes() + len(key) + 16
	return h
}

// Copy of the entry, cached maps are shared and must not be modified
func (l *List) Get(h Handle) Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[h]
}

// Rewrite the ancestor of an entry, if 'a' is a strictly cheaper path by
// depth when 'byDepth' is set, by search cost otherwise. Returns true if the
// entry was changed
func (l *List) Update(h Handle, a Ancestor, byDepth bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := &l.entries[h]
	if (byDepth && a.Depth >= e.Depth) || (!byDepth && a.G >= e.G) {
		return false
	}
	if a.Parent == h {
		panic("closed: entry cannot be its own ancestor")
	}
	e.Ancestor = a
	return true
}

func (l *List) SetSearchNum(h Handle, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[h].SearchNum = n
}

// Store a value evaluated after the entry was inserted
func (l *List) SetValue(h Handle, name string, v int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[h].values[name] = v
}

// TracePath follows the ancestor links from 'h' back to the root entry
// and returns the operators in execution order
func (l *List) TracePath(h Handle) task.Plan {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var plan task.Plan
	for steps := 0; h != NoHandle; steps++ {
		if steps > len(l.entries) {
			panic("closed: cycle in ancestor links")
		}
		e := &l.entries[h]
		if e.Op != nil {
			plan = append(plan, e.Op)
		}
		h = e.Parent
	}
	for i, j := 0, len(plan)-1; i < j; i, j = i+1, j-1 {
		plan[i], plan[j] = plan[j], plan[i]
	}
	return plan
}

// Drop all entries. Handles obtained before are invalid afterwards
func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.index = make(map[string]Handle)
	l.entries = nil
	l.bytes = 0
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *List) ApproxBytes() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int(unsafe.Sizeof(*l)) + l.bytes + cap(l.entries)*int(unsafe.Sizeof(Entry{}))
}
