package plan

import (
	"fmt"
	"os"
	"sync"

	"github.com/IlikeChooros/go-arvand/pkg/task"
)

// Writer persists improving plans, 'seq' counts from 1
type Writer interface {
	Write(p task.Plan, seq int) error
}

// Writes plans to 'Path', or to 'Path.seq' when iterative
type FileWriter struct {
	Path      string
	Iterative bool
}

func (w *FileWriter) Name(seq int) string {
	if w.Iterative {
		return fmt.Sprintf("%s.%d", w.Path, seq)
	}
	return w.Path
}

func (w *FileWriter) Write(p task.Plan, seq int) error {
	f, err := os.Create(w.Name(seq))
	if err != nil {
		return err
	}
	if _, err := p.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Keeps plans in memory
type MemoryWriter struct {
	mu    sync.Mutex
	plans []task.Plan
}

func (w *MemoryWriter) Write(p task.Plan, _ int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.plans = append(w.plans, p.Clone())
	return nil
}

func (w *MemoryWriter) Plans() []task.Plan {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]task.Plan, len(w.plans))
	copy(out, w.plans)
	return out
}
