package mrw

import "github.com/IlikeChooros/go-arvand/pkg/task"

// Node is a state on the trajectory
type Node struct {
	State task.State
	// Operator leading to the state, nil for the initial state
	Op *task.Operator
	// Heuristic value relative to the trajectory's initial value, -1 if not evaluated
	HRatio float64
	// Accumulated true cost
	Cost int
	// Heuristic value, -1 if not evaluated
	H int
}

func rootNode(s task.State) Node {
	return Node{State: s, HRatio: 1, H: -1}
}

// Operators from the root to the tip
func pathOf(nodes []Node) task.Plan {
	p := make(task.Plan, 0, len(nodes))
	for _, n := range nodes {
		if n.Op != nil {
			p = append(p, n.Op)
		}
	}
	return p
}

// Ratio of 'h' to the initial heuristic value. A zero initial value gives 0,
// or 1 if 'h' is not zero
func ratio(h, init int) float64 {
	switch {
	case init != 0:
		return float64(h) / float64(init)
	case h != 0:
		return 1
	}
	return 0
}
