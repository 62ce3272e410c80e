package task

import (
	"fmt"
	"io"
	"strings"
)

// Ordered operator sequence, applicable from the initial state
type Plan []*Operator

// True cost of the plan
func (p Plan) Cost() int {
	cost := 0
	for _, op := range p {
		cost += op.Cost
	}
	return cost
}

func (p Plan) Clone() Plan {
	c := make(Plan, len(p))
	copy(c, p)
	return c
}

// Write the plan, one '(operator name)' per line
func (p Plan) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, op := range p {
		n, err := fmt.Fprintf(w, "(%s)\n", op.Name)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (p Plan) String() string {
	names := make([]string, len(p))
	for i, op := range p {
		names[i] = op.Name
	}
	return strings.Join(names, " ")
}
