package task

// SuccessorGenerator lists the operators applicable in a state
type SuccessorGenerator interface {
	// Append applicable operators of 's' to 'out' and return it
	ApplicableOps(s State, out []*Operator) []*Operator
}

// Indexes operators by their first precondition, so that only
// the operators matching that fact need a full applicability check
type FlatGenerator struct {
	byFact map[Fact][]*Operator
	always []*Operator
}

func NewFlatGenerator(ops []*Operator) *FlatGenerator {
	g := &FlatGenerator{byFact: make(map[Fact][]*Operator)}
	for _, op := range ops {
		if len(op.Pre) == 0 {
			g.always = append(g.always, op)
			continue
		}
		f := op.Pre[0]
		g.byFact[f] = append(g.byFact[f], op)
	}
	return g
}

func (g *FlatGenerator) ApplicableOps(s State, out []*Operator) []*Operator {
	out = append(out, g.always...)
	for v, val := range s.values {
		for _, op := range g.byFact[Fact{v, val}] {
			if op.Applicable(s) {
				out = append(out, op)
			}
		}
	}
	return out
}
