package task

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// YAML representation of a task:
//
//	metric: true
//	variables:
//	  - {name: x, domain: 2}
//	  - {name: reached, domain: 2, derived: true}
//	init: {x: 0}
//	goal: {reached: 1}
//	operators:
//	  - name: set-x
//	    cost: 3
//	    pre: {x: 0}
//	    eff: {x: 1}
//	    cond_eff:
//	      - {when: {x: 0}, set: {x: 1}}
//	axioms:
//	  - {layer: 0, when: {x: 1}, set: {reached: 1}}
type fileTask struct {
	Metric    bool           `yaml:"metric"`
	Variables []fileVariable `yaml:"variables"`
	Init      map[string]int `yaml:"init"`
	Goal      map[string]int `yaml:"goal"`
	Operators []fileOperator `yaml:"operators"`
	Axioms    []fileRule     `yaml:"axioms"`
}

type fileVariable struct {
	Name    string `yaml:"name"`
	Domain  int    `yaml:"domain"`
	Derived bool   `yaml:"derived"`
	Default int    `yaml:"default"`
}

type fileOperator struct {
	Name    string         `yaml:"name"`
	Cost    *int           `yaml:"cost"`
	Pre     map[string]int `yaml:"pre"`
	Eff     map[string]int `yaml:"eff"`
	CondEff []fileRule     `yaml:"cond_eff"`
}

type fileRule struct {
	Layer int            `yaml:"layer"`
	When  map[string]int `yaml:"when"`
	Set   map[string]int `yaml:"set"`
}

func LoadFile(path string) (*Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Task, error) {
	var ft fileTask
	if err := yaml.Unmarshal(data, &ft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTask, err)
	}

	t := &Task{UseMetric: ft.Metric}
	index := make(map[string]int, len(ft.Variables))
	for i, v := range ft.Variables {
		if _, dup := index[v.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate variable %q", ErrMalformedTask, v.Name)
		}
		if v.Domain < 1 {
			return nil, fmt.Errorf("%w: variable %q has empty domain", ErrMalformedTask, v.Name)
		}
		index[v.Name] = i
		t.Vars = append(t.Vars, Variable{Name: v.Name, Domain: v.Domain, Derived: v.Derived, Default: v.Default})
	}

	facts := func(m map[string]int) ([]Fact, error) {
		out := make([]Fact, 0, len(m))
		for name, val := range m {
			v, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
			}
			out = append(out, Fact{v, val})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Var < out[j].Var })
		return out, nil
	}

	init := make([]int, len(t.Vars))
	for i, v := range t.Vars {
		init[i] = v.Default
	}
	initFacts, err := facts(ft.Init)
	if err != nil {
		return nil, err
	}
	for _, f := range initFacts {
		init[f.Var] = f.Val
	}
	t.Init = NewState(init)

	if t.Goal, err = facts(ft.Goal); err != nil {
		return nil, err
	}

	for _, fo := range ft.Operators {
		op := &Operator{Name: fo.Name, Cost: 1}
		if fo.Cost != nil {
			op.Cost = *fo.Cost
		}
		if op.Pre, err = facts(fo.Pre); err != nil {
			return nil, err
		}
		eff, err := facts(fo.Eff)
		if err != nil {
			return nil, err
		}
		for _, f := range eff {
			op.Eff = append(op.Eff, Effect{Var: f.Var, Val: f.Val})
		}
		for _, rule := range fo.CondEff {
			cond, err := facts(rule.When)
			if err != nil {
				return nil, err
			}
			set, err := facts(rule.Set)
			if err != nil {
				return nil, err
			}
			for _, f := range set {
				op.Eff = append(op.Eff, Effect{Cond: cond, Var: f.Var, Val: f.Val})
			}
		}
		t.Operators = append(t.Operators, op)
	}

	for _, rule := range ft.Axioms {
		cond, err := facts(rule.When)
		if err != nil {
			return nil, err
		}
		set, err := facts(rule.Set)
		if err != nil {
			return nil, err
		}
		for _, f := range set {
			t.Axioms = append(t.Axioms, Axiom{Cond: cond, Var: f.Var, Val: f.Val, Layer: rule.Layer})
		}
	}

	if err := t.Finalize(); err != nil {
		return nil, err
	}
	return t, nil
}
