package config

import (
	"slices"
	"strings"

	"github.com/IlikeChooros/go-arvand/pkg/heuristic"
	"github.com/IlikeChooros/go-arvand/pkg/wastar"
)

// ParseWA reads a WA* configuration such as
//
//	-heur FF -pref FF -weight_list [-1,5,3,2,1] -rand_open -epsilon 0.1
//
// At least one -heur is required, the weights default to a single GBFS pass
func ParseWA(conf string) (wastar.Params, error) {
	p := wastar.DefaultParams()
	p.Heuristics, p.Preferred, p.Weights = nil, nil, nil
	s := newScanner("WA* config", conf)

	for {
		flag, ok, err := s.flag()
		if err != nil {
			return p, err
		}
		if !ok {
			break
		}

		switch flag {
		case "-heur", "-pref":
			v, err := s.value(flag)
			if err != nil {
				return p, err
			}
			name := strings.ToUpper(v)
			if !heuristic.Known(name) {
				return p, s.errorf("%s is an invalid heuristic", v)
			}
			list := &p.Heuristics
			if flag == "-pref" {
				list = &p.Preferred
			}
			if slices.Contains(*list, name) {
				return p, s.errorf("%s entered twice for %s", v, flag)
			}
			*list = append(*list, name)
			continue
		case "-rand_open", "-run_aras", "-ignore_costs", "-loop_weights":
			if err := s.once(flag); err != nil {
				return p, err
			}
			switch flag {
			case "-rand_open":
				p.RandOpen = true
			case "-run_aras":
				p.RunBooster = true
			case "-ignore_costs":
				p.IgnoreCosts = true
			case "-loop_weights":
				p.LoopWeights = true
			}
			continue
		}

		if err := s.once(flag); err != nil {
			return p, err
		}
		switch flag {
		case "-weight_list":
			p.Weights, err = s.weightList(flag)
		case "-p_reward":
			p.PreferredReward, err = s.intValue(flag)
		case "-mem_limit":
			p.KBLimit, err = s.limitValue(flag)
		case "-aras_mem":
			p.BoosterKB, err = s.limitValue(flag)
		case "-aras_time":
			p.BoosterTime, err = s.limitValue(flag)
		case "-epsilon":
			p.Epsilon, err = s.floatValue(flag)
			if err == nil && (p.Epsilon < 0 || p.Epsilon > 1) {
				err = s.errorf("-epsilon value must be in the range [0,1]")
			}
		case "-init_exp_limit":
			var n int
			n, err = s.intValue(flag)
			if err == nil && n <= 0 {
				err = s.errorf("-init_exp_limit value must be in the range (0,infty)")
			}
			p.InitNodeLimit = int64(n)
		case "-exp_limit_factor":
			p.NodeLimitFactor, err = s.floatValue(flag)
			if err == nil && p.NodeLimitFactor < 1 {
				err = s.errorf("-exp_limit_factor value must be in the range [1,infty)")
			}
		case "-h_range":
			p.HRange, err = s.intValue(flag)
			if err == nil && p.HRange < 0 {
				err = s.errorf("-h_range value must be in the range [0,infty)")
			}
		case "-bound_type":
			var b int
			b, err = s.enumValue(flag, "FULL", "NONE", "WA", "DAS")
			p.Bounding = wastar.Bounding(b)
		default:
			err = s.errorf("invalid option %s", flag)
		}
		if err != nil {
			return p, err
		}
	}

	if len(p.Heuristics) == 0 {
		return p, s.errorf("can't give a WA* config without any heuristics")
	}
	if !p.RunBooster && (s.set("-aras_mem") || s.set("-aras_time")) {
		return p, s.errorf("booster limits set without -run_aras")
	}
	if len(p.Weights) == 0 {
		p.Weights = []int{wastar.GBFS}
	}
	return p, nil
}
