package config

import (
	"fmt"
	"strings"

	"github.com/IlikeChooros/go-arvand/pkg/heuristic"
	"github.com/IlikeChooros/go-arvand/pkg/mrw"
)

// ParseShared reads the configuration every MRW worker shares, e.g.
//
//	-res_type SMART -pool_size 20 -pool_act 10 -num_threads 4
func ParseShared(conf string) (mrw.SharedParams, error) {
	p := mrw.DefaultSharedParams()
	s := newScanner("shared MRW config", conf)

	for {
		flag, ok, err := s.flag()
		if err != nil {
			return p, err
		}
		if !ok {
			break
		}
		if err := s.once(flag); err != nil {
			return p, err
		}

		switch flag {
		case "-run_aras":
			p.RunBooster = true
		case "-dovetail":
			if s.set("-ucb_const") {
				return p, s.errorf("can't enter -dovetail and a -ucb_const")
			}
			p.Dovetail = true
		case "-adjust_online":
			p.AdjustOnline = true
		case "-ucb_const":
			if s.set("-dovetail") {
				return p, s.errorf("can't enter -dovetail and a -ucb_const")
			}
			p.UCBConst, err = s.floatValue(flag)
			if err == nil && p.UCBConst < 0 {
				err = s.errorf("-ucb_const value must be in the range [0,infty)")
			}
		case "-pool_size":
			p.PoolSize, err = s.intValue(flag)
			if err == nil && p.PoolSize < 1 {
				err = s.errorf("-pool_size must be in the range [1,infty)")
			}
		case "-pool_act":
			p.PoolActivation, err = s.intValue(flag)
			if err == nil && p.PoolActivation < 1 {
				err = s.errorf("-pool_act must be in the range [1,infty)")
			}
		case "-aras_time":
			p.BoosterTime, err = s.limitValue(flag)
		case "-aras_mem":
			p.BoosterKB, err = s.limitValue(flag)
		case "-mrw_time_limit":
			p.TimeLimit, err = s.floatValue(flag)
			if err == nil && p.TimeLimit != -1 && p.TimeLimit < 0 {
				err = s.errorf("-mrw_time_limit must be in {-1} U [0, infty)")
			}
		case "-num_threads":
			p.NumThreads, err = s.intValue(flag)
			if err == nil && p.NumThreads < 1 {
				err = s.errorf("number of threads must be positive")
			}
		case "-res_type":
			var r int
			r, err = s.enumValue(flag, "BASIC", "SMART")
			p.Restart = mrw.RestartType(r)
		default:
			err = s.errorf("invalid option %s", flag)
		}
		if err != nil {
			return p, err
		}
	}

	switch {
	case p.Restart != mrw.RestartSmart && s.set("-pool_act"):
		return p, s.errorf("restart activation level set without smart restarting")
	case p.Restart != mrw.RestartSmart && s.set("-pool_size"):
		return p, s.errorf("pool size set without smart restarting")
	case !p.RunBooster && (s.set("-aras_mem") || s.set("-aras_time")):
		return p, s.errorf("booster limits set without -run_aras")
	case p.TimeLimit >= 0 && p.NumThreads > 1:
		return p, s.errorf("-mrw_time_limit is not supported with more than one thread")
	}
	return p, nil
}

// ParseMRW reads a single MRW configuration, one arm of the learner, e.g.
//
//	-heur FF -walk_type MDA -length_walk 20 -num_walk 1000
func ParseMRW(conf string) (mrw.Params, error) {
	p := mrw.DefaultParams()
	s := newScanner("MRW config", conf)

	for {
		flag, ok, err := s.flag()
		if err != nil {
			return p, err
		}
		if !ok {
			break
		}
		if err := s.once(flag); err != nil {
			return p, err
		}

		switch flag {
		case "-heur":
			var v string
			v, err = s.value(flag)
			if err == nil && !heuristic.Known(v) {
				err = s.errorf("%s is an invalid heuristic", v)
			}
			p.Heuristic = strings.ToUpper(v)
		case "-walk_type":
			var w int
			w, err = s.enumValue(flag, "PURE", "MDA", "MHA")
			p.WalkType = mrw.WalkType(w)
		case "-step_type":
			var st int
			st, err = s.enumValue(flag, "STATE", "PATH", "H_PATH")
			p.StepType = mrw.StepType(st)
		case "-bounding":
			var b int
			b, err = s.enumValue(flag, "NONE", "F_PRUNING", "G_PRUNING")
			p.Bounding = mrw.Pruning(b)
		case "-length_walk":
			p.LengthWalk, err = s.intValue(flag)
		case "-length_jump":
			p.LengthJump, err = s.intValue(flag)
		case "-num_walk":
			p.NumWalk, err = s.intValue(flag)
		case "-max_steps":
			p.MaxSteps, err = s.intValue(flag)
		case "-temp":
			p.Temp, err = s.floatValue(flag)
		case "-path_temp":
			p.PathTemp, err = s.floatValue(flag)
		case "-ext_period":
			p.ExtPeriod, err = s.floatValue(flag)
		case "-ext_rate":
			p.ExtRate, err = s.floatValue(flag)
		case "-alpha":
			p.Alpha, err = s.floatValue(flag)
		case "-conservative":
			p.Conservative = true
		case "-deepening":
			p.Deepening, err = s.boolValue(flag)
		case "-tie_breaking":
			p.TieBreaking, err = s.boolValue(flag)
		default:
			err = s.errorf("invalid option %s", flag)
		}
		if err != nil {
			return p, err
		}
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return p, nil
}
