package mrw

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParams       = errors.New("invalid MRW parameters")
	ErrDeadEndInitialState = errors.New("initial state is a dead end")
	ErrNoConfigs           = errors.New("no MRW configurations")
)

// Action selection policy of a random walk
type WalkType int

const (
	// Uniform among applicable operators
	Pure WalkType = iota
	// Monte-Carlo dead-end avoidance, operators appearing in failed walks are avoided
	MDA
	// Monte-Carlo helpful actions, operators preferred at walk endpoints are favoured
	MHA
)

func (w WalkType) String() string {
	switch w {
	case Pure:
		return "PURE"
	case MDA:
		return "MDA"
	case MHA:
		return "MHA"
	}
	return fmt.Sprintf("WalkType(%d)", int(w))
}

// Where on the trajectory a walk starts
type StepType int

const (
	// The trajectory's tip
	StepState StepType = iota
	// Uniformly random node
	StepPath
	// Random node biased towards low heuristic ratios
	StepHPath
)

func (s StepType) String() string {
	switch s {
	case StepState:
		return "STATE"
	case StepPath:
		return "PATH"
	case StepHPath:
		return "H_PATH"
	}
	return fmt.Sprintf("StepType(%d)", int(s))
}

// Pruning of pool walks against the solution bound
type Pruning int

const (
	PruneNone Pruning = iota
	// by cost plus heuristic value
	PruneF
	// by cost
	PruneG
)

func (p Pruning) String() string {
	switch p {
	case PruneNone:
		return "NONE"
	case PruneF:
		return "F_PRUNING"
	case PruneG:
		return "G_PRUNING"
	}
	return fmt.Sprintf("Pruning(%d)", int(p))
}

// Params is a single MRW configuration, an arm of the learner
type Params struct {
	Heuristic  string
	WalkType   WalkType
	LengthWalk int
	// Steps between dead-end checks inside a walk, 0 checks only the endpoint
	LengthJump int
	NumWalk    int
	// Non-improving jumps allowed before restarting
	MaxSteps int
	StepType StepType
	// Gibbs sampling temperature of MDA and MHA walks
	Temp float64
	// Temperature of the H_PATH start point bias
	PathTemp     float64
	Conservative bool
	Deepening    bool
	// Fraction of NumWalk without improvement before walks are extended
	ExtPeriod   float64
	ExtRate     float64
	Alpha       float64
	TieBreaking bool
	Bounding    Pruning
}

func DefaultParams() Params {
	return Params{
		Heuristic:   "FF",
		WalkType:    Pure,
		LengthWalk:  10,
		LengthJump:  0,
		NumWalk:     2000,
		MaxSteps:    7,
		StepType:    StepState,
		Temp:        10,
		PathTemp:    10,
		Deepening:   true,
		ExtPeriod:   0.1,
		ExtRate:     1.5,
		Alpha:       0.9,
		TieBreaking: true,
		Bounding:    PruneNone,
	}
}

func (p Params) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
	}
	switch {
	case p.Heuristic == "":
		return fail("no heuristic")
	case p.LengthWalk < 1:
		return fail("length_walk %d < 1", p.LengthWalk)
	case p.LengthJump < 0:
		return fail("length_jump %d < 0", p.LengthJump)
	case p.NumWalk < 1:
		return fail("num_walk %d < 1", p.NumWalk)
	case p.MaxSteps < 0:
		return fail("max_steps %d < 0", p.MaxSteps)
	case p.Temp <= 0 || p.PathTemp <= 0:
		return fail("temperatures must be positive")
	case p.ExtPeriod < 0 || p.ExtRate < 1:
		return fail("ext_period must be >= 0 and ext_rate >= 1")
	case p.Alpha < 0 || p.Alpha > 1:
		return fail("alpha %v not in [0, 1]", p.Alpha)
	case p.StepType == StepHPath && !p.Conservative:
		return fail("H_PATH steps require conservative trajectory updates")
	}
	return nil
}

type RestartType int

const (
	RestartBasic RestartType = iota
	// Restart from the walk pool
	RestartSmart
)

func (r RestartType) String() string {
	if r == RestartSmart {
		return "SMART"
	}
	return "BASIC"
}

// SharedParams configure what every MRW worker shares
type SharedParams struct {
	Restart        RestartType
	PoolSize       int
	PoolActivation int
	UCBConst       float64
	// Pick the least used configuration instead of UCB1
	Dovetail     bool
	AdjustOnline bool

	RunBooster bool
	BoosterKB  float64
	// seconds, -1 for none
	BoosterTime float64

	NumThreads int
	// seconds, -1 for none
	TimeLimit float64
}

func DefaultSharedParams() SharedParams {
	return SharedParams{
		Restart:        RestartBasic,
		PoolSize:       50,
		PoolActivation: 50,
		UCBConst:       0.2,
		BoosterKB:      -1,
		BoosterTime:    -1,
		NumThreads:     1,
		TimeLimit:      -1,
	}
}

func (p SharedParams) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
	}
	switch {
	case p.PoolSize < 1 || p.PoolActivation < 1:
		return fail("pool_size and pool_act must be >= 1")
	case !p.Dovetail && p.UCBConst < 0:
		return fail("ucb_const %v < 0", p.UCBConst)
	case p.NumThreads < 1:
		return fail("num_threads %d < 1", p.NumThreads)
	case p.TimeLimit >= 0 && p.NumThreads > 1:
		return fail("mrw_time_limit requires a single thread")
	}
	return nil
}
