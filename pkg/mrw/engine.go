package mrw

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"

	"github.com/IlikeChooros/go-arvand/pkg/heuristic"
	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/IlikeChooros/go-arvand/pkg/task"
	"github.com/IlikeChooros/go-arvand/pkg/walkpool"
)

// Engine is a Monte-Carlo random walk search. It keeps a trajectory from the
// initial state, jumps to the endpoint of the best walk of each batch and
// restarts when the trajectory stops improving
type Engine struct {
	shared   *Shared
	name     string
	task     *task.Task
	rand     *rand.Rand
	logger   *slog.Logger
	listener *search.Listener
	limiter  *search.Limiter
	walker   *Walker
	ctx      context.Context

	heuristics []heuristic.Heuristic
	initValues []int

	configID int
	params   Params
	hIndex   int
	h        heuristic.Heuristic
	currInit int

	trajectory []Node
	checkpoint []Node
	bias       []float64
	sumBias    float64

	totalMin           int
	currentMin         int
	initialValue       int
	acceptableProgress float64
	numJumps           int
	firstStep          bool
	localBound         int

	plan task.Plan
	err  error

	steps    int
	walks    int
	walked   int
	deadEnds int
	restarts int
	status   search.Status
}

func New(shared *Shared, name string, r *rand.Rand) *Engine {
	limits := search.DefaultLimits()
	if shared.Params.TimeLimit > 0 {
		limits.SetSeconds(shared.Params.TimeLimit)
	}
	e := &Engine{
		shared:   shared,
		name:     name,
		task:     shared.Task,
		rand:     r,
		logger:   logging.Discard(),
		limiter:  search.NewLimiter().SetLimits(limits),
		walker:   NewWalker(shared.Task, r),
		ctx:      context.Background(),
		configID: -1,
	}
	for _, n := range shared.heuristicNames() {
		h, err := heuristic.New(n, shared.Task)
		if err != nil {
			// names are checked by NewShared
			panic(err)
		}
		e.heuristics = append(e.heuristics, h)
	}
	return e
}

func (e *Engine) SetLogger(l *slog.Logger) *Engine {
	e.logger = logging.OrDiscard(l).With("engine", e.name)
	return e
}

func (e *Engine) SetListener(l *search.Listener) *Engine {
	e.listener = l
	return e
}

// Override the wall-clock budget, in seconds, -1 for none
func (e *Engine) SetTimeLimit(seconds float64) *Engine {
	e.limiter.Limits().SetSeconds(seconds)
	if seconds < 0 {
		e.limiter.Limits().SetInfinite(true)
	}
	return e
}

func (e *Engine) Name() string         { return e.name }
func (e *Engine) Plan() task.Plan      { return e.plan }
func (e *Engine) Trajectory() []Node   { return e.trajectory }
func (e *Engine) Config() (int, Params) { return e.configID, e.params }

func (e *Engine) Search(ctx context.Context) (search.Status, error) {
	e.ctx = ctx
	status, err := search.Run(ctx, e, e.limiter)
	if err == nil {
		err = e.err
	}
	e.status = status
	e.logger.Info("search finished",
		"status", status,
		"walks", e.walks,
		"dead_ends", e.deadEnds,
		"restarts", e.restarts,
		"elapsed", e.limiter.Timer.Elapsed(),
	)
	e.listener.InvokeStop(e.Stats())
	return status, err
}

func (e *Engine) Stats() search.Stats {
	cost := -1
	if e.plan != nil {
		cost = e.plan.Cost()
	}
	return search.Stats{
		Engine:    e.name,
		Expanded:  e.steps,
		Generated: e.walked,
		Evaluated: e.walks,
		DeadEnds:  e.deadEnds,
		BestH:     []int{e.totalMin},
		Cost:      cost,
		Elapsed:   e.limiter.Timer.Elapsed(),
		Status:    e.status,
	}
}

func (e *Engine) Initialize() error {
	e.logger.Info("starting MRW", "configs", len(e.shared.Configs), "restart", e.shared.Params.Restart)

	e.initValues = e.initValues[:0]
	for _, h := range e.heuristics {
		h.Evaluate(e.task.Init)
		if h.IsDeadEnd() {
			return fmt.Errorf("%w (%s)", ErrDeadEndInitialState, h.Name())
		}
		e.initValues = append(e.initValues, h.Value())
		e.logger.Info("initial heuristic value", "heuristic", h.Name(), "h", h.Value())
	}

	e.numJumps = 0
	e.configID = -1
	e.acceptableProgress = math.MaxInt32
	e.plan = nil
	e.err = nil
	e.status = search.InProgress
	e.steps, e.walks, e.walked, e.deadEnds, e.restarts = 0, 0, 0, 0, 0

	e.setParams()
	e.initialValue = e.currInit
	e.totalMin = e.currInit
	e.trajectory = []Node{rootNode(e.task.Init)}
	e.checkpoint = slices.Clone(e.trajectory)
	e.firstStep = true
	e.localBound = -1
	return nil
}

// Reward the finished configuration and select the next one
func (e *Engine) setParams() {
	l := e.shared.Learner
	if e.configID != -1 {
		l.Update(e.configID, e.totalMin, e.currInit)
	}
	arm, budget := l.Config()
	e.configID = arm
	e.params = e.shared.Configs[arm]
	e.params.NumWalk = budget.NumWalk
	e.params.MaxSteps = budget.MaxSteps
	if e.shared.OnConfig != nil {
		e.shared.OnConfig(arm)
	}

	e.hIndex = slices.Index(e.shared.heuristicNames(), e.params.Heuristic)
	e.h = e.heuristics[e.hIndex]
	e.currInit = e.initValues[e.hIndex]
	e.logger.Debug("selecting config",
		"config", arm,
		"walk_type", e.params.WalkType,
		"num_walk", e.params.NumWalk,
		"max_steps", e.params.MaxSteps,
	)
}

func (e *Engine) hRatio(h int) float64 {
	switch {
	case e.currInit != 0:
		return float64(h) / float64(e.currInit)
	case e.totalMin != 0:
		return 1
	}
	return 0
}

func (e *Engine) computeBiases() {
	e.bias = e.bias[:0]
	e.sumBias = 0
	walkValue := ratio(e.totalMin, e.currInit)
	for _, n := range e.trajectory {
		b := math.Exp((walkValue - n.HRatio) / e.params.PathTemp)
		e.bias = append(e.bias, b)
		e.sumBias += b
	}
}

func (e *Engine) selectInitialPoint() int {
	switch e.params.StepType {
	case StepState:
		return len(e.trajectory) - 1
	case StepPath:
		return e.rand.Intn(len(e.trajectory))
	}

	r := e.rand.Float64()
	sum := 0.0
	for i := len(e.bias) - 1; i >= 0; i-- {
		sum += e.bias[i] / e.sumBias
		if r <= sum {
			return i
		}
	}
	// rounding left the sum just below 'r'
	return len(e.bias) - 1
}

func (e *Engine) Step() search.Status {
	if e.params.StepType == StepHPath {
		e.computeBiases()
	}
	e.steps++

	var (
		bestPath      task.Plan
		minCost       = math.MaxInt
		argMin        = -1
		lastEffective = 0
		numDeadEnds   = 0
		branching     = 0.0
		lengthWalk    = float64(e.params.LengthWalk)
		lengthJump    = float64(e.params.LengthJump)
		i             int
	)
	e.currentMin = DeadEndValue

	params := e.params
	e.walker.Prepare(params, e.h)

	for i = 0; i < e.params.NumWalk; i++ {
		index := e.selectInitialPoint()
		node := e.trajectory[index]

		// some other worker has found a solution
		if !e.shared.Iterative && e.shared.Register.Found() {
			e.plan = e.shared.Register.BestPlan()
			return search.Solved
		}

		walkBound := Unbounded
		if e.localBound != -1 {
			walkBound = e.localBound - node.Cost
			if walkBound < 0 {
				e.walks++
				numDeadEnds++
				e.deadEnds++
				continue
			}
		}

		params.LengthJump = int(lengthJump)
		e.walker.params = params
		info := e.walker.Walk(node.State, int(lengthWalk), walkBound)
		e.walks++
		realLength := int(lengthWalk) + info.LengthOffset
		e.walked += realLength
		if realLength > 0 {
			branching += float64(info.Branching) / float64(realLength)
		}

		if info.Value == DeadEndValue {
			numDeadEnds++
			e.deadEnds++
			continue
		}

		if info.GoalVisited {
			return e.acceptGoal(index, info.Path)
		}

		prev := e.currentMin
		e.updateCurrentMin(i, index, info, info.Cost+node.Cost, &bestPath, &minCost, &argMin)
		progress := e.totalMin - info.Value
		if float64(progress) > e.acceptableProgress && !e.firstStep {
			break
		}

		if e.params.Deepening {
			n := int(float64(e.params.NumWalk) * e.params.ExtPeriod)
			if e.currentMin < prev {
				lastEffective = i
			} else if i-lastEffective > n {
				lengthWalk *= e.params.ExtRate
				lengthJump *= e.params.ExtRate
				lastEffective = i
			}
		}
	}

	e.updateAcceptableProgress()
	e.logger.Debug("walk batch",
		"walks", i+1,
		"failure_rate", float64(numDeadEnds)/float64(i+1),
		"avg_branching", branching/float64(i+1),
		"acceptable_progress", e.acceptableProgress,
		"jumps", e.numJumps,
	)

	if len(bestPath) == 0 {
		e.restart()
		return search.InProgress
	}

	e.updateTrajectory(argMin, bestPath)
	e.updateTotalMin()
	if e.numJumps == 0 {
		e.checkpoint = slices.Clone(e.trajectory)
	} else if e.numJumps > e.params.MaxSteps {
		e.restart()
		return search.InProgress
	}
	e.firstStep = false
	return search.InProgress
}

// A walk reached the goal: save the plan, tighten the bound and restart
func (e *Engine) acceptGoal(index int, path task.Plan) search.Status {
	e.currentMin = 0
	e.totalMin = 0
	e.splice(index, path, false)
	if !e.task.IsGoal(e.trajectory[len(e.trajectory)-1].State) {
		panic("mrw: accepted walk does not end in a goal state")
	}

	p := pathOf(e.trajectory)
	cost, err := e.shared.Register.Save(p, e.name)
	if err != nil {
		e.err = err
		return search.Failed
	}
	e.localBound = cost - 1
	e.plan = p
	e.logger.Info("solution found", "cost", cost, "length", len(p), "walks", e.walks)
	e.listener.InvokeSolution(e.Stats())

	if err := e.postprocess(p); err != nil {
		e.err = err
		return search.Failed
	}

	e.checkpoint = slices.Clone(e.trajectory)
	if !e.shared.Iterative {
		return search.Solved
	}
	e.restart()
	return search.InProgress
}

func (e *Engine) postprocess(p task.Plan) error {
	if !e.shared.Params.RunBooster || e.shared.Booster == nil {
		return nil
	}
	improved, err := e.shared.Booster.Improve(e.ctx, p, e.name)
	if err != nil {
		return err
	}
	if improved.Cost() < p.Cost() {
		e.localBound = min(e.localBound, improved.Cost()-1)
		e.plan = improved
	}
	e.splice(0, improved, false)
	return nil
}

func (e *Engine) updateCurrentMin(walk, index int, info WalkInfo, cost int, bestPath *task.Plan, minCost, argMin *int) {
	switch {
	case info.Value < e.currentMin:
		*argMin = index
		e.currentMin = info.Value
		if e.currentMin < e.totalMin {
			e.logger.Debug("heuristic improved", "h", e.currentMin, "walk", walk)
		}
		*bestPath = info.Path
		*minCost = cost
	case e.params.TieBreaking && info.Value == e.currentMin && cost < *minCost:
		*bestPath = info.Path
		*argMin = index
		*minCost = cost
	}
}

func (e *Engine) evaluatesNodes() bool {
	return e.params.Conservative ||
		(e.shared.Params.Restart == RestartSmart && e.params.Bounding != PruneNone)
}

// Replace the trajectory after 'index' with the nodes reached by 'path'
func (e *Engine) updateTrajectory(index int, path task.Plan) {
	if e.params.Conservative && e.currentMin >= e.totalMin {
		return
	}
	e.splice(index, path, e.params.Conservative)
}

func (e *Engine) splice(index int, path task.Plan, truncate bool) {
	if index < 0 || index >= len(e.trajectory) {
		panic(fmt.Sprintf("mrw: trajectory index %d out of range [0, %d)", index, len(e.trajectory)))
	}
	e.trajectory = e.trajectory[:index+1]

	evaluate := e.evaluatesNodes()
	minH := e.totalMin
	argMin := len(e.trajectory) - 1
	tip := e.trajectory[len(e.trajectory)-1]
	state, cost := tip.State, tip.Cost

	for _, op := range path {
		if !op.Applicable(state) {
			panic("mrw: inapplicable operator " + op.Name + " on the trajectory")
		}
		state = e.task.Apply(state, op)
		cost += op.Cost

		if !evaluate {
			e.trajectory = append(e.trajectory, Node{State: state, Op: op, HRatio: -1, Cost: cost, H: -1})
			continue
		}
		e.h.SetRecompute(state)
		e.h.Evaluate(state)
		h := DeadEndValue
		if !e.h.IsDeadEnd() {
			h = e.h.Value()
		}
		e.trajectory = append(e.trajectory, Node{State: state, Op: op, HRatio: e.hRatio(h), Cost: cost, H: h})
		if h < minH {
			argMin = len(e.trajectory) - 1
			minH = h
		}
	}

	if truncate {
		e.trajectory = e.trajectory[:argMin+1]
		e.currentMin = minH
	}
}

func (e *Engine) updateAcceptableProgress() {
	improvement := max(e.totalMin-e.currentMin, 0)
	if e.firstStep {
		e.acceptableProgress = float64(improvement)
	} else {
		e.acceptableProgress = (1-e.params.Alpha)*e.acceptableProgress + e.params.Alpha*float64(improvement)
	}
	if e.acceptableProgress < 0.001 {
		e.acceptableProgress = 0
	}
}

func (e *Engine) updateTotalMin() {
	if e.currentMin < e.totalMin {
		e.totalMin = e.currentMin
		e.numJumps = 0
		e.listener.InvokeProgress(e.Stats())
		return
	}
	e.numJumps++
}

func (e *Engine) basicRestart() {
	e.trajectory = []Node{rootNode(e.task.Init)}
	e.checkpoint = slices.Clone(e.trajectory)
}

func (e *Engine) smartRestart() {
	// other heuristics may recognize the checkpoint's tail as a dead end
	for len(e.checkpoint) > 1 {
		tail := e.checkpoint[len(e.checkpoint)-1].State
		deadEnd := false
		for i, h := range e.heuristics {
			if i == e.hIndex {
				continue
			}
			h.SetRecompute(tail)
			h.Evaluate(tail)
			if h.IsDeadEnd() {
				deadEnd = true
				break
			}
		}
		if !deadEnd {
			break
		}
		e.checkpoint = e.checkpoint[:len(e.checkpoint)-1]
	}

	pool := e.shared.Pool
	pool.Add(e.checkpoint, ratio(e.totalMin, e.currInit), e.name)
	walk := &walkpool.Walk[Node]{Nodes: e.checkpoint}
	if pool.Active() {
		if w := pool.RandomWalk(e.rand); w != nil {
			walk = w
		}
	} else {
		e.logger.Debug("walk pool inactive, restarting from checkpoint", "size", pool.Len())
	}
	if e.params.Bounding != PruneNone && e.localBound != -1 {
		if removed := pool.Prune(e.localBound, e.pruneFloor); removed > 0 {
			e.logger.Debug("pruned walk pool", "removed", removed, "bound", e.localBound)
		}
	}

	e.trajectory = walkpool.RandomSubsequence(walk, e.rand)
	e.checkpoint = slices.Clone(e.trajectory)
}

// Lower bound on the cost of a plan through the node
func (e *Engine) pruneFloor(n Node) int {
	if e.params.Bounding == PruneF && n.H >= 0 && n.H != DeadEndValue {
		return n.Cost + n.H
	}
	return n.Cost
}

func (e *Engine) restart() {
	e.restarts++
	if e.shared.Params.Restart == RestartSmart {
		e.smartRestart()
	} else {
		e.basicRestart()
	}
	e.setParams()

	if e.shared.Params.Restart == RestartBasic {
		e.initialValue = e.currInit
	} else {
		tip := e.trajectory[len(e.trajectory)-1].State
		e.h.SetRecompute(tip)
		e.h.Evaluate(tip)
		if e.h.IsDeadEnd() {
			e.basicRestart()
			e.initialValue = e.currInit
		} else {
			e.initialValue = e.h.Value()
		}
	}

	e.totalMin = e.initialValue
	e.numJumps = 0
	e.firstStep = true
	e.logger.Debug("restart", "count", e.restarts, "trajectory", len(e.trajectory), "h", e.initialValue)
	e.listener.InvokeRestart(e.Stats())
}
