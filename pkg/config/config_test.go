package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/IlikeChooros/go-arvand/pkg/mrw"
	"github.com/IlikeChooros/go-arvand/pkg/wastar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"-heur", "FF", "-weight_list", "[-1, 5,3]"},
		tokenize("  -heur FF\t-weight_list [-1, 5,3] "),
	)
	assert.Empty(t, tokenize("   "))
}

func TestParseWA(t *testing.T) {
	p, err := ParseWA("-heur FF -heur goalcount -pref FF -weight_list [-1,5,3,2,1] -rand_open " +
		"-p_reward 500 -mem_limit 2048 -epsilon 0.25 -init_exp_limit 100 -exp_limit_factor 1.5 " +
		"-bound_type DAS -ignore_costs -loop_weights -run_aras -aras_mem 100 -aras_time 5 -h_range 2")
	require.NoError(t, err)

	assert.Equal(t, []string{"FF", "GOALCOUNT"}, p.Heuristics)
	assert.Equal(t, []string{"FF"}, p.Preferred)
	assert.Equal(t, []int{wastar.GBFS, 5, 3, 2, 1}, p.Weights)
	assert.True(t, p.RandOpen)
	assert.Equal(t, 500, p.PreferredReward)
	assert.Equal(t, 2048.0, p.KBLimit)
	assert.Equal(t, 0.25, p.Epsilon)
	assert.Equal(t, int64(100), p.InitNodeLimit)
	assert.Equal(t, 1.5, p.NodeLimitFactor)
	assert.Equal(t, wastar.BoundDAS, p.Bounding)
	assert.True(t, p.IgnoreCosts)
	assert.True(t, p.LoopWeights)
	assert.True(t, p.RunBooster)
	assert.Equal(t, 100.0, p.BoosterKB)
	assert.Equal(t, 5.0, p.BoosterTime)
	assert.Equal(t, 2, p.HRange)
}

func TestParseWADefaults(t *testing.T) {
	p, err := ParseWA("-heur FF")
	require.NoError(t, err)
	assert.Equal(t, []int{wastar.GBFS}, p.Weights)
	assert.Empty(t, p.Preferred)
	assert.Equal(t, wastar.DefaultPreferredReward, p.PreferredReward)
	assert.Equal(t, -1.0, p.KBLimit)
	assert.Equal(t, int64(-1), p.InitNodeLimit)
	assert.Equal(t, 2.0, p.NodeLimitFactor)
	assert.Equal(t, wastar.BoundFull, p.Bounding)
}

func TestParseWAErrors(t *testing.T) {
	cases := map[string]string{
		"no heuristic":        "-pref FF",
		"unknown heuristic":   "-heur LM_CUT",
		"duplicate heuristic": "-heur FF -heur ff",
		"duplicate flag":      "-heur FF -rand_open -rand_open",
		"missing value":       "-heur FF -epsilon",
		"epsilon range":       "-heur FF -epsilon 1.5",
		"bad number":          "-heur FF -p_reward lots",
		"mem range":           "-heur FF -mem_limit 0",
		"init limit":          "-heur FF -init_exp_limit 0",
		"factor":              "-heur FF -exp_limit_factor 0.5",
		"bound type":          "-heur FF -bound_type HALF",
		"h range":             "-heur FF -h_range -2",
		"list format":         "-heur FF -weight_list 5,3",
		"list element":        "-heur FF -weight_list [5,-3]",
		"empty list":          "-heur FF -weight_list []",
		"booster limit":       "-heur FF -aras_time 5",
		"bare value":          "FF",
		"unknown":             "-heur FF -frobnicate",
	}
	for name, conf := range cases {
		_, err := ParseWA(conf)
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestParseShared(t *testing.T) {
	p, err := ParseShared("-res_type SMART -pool_size 20 -pool_act 10 -ucb_const 0.5 " +
		"-adjust_online -run_aras -aras_time 10 -num_threads 4")
	require.NoError(t, err)
	assert.Equal(t, mrw.RestartSmart, p.Restart)
	assert.Equal(t, 20, p.PoolSize)
	assert.Equal(t, 10, p.PoolActivation)
	assert.Equal(t, 0.5, p.UCBConst)
	assert.True(t, p.AdjustOnline)
	assert.True(t, p.RunBooster)
	assert.Equal(t, 10.0, p.BoosterTime)
	assert.Equal(t, -1.0, p.BoosterKB)
	assert.Equal(t, 4, p.NumThreads)

	p, err = ParseShared("")
	require.NoError(t, err)
	assert.Equal(t, mrw.DefaultSharedParams(), p)

	p, err = ParseShared("-dovetail -mrw_time_limit 30")
	require.NoError(t, err)
	assert.True(t, p.Dovetail)
	assert.Equal(t, 30.0, p.TimeLimit)
}

func TestParseSharedConflicts(t *testing.T) {
	cases := map[string]string{
		"pool without smart":     "-pool_size 10",
		"act without smart":      "-res_type BASIC -pool_act 10",
		"dovetail and ucb":       "-dovetail -ucb_const 1",
		"ucb and dovetail":       "-ucb_const 1 -dovetail",
		"booster limit":          "-aras_mem 100",
		"time limit and threads": "-num_threads 2 -mrw_time_limit 10",
		"threads":                "-num_threads 0",
		"ucb range":              "-ucb_const -1",
		"duplicate":              "-adjust_online -adjust_online",
		"restart type":           "-res_type FANCY",
	}
	for name, conf := range cases {
		_, err := ParseShared(conf)
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestParseMRW(t *testing.T) {
	p, err := ParseMRW("-heur goal_count -walk_type mha -length_walk 20 -length_jump 2 " +
		"-num_walk 100 -max_steps 3 -step_type H_PATH -temp 5 -path_temp 2 -conservative " +
		"-deepening false -ext_period 0.2 -ext_rate 2 -alpha 0.5 -tie_breaking false -bounding G_PRUNING")
	require.NoError(t, err)
	assert.Equal(t, "GOAL_COUNT", p.Heuristic)
	assert.Equal(t, mrw.MHA, p.WalkType)
	assert.Equal(t, 20, p.LengthWalk)
	assert.Equal(t, 2, p.LengthJump)
	assert.Equal(t, 100, p.NumWalk)
	assert.Equal(t, 3, p.MaxSteps)
	assert.Equal(t, mrw.StepHPath, p.StepType)
	assert.Equal(t, 5.0, p.Temp)
	assert.Equal(t, 2.0, p.PathTemp)
	assert.True(t, p.Conservative)
	assert.False(t, p.Deepening)
	assert.Equal(t, 0.2, p.ExtPeriod)
	assert.Equal(t, 2.0, p.ExtRate)
	assert.Equal(t, 0.5, p.Alpha)
	assert.False(t, p.TieBreaking)
	assert.Equal(t, mrw.PruneG, p.Bounding)

	p, err = ParseMRW("")
	require.NoError(t, err)
	assert.Equal(t, mrw.DefaultParams(), p)
}

func TestParseMRWErrors(t *testing.T) {
	_, err := ParseMRW("-step_type H_PATH")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, mrw.ErrInvalidParams)

	for _, conf := range []string{
		"-heur LM_CUT",
		"-walk_type LAZY",
		"-length_walk 0",
		"-deepening maybe",
		"-temp 1 -temp 2",
		"-alpha",
	} {
		_, err := ParseMRW(conf)
		assert.ErrorIs(t, err, ErrInvalidConfig, conf)
	}
}

func TestResolveDefaults(t *testing.T) {
	s, err := (&File{}).Resolve()
	require.NoError(t, err)
	assert.Nil(t, s.WA)
	require.True(t, s.RunsMRW())
	assert.Equal(t, []mrw.Params{mrw.DefaultParams()}, s.MRW)

	s, err = (&File{WA: "-heur FF"}).Resolve()
	require.NoError(t, err)
	require.NotNil(t, s.WA)
	assert.False(t, s.RunsMRW())

	s, err = (&File{WA: "-heur FF", Shared: "-num_threads 2"}).Resolve()
	require.NoError(t, err)
	require.True(t, s.RunsMRW())
	assert.Len(t, s.MRW, 1)
	assert.Equal(t, 2, s.Shared.NumThreads)

	s, err = (&File{MRW: []string{"-walk_type MDA", "-walk_type MHA"}}).Resolve()
	require.NoError(t, err)
	require.NotNil(t, s.Shared)
	assert.Equal(t, mrw.DefaultSharedParams(), *s.Shared)
	assert.Equal(t, mrw.MHA, s.MRW[1].WalkType)
}

func TestResolveErrors(t *testing.T) {
	for _, f := range []File{
		{WA: "-weight_list [1]"},
		{MRW: []string{"-num_walk 0"}},
		{Shared: "-pool_act 3"},
		{Log: LogConfig{Level: "loud"}},
		{TimeLimit: -1},
	} {
		_, err := f.Resolve()
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", f)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arvand.yaml")
	data := `seeds: [3, 4]
iterative: true
plan_file: sas_plan
time_limit: 60
log:
  level: debug
  json: true
wa: "-heur FF -pref FF -weight_list [-1, 3, 1]"
mrw_shared: "-res_type SMART -num_threads 2"
mrw:
  - "-walk_type MDA"
  - "-walk_type MHA -heur GOALCOUNT"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	s, err := f.Resolve()
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 4}, s.Seeds)
	assert.True(t, s.Iterative)
	assert.Equal(t, "sas_plan", s.PlanFile)
	assert.Equal(t, 60.0, s.TimeLimit)
	assert.Equal(t, "debug", s.Log.Level)
	assert.True(t, s.Log.JSON)
	assert.Equal(t, []int{wastar.GBFS, 3, 1}, s.WA.Weights)
	assert.Equal(t, mrw.RestartSmart, s.Shared.Restart)
	require.Len(t, s.MRW, 2)
	assert.Equal(t, "GOALCOUNT", s.MRW[1].Heuristic)
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("wa_conf: -heur FF\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.WA)
}
