package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/IlikeChooros/go-arvand/pkg/config"
	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detour = `
metric: true
variables:
  - {name: pos, domain: 4}
init: {pos: 0}
goal: {pos: 3}
operators:
  - {name: jump, cost: 10, pre: {pos: 0}, eff: {pos: 3}}
  - {name: step-0, cost: 1, pre: {pos: 0}, eff: {pos: 1}}
  - {name: step-1, cost: 1, pre: {pos: 1}, eff: {pos: 2}}
  - {name: step-2, cost: 1, pre: {pos: 2}, eff: {pos: 3}}
`

func TestMain(m *testing.M) {
	search.SetSeedGeneratorFn(func() int64 {
		return 42
	})
	os.Exit(m.Run())
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRunWA(t *testing.T) {
	taskPath := writeFile(t, "task.yaml", detour)
	planPath := filepath.Join(t.TempDir(), "sas_plan")

	stdout, stderr, err := execute("--wa", "-heur FF -weight_list [1]", "--seed", "1", "-o", planPath, taskPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "status: solved")
	assert.Contains(t, stdout, "cost: 3")
	assert.Contains(t, stdout, "(step-2)")
	assert.Contains(t, stderr, "run=")

	data, err := os.ReadFile(planPath)
	require.NoError(t, err)
	assert.Equal(t, "(step-0)\n(step-1)\n(step-2)\n", string(data))
}

func TestRunConfigFile(t *testing.T) {
	taskPath := writeFile(t, "task.yaml", detour)
	confPath := writeFile(t, "arvand.yaml", `
seeds: [5]
mrw:
  - "-num_walk 50"
log:
  level: error
`)

	stdout, stderr, err := execute("-c", confPath, taskPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "status: solved")
	assert.Contains(t, stdout, "mrw-0: SOLVED")
	assert.Empty(t, stderr)
}

func TestInvalidConfig(t *testing.T) {
	taskPath := writeFile(t, "task.yaml", detour)
	_, _, err := execute("--wa", "-heur FF -epsilon 2", taskPath)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, _, err = execute("--mrw-shared", "-pool_size 3", taskPath)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, _, err = execute(taskPath, "extra")
	assert.Error(t, err)
}

func TestUnsolvedExitsWithError(t *testing.T) {
	taskPath := writeFile(t, "task.yaml", `
variables:
  - {name: x, domain: 2}
  - {name: y, domain: 2}
init: {x: 0, y: 0}
goal: {x: 1}
operators:
  - {name: flip-y, pre: {y: 0}, eff: {y: 1}}
`)
	stdout, _, err := execute("--wa", "-heur GOALCOUNT", taskPath)
	assert.ErrorIs(t, err, errNoPlan)
	assert.Contains(t, stdout, "status: unsolved")
}

func TestMetricsServerShutdown(t *testing.T) {
	addr, shutdown, err := serveMetrics("127.0.0.1:0", prometheus.NewRegistry(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	url := "http://" + addr.String() + "/metrics"

	resp, err := client.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	shutdown()
	_, err = client.Get(url)
	assert.Error(t, err)
}
