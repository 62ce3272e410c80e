package metrics

import (
	"testing"

	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestListener(t *testing.T) {
	c := New(prometheus.NewRegistry())
	l := c.Listener()

	l.InvokeRestart(search.Stats{Engine: "mrw-0"})
	l.InvokeStop(search.Stats{Engine: "wa-1", Expanded: 10, Generated: 25, DeadEnds: 2, Status: search.Solved})
	l.InvokeStop(search.Stats{Engine: "wa-1", Expanded: 5, Status: search.OutOfTime})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Restarts.WithLabelValues("mrw-0")))
	assert.Equal(t, 15.0, testutil.ToFloat64(c.Expanded.WithLabelValues("wa-1")))
	assert.Equal(t, 25.0, testutil.ToFloat64(c.Generated.WithLabelValues("wa-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Runs.WithLabelValues("wa-1", "SOLVED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Runs.WithLabelValues("wa-1", "OUT_OF_TIME")))
}

func TestObservers(t *testing.T) {
	c := New(prometheus.NewRegistry())
	c.ObserveSolution(12, "wa-0")
	c.ObserveSolution(9, "mrw-1")
	c.ObserveArm(2)

	assert.Equal(t, 9.0, testutil.ToFloat64(c.BestCost))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Solutions.WithLabelValues("mrw-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ArmSelections.WithLabelValues("2")))
}

func TestNilCollectors(t *testing.T) {
	var c *Collectors
	assert.Nil(t, c.Listener())
	c.ObserveSolution(1, "x")
	c.ObserveArm(0)
}
