// Package metrics exports search statistics as Prometheus collectors.
// A nil *Collectors is valid and records nothing
package metrics

import (
	"strconv"

	"github.com/IlikeChooros/go-arvand/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "arvand"

type Collectors struct {
	// Labels: engine
	Expanded  *prometheus.CounterVec
	Generated *prometheus.CounterVec
	Evaluated *prometheus.CounterVec
	DeadEnds  *prometheus.CounterVec
	Restarts  *prometheus.CounterVec
	// Labels: engine, status
	Runs *prometheus.CounterVec
	// Labels: source
	Solutions *prometheus.CounterVec
	// Labels: arm
	ArmSelections *prometheus.CounterVec

	BestCost prometheus.Gauge
}

// New registers the collectors on 'reg'
func New(reg prometheus.Registerer) *Collectors {
	f := promauto.With(reg)
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      name,
			Help:      help,
		}, labels)
	}

	return &Collectors{
		Expanded:      counter("expanded_states_total", "States expanded by best-first engines", "engine"),
		Generated:     counter("generated_states_total", "Successors generated by best-first engines", "engine"),
		Evaluated:     counter("random_walks_total", "Random walks performed by MRW engines", "engine"),
		DeadEnds:      counter("dead_ends_total", "Dead ends encountered", "engine"),
		Restarts:      counter("restarts_total", "Engine restarts and new iterations", "engine"),
		Runs:          counter("runs_total", "Finished engine runs by terminal status", "engine", "status"),
		Solutions:     counter("solutions_total", "Improving plans saved", "source"),
		ArmSelections: counter("arm_selections_total", "MRW configurations selected by the learner", "arm"),
		BestCost: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "best_plan_cost",
			Help:      "Cost of the best plan found so far, -1 if none",
		}),
	}
}

// Listener feeding engine statistics into the collectors
func (c *Collectors) Listener() *search.Listener {
	if c == nil {
		return nil
	}
	return search.NewListener().
		OnRestart(func(s search.Stats) {
			c.Restarts.WithLabelValues(s.Engine).Inc()
		}).
		OnStop(func(s search.Stats) {
			c.Expanded.WithLabelValues(s.Engine).Add(float64(s.Expanded))
			c.Generated.WithLabelValues(s.Engine).Add(float64(s.Generated))
			c.Evaluated.WithLabelValues(s.Engine).Add(float64(s.Evaluated))
			c.DeadEnds.WithLabelValues(s.Engine).Add(float64(s.DeadEnds))
			c.Runs.WithLabelValues(s.Engine, s.Status.String()).Inc()
		})
}

// Records an improving plan, matches plan.Register's observer signature
func (c *Collectors) ObserveSolution(cost int, source string) {
	if c == nil {
		return
	}
	c.Solutions.WithLabelValues(source).Inc()
	c.BestCost.Set(float64(cost))
}

func (c *Collectors) ObserveArm(arm int) {
	if c == nil {
		return
	}
	c.ArmSelections.WithLabelValues(strconv.Itoa(arm)).Inc()
}
