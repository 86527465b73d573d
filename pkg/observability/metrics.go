package observability

import (
	"errors"

	"github.com/aretw0/strata/pkg/graph"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "strata"

// Metrics holds the collectors fed by graph hooks.
type Metrics struct {
	Evaluations *prometheus.CounterVec
	CacheHits   *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Invalidated prometheus.Counter
	Fixes       *prometheus.CounterVec
	Scenarios   *prometheus.CounterVec
	Discarded   prometheus.Counter
	Depth       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg. Registering
// twice on the same registry reuses the collectors already there.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Node computations that ran.",
		}, []string{"node"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Node reads served from a valid or fixed entry.",
		}, []string{"node"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Node computations that returned an error.",
		}, []string{"node"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of node computations, nested reads included.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"node"}),
		Invalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidated_entries_total",
			Help:      "Entries invalidated or shadowed by writes.",
		}),
		Fixes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_total",
			Help:      "Fixed values set or cleared.",
		}, []string{"op", "scope"}),
		Scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_transitions_total",
			Help:      "Scenario enters and exits.",
		}, []string{"event"}),
		Discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenario_discarded_entries_total",
			Help:      "Computed entries dropped when scenarios exit.",
		}),
		Depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scenario_depth",
			Help:      "Scenarios currently on the active stack.",
		}),
	}

	if err := m.register(reg); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) register(reg prometheus.Registerer) error {
	targets := []struct {
		c   prometheus.Collector
		set func(prometheus.Collector)
	}{
		{m.Evaluations, func(c prometheus.Collector) { m.Evaluations = c.(*prometheus.CounterVec) }},
		{m.CacheHits, func(c prometheus.Collector) { m.CacheHits = c.(*prometheus.CounterVec) }},
		{m.Failures, func(c prometheus.Collector) { m.Failures = c.(*prometheus.CounterVec) }},
		{m.Duration, func(c prometheus.Collector) { m.Duration = c.(*prometheus.HistogramVec) }},
		{m.Invalidated, func(c prometheus.Collector) { m.Invalidated = c.(prometheus.Counter) }},
		{m.Fixes, func(c prometheus.Collector) { m.Fixes = c.(*prometheus.CounterVec) }},
		{m.Scenarios, func(c prometheus.Collector) { m.Scenarios = c.(*prometheus.CounterVec) }},
		{m.Discarded, func(c prometheus.Collector) { m.Discarded = c.(prometheus.Counter) }},
		{m.Depth, func(c prometheus.Collector) { m.Depth = c.(prometheus.Gauge) }},
	}
	for _, t := range targets {
		err := reg.Register(t.c)
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			t.set(are.ExistingCollector)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns the graph hooks that update m.
func (m *Metrics) Hooks() graph.Hooks {
	return graph.Hooks{
		OnEvaluate: func(e *graph.EvalEvent) {
			name := e.Node.Name()
			switch {
			case e.Cached:
				m.CacheHits.WithLabelValues(name).Inc()
			case e.Err != nil:
				m.Failures.WithLabelValues(name).Inc()
			default:
				m.Evaluations.WithLabelValues(name).Inc()
				m.Duration.WithLabelValues(name).Observe(e.Duration.Seconds())
			}
		},
		OnInvalidate: func(e *graph.InvalidateEvent) {
			m.Invalidated.Add(float64(e.Count))
		},
		OnFix: func(e *graph.FixEvent) {
			op, scope := "set", "whatif"
			if e.Cleared {
				op = "clear"
			}
			if e.Root {
				scope = "root"
			}
			m.Fixes.WithLabelValues(op, scope).Inc()
		},
		OnScenarioEnter: func(e *graph.ScenarioEvent) {
			m.Scenarios.WithLabelValues("enter").Inc()
			m.Depth.Set(float64(e.Depth))
		},
		OnScenarioExit: func(e *graph.ScenarioEvent) {
			m.Scenarios.WithLabelValues("exit").Inc()
			m.Discarded.Add(float64(e.Discarded))
			m.Depth.Set(float64(e.Depth))
		},
	}
}
