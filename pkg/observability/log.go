package observability

import (
	"log/slog"

	"github.com/aretw0/strata/pkg/graph"
)

// LogHooks writes state changes to logger: fixes and scenario transitions at
// Info, failed computations at Warn. Successful reads are left to the graph's
// own Debug traces.
func LogHooks(logger *slog.Logger) graph.Hooks {
	return graph.Hooks{
		OnEvaluate: func(e *graph.EvalEvent) {
			if e.Err != nil {
				logger.Warn("node_failed", "node", e.Node.String(), "store", e.Store.Name(), "err", e.Err)
			}
		},
		OnFix: func(e *graph.FixEvent) {
			if e.Cleared {
				logger.Info("node_cleared", "node", e.Node.String(), "store", e.Store.Name())
				return
			}
			logger.Info("node_fixed", "node", e.Node.String(), "store", e.Store.Name(), "value", e.Value)
		},
		OnScenarioEnter: func(e *graph.ScenarioEvent) {
			logger.Info("scenario_enter", "scenario", e.Scenario.Name(), "depth", e.Depth)
		},
		OnScenarioExit: func(e *graph.ScenarioEvent) {
			logger.Info("scenario_exit", "scenario", e.Scenario.Name(), "depth", e.Depth, "discarded", e.Discarded)
		},
	}
}
