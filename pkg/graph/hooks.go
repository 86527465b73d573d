package graph

import "time"

// EvalEvent describes one read of a node.
type EvalEvent struct {
	Node     *Node
	Store    *DataStore
	Cached   bool
	Duration time.Duration
	Err      error
}

// FixEvent describes a fixed value being set or cleared.
type FixEvent struct {
	Node    *Node
	Store   *DataStore
	Value   any
	Cleared bool
	// Root is true when the write targeted the root store.
	Root bool
}

// InvalidateEvent reports one invalidation pass started by a write.
type InvalidateEvent struct {
	Node  *Node
	Store *DataStore
	Count int
}

// ScenarioEvent describes a scenario entering or leaving the stack.
type ScenarioEvent struct {
	Scenario  *Scenario
	Parent    *DataStore
	Depth     int
	Discarded int
}

// Hooks are optional callbacks invoked synchronously by the Graph.
// They must not mutate the Graph.
type Hooks struct {
	OnEvaluate      func(*EvalEvent)
	OnFix           func(*FixEvent)
	OnInvalidate    func(*InvalidateEvent)
	OnScenarioEnter func(*ScenarioEvent)
	OnScenarioExit  func(*ScenarioEvent)
}

// CombineHooks merges several hook sets into one that calls each in order.
func CombineHooks(all ...Hooks) Hooks {
	var out Hooks
	for _, h := range all {
		out.OnEvaluate = chain(out.OnEvaluate, h.OnEvaluate)
		out.OnFix = chain(out.OnFix, h.OnFix)
		out.OnInvalidate = chain(out.OnInvalidate, h.OnInvalidate)
		out.OnScenarioEnter = chain(out.OnScenarioEnter, h.OnScenarioEnter)
		out.OnScenarioExit = chain(out.OnScenarioExit, h.OnScenarioExit)
	}
	return out
}

func chain[E any](first, next func(*E)) func(*E) {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(e *E) {
		first(e)
		next(e)
	}
}
