package graph

import (
	"errors"
	"fmt"
	"log/slog"
)

// Scenario is a DataStore that can be stacked on top of the active store to
// overlay what-if values. Its parent is whichever store was active when it was
// entered.
type Scenario struct {
	graph *Graph
	store *DataStore
}

// NewScenario creates an inactive scenario. What-ifs may be staged on it
// before it is entered.
func (g *Graph) NewScenario(name string) *Scenario {
	sc := &Scenario{graph: g, store: newDataStore(name)}
	sc.store.scenario = sc
	return sc
}

func (sc *Scenario) Name() string { return sc.store.name }

// Store returns the data store backing the scenario.
func (sc *Scenario) Store() *DataStore { return sc.store }

// Active reports whether the scenario is on the active stack.
func (sc *Scenario) Active() bool { return sc.graph.stackIndex(sc.store) >= 0 }

// Enter pushes the scenario on top of the active stack and re-applies its
// what-ifs so that changes made below it while it was inactive are picked up.
func (sc *Scenario) Enter() error {
	g := sc.graph
	if sc.Active() {
		return fmt.Errorf("%w: %s", ErrDuplicateScenario, sc.Name())
	}
	parent := g.ActiveStore()
	sc.store.parent = parent
	g.push(sc.store)

	for _, d := range sc.store.Fixed() {
		g.invalidateIn(d.node, sc.store)
	}

	g.logger.Debug("scenario entered", slog.String("scenario", sc.Name()), slog.Int("depth", g.Depth()))
	if g.hooks.OnScenarioEnter != nil {
		g.hooks.OnScenarioEnter(&ScenarioEvent{Scenario: sc, Parent: parent, Depth: g.Depth()})
	}
	return nil
}

// Exit discards every computed value held by the scenario, keeps its
// what-ifs and pops it off the stack. Only the top of the stack can exit.
func (sc *Scenario) Exit() error {
	g := sc.graph
	if g.ActiveStore() != sc.store {
		return fmt.Errorf("%w: %s", ErrStackDiscipline, sc.Name())
	}

	discarded := 0
	for id, d := range sc.store.data {
		if !d.Fixed() {
			delete(sc.store.data, id)
			discarded++
		}
	}
	parent := sc.store.parent
	g.pop()
	sc.store.parent = nil

	g.logger.Debug("scenario exited", slog.String("scenario", sc.Name()), slog.Int("discarded", discarded))
	if g.hooks.OnScenarioExit != nil {
		g.hooks.OnScenarioExit(&ScenarioEvent{Scenario: sc, Parent: parent, Depth: g.Depth(), Discarded: discarded})
	}
	return nil
}

// Run enters the scenario, calls fn and exits again on every return path,
// including a panic inside fn.
func (sc *Scenario) Run(fn func() error) (err error) {
	if err := sc.Enter(); err != nil {
		return err
	}
	defer func() {
		if exitErr := sc.Exit(); exitErr != nil {
			err = errors.Join(err, exitErr)
		}
	}()
	return fn()
}

// WhatIfs returns the fixed entries held by the scenario itself.
func (sc *Scenario) WhatIfs() []*NodeData {
	return sc.store.Fixed()
}

// ActiveWhatIfs returns every fixed entry visible from the scenario through its
// parent chain. When several stores fix the same node the nearest one wins.
func (sc *Scenario) ActiveWhatIfs() []*NodeData {
	seen := make(map[NodeID]struct{})
	var out []*NodeData
	for cur := sc.store; cur != nil; cur = cur.parent {
		for _, d := range cur.Fixed() {
			if _, ok := seen[d.node.id]; ok {
				continue
			}
			seen[d.node.id] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

func (sc *Scenario) String() string { return sc.Name() }
