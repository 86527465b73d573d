package graph

import (
	"fmt"
	"log/slog"
	"time"
)

// Value returns the value of n, computing it if needed. Inside a computation
// the read happens in the store that computation runs in; otherwise it
// happens in the active store.
func (g *Graph) Value(n *Node) (any, error) {
	return g.evaluate(n, g.evalStore(), true)
}

// ValueIn is Value against an explicit store. A nil store means the default.
func (g *Graph) ValueIn(n *Node, store *DataStore) (any, error) {
	return g.evaluate(n, g.orEval(store), true)
}

// Peek returns the cached value of n without computing it. It fails with
// ErrInvalidRead when no valid or fixed entry is visible from store.
func (g *Graph) Peek(n *Node, store *DataStore) (any, error) {
	return g.evaluate(n, g.orEval(store), false)
}

// IsValid reports whether a valid entry for n is visible from store.
func (g *Graph) IsValid(n *Node, store *DataStore) bool {
	d := g.orActive(store).lookup(n.id)
	return d != nil && d.Valid()
}

// IsFixed reports whether a fixed entry for n is visible from store.
func (g *Graph) IsFixed(n *Node, store *DataStore) bool {
	d := g.orActive(store).lookup(n.id)
	return d != nil && d.Fixed()
}

func (g *Graph) evaluate(n *Node, store *DataStore, computeInvalid bool) (any, error) {
	if len(g.frames) > 0 {
		if parent := g.frames[len(g.frames)-1].node; parent != n {
			addEdge(parent, n)
		}
	}

	data := store.lookup(n.id)
	if data != nil && data.readable() {
		if g.hooks.OnEvaluate != nil {
			g.hooks.OnEvaluate(&EvalEvent{Node: n, Store: data.store, Cached: true})
		}
		return data.value, nil
	}
	if !computeInvalid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRead, n)
	}
	if g.stackIndex(store) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInactiveStore, store.name)
	}
	if g.inFlight[flightKey{n.id, store}] > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCycle, n)
	}

	if data == nil || data.store != store {
		data = store.create(n)
	}
	g.resetInputs(n, store)

	started := time.Now()
	value, err := g.compute(n, store)
	elapsed := time.Since(started)
	if g.hooks.OnEvaluate != nil {
		g.hooks.OnEvaluate(&EvalEvent{Node: n, Store: store, Duration: elapsed, Err: err})
	}
	if err != nil {
		return nil, err
	}

	data.value = value
	data.status |= StatusValid
	g.logger.Debug("node computed",
		slog.String("node", n.String()),
		slog.String("store", store.name),
		slog.Duration("duration", elapsed),
	)
	return value, nil
}

func (g *Graph) compute(n *Node, store *DataStore) (any, error) {
	g.frames = append(g.frames, frame{node: n, store: store})
	key := flightKey{n.id, store}
	g.inFlight[key]++
	defer func() {
		g.frames = g.frames[:len(g.frames)-1]
		if g.inFlight[key]--; g.inFlight[key] == 0 {
			delete(g.inFlight, key)
		}
	}()

	if n.desc.fn == nil {
		return nil, nil
	}
	value, err := n.desc.fn(n.owner, n.args...)
	if err != nil {
		return nil, fmt.Errorf("graph: evaluate %s: %w", n, err)
	}
	return value, nil
}

// resetInputs drops the input edges of n before it is recomputed in store.
// Edges are kept while another active store still holds a live computed copy
// of n, or is computing n right now, since that copy depends on them.
func (g *Graph) resetInputs(n *Node, store *DataStore) {
	if len(n.inputs) == 0 {
		return
	}
	for _, s := range g.stack {
		if s == store {
			continue
		}
		if g.inFlight[flightKey{n.id, s}] > 0 {
			return
		}
		if d := s.local(n.id); d != nil && d.status == StatusValid {
			return
		}
	}
	for id := range n.inputs {
		delete(g.nodes[id].outputs, n.id)
	}
	clear(n.inputs)
}

func addEdge(consumer, input *Node) {
	consumer.inputs[input.id] = struct{}{}
	input.outputs[consumer.id] = struct{}{}
}

func (g *Graph) orEval(store *DataStore) *DataStore {
	if store == nil {
		return g.evalStore()
	}
	return store
}

func (g *Graph) orActive(store *DataStore) *DataStore {
	if store == nil {
		return g.ActiveStore()
	}
	return store
}
