package graph

import (
	"fmt"
	"reflect"
)

// SetValue fixes n to value in store (the active store when nil) and
// invalidates everything computed from it there.
func (g *Graph) SetValue(n *Node, value any, store *DataStore) error {
	if !n.desc.Settable() {
		return fmt.Errorf("%w: %s", ErrNotSettable, n)
	}
	g.fix(n, value, g.orActive(store))
	return nil
}

// ClearValue removes the fixed value of n from store so reads fall through
// to the parent chain again.
func (g *Graph) ClearValue(n *Node, store *DataStore) error {
	if !n.desc.Settable() {
		return fmt.Errorf("%w: %s", ErrNotSettable, n)
	}
	return g.unfix(n, g.orActive(store))
}

// SetWhatIf fixes n inside a scenario store. The root store never holds
// what-ifs.
func (g *Graph) SetWhatIf(n *Node, value any, store *DataStore) error {
	store, err := g.whatIfStore(n, store)
	if err != nil {
		return err
	}
	g.fix(n, value, store)
	return nil
}

// ClearWhatIf removes a what-if previously set with SetWhatIf.
func (g *Graph) ClearWhatIf(n *Node, store *DataStore) error {
	store, err := g.whatIfStore(n, store)
	if err != nil {
		return err
	}
	return g.unfix(n, store)
}

func (g *Graph) whatIfStore(n *Node, store *DataStore) (*DataStore, error) {
	if !n.desc.Overlayable() {
		return nil, fmt.Errorf("%w: %s", ErrNotOverlayable, n)
	}
	store = g.orActive(store)
	if store == g.root {
		return nil, fmt.Errorf("%w: what-ifs require an active scenario: %s", ErrNotOverlayable, n)
	}
	return store, nil
}

func (g *Graph) fix(n *Node, value any, store *DataStore) {
	data := store.local(n.id)
	if data != nil && data.Fixed() && reflect.DeepEqual(data.value, value) {
		return
	}
	if data == nil {
		data = store.create(n)
	}
	data.fix(value)
	g.invalidateOutputs(n, store)

	if g.hooks.OnFix != nil {
		g.hooks.OnFix(&FixEvent{Node: n, Store: store, Value: value, Root: store == g.root})
	}
}

func (g *Graph) unfix(n *Node, store *DataStore) error {
	data := store.local(n.id)
	if data == nil || !data.Fixed() {
		return fmt.Errorf("%w: %s in %s", ErrNothingToClear, n, store.name)
	}
	store.remove(n.id)
	g.invalidateOutputs(n, store)

	if g.hooks.OnFix != nil {
		g.hooks.OnFix(&FixEvent{Node: n, Store: store, Cleared: true, Root: store == g.root})
	}
	return nil
}
