package graph

import "log/slog"

// invalidateOutputs invalidates the outputs of n in store and then in every
// active store stacked above it, up to the first one that fixes n itself.
// Upper stores lose their computed copy of n so reads reach the new value.
func (g *Graph) invalidateOutputs(n *Node, store *DataStore) int {
	total := g.invalidateIn(n, store)
	if idx := g.stackIndex(store); idx >= 0 {
		for _, above := range g.stack[idx+1:] {
			if d := above.local(n.id); d != nil {
				if d.Fixed() {
					break
				}
				above.remove(n.id)
			}
			total += g.invalidateIn(n, above)
		}
	}

	g.logger.Debug("outputs invalidated",
		slog.String("node", n.String()),
		slog.String("store", store.name),
		slog.Int("count", total),
	)
	if g.hooks.OnInvalidate != nil {
		g.hooks.OnInvalidate(&InvalidateEvent{Node: n, Store: store, Count: total})
	}
	return total
}

// invalidateIn walks the transitive outputs of n and clears every valid,
// non-fixed entry visible from s. Entries held by ancestors are shadowed by an
// invalid local entry instead of being touched. Fixed entries stop the walk.
func (g *Graph) invalidateIn(n *Node, s *DataStore) int {
	queue := n.Outputs()
	seen := make(map[NodeID]struct{}, len(queue))
	count := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out := g.nodes[id]

		data := s.local(id)
		if data == nil {
			var inherited *NodeData
			if s.parent != nil {
				inherited = s.parent.lookup(id)
			}
			switch {
			case inherited != nil && inherited.Fixed():
				continue
			case inherited != nil && inherited.Valid():
				s.create(out)
				count++
			}
			queue = append(queue, out.Outputs()...)
			continue
		}
		if data.Fixed() || !data.Valid() {
			continue
		}
		data.invalidate()
		count++
		queue = append(queue, out.Outputs()...)
	}
	return count
}
