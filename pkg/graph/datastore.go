package graph

import (
	"slices"

	"github.com/google/uuid"
)

// DataStore holds NodeData for a set of nodes. Reads that miss locally fall
// back to the parent chain; writes only ever touch the store itself.
type DataStore struct {
	id       string
	name     string
	data     map[NodeID]*NodeData
	parent   *DataStore
	scenario *Scenario
}

func newDataStore(name string) *DataStore {
	return &DataStore{
		id:   uuid.NewString(),
		name: name,
		data: make(map[NodeID]*NodeData),
	}
}

// ID is unique per store and stable for its lifetime.
func (s *DataStore) ID() string { return s.id }

func (s *DataStore) Name() string { return s.name }

// Parent returns the read fallback of the store, or nil for the root and for
// scenarios that are not active.
func (s *DataStore) Parent() *DataStore { return s.parent }

// Scenario returns the scenario backed by this store, or nil for the root.
func (s *DataStore) Scenario() *Scenario { return s.scenario }

// Len reports the number of local entries.
func (s *DataStore) Len() int { return len(s.data) }

// Entries returns the local entries in node ID order.
func (s *DataStore) Entries() []*NodeData {
	out := make([]*NodeData, 0, len(s.data))
	for _, d := range s.data {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *NodeData) int { return int(a.node.id - b.node.id) })
	return out
}

// Fixed returns the local fixed entries in node ID order.
func (s *DataStore) Fixed() []*NodeData {
	var out []*NodeData
	for _, d := range s.Entries() {
		if d.Fixed() {
			out = append(out, d)
		}
	}
	return out
}

// Lookup returns the nearest entry for n, optionally searching the parents.
func (s *DataStore) Lookup(n *Node, searchParent bool) *NodeData {
	if !searchParent {
		return s.local(n.id)
	}
	return s.lookup(n.id)
}

func (s *DataStore) String() string { return s.name }

func (s *DataStore) local(id NodeID) *NodeData {
	return s.data[id]
}

// lookup stops at the nearest entry of any status. An invalid entry shadows
// whatever its ancestors hold.
func (s *DataStore) lookup(id NodeID) *NodeData {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.data[id]; ok {
			return d
		}
	}
	return nil
}

func (s *DataStore) create(n *Node) *NodeData {
	d := &NodeData{node: n, store: s}
	s.data[n.id] = d
	return d
}

func (s *DataStore) remove(id NodeID) {
	delete(s.data, id)
}
