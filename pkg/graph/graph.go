package graph

import (
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"slices"
)

type nodeKey struct {
	desc  *Descriptor
	owner any
	tuple int
}

// tupleKey interns argument tuples one element at a time: prefix is the id of
// the tuple without its last element.
type tupleKey struct {
	prefix int
	arg    any
}

type flightKey struct {
	node  NodeID
	store *DataStore
}

type frame struct {
	node  *Node
	store *DataStore
}

// Graph owns the node arena, the root store and the stack of active stores.
type Graph struct {
	nodes    []*Node
	index    map[nodeKey]NodeID
	tuples   map[tupleKey]int
	root     *DataStore
	stack    []*DataStore
	frames   []frame
	inFlight map[flightKey]int
	logger   *slog.Logger
	hooks    Hooks
}

// New creates an empty graph whose only active store is the root.
func New(opts ...Option) *Graph {
	root := newDataStore("root")
	g := &Graph{
		index:    make(map[nodeKey]NodeID),
		tuples:   make(map[tupleKey]int),
		root:     root,
		stack:    []*DataStore{root},
		inFlight: make(map[flightKey]int),
		logger:   nopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve returns the node for desc bound to owner with args, creating it on
// first use. Owner and arguments are compared by value and must be comparable.
func (g *Graph) Resolve(desc *Descriptor, owner any, args ...any) (*Node, error) {
	if desc == nil {
		return nil, fmt.Errorf("graph: resolve: nil descriptor")
	}
	if !isComparable(owner) {
		return nil, fmt.Errorf("%w: owner %T of %s", ErrUnhashable, owner, desc.name)
	}
	tuple, err := g.intern(args)
	if err != nil {
		return nil, fmt.Errorf("%w in call to %s", err, desc.name)
	}
	key := nodeKey{desc: desc, owner: owner, tuple: tuple}
	if id, ok := g.index[key]; ok {
		return g.nodes[id], nil
	}
	n := newNode(NodeID(len(g.nodes)), desc, owner, args)
	g.nodes = append(g.nodes, n)
	g.index[key] = n.id
	return n, nil
}

func (g *Graph) intern(args []any) (int, error) {
	id := 0
	for i, arg := range args {
		if !isComparable(arg) {
			return 0, fmt.Errorf("%w: argument %d of type %T", ErrUnhashable, i, arg)
		}
		k := tupleKey{prefix: id, arg: arg}
		next, ok := g.tuples[k]
		if !ok {
			next = len(g.tuples) + 1
			g.tuples[k] = next
		}
		id = next
	}
	return id, nil
}

// isComparable reports whether v can be used in a key. The check is on the
// dynamic value, so an interface field holding a slice is rejected. NaN is
// rejected as well since it never equals itself.
func isComparable(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Comparable() && !hasNaN(rv)
}

func hasNaN(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		return math.IsNaN(real(c)) || math.IsNaN(imag(c))
	case reflect.Interface:
		return !v.IsNil() && hasNaN(v.Elem())
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if hasNaN(v.Index(i)) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if hasNaN(v.Field(i)) {
				return true
			}
		}
	}
	return false
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns every node resolved so far, in creation order.
func (g *Graph) Nodes() []*Node {
	return slices.Clone(g.nodes)
}

func (g *Graph) Root() *DataStore { return g.root }

// ActiveStore returns the top of the active stack.
func (g *Graph) ActiveStore() *DataStore {
	return g.stack[len(g.stack)-1]
}

// ActiveStores returns the active stack from the root upwards.
func (g *Graph) ActiveStores() []*DataStore {
	return slices.Clone(g.stack)
}

// Depth is the number of scenarios on the active stack.
func (g *Graph) Depth() int {
	return len(g.stack) - 1
}

func (g *Graph) push(s *DataStore) {
	g.stack = append(g.stack, s)
}

func (g *Graph) pop() *DataStore {
	if len(g.stack) == 1 {
		panic("graph: the root store cannot be exited")
	}
	top := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	return top
}

func (g *Graph) stackIndex(s *DataStore) int {
	return slices.Index(g.stack, s)
}

// evalStore is the default store for reads: the store the current
// computation runs in, or the active store outside any computation.
func (g *Graph) evalStore() *DataStore {
	if len(g.frames) > 0 {
		return g.frames[len(g.frames)-1].store
	}
	return g.ActiveStore()
}
