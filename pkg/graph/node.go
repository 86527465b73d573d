package graph

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// NodeID addresses a node inside the arena of the Graph that created it.
type NodeID int

// Labeler lets a node owner choose how it appears in node labels.
type Labeler interface {
	Label() string
}

// Node is one memoizable call: a descriptor bound to an owner and arguments.
// Its edge sets are rebuilt as it is evaluated.
type Node struct {
	id      NodeID
	desc    *Descriptor
	owner   any
	args    []any
	inputs  map[NodeID]struct{}
	outputs map[NodeID]struct{}
	label   string
}

func newNode(id NodeID, desc *Descriptor, owner any, args []any) *Node {
	n := &Node{
		id:      id,
		desc:    desc,
		owner:   owner,
		args:    slices.Clone(args),
		inputs:  make(map[NodeID]struct{}),
		outputs: make(map[NodeID]struct{}),
	}
	n.label = formatLabel(owner, desc.name, n.args)
	return n
}

func (n *Node) ID() NodeID { return n.id }

func (n *Node) Descriptor() *Descriptor { return n.desc }

func (n *Node) Name() string { return n.desc.name }

func (n *Node) Owner() any { return n.owner }

// Args returns a copy of the call arguments.
func (n *Node) Args() []any { return slices.Clone(n.args) }

func (n *Node) Flags() Flags { return n.desc.flags }

// Inputs returns the nodes read by the last evaluation, in ID order.
func (n *Node) Inputs() []NodeID { return sortedIDs(n.inputs) }

// Outputs returns the nodes that read this node, in ID order.
func (n *Node) Outputs() []NodeID { return sortedIDs(n.outputs) }

func (n *Node) HasInput(id NodeID) bool {
	_, ok := n.inputs[id]
	return ok
}

func (n *Node) HasOutput(id NodeID) bool {
	_, ok := n.outputs[id]
	return ok
}

// String returns the node label, for example "pricing/book.Price(3)".
// Labels double as persistence keys.
func (n *Node) String() string { return n.label }

func formatLabel(owner any, name string, args []any) string {
	var b strings.Builder
	switch o := owner.(type) {
	case nil:
	case Labeler:
		b.WriteString(o.Label())
		b.WriteByte('.')
	default:
		fmt.Fprintf(&b, "%v.", o)
	}
	b.WriteString(name)
	if len(args) > 0 {
		b.WriteByte('(')
		for i, a := range args {
			if i > 0 {
				b.WriteByte(',')
			}
			if s, ok := a.(string); ok {
				b.WriteString(strconv.Quote(s))
				continue
			}
			fmt.Fprint(&b, a)
		}
		b.WriteByte(')')
	}
	return b.String()
}

func sortedIDs(set map[NodeID]struct{}) []NodeID {
	ids := make([]NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
