package graph

import "fmt"

// Status is the two-bit state of a NodeData.
type Status uint8

const (
	StatusNone  Status = 0
	StatusValid Status = 1
	StatusFixed Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusValid:
		return "valid"
	case StatusFixed:
		return "fixed"
	case StatusFixed | StatusValid:
		return "fixed|valid"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// NodeData is the value and status of one node inside one store.
type NodeData struct {
	node   *Node
	store  *DataStore
	status Status
	value  any
}

func (d *NodeData) Node() *Node { return d.node }

func (d *NodeData) Store() *DataStore { return d.store }

func (d *NodeData) Status() Status { return d.status }

func (d *NodeData) Valid() bool { return d.status&StatusValid != 0 }

func (d *NodeData) Fixed() bool { return d.status&StatusFixed != 0 }

// Value returns the held value, or ErrInvalidRead if the entry is neither
// valid nor fixed.
func (d *NodeData) Value() (any, error) {
	if !d.readable() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRead, d.node)
	}
	return d.value, nil
}

func (d *NodeData) readable() bool {
	return d.status&(StatusValid|StatusFixed) != 0
}

func (d *NodeData) fix(value any) {
	d.value = value
	d.status = StatusFixed | StatusValid
}

func (d *NodeData) invalidate() {
	d.status &^= StatusValid
	d.value = nil
}
