package graph

// ComputeFunc produces the value of a node from its owner and call arguments.
// Nodes it reads through the Graph while running become inputs of the node.
type ComputeFunc func(owner any, args ...any) (any, error)

// Descriptor declares a computation: its name, its flags and the function
// that evaluates it. A descriptor is shared by every owner it is bound to, and
// its pointer is the computation identity used in node keys.
type Descriptor struct {
	name  string
	flags Flags
	fn    ComputeFunc
}

// NewDescriptor declares a computation. A nil fn always computes nil.
func NewDescriptor(name string, flags Flags, fn ComputeFunc) *Descriptor {
	return &Descriptor{name: name, flags: flags, fn: fn}
}

func (d *Descriptor) Name() string { return d.name }

func (d *Descriptor) Flags() Flags { return d.flags }

func (d *Descriptor) Overlayable() bool { return d.flags.Has(Overlayable) }

func (d *Descriptor) Settable() bool { return d.flags.Has(Settable) }

func (d *Descriptor) Serializable() bool { return d.flags.Has(Serializable) }

func (d *Descriptor) Stored() bool { return d.flags.Has(Stored) }
