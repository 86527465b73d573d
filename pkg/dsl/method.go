package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/strata/pkg/graph"
)

// ErrTypeMismatch is returned when a node holds a value of an unexpected type.
var ErrTypeMismatch = errors.New("dsl: unexpected value type")

// Method is a computation declared once for owners of type O.
type Method[O Owner, T any] struct {
	desc *graph.Descriptor
}

// NewMethod declares a computation. fn receives the bound owner and the call
// arguments passed to the accessor.
func NewMethod[O Owner, T any](name string, flags graph.Flags, fn func(O, ...any) (T, error)) *Method[O, T] {
	desc := graph.NewDescriptor(name, flags, func(owner any, args ...any) (any, error) {
		o, ok := owner.(O)
		if !ok {
			return nil, fmt.Errorf("dsl: %s bound to %T", name, owner)
		}
		return fn(o, args...)
	})
	return &Method[O, T]{desc: desc}
}

// Descriptor exposes the underlying graph descriptor.
func (m *Method[O, T]) Descriptor() *graph.Descriptor { return m.desc }

func (m *Method[O, T]) Name() string { return m.desc.Name() }

// Bind returns the accessor of m for owner.
func (m *Method[O, T]) Bind(owner O) *Accessor[T] {
	return &Accessor[T]{graph: owner.Graph(), desc: m.desc, owner: owner}
}

// Accessor reads and writes one bound computation.
type Accessor[T any] struct {
	graph *graph.Graph
	desc  *graph.Descriptor
	owner any
}

// Node resolves the node for the given call arguments.
func (a *Accessor[T]) Node(args ...any) (*graph.Node, error) {
	return a.graph.Resolve(a.desc, a.owner, args...)
}

// Get returns the value, computing it if needed.
func (a *Accessor[T]) Get(args ...any) (T, error) {
	n, err := a.Node(args...)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := a.graph.Value(n)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](n, v)
}

// Set fixes the value in the root store. Active scenarios that do not
// override the node observe the change.
func (a *Accessor[T]) Set(value T, args ...any) error {
	n, err := a.Node(args...)
	if err != nil {
		return err
	}
	return a.graph.SetValue(n, value, a.graph.Root())
}

// Clear removes a value fixed with Set.
func (a *Accessor[T]) Clear(args ...any) error {
	n, err := a.Node(args...)
	if err != nil {
		return err
	}
	return a.graph.ClearValue(n, a.graph.Root())
}

// SetWhatIf fixes the value in the active scenario only.
func (a *Accessor[T]) SetWhatIf(value T, args ...any) error {
	n, err := a.Node(args...)
	if err != nil {
		return err
	}
	return a.graph.SetWhatIf(n, value, nil)
}

// ClearWhatIf removes a what-if from the active scenario.
func (a *Accessor[T]) ClearWhatIf(args ...any) error {
	n, err := a.Node(args...)
	if err != nil {
		return err
	}
	return a.graph.ClearWhatIf(n, nil)
}

// IsValid reports whether a valid value is visible from the active store.
func (a *Accessor[T]) IsValid(args ...any) bool {
	n, err := a.Node(args...)
	return err == nil && a.graph.IsValid(n, nil)
}

// IsFixed reports whether a fixed value is visible from the active store.
func (a *Accessor[T]) IsFixed(args ...any) bool {
	n, err := a.Node(args...)
	return err == nil && a.graph.IsFixed(n, nil)
}

func cast[T any](n *graph.Node, v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T, want %T", ErrTypeMismatch, n, v, zero)
	}
	return t, nil
}
