package dsl

import (
	"github.com/aretw0/strata/pkg/graph"
	"github.com/google/uuid"
)

// Owner is an instance that methods can be bound to. Types embedding *Object
// satisfy it.
type Owner interface {
	comparable
	Graph() *graph.Graph
}

// Object carries the graph and identity of an owner.
type Object struct {
	graph *graph.Graph
	kind  string
	id    string
}

// ObjectOption configures an Object.
type ObjectOption func(*Object)

// WithID sets a stable identity. Objects get a random UUID otherwise.
func WithID(id string) ObjectOption {
	return func(o *Object) {
		o.id = id
	}
}

// NewObject creates the identity for an owner of the given kind living in g.
func NewObject(g *graph.Graph, kind string, opts ...ObjectOption) *Object {
	o := &Object{graph: g, kind: kind, id: uuid.NewString()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Object) Graph() *graph.Graph { return o.graph }

func (o *Object) Kind() string { return o.kind }

func (o *Object) ID() string { return o.id }

// Label identifies the object in node labels as "kind/id".
func (o *Object) Label() string { return o.kind + "/" + o.id }
