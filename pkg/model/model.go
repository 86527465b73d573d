package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/strata/pkg/dsl"
	"github.com/aretw0/strata/pkg/graph"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	ErrUnknownNode     = errors.New("model: unknown node")
	ErrUnknownScenario = errors.New("model: unknown scenario")
	ErrScenarioExists  = errors.New("model: scenario already exists")
)

var (
	sharedOnce  sync.Once
	sharedCache *ProgramCache
)

func defaultCache() *ProgramCache {
	sharedOnce.Do(func() {
		sharedCache, _ = NewProgramCache(DefaultCacheSize)
	})
	return sharedCache
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	cache    *ProgramCache
	objectID string
}

// WithProgramCache compiles formulas through cache instead of the shared one.
func WithProgramCache(cache *ProgramCache) Option {
	return func(o *buildOptions) {
		o.cache = cache
	}
}

// WithObjectID overrides the object id, which defaults to the model name.
func WithObjectID(id string) Option {
	return func(o *buildOptions) {
		o.objectID = id
	}
}

// Model is a definition bound to a graph.
type Model struct {
	def       *Definition
	graph     *graph.Graph
	object    *dsl.Object
	accessors map[string]*dsl.Accessor[any]
	env       map[string]any
	scenarios map[string]*graph.Scenario
	order     []string
}

// Entry is one evaluated node of a Snapshot.
type Entry struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value any    `json:"value"`
	Fixed bool   `json:"fixed"`
}

// Build declares every node of def on g and stages its scenarios.
func Build(g *graph.Graph, def *Definition, opts ...Option) (*Model, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions{objectID: def.Name}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil {
		o.cache = defaultCache()
	}

	m := &Model{
		def:       def,
		graph:     g,
		object:    dsl.NewObject(g, def.Name, dsl.WithID(o.objectID)),
		accessors: make(map[string]*dsl.Accessor[any], len(def.Nodes)),
		env:       make(map[string]any, len(def.Nodes)),
		scenarios: make(map[string]*graph.Scenario, len(def.Scenarios)),
	}

	names := def.Names()
	for _, nd := range def.Nodes {
		flags, err := graph.ParseFlags(nd.Flags...)
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrInvalidDefinition, nd.Name, err)
		}
		fn, err := m.compute(nd, o.cache, names)
		if err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrInvalidDefinition, nd.Name, err)
		}
		acc := dsl.NewMethod(nd.Name, flags, fn).Bind(m.object)
		m.accessors[nd.Name] = acc
		m.env[nd.Name] = nodeFunc(func(args ...any) (any, error) {
			return acc.Get(args...)
		})
	}

	for _, sd := range def.Scenarios {
		sc, err := m.AddScenario(sd.Name)
		if err != nil {
			return nil, err
		}
		for _, name := range slices.Sorted(maps.Keys(sd.WhatIfs)) {
			if err := m.StageWhatIf(sc.Name(), name, sd.WhatIfs[name]); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Model) compute(nd NodeDef, cache *ProgramCache, names []string) (func(*dsl.Object, ...any) (any, error), error) {
	if nd.Formula == "" {
		value := nd.Value
		return func(*dsl.Object, ...any) (any, error) {
			return value, nil
		}, nil
	}

	program, err := cache.Compile(nd.Formula, names)
	if err != nil {
		return nil, err
	}
	return func(_ *dsl.Object, args ...any) (any, error) {
		return m.run(program, args)
	}, nil
}

func (m *Model) run(program *vm.Program, args []any) (any, error) {
	env := maps.Clone(m.env)
	if args == nil {
		args = []any{}
	}
	env["args"] = args
	return expr.Run(program, env)
}

// Definition returns the definition the model was built from.
func (m *Model) Definition() *Definition { return m.def }

func (m *Model) Graph() *graph.Graph { return m.graph }

// Object returns the owner every node of the model is bound to.
func (m *Model) Object() *dsl.Object { return m.object }

// Names returns the node names in declaration order.
func (m *Model) Names() []string { return m.def.Names() }

func (m *Model) accessor(name string) (*dsl.Accessor[any], error) {
	acc, ok := m.accessors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	return acc, nil
}

// Node resolves the graph node for name called with args.
func (m *Model) Node(name string, args ...any) (*graph.Node, error) {
	acc, err := m.accessor(name)
	if err != nil {
		return nil, err
	}
	return acc.Node(args...)
}

// Get evaluates name in the active store.
func (m *Model) Get(name string, args ...any) (any, error) {
	acc, err := m.accessor(name)
	if err != nil {
		return nil, err
	}
	return acc.Get(args...)
}

// Set fixes name in the root store.
func (m *Model) Set(name string, value any, args ...any) error {
	acc, err := m.accessor(name)
	if err != nil {
		return err
	}
	return acc.Set(value, args...)
}

// Clear removes a value fixed with Set.
func (m *Model) Clear(name string, args ...any) error {
	acc, err := m.accessor(name)
	if err != nil {
		return err
	}
	return acc.Clear(args...)
}

// SetWhatIf fixes name in the active scenario.
func (m *Model) SetWhatIf(name string, value any, args ...any) error {
	acc, err := m.accessor(name)
	if err != nil {
		return err
	}
	return acc.SetWhatIf(value, args...)
}

// ClearWhatIf removes a what-if from the active scenario.
func (m *Model) ClearWhatIf(name string, args ...any) error {
	acc, err := m.accessor(name)
	if err != nil {
		return err
	}
	return acc.ClearWhatIf(args...)
}

// IsFixed reports whether name has a fixed value visible from the active store.
func (m *Model) IsFixed(name string, args ...any) bool {
	acc, err := m.accessor(name)
	return err == nil && acc.IsFixed(args...)
}

// AddScenario creates an empty named scenario.
func (m *Model) AddScenario(name string) (*graph.Scenario, error) {
	if _, ok := m.scenarios[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrScenarioExists, name)
	}
	sc := m.graph.NewScenario(name)
	m.scenarios[name] = sc
	m.order = append(m.order, name)
	return sc, nil
}

// Scenario returns the named scenario.
func (m *Model) Scenario(name string) (*graph.Scenario, error) {
	sc, ok := m.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return sc, nil
}

// Scenarios returns scenario names in creation order.
func (m *Model) Scenarios() []string { return slices.Clone(m.order) }

// StageWhatIf fixes node inside the named scenario whether or not it is
// active. Inactive scenarios apply it on their next Enter.
func (m *Model) StageWhatIf(scenario, node string, value any, args ...any) error {
	sc, err := m.Scenario(scenario)
	if err != nil {
		return err
	}
	n, err := m.Node(node, args...)
	if err != nil {
		return err
	}
	return m.graph.SetWhatIf(n, value, sc.Store())
}

// UnstageWhatIf removes a what-if from the named scenario.
func (m *Model) UnstageWhatIf(scenario, node string, args ...any) error {
	sc, err := m.Scenario(scenario)
	if err != nil {
		return err
	}
	n, err := m.Node(node, args...)
	if err != nil {
		return err
	}
	return m.graph.ClearWhatIf(n, sc.Store())
}

// Within enters the named scenarios in order, nesting each inside the
// previous one, runs fn and exits them all.
func (m *Model) Within(scenarios []string, fn func() error) error {
	if len(scenarios) == 0 {
		return fn()
	}
	sc, err := m.Scenario(scenarios[0])
	if err != nil {
		return err
	}
	return sc.Run(func() error {
		return m.Within(scenarios[1:], fn)
	})
}

// StoredNodes returns the argument-free nodes whose fixed values are
// persisted.
func (m *Model) StoredNodes() ([]*graph.Node, error) {
	var nodes []*graph.Node
	for _, name := range m.Names() {
		n, err := m.Node(name)
		if err != nil {
			return nil, err
		}
		if n.Descriptor().Stored() {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// Snapshot evaluates the given nodes, or every node when names is empty, in
// the active store.
func (m *Model) Snapshot(names ...string) ([]Entry, error) {
	if len(names) == 0 {
		names = m.Names()
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		n, err := m.Node(name)
		if err != nil {
			return nil, err
		}
		v, err := m.graph.Value(n)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Name:  name,
			Label: n.String(),
			Value: v,
			Fixed: m.graph.IsFixed(n, nil),
		})
	}
	return entries, nil
}
