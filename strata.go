package strata

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"

	presentation "github.com/aretw0/strata/internal/presentation/graph"
	"github.com/aretw0/strata/pkg/graph"
	"github.com/aretw0/strata/pkg/model"
	"github.com/aretw0/strata/pkg/observability"
	"github.com/aretw0/strata/pkg/persistence"
	"github.com/aretw0/strata/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

//go:embed VERSION
var Version string

// Engine binds a model to a graph together with its persistence and
// metrics. It is not safe for concurrent use.
type Engine struct {
	graph    *graph.Graph
	model    *model.Model
	recorder *persistence.Recorder
	metrics  *observability.Metrics

	hooks      graph.Hooks
	logger     *slog.Logger
	store      ports.FixedStore
	locker     ports.Locker
	registerer prometheus.Registerer
	cache      *model.ProgramCache
	objectID   string
	Name       string
}

// NodeInfo describes one declared node.
type NodeInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Flags   string `json:"flags"`
	Formula string `json:"formula,omitempty"`
	Doc     string `json:"doc,omitempty"`
	Fixed   bool   `json:"fixed"`
}

// ScenarioInfo describes a scenario and the what-ifs it holds.
type ScenarioInfo struct {
	Name    string         `json:"name"`
	WhatIfs map[string]any `json:"whatifs"`
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers graph lifecycle hooks. They run before the engine's
// own metrics and persistence hooks.
func WithHooks(hooks graph.Hooks) Option {
	return func(e *Engine) {
		e.hooks = graph.CombineHooks(e.hooks, hooks)
	}
}

// WithStore persists the fixed values of stored nodes to store.
func WithStore(store ports.FixedStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes persistence writes through locker.
func WithLocker(locker ports.Locker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithMetrics registers Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.registerer = reg
	}
}

// WithProgramCache shares a compiled formula cache between engines.
func WithProgramCache(cache *model.ProgramCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithObjectID overrides the object id used in node labels and persistence
// keys. It defaults to the model name.
func WithObjectID(id string) Option {
	return func(e *Engine) {
		e.objectID = id
	}
}

// Open loads the model file at path and builds an engine for it.
func Open(path string, opts ...Option) (*Engine, error) {
	def, err := model.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(def, opts...)
}

// New builds an engine for def.
func New(def *model.Definition, opts ...Option) (*Engine, error) {
	eng := &Engine{Name: def.Name}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	eng.logger = eng.logger.With("model", eng.Name)

	hooks := []graph.Hooks{eng.hooks, observability.LogHooks(eng.logger)}
	if eng.registerer != nil {
		m, err := observability.NewMetrics(eng.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		eng.metrics = m
		hooks = append(hooks, m.Hooks())
	}
	if eng.store != nil {
		recOpts := []persistence.Option{persistence.WithLogger(eng.logger)}
		if eng.locker != nil {
			recOpts = append(recOpts, persistence.WithLocker(eng.locker, persistence.DefaultLockTTL))
		}
		eng.recorder = persistence.NewRecorder(eng.store, recOpts...)
		hooks = append(hooks, eng.recorder.Hooks())
	}

	eng.graph = graph.New(
		graph.WithLogger(eng.logger),
		graph.WithHooks(graph.CombineHooks(hooks...)),
	)

	var buildOpts []model.Option
	if eng.cache != nil {
		buildOpts = append(buildOpts, model.WithProgramCache(eng.cache))
	}
	if eng.objectID != "" {
		buildOpts = append(buildOpts, model.WithObjectID(eng.objectID))
	}
	m, err := model.Build(eng.graph, def, buildOpts...)
	if err != nil {
		return nil, err
	}
	eng.model = m
	return eng, nil
}

func (e *Engine) Graph() *graph.Graph { return e.graph }

func (e *Engine) Model() *model.Model { return e.model }

// Metrics returns the engine collectors, or nil without WithMetrics.
func (e *Engine) Metrics() *observability.Metrics { return e.metrics }

// Store returns the persistence store, or nil without WithStore.
func (e *Engine) Store() ports.FixedStore { return e.store }

// Restore loads persisted values of stored nodes into the root store and
// returns how many were restored.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	if e.recorder == nil {
		return 0, nil
	}
	nodes, err := e.model.StoredNodes()
	if err != nil {
		return 0, err
	}
	n, err := e.recorder.Restore(ctx, e.graph, nodes)
	if err != nil {
		return n, err
	}
	e.logger.Info("fixed values restored", "count", n)
	return n, nil
}

// Eval evaluates names, or every node when none are given, inside the
// given scenarios entered in order.
func (e *Engine) Eval(scenarios []string, names ...string) ([]model.Entry, error) {
	var entries []model.Entry
	err := e.model.Within(scenarios, func() error {
		var err error
		entries, err = e.model.Snapshot(names...)
		return err
	})
	return entries, err
}

// Set fixes a node in the root store. Persistence failures are returned
// after the value has been applied.
func (e *Engine) Set(name string, value any) error {
	if err := e.model.Set(name, value); err != nil {
		return err
	}
	return e.persisted()
}

// Clear removes a value fixed with Set.
func (e *Engine) Clear(name string) error {
	if err := e.model.Clear(name); err != nil {
		return err
	}
	return e.persisted()
}

// SetWhatIf fixes node inside the named scenario.
func (e *Engine) SetWhatIf(scenario, node string, value any) error {
	return e.model.StageWhatIf(scenario, node, value)
}

// ClearWhatIf removes a what-if from the named scenario.
func (e *Engine) ClearWhatIf(scenario, node string) error {
	return e.model.UnstageWhatIf(scenario, node)
}

// AddScenario creates an empty scenario.
func (e *Engine) AddScenario(name string) error {
	_, err := e.model.AddScenario(name)
	return err
}

// Scenarios lists every scenario with its what-ifs.
func (e *Engine) Scenarios() []ScenarioInfo {
	names := e.model.Scenarios()
	out := make([]ScenarioInfo, 0, len(names))
	for _, name := range names {
		sc, err := e.model.Scenario(name)
		if err != nil {
			continue
		}
		info := ScenarioInfo{Name: name, WhatIfs: map[string]any{}}
		for _, d := range sc.WhatIfs() {
			v, _ := d.Value()
			info.WhatIfs[whatIfKey(d.Node())] = v
		}
		out = append(out, info)
	}
	return out
}

func whatIfKey(n *graph.Node) string {
	if len(n.Args()) == 0 {
		return n.Name()
	}
	return n.String()
}

// Nodes describes every declared node as seen from the root store.
func (e *Engine) Nodes() ([]NodeInfo, error) {
	def := e.model.Definition()
	out := make([]NodeInfo, 0, len(def.Nodes))
	for _, nd := range def.Nodes {
		n, err := e.model.Node(nd.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, NodeInfo{
			Name:    nd.Name,
			Label:   n.String(),
			Flags:   n.Flags().String(),
			Formula: nd.Formula,
			Doc:     nd.Doc,
			Fixed:   e.graph.IsFixed(n, e.graph.Root()),
		})
	}
	return out, nil
}

// Mermaid evaluates every node inside scenarios and renders the discovered
// dependency graph, styled by the state seen from the innermost scenario.
func (e *Engine) Mermaid(scenarios []string) (string, error) {
	var out string
	err := e.model.Within(scenarios, func() error {
		if _, err := e.model.Snapshot(); err != nil {
			return err
		}
		out = presentation.GenerateMermaid(e.graph.Nodes(), e.graph.ActiveStore())
		return nil
	})
	return out, err
}

// WhatIfs returns the what-ifs visible inside the given nested scenarios,
// innermost first.
func (e *Engine) WhatIfs(scenarios []string) (map[string]any, error) {
	if len(scenarios) == 0 {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	err := e.model.Within(scenarios, func() error {
		sc, err := e.model.Scenario(scenarios[len(scenarios)-1])
		if err != nil {
			return err
		}
		for _, d := range sc.ActiveWhatIfs() {
			if d.Store() == e.graph.Root() {
				continue
			}
			v, _ := d.Value()
			out[whatIfKey(d.Node())] = v
		}
		return nil
	})
	return out, err
}

func (e *Engine) persisted() error {
	if e.recorder == nil {
		return nil
	}
	if err := e.recorder.Err(); err != nil {
		return errors.Join(ErrPersistence, err)
	}
	return nil
}

// ErrPersistence marks a write that was applied to the graph but could not
// be persisted.
var ErrPersistence = errors.New("strata: value applied but not persisted")

