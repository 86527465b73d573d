package graph

import (
	"io"
	"log/slog"
)

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for debug traces of evaluation,
// invalidation and scenario transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithHooks adds lifecycle hooks. It can be given several times; hooks run in
// the order they were added.
func WithHooks(hooks Hooks) Option {
	return func(g *Graph) {
		g.hooks = CombineHooks(g.hooks, hooks)
	}
}

// WithRootName names the root store. The default is "root".
func WithRootName(name string) Option {
	return func(g *Graph) {
		g.root.name = name
	}
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
