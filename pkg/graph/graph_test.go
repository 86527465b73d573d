package graph_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/aretw0/strata/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calc wires X() = Y() + Z() plus a few extra nodes used by individual tests:
// W() = X() + "!" and U() = "u" + Z().
type calc struct {
	g     *graph.Graph
	calls map[string]int

	x, y, z, w, u *graph.Node
}

func newCalc(t *testing.T, opts ...graph.Option) *calc {
	t.Helper()
	c := &calc{g: graph.New(opts...), calls: make(map[string]int)}

	str := func(n *graph.Node) (string, error) {
		v, err := c.g.Value(n)
		if err != nil {
			return "", err
		}
		return v.(string), nil
	}
	constant := func(name, value string) graph.ComputeFunc {
		return func(any, ...any) (any, error) {
			c.calls[name]++
			return value, nil
		}
	}

	y := graph.NewDescriptor("Y", graph.Settable, constant("Y", "y"))
	z := graph.NewDescriptor("Z", graph.Settable, constant("Z", "z"))
	x := graph.NewDescriptor("X", graph.ReadOnly, func(any, ...any) (any, error) {
		c.calls["X"]++
		a, err := str(c.y)
		if err != nil {
			return nil, err
		}
		b, err := str(c.z)
		if err != nil {
			return nil, err
		}
		return a + b, nil
	})
	w := graph.NewDescriptor("W", graph.ReadOnly, func(any, ...any) (any, error) {
		c.calls["W"]++
		a, err := str(c.x)
		return a + "!", err
	})
	u := graph.NewDescriptor("U", graph.ReadOnly, func(any, ...any) (any, error) {
		c.calls["U"]++
		b, err := str(c.z)
		return "u" + b, err
	})

	c.y = c.resolve(t, y)
	c.z = c.resolve(t, z)
	c.x = c.resolve(t, x)
	c.w = c.resolve(t, w)
	c.u = c.resolve(t, u)
	return c
}

func (c *calc) resolve(t *testing.T, d *graph.Descriptor) *graph.Node {
	t.Helper()
	n, err := c.g.Resolve(d, "calc")
	require.NoError(t, err)
	return n
}

func (c *calc) get(t *testing.T, n *graph.Node) any {
	t.Helper()
	v, err := c.g.Value(n)
	require.NoError(t, err)
	return v
}

func TestResolve(t *testing.T) {
	g := graph.New()
	d := graph.NewDescriptor("Price", graph.ReadOnly, nil)

	a, err := g.Resolve(d, "book", 1, "usd")
	require.NoError(t, err)
	b, err := g.Resolve(d, "book", 1, "usd")
	require.NoError(t, err)
	assert.Same(t, a, b, "identical keys resolve to the same node")

	other := []struct {
		name  string
		owner any
		args  []any
	}{
		{"different argument", "book", []any{2, "usd"}},
		{"different argument type", "book", []any{int64(1), "usd"}},
		{"prefix of arguments", "book", []any{1}},
		{"different owner", "ledger", []any{1, "usd"}},
		{"no owner", nil, []any{1, "usd"}},
	}
	for _, tc := range other {
		t.Run(tc.name, func(t *testing.T) {
			n, err := g.Resolve(d, tc.owner, tc.args...)
			require.NoError(t, err)
			assert.NotEqual(t, a.ID(), n.ID())
		})
	}

	t.Run("other descriptor with the same name", func(t *testing.T) {
		n, err := g.Resolve(graph.NewDescriptor("Price", graph.ReadOnly, nil), "book", 1, "usd")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID(), n.ID())
	})

	t.Run("unhashable argument", func(t *testing.T) {
		_, err := g.Resolve(d, "book", []int{1})
		assert.ErrorIs(t, err, graph.ErrUnhashable)
	})

	t.Run("unhashable owner", func(t *testing.T) {
		_, err := g.Resolve(d, map[string]int{})
		assert.ErrorIs(t, err, graph.ErrUnhashable)
	})

	type boxed struct{ V any }
	t.Run("boxed slice", func(t *testing.T) {
		assert.NotPanics(t, func() {
			_, err := g.Resolve(d, "book", boxed{V: map[string]int{}})
			assert.ErrorIs(t, err, graph.ErrUnhashable)
			_, err = g.Resolve(d, boxed{V: []int{1}})
			assert.ErrorIs(t, err, graph.ErrUnhashable)
		})
		n, err := g.Resolve(d, "book", boxed{V: 1})
		require.NoError(t, err)
		m, err := g.Resolve(d, "book", boxed{V: 1})
		require.NoError(t, err)
		assert.Same(t, n, m)
	})

	t.Run("NaN", func(t *testing.T) {
		before := len(g.Nodes())
		_, err := g.Resolve(d, "book", math.NaN())
		assert.ErrorIs(t, err, graph.ErrUnhashable)
		_, err = g.Resolve(d, "book", boxed{V: math.NaN()})
		assert.ErrorIs(t, err, graph.ErrUnhashable)
		_, err = g.Resolve(d, complex(math.NaN(), 0))
		assert.ErrorIs(t, err, graph.ErrUnhashable)
		assert.Len(t, g.Nodes(), before)
	})

	assert.Equal(t, `book.Price(1,"usd")`, a.String())
	assert.Equal(t, []any{1, "usd"}, a.Args())
	assert.Same(t, a, g.Node(a.ID()))
	assert.Nil(t, g.Node(graph.NodeID(len(g.Nodes()))))
}

func TestValue_Memoization(t *testing.T) {
	c := newCalc(t)

	assert.Equal(t, "yz", c.get(t, c.x))
	assert.Equal(t, "yz", c.get(t, c.x))
	assert.Equal(t, 1, c.calls["X"])
	assert.Equal(t, 1, c.calls["Y"])
	assert.True(t, c.g.IsValid(c.x, nil))
	assert.False(t, c.g.IsFixed(c.x, nil))
}

func TestValue_DependencyDiscovery(t *testing.T) {
	c := newCalc(t)
	c.get(t, c.w)

	assert.True(t, c.x.HasInput(c.y.ID()))
	assert.True(t, c.x.HasInput(c.z.ID()))
	assert.True(t, c.y.HasOutput(c.x.ID()))
	assert.True(t, c.x.HasOutput(c.w.ID()))
	assert.Equal(t, []graph.NodeID{c.x.ID()}, c.w.Inputs())
	assert.Empty(t, c.w.Outputs())
}

func TestValue_CachedReadStillRecordsDependency(t *testing.T) {
	c := newCalc(t)
	c.get(t, c.y)
	assert.Empty(t, c.y.Outputs())

	c.get(t, c.x)
	assert.Equal(t, 1, c.calls["Y"], "y was served from cache")
	assert.True(t, c.y.HasOutput(c.x.ID()))
}

func TestSetValue_InvalidatesTransitiveOutputs(t *testing.T) {
	c := newCalc(t)
	c.get(t, c.w)
	c.get(t, c.u)

	require.NoError(t, c.g.SetValue(c.y, "Y", nil))

	assert.False(t, c.g.IsValid(c.x, nil))
	assert.False(t, c.g.IsValid(c.w, nil))
	assert.True(t, c.g.IsValid(c.u, nil), "u does not read y")
	assert.True(t, c.g.IsValid(c.z, nil))
	assert.True(t, c.g.IsFixed(c.y, nil))

	assert.Equal(t, "Yz!", c.get(t, c.w))
	assert.Equal(t, 2, c.calls["X"])
	assert.Equal(t, 2, c.calls["W"])
	assert.Equal(t, 1, c.calls["U"])
}

func TestSetValue_Idempotent(t *testing.T) {
	c := newCalc(t)
	require.NoError(t, c.g.SetValue(c.y, "Y", nil))
	assert.Equal(t, "Yz", c.get(t, c.x))

	require.NoError(t, c.g.SetValue(c.y, "Y", nil))
	assert.True(t, c.g.IsValid(c.x, nil))
	v, err := c.g.Peek(c.x, nil)
	require.NoError(t, err)
	assert.Equal(t, "Yz", v)
	assert.Equal(t, 1, c.calls["X"])
}

func TestSetValue_FixedNodeStopsPropagation(t *testing.T) {
	c := newCalc(t)
	xs := graph.NewDescriptor("XS", graph.Settable, func(any, ...any) (any, error) {
		v, err := c.g.Value(c.y)
		return v, err
	})
	n := c.resolve(t, xs)
	tail := c.resolve(t, graph.NewDescriptor("Tail", graph.ReadOnly, func(any, ...any) (any, error) {
		return c.g.Value(n)
	}))

	assert.Equal(t, "y", c.get(t, tail))
	require.True(t, c.y.HasOutput(n.ID()))

	require.NoError(t, c.g.SetValue(n, "fixed", nil))
	assert.False(t, c.g.IsValid(tail, nil))
	assert.Equal(t, "fixed", c.get(t, tail))

	require.NoError(t, c.g.SetValue(c.y, "Y", nil))
	assert.True(t, c.g.IsValid(tail, nil))
	assert.Equal(t, "fixed", c.get(t, tail))
}

func TestClearValue(t *testing.T) {
	c := newCalc(t)
	require.NoError(t, c.g.SetValue(c.y, "Y", nil))
	assert.Equal(t, "Yz", c.get(t, c.x))

	require.NoError(t, c.g.ClearValue(c.y, nil))
	assert.False(t, c.g.IsFixed(c.y, nil))
	assert.Equal(t, "yz", c.get(t, c.x))

	err := c.g.ClearValue(c.y, nil)
	assert.ErrorIs(t, err, graph.ErrNothingToClear)
}

func TestErrors(t *testing.T) {
	c := newCalc(t)

	t.Run("clear never set", func(t *testing.T) {
		assert.ErrorIs(t, c.g.ClearValue(c.z, nil), graph.ErrNothingToClear)
	})
	t.Run("set read-only", func(t *testing.T) {
		assert.ErrorIs(t, c.g.SetValue(c.x, "x", nil), graph.ErrNotSettable)
		assert.ErrorIs(t, c.g.ClearValue(c.x, nil), graph.ErrNotSettable)
	})
	t.Run("what-if outside scenario", func(t *testing.T) {
		assert.ErrorIs(t, c.g.SetWhatIf(c.y, "q", nil), graph.ErrNotOverlayable)
		assert.ErrorIs(t, c.g.ClearWhatIf(c.y, nil), graph.ErrNotOverlayable)
	})
	t.Run("what-if on read-only", func(t *testing.T) {
		sc := c.g.NewScenario("s")
		require.NoError(t, sc.Run(func() error {
			assert.ErrorIs(t, c.g.SetWhatIf(c.x, "x", nil), graph.ErrNotOverlayable)
			return nil
		}))
	})
	t.Run("peek invalid", func(t *testing.T) {
		_, err := c.g.Peek(c.u, nil)
		assert.ErrorIs(t, err, graph.ErrInvalidRead)
	})
	t.Run("exit non-top", func(t *testing.T) {
		s1 := c.g.NewScenario("s1")
		s2 := c.g.NewScenario("s2")
		require.NoError(t, s1.Enter())
		require.NoError(t, s2.Enter())
		assert.ErrorIs(t, s1.Exit(), graph.ErrStackDiscipline)
		require.NoError(t, s2.Exit())
		require.NoError(t, s1.Exit())
		assert.ErrorIs(t, s1.Exit(), graph.ErrStackDiscipline)
	})
	t.Run("re-enter active", func(t *testing.T) {
		s := c.g.NewScenario("s")
		require.NoError(t, s.Enter())
		assert.ErrorIs(t, s.Enter(), graph.ErrDuplicateScenario)
		require.NoError(t, s.Exit())
	})
}

func TestValue_ComputationErrorIsNotCached(t *testing.T) {
	g := graph.New()
	fail := true
	boom := errors.New("boom")
	n, err := g.Resolve(graph.NewDescriptor("Flaky", graph.ReadOnly, func(any, ...any) (any, error) {
		if fail {
			return nil, boom
		}
		return 42, nil
	}), nil)
	require.NoError(t, err)

	_, err = g.Value(n)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "evaluate Flaky")
	assert.False(t, g.IsValid(n, nil))

	fail = false
	v, err := g.Value(n)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestValue_Cycle(t *testing.T) {
	g := graph.New()
	var self *graph.Node
	d := graph.NewDescriptor("Self", graph.ReadOnly, func(any, ...any) (any, error) {
		return g.Value(self)
	})
	self, _ = g.Resolve(d, nil)

	_, err := g.Value(self)
	assert.ErrorIs(t, err, graph.ErrCycle)
	assert.Empty(t, self.Inputs())
}

func TestValue_ReadsOwnBaseValueInScenario(t *testing.T) {
	c := newCalc(t)
	var delta *graph.Node
	inBase := false
	d := graph.NewDescriptor("Delta", graph.ReadOnly, func(any, ...any) (any, error) {
		cur, err := c.g.Value(c.y)
		if err != nil || c.g.ActiveStore() == c.g.Root() || inBase {
			return cur, err
		}
		inBase = true
		defer func() { inBase = false }()
		base, err := c.g.ValueIn(delta, c.g.Root())
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("%v->%v", base, cur), nil
	})
	delta = c.resolve(t, d)

	s := c.g.NewScenario("bump")
	require.NoError(t, s.Run(func() error {
		if err := c.g.SetWhatIf(c.y, "q", nil); err != nil {
			return err
		}
		v, err := c.g.Value(delta)
		require.NoError(t, err)
		assert.Equal(t, "y->q", v)
		return nil
	}))

	assert.True(t, delta.HasInput(c.y.ID()), "edges gathered in the scenario survive the base computation")
	assert.True(t, c.g.IsValid(delta, c.g.Root()))
	assert.Equal(t, "y", c.get(t, delta))
}

func TestValue_InactiveScenario(t *testing.T) {
	c := newCalc(t)
	s := c.g.NewScenario("staged")

	require.NoError(t, c.g.SetWhatIf(c.y, "q", s.Store()))
	assert.True(t, c.g.IsFixed(c.y, s.Store()))
	assert.Len(t, s.WhatIfs(), 1)

	_, err := c.g.ValueIn(c.x, s.Store())
	assert.ErrorIs(t, err, graph.ErrInactiveStore)

	require.NoError(t, s.Run(func() error {
		assert.Equal(t, "qz", c.get(t, c.x))
		return nil
	}))
}

func TestValue_ConditionalInputsArePruned(t *testing.T) {
	g := graph.New()
	flag, _ := g.Resolve(graph.NewDescriptor("Flag", graph.Settable, func(any, ...any) (any, error) { return true, nil }), nil)
	a, _ := g.Resolve(graph.NewDescriptor("A", graph.Settable, func(any, ...any) (any, error) { return "a", nil }), nil)
	b, _ := g.Resolve(graph.NewDescriptor("B", graph.Settable, func(any, ...any) (any, error) { return "b", nil }), nil)
	pick, _ := g.Resolve(graph.NewDescriptor("Pick", graph.ReadOnly, func(any, ...any) (any, error) {
		on, err := g.Value(flag)
		if err != nil {
			return nil, err
		}
		if on.(bool) {
			return g.Value(a)
		}
		return g.Value(b)
	}), nil)

	v, err := g.Value(pick)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	assert.True(t, pick.HasInput(a.ID()))

	require.NoError(t, g.SetValue(flag, false, nil))
	v, err = g.Value(pick)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.False(t, pick.HasInput(a.ID()))
	assert.False(t, a.HasOutput(pick.ID()))

	require.NoError(t, g.SetValue(a, "A", nil))
	assert.True(t, g.IsValid(pick, nil), "a is no longer an input")
}

func TestGraph_RootStackCannotBeEmptied(t *testing.T) {
	g := graph.New(graph.WithRootName("base"))
	assert.Equal(t, "base", g.Root().Name())
	assert.Same(t, g.Root(), g.ActiveStore())
	assert.Equal(t, 0, g.Depth())
	assert.Nil(t, g.Root().Scenario())
}
