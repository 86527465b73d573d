package dsl_test

import (
	"testing"

	"github.com/aretw0/strata/pkg/dsl"
	"github.com/aretw0/strata/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type simpleSet struct {
	*dsl.Object
}

var (
	ssF = dsl.NewMethod("F", graph.ReadOnly, func(s *simpleSet, _ ...any) (string, error) {
		g, err := ssG.Bind(s).Get()
		return "f" + g, err
	})
	ssG = dsl.NewMethod("G", graph.Settable, func(s *simpleSet, _ ...any) (string, error) {
		h, err := ssH.Bind(s).Get()
		return "g" + h, err
	})
	ssH = dsl.NewMethod("H", graph.Settable, func(*simpleSet, ...any) (string, error) {
		return "h", nil
	})
)

func expect(t *testing.T, want string, a *dsl.Accessor[string]) {
	t.Helper()
	got, err := a.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAccessor_SimpleSet(t *testing.T) {
	s := &simpleSet{Object: dsl.NewObject(graph.New(), "simple")}
	f, g, h := ssF.Bind(s), ssG.Bind(s), ssH.Bind(s)

	assert.False(t, g.IsValid())
	expect(t, "gh", g)
	assert.False(t, f.IsValid())
	assert.True(t, g.IsValid())
	expect(t, "fgh", f)

	require.NoError(t, g.Set("G"))
	assert.False(t, f.IsValid())
	assert.True(t, g.IsFixed())
	expect(t, "G", g)
	expect(t, "fG", f)

	require.NoError(t, g.Clear())
	assert.False(t, f.IsValid())
	assert.False(t, g.IsValid())
	expect(t, "gh", g)
	expect(t, "fgh", f)

	require.NoError(t, g.Set("G"))
	expect(t, "fG", f)
	require.NoError(t, h.Set("H"))
	assert.True(t, f.IsValid(), "g is fixed so f is unaffected")
	expect(t, "G", g)
	expect(t, "fG", f)
	expect(t, "H", h)

	require.NoError(t, g.Clear())
	expect(t, "gH", g)
	expect(t, "fgH", f)
	require.NoError(t, h.Clear())
	expect(t, "gh", g)
	expect(t, "fgh", f)
	expect(t, "h", h)

	assert.ErrorIs(t, f.Set("x"), graph.ErrNotSettable)
	assert.ErrorIs(t, h.Clear(), graph.ErrNothingToClear)
}

type deps struct {
	*dsl.Object
}

// h is a plain method: its reads are attributed to whichever node calls it.
func (d *deps) h() (string, error) {
	i, err := depI.Bind(d).Get()
	return "h" + i, err
}

var (
	depF = dsl.NewMethod("F", graph.ReadOnly, func(d *deps, _ ...any) (string, error) {
		g, err := depG.Bind(d).Get()
		return "f" + g, err
	})
	depG = dsl.NewMethod("G", graph.ReadOnly, func(d *deps, _ ...any) (string, error) {
		h, err := d.h()
		return "g" + h, err
	})
	depI = dsl.NewMethod("I", graph.ReadOnly, func(d *deps, _ ...any) (string, error) {
		j, err := depJ.Bind(d).Get()
		if err != nil {
			return "", err
		}
		k, err := depK.Bind(d).Get()
		return "i" + j + k, err
	})
	depJ = dsl.NewMethod("J", graph.ReadOnly, func(*deps, ...any) (string, error) { return "j", nil })
	depK = dsl.NewMethod("K", graph.ReadOnly, func(*deps, ...any) (string, error) { return "k", nil })
)

func TestAccessor_Dependencies(t *testing.T) {
	d := &deps{Object: dsl.NewObject(graph.New(), "deps", dsl.WithID("d1"))}
	node := func(n *dsl.Accessor[string]) *graph.Node {
		nd, err := n.Node()
		require.NoError(t, err)
		return nd
	}
	ids := func(ns ...*graph.Node) []graph.NodeID {
		out := make([]graph.NodeID, 0, len(ns))
		for _, n := range ns {
			out = append(out, n.ID())
		}
		return out
	}
	f, g, i, j, k := node(depF.Bind(d)), node(depG.Bind(d)), node(depI.Bind(d)), node(depJ.Bind(d)), node(depK.Bind(d))

	expect(t, "j", depJ.Bind(d))
	assert.Empty(t, j.Inputs())
	assert.Empty(t, j.Outputs())

	expect(t, "ijk", depI.Bind(d))
	assert.Equal(t, ids(i), j.Outputs())
	assert.Equal(t, ids(i), k.Outputs())
	assert.Equal(t, ids(j, k), i.Inputs())
	assert.Empty(t, i.Outputs())
	assert.Empty(t, g.Inputs())

	expect(t, "ghijk", depG.Bind(d))
	assert.Equal(t, ids(g), i.Outputs())
	assert.Equal(t, ids(i), g.Inputs())
	assert.Empty(t, f.Inputs())

	expect(t, "fghijk", depF.Bind(d))
	assert.Equal(t, ids(f), g.Outputs())
	assert.Equal(t, ids(g), f.Inputs())
	assert.Empty(t, f.Outputs())

	assert.Equal(t, "deps/d1.F", f.String())
}

type initTest struct {
	*dsl.Object
}

var (
	itF = dsl.NewMethod("F", graph.Settable, func(*initTest, ...any) (any, error) { return nil, nil })
	itG = dsl.NewMethod("G", graph.Settable, func(*initTest, ...any) (any, error) { return nil, nil })
)

func newInitTest(t *testing.T, g *graph.Graph, inits func(*initTest) []dsl.Initializer) *initTest {
	t.Helper()
	it := &initTest{Object: dsl.NewObject(g, "init")}
	if inits != nil {
		require.NoError(t, dsl.Init(inits(it)...))
	}
	return it
}

func TestInit(t *testing.T) {
	g := graph.New()
	get := func(a *dsl.Accessor[any]) any {
		v, err := a.Get()
		require.NoError(t, err)
		return v
	}

	plain := newInitTest(t, g, nil)
	assert.Nil(t, get(itF.Bind(plain)))
	assert.Nil(t, get(itG.Bind(plain)))

	one := newInitTest(t, g, func(it *initTest) []dsl.Initializer {
		return []dsl.Initializer{dsl.Value(itF.Bind(it), any("x"))}
	})
	assert.Equal(t, "x", get(itF.Bind(one)))
	assert.Nil(t, get(itG.Bind(one)))

	both := newInitTest(t, g, func(it *initTest) []dsl.Initializer {
		return []dsl.Initializer{
			dsl.Value(itF.Bind(it), any("x")),
			dsl.Value(itG.Bind(it), any("y")),
		}
	})
	assert.Equal(t, "x", get(itF.Bind(both)))
	assert.Equal(t, "y", get(itG.Bind(both)))

	require.NoError(t, itF.Bind(both).Clear())
	require.NoError(t, itG.Bind(both).Clear())
	assert.Nil(t, get(itF.Bind(both)))
	assert.Nil(t, get(itG.Bind(both)))

	err := dsl.Init(dsl.Value(depJ.Bind(&deps{Object: dsl.NewObject(g, "deps")}), "j"))
	assert.ErrorIs(t, err, graph.ErrNotSettable)
}

type book struct {
	*dsl.Object
}

var (
	bookSpot = dsl.NewMethod("Spot", graph.Settable, func(*book, ...any) (float64, error) { return 100, nil })
	bookLeg  = dsl.NewMethod("Leg", graph.ReadOnly, func(b *book, args ...any) (float64, error) {
		spot, err := bookSpot.Bind(b).Get()
		if err != nil {
			return 0, err
		}
		return spot * args[0].(float64), nil
	})
)

func TestAccessor_Arguments(t *testing.T) {
	b := &book{Object: dsl.NewObject(graph.New(), "book", dsl.WithID("b"))}
	leg := bookLeg.Bind(b)

	v, err := leg.Get(2.0)
	require.NoError(t, err)
	assert.Equal(t, 200.0, v)
	v, err = leg.Get(0.5)
	require.NoError(t, err)
	assert.Equal(t, 50.0, v)

	require.NoError(t, bookSpot.Bind(b).Set(10))
	assert.False(t, leg.IsValid(2.0))
	assert.False(t, leg.IsValid(0.5))
	v, err = leg.Get(2.0)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)

	n, err := leg.Node(2.0)
	require.NoError(t, err)
	assert.Equal(t, "book/b.Leg(2)", n.String())

	_, err = leg.Get([]float64{1})
	assert.ErrorIs(t, err, graph.ErrUnhashable)
}

func TestAccessor_TypeMismatch(t *testing.T) {
	g := graph.New()
	b := &book{Object: dsl.NewObject(g, "book")}
	spot := bookSpot.Bind(b)
	n, err := spot.Node()
	require.NoError(t, err)

	require.NoError(t, g.SetValue(n, "not a number", nil))
	_, err = spot.Get()
	assert.ErrorIs(t, err, dsl.ErrTypeMismatch)
}
