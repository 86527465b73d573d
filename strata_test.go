package strata_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/strata"
	"github.com/aretw0/strata/pkg/adapters/memory"
	"github.com/aretw0/strata/pkg/graph"
	"github.com/aretw0/strata/pkg/model"
	"github.com/aretw0/strata/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pricing = `
name: pricing
nodes:
  - name: Price
    flags: [stored]
    value: 10
    doc: unit price
  - name: Qty
    flags: [overlayable]
    value: 3
  - name: Total
    formula: Price() * Qty()
scenarios:
  - name: bulk
    whatifs: {Qty: 10}
  - name: promo
    whatifs: {Price: 8}
`

func newEngine(t *testing.T, opts ...strata.Option) *strata.Engine {
	t.Helper()
	def, err := model.Parse([]byte(pricing))
	require.NoError(t, err)
	eng, err := strata.New(def, opts...)
	require.NoError(t, err)
	return eng
}

func values(entries []model.Entry) map[string]any {
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		out[e.Name] = e.Value
	}
	return out
}

func TestEngine_Eval(t *testing.T) {
	eng := newEngine(t)

	entries, err := eng.Eval(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Price": 10, "Qty": 3, "Total": 30}, values(entries))

	entries, err = eng.Eval([]string{"bulk", "promo"}, "Total")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Total": 80}, values(entries))

	_, err = eng.Eval([]string{"missing"})
	assert.ErrorIs(t, err, model.ErrUnknownScenario)
	assert.Zero(t, eng.Graph().Depth())
}

func TestEngine_SetPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	eng := newEngine(t, strata.WithStore(store))
	require.NoError(t, eng.Set("Price", 12))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pricing/pricing.Price"}, keys)

	fresh := newEngine(t, strata.WithStore(store))
	n, err := fresh.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := fresh.Eval(nil, "Total")
	require.NoError(t, err)
	assert.Equal(t, 36, entries[0].Value)

	require.NoError(t, fresh.Clear("Price"))
	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

type brokenStore struct{ *memory.Store }

func (brokenStore) Save(context.Context, ports.Record) error { return errors.New("read-only") }

func TestEngine_PersistenceFailure(t *testing.T) {
	eng := newEngine(t, strata.WithStore(brokenStore{memory.NewStore()}))

	err := eng.Set("Price", 1)
	assert.ErrorIs(t, err, strata.ErrPersistence)

	entries, err := eng.Eval(nil, "Price")
	require.NoError(t, err)
	assert.Equal(t, 1, entries[0].Value, "the value is applied anyway")
}

func TestEngine_WhatIfs(t *testing.T) {
	eng := newEngine(t)

	require.NoError(t, eng.AddScenario("tiny"))
	require.NoError(t, eng.SetWhatIf("tiny", "Qty", 1))
	entries, err := eng.Eval([]string{"tiny"}, "Total")
	require.NoError(t, err)
	assert.Equal(t, 10, entries[0].Value)

	got, err := eng.WhatIfs([]string{"bulk", "promo"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Qty": 10, "Price": 8}, got)

	assert.Equal(t, []strata.ScenarioInfo{
		{Name: "bulk", WhatIfs: map[string]any{"Qty": 10}},
		{Name: "promo", WhatIfs: map[string]any{"Price": 8}},
		{Name: "tiny", WhatIfs: map[string]any{"Qty": 1}},
	}, eng.Scenarios())

	require.NoError(t, eng.ClearWhatIf("tiny", "Qty"))
	assert.ErrorIs(t, eng.ClearWhatIf("tiny", "Qty"), graph.ErrNothingToClear)
	assert.ErrorIs(t, eng.SetWhatIf("tiny", "Total", 1), graph.ErrNotOverlayable)
	assert.ErrorIs(t, eng.AddScenario("tiny"), model.ErrScenarioExists)
}

func TestEngine_Nodes(t *testing.T) {
	eng := newEngine(t)
	require.NoError(t, eng.Set("Price", 11))

	nodes, err := eng.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, strata.NodeInfo{
		Name: "Price", Label: "pricing/pricing.Price", Flags: "stored", Doc: "unit price", Fixed: true,
	}, nodes[0])
	assert.Equal(t, "Price() * Qty()", nodes[2].Formula)
	assert.False(t, nodes[2].Fixed)
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eng := newEngine(t, strata.WithMetrics(reg))

	_, err := eng.Eval([]string{"bulk"})
	require.NoError(t, err)

	m := eng.Metrics()
	require.NotNil(t, m)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("Total")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Scenarios.WithLabelValues("exit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Discarded), "Price and Total are dropped with bulk")
}

func TestEngine_Mermaid(t *testing.T) {
	eng := newEngine(t)
	out, err := eng.Mermaid([]string{"bulk"})
	require.NoError(t, err)
	assert.Contains(t, out, "graph LR")
	assert.Contains(t, out, `[("pricing/pricing.Price")]`)
	assert.Contains(t, out, "%% State in bulk")
	assert.Zero(t, eng.Graph().Depth())
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pricing), 0o644))

	eng, err := strata.Open(path, strata.WithObjectID("acme"))
	require.NoError(t, err)
	assert.Equal(t, "pricing", eng.Name)

	n, err := eng.Model().Node("Total")
	require.NoError(t, err)
	assert.Equal(t, "pricing/acme.Total", n.String())

	_, err = strata.Open(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strata.Version)
}
