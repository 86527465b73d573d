package model_test

import (
	"testing"

	"github.com/aretw0/strata/pkg/model"
	"github.com/expr-lang/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramCache(t *testing.T) {
	cache, err := model.NewProgramCache(8)
	require.NoError(t, err)

	p1, err := cache.Compile("A() + 1", []string{"A", "B"})
	require.NoError(t, err)
	p2, err := cache.Compile("A() + 1", []string{"B", "A"})
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, cache.Len())

	_, err = cache.Compile("A() + 1", []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	out, err := expr.Run(p1, map[string]any{
		"A":    func(...any) (any, error) { return 41, nil },
		"B":    func(...any) (any, error) { return nil, nil },
		"args": []any{},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestProgramCache_Errors(t *testing.T) {
	_, err := model.NewProgramCache(0)
	assert.Error(t, err)

	cache, err := model.NewProgramCache(1)
	require.NoError(t, err)
	_, err = cache.Compile("Missing()", []string{"A"})
	assert.Error(t, err)
	assert.Zero(t, cache.Len())
}
