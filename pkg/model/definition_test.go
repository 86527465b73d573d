package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/strata/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "nodes: [{name: A, value: 1}]"},
		{"unknown key", "name: m\ncolor: red"},
		{"unknown node key", "name: m\nnodes: [{name: A, valeu: 1}]"},
		{"bad identifier", "name: m\nnodes: [{name: 1x}]"},
		{"reserved name", "name: m\nnodes: [{name: args}]"},
		{"duplicate node", "name: m\nnodes: [{name: A}, {name: A}]"},
		{"value and formula", "name: m\nnodes: [{name: A, value: 1, formula: '2'}]"},
		{"bad flag", "name: m\nnodes: [{name: A, flags: [sticky]}]"},
		{"whatif on readonly", "name: m\nnodes: [{name: A}]\nscenarios: [{name: s, whatifs: {A: 1}}]"},
		{"whatif on unknown node", "name: m\nnodes: [{name: A}]\nscenarios: [{name: s, whatifs: {B: 1}}]"},
		{"duplicate scenario", "name: m\nscenarios: [{name: s}, {name: s}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, model.ErrInvalidDefinition)
		})
	}

	_, err := model.Parse([]byte("name: [unclosed"))
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	def, err := model.Parse([]byte(pricingModel))
	require.NoError(t, err)

	assert.Equal(t, "pricing", def.Name)
	assert.Equal(t, []string{"Price", "Qty", "Discount", "Total", "Leg", "Band", "Pick"}, def.Names())
	assert.Equal(t, []string{"stored"}, def.Nodes[0].Flags)
	assert.Equal(t, 10, def.Nodes[0].Value)
	assert.Equal(t, "Price() * Qty() - Discount()", def.Nodes[3].Formula)
	require.Len(t, def.Scenarios, 2)
	assert.Equal(t, map[string]any{"Qty": 10}, def.Scenarios[0].WhatIfs)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pricingModel), 0o644))

	def, err := model.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pricing", def.Name)

	_, err = model.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"3", 3},
		{"1.5", 1.5},
		{"true", true},
		{"abc", "abc"},
		{`"3"`, "3"},
		{"[1, 2]", []any{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := model.ParseValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
