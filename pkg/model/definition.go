package model

import (
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/aretw0/strata/pkg/graph"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is returned when a definition fails validation.
var ErrInvalidDefinition = errors.New("model: invalid definition")

// Definition is the decoded form of a model file.
type Definition struct {
	Name      string        `yaml:"name" mapstructure:"name"`
	Nodes     []NodeDef     `yaml:"nodes" mapstructure:"nodes"`
	Scenarios []ScenarioDef `yaml:"scenarios" mapstructure:"scenarios"`
}

// NodeDef declares one computation of the model object.
type NodeDef struct {
	Name    string   `yaml:"name" mapstructure:"name"`
	Flags   []string `yaml:"flags" mapstructure:"flags"`
	Value   any      `yaml:"value" mapstructure:"value"`
	Formula string   `yaml:"formula" mapstructure:"formula"`
	Doc     string   `yaml:"doc" mapstructure:"doc"`
}

// ScenarioDef declares a named scenario and the what-ifs it applies.
type ScenarioDef struct {
	Name    string         `yaml:"name" mapstructure:"name"`
	WhatIfs map[string]any `yaml:"whatifs" mapstructure:"whatifs"`
}

// Parse decodes and validates a YAML definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}

	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadFile reads and parses the model file at path.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return Parse(data)
}

// Validate checks the structural rules of a definition. Formulas are
// compiled later by Build.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidDefinition)
	}

	flags := make(map[string]graph.Flags, len(d.Nodes))
	for _, n := range d.Nodes {
		if !isIdentifier(n.Name) {
			return fmt.Errorf("%w: node name %q is not an identifier", ErrInvalidDefinition, n.Name)
		}
		if n.Name == "args" {
			return fmt.Errorf("%w: node name %q is reserved", ErrInvalidDefinition, n.Name)
		}
		if _, dup := flags[n.Name]; dup {
			return fmt.Errorf("%w: duplicate node %q", ErrInvalidDefinition, n.Name)
		}
		if n.Value != nil && n.Formula != "" {
			return fmt.Errorf("%w: node %q has both value and formula", ErrInvalidDefinition, n.Name)
		}
		f, err := graph.ParseFlags(n.Flags...)
		if err != nil {
			return fmt.Errorf("%w: node %q: %v", ErrInvalidDefinition, n.Name, err)
		}
		flags[n.Name] = f
	}

	seen := make(map[string]bool, len(d.Scenarios))
	for _, s := range d.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("%w: scenario without name", ErrInvalidDefinition)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate scenario %q", ErrInvalidDefinition, s.Name)
		}
		seen[s.Name] = true
		for node := range s.WhatIfs {
			f, ok := flags[node]
			if !ok {
				return fmt.Errorf("%w: scenario %q: unknown node %q", ErrInvalidDefinition, s.Name, node)
			}
			if !f.Has(graph.Overlayable) {
				return fmt.Errorf("%w: scenario %q: node %q is not overlayable", ErrInvalidDefinition, s.Name, node)
			}
		}
	}
	return nil
}

// Names returns the node names in declaration order.
func (d *Definition) Names() []string {
	names := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		names[i] = n.Name
	}
	return names
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// ParseValue decodes a YAML scalar or flow value given on a command line,
// so "3" is an int, "1.5" a float, "true" a bool and "[1, 2]" a list.
func ParseValue(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("failed to parse value %q: %w", s, err)
	}
	return v, nil
}
