package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the shared formula cache.
const DefaultCacheSize = 512

// ProgramCache holds compiled formulas keyed by source and by the node names
// they were checked against. Safe for concurrent use.
type ProgramCache struct {
	programs *lru.Cache[string, *vm.Program]
}

// NewProgramCache creates a cache holding at most size programs.
func NewProgramCache(size int) (*ProgramCache, error) {
	programs, err := lru.New[string, *vm.Program](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create program cache: %w", err)
	}
	return &ProgramCache{programs: programs}, nil
}

// Compile returns the program for formula, compiling it on a miss. Every name
// is callable from the formula as a node function.
func (c *ProgramCache) Compile(formula string, names []string) (*vm.Program, error) {
	sorted := slices.Sorted(slices.Values(names))
	key := formula + "\x00" + strings.Join(sorted, ",")
	if p, ok := c.programs.Get(key); ok {
		return p, nil
	}

	p, err := expr.Compile(formula, expr.Env(checkEnv(sorted)))
	if err != nil {
		return nil, fmt.Errorf("failed to compile formula %q: %w", formula, err)
	}
	c.programs.Add(key, p)
	return p, nil
}

// Len reports how many programs are cached.
func (c *ProgramCache) Len() int { return c.programs.Len() }

type nodeFunc = func(args ...any) (any, error)

func checkEnv(names []string) map[string]any {
	env := make(map[string]any, len(names)+1)
	for _, name := range names {
		env[name] = nodeFunc(func(...any) (any, error) { return nil, nil })
	}
	env["args"] = []any{}
	return env
}
