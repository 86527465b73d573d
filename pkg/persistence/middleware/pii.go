package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/strata/pkg/ports"
)

const mask = "***"

type piiMiddleware struct {
	next     ports.FixedStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks sensitive data before it is saved.
// A record whose node name matches a pattern is masked entirely; for structured
// values every map field whose name matches is masked, at any depth.
// Masking is one-way: restored values carry the mask.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.FixedStore) ports.FixedStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, rec ports.Record) error {
	masked := rec
	if m.matches(rec.Node) {
		masked.Value = mask
	} else {
		masked.Value = m.maskValue(rec.Value)
	}
	return m.next.Save(ctx, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, key string) (ports.Record, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// maskValue returns a masked copy and never modifies v.
func (m *piiMiddleware) maskValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			if m.matches(k) {
				out[k] = mask
				continue
			}
			out[k] = m.maskValue(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = m.maskValue(sub)
		}
		return out
	}
	return v
}
