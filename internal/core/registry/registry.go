package registry

import (
	"fmt"
	"sort"
	"strings"
)

// Backend is one resolved row of the backend table.
type Backend struct {
	Tag      string   `json:"tag"`
	Model    string   `json:"model"`
	Sampling Sampling `json:"sampling"`
	// Base is the process-wide sampling before per-backend overrides. The
	// availability probe uses its temperature for every backend.
	Base Sampling `json:"-"`
}

// Registry maps backend tags to model identifiers and sampling parameters.
// It is read-only after construction.
type Registry struct {
	backends map[string]Backend
}

// New builds the registry from the built-in table. defaults replaces
// DefaultSampling as the base for every backend, and overrides (keyed by tag,
// case-insensitive) are applied on top of the built-in per-backend rows.
func New(defaults Sampling, overrides map[string]Override) (*Registry, error) {
	r := &Registry{backends: make(map[string]Backend, len(builtin))}

	for _, b := range builtin {
		r.backends[b.tag] = Backend{
			Tag:      b.tag,
			Model:    b.model,
			Sampling: b.override.Apply(defaults),
			Base:     defaults,
		}
	}

	for tag, o := range overrides {
		key := strings.ToLower(strings.TrimSpace(tag))
		b, ok := r.backends[key]
		if !ok {
			return nil, fmt.Errorf("override for unknown backend %q", tag)
		}
		if o.Model != "" {
			b.Model = o.Model
		}
		b.Sampling = o.Apply(b.Sampling)
		r.backends[key] = b
	}

	return r, nil
}

// Default returns the registry built from the built-in table and DefaultSampling.
func Default() *Registry {
	r, _ := New(DefaultSampling, nil)
	return r
}

// Lookup resolves a backend tag, ignoring case.
func (r *Registry) Lookup(name string) (Backend, bool) {
	b, ok := r.backends[strings.ToLower(name)]
	return b, ok
}

// Tags returns all supported tags in sorted order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.backends))
	for tag := range r.backends {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Backends returns every row, sorted by tag.
func (r *Registry) Backends() []Backend {
	tags := r.Tags()
	out := make([]Backend, 0, len(tags))
	for _, tag := range tags {
		out = append(out, r.backends[tag])
	}
	return out
}
