// Package schema owns the console's schema-derived services: a load-once
// provider plus lint and autocomplete built on top of the shared schema.
package schema

import (
	"context"
	"os"
	"sync"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/querypad/querypad/introspection"
	"github.com/querypad/querypad/queryer"
)

// Loader produces a schema. Implementations are allowed to hit the network.
type Loader func(ctx context.Context) (*ast.Schema, error)

// Provider loads a schema exactly once per process and shares it by
// reference afterwards. The schema is never mutated after load. A failed
// load is remembered: Schema returns nil and the console degrades to plain
// text editing (no lint, no suggestions) while execution stays available.
type Provider struct {
	load Loader

	once   sync.Once
	schema *ast.Schema
	err    error
}

// NewProvider returns a provider backed by the given loader.
func NewProvider(load Loader) *Provider {
	return &Provider{load: load}
}

// Schema returns the shared schema, loading it on first call. Returns nil
// when loading failed; callers must treat nil as "no schema available".
func (p *Provider) Schema(ctx context.Context) *ast.Schema {
	p.once.Do(func() {
		p.schema, p.err = p.load(ctx)
	})
	return p.schema
}

// Err reports why the schema is unavailable, nil before the first load.
func (p *Provider) Err() error {
	return p.err
}

// EndpointLoader introspects the remote endpoint.
func EndpointLoader(q queryer.Queryer) Loader {
	return func(ctx context.Context) (*ast.Schema, error) {
		return introspection.Introspect(ctx, q)
	}
}

// FileLoader parses a local SDL file.
func FileLoader(path string) Loader {
	return func(ctx context.Context) (*ast.Schema, error) {
		input, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		loaded, perr := gqlparser.LoadSchema(&ast.Source{Name: path, Input: string(input)})
		if perr != nil {
			return nil, perr
		}
		return loaded, nil
	}
}
