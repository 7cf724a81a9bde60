package providers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nyayai/internal/core"
)

// Create resolves name (case-insensitive) to a backend, builds its provider
// and runs the probe. It returns the provider only if the probe succeeded.
// Unknown names fail without any network call.
func Create(ctx context.Context, name, credential string, opts ...Option) (*OpenRouterProvider, error) {
	o := buildOptions(opts)

	backend, ok := o.registry.Lookup(name)
	if !ok {
		o.log.Warn("unknown provider type", zap.String("provider", name))
		return nil, &core.ProviderError{
			Kind:    core.KindConfig,
			Backend: name,
			Message: fmt.Sprintf("unknown provider type %q", name),
		}
	}

	p := newProvider(backend, credential, o)
	if err := p.Initialize(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Factory builds ready providers. It lets callers swap the gateway in tests.
type Factory func(ctx context.Context, name, credential string) (core.Provider, error)

// NewFactory returns a Factory that calls Create with opts.
func NewFactory(opts ...Option) Factory {
	return func(ctx context.Context, name, credential string) (core.Provider, error) {
		p, err := Create(ctx, name, credential, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
