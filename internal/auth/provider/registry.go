package provider

import (
	"fmt"

	"oauth-service/internal/resilience"
)

var (
	// ErrUnsupported is returned when no provider is registered under
	// the requested name.
	ErrUnsupported = resilience.New(resilience.KindValidation, "unsupported oauth provider")

	// ErrIncompleteConfig is returned when a registered provider is
	// missing required configuration and cannot run a flow.
	ErrIncompleteConfig = resilience.New(resilience.KindConfiguration, "provider config incomplete")
)

// Registry holds all configured OAuth providers and allows lookup by
// provider name. It performs no auth logic itself.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers the given OAuth providers by name.
// Provider names must be unique.
func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider)
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Lookup returns the provider by name. Unknown names fail with
// ErrUnsupported; a provider with an incomplete config fails with
// ErrIncompleteConfig and must not be used to initiate a flow.
func (r *Registry) Lookup(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	if !p.Config().Complete() {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteConfig, name)
	}
	return p, nil
}

// IsSupported reports whether a provider is registered under name.
func (r *Registry) IsSupported(name string) bool {
	_, ok := r.providers[name]
	return ok
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
