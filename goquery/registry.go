package goquery

import (
	"sort"

	"github.com/fwojciec/novelsrc"
)

var _ novelsrc.ProviderRegistry = (*Registry)(nil)

// Registry manages providers by name and dispatches URLs to the provider
// that recognizes them. Providers are tried in name order so dispatch is
// deterministic.
type Registry struct {
	providers map[string]novelsrc.Provider
}

// NewRegistry creates a new Registry holding the given providers.
func NewRegistry(providers ...novelsrc.Provider) *Registry {
	r := &Registry{providers: make(map[string]novelsrc.Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a provider.
// If a provider with the same name is already registered, it is replaced.
func (r *Registry) Register(p novelsrc.Provider) {
	r.providers[p.Name()] = p
}

// Get returns the provider with the given name.
// Returns nil if no provider is registered under that name.
func (r *Registry) Get(name string) novelsrc.Provider {
	return r.providers[name]
}

// ForURL returns the first provider whose ExtractBookID accepts the URL,
// together with the extracted book ID.
func (r *Registry) ForURL(rawURL string) (novelsrc.Provider, string, error) {
	for _, name := range r.List() {
		p := r.providers[name]
		if id, err := p.ExtractBookID(rawURL); err == nil {
			return p, id, nil
		}
	}
	return nil, "", novelsrc.Errorf(novelsrc.EINVALID, "no provider recognizes %q", rawURL)
}

// List returns the names of all registered providers in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
