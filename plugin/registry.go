// Package plugin provides content analysis plugins run alongside
// summarization.
package plugin

import (
	"slices"
	"sync"

	"github.com/fwojciec/websum"
)

var _ websum.PluginRegistry = (*Registry)(nil)

// Registry resolves plugins by name. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]websum.Plugin
}

// NewRegistry creates a registry holding plugins.
func NewRegistry(plugins ...websum.Plugin) *Registry {
	r := &Registry{plugins: make(map[string]websum.Plugin, len(plugins))}
	for _, p := range plugins {
		r.Register(p)
	}
	return r
}

// Default returns a registry with every built-in plugin.
func Default() *Registry {
	return NewRegistry(
		NewReadability(),
		NewKeywords(DefaultKeywordCount),
		NewSentiment(),
		NewLanguage(),
	)
}

// Register adds p, replacing any plugin with the same name.
func (r *Registry) Register(p websum.Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Name()] = p
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (websum.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Names returns the registered plugin names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
