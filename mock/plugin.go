package mock

import (
	"context"

	"github.com/fwojciec/websum"
)

var _ websum.Plugin = (*Plugin)(nil)

// Plugin is a mock implementation of websum.Plugin.
type Plugin struct {
	NameFn    func() string
	ProcessFn func(ctx context.Context, content string, meta websum.PageMetadata) (*websum.PluginResult, error)
}

func (p *Plugin) Name() string {
	return p.NameFn()
}

func (p *Plugin) Process(ctx context.Context, content string, meta websum.PageMetadata) (*websum.PluginResult, error) {
	return p.ProcessFn(ctx, content, meta)
}

var _ websum.PluginRegistry = (*PluginRegistry)(nil)

// PluginRegistry is a mock implementation of websum.PluginRegistry.
type PluginRegistry struct {
	GetFn   func(name string) (websum.Plugin, bool)
	NamesFn func() []string
}

func (r *PluginRegistry) Get(name string) (websum.Plugin, bool) {
	return r.GetFn(name)
}

func (r *PluginRegistry) Names() []string {
	return r.NamesFn()
}
