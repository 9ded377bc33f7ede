package websum

import "context"

// PluginResult is the output of an analysis plugin.
type PluginResult struct {
	Analysis map[string]any
	Tags     []string
}

// Plugin analyzes extracted page content.
type Plugin interface {
	// Name returns the identifier used in SummaryOptions.Plugins.
	Name() string

	// Process analyzes content and returns its findings.
	Process(ctx context.Context, content string, meta PageMetadata) (*PluginResult, error)
}

// PluginRegistry resolves plugins by name.
type PluginRegistry interface {
	Get(name string) (Plugin, bool)
	Names() []string
}
