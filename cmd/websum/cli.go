package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fwojciec/websum"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Defaults are the configured summary options that flags override.
	Defaults websum.SummaryOptions

	Service  websum.SummaryService
	Sitemaps websum.SitemapService
	Writer   websum.ResultWriter
	Handler  http.Handler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config      string `short:"c" type:"path" help:"YAML config file (default: $WEBSUM_CONFIG)"`
	Verbose     bool   `short:"v" help:"Enable debug logging"`
	LogFormat   string `name:"log-format" enum:"text,json" default:"text" help:"Log output format (text, json)"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address"`
	NoBrowser   bool   `name:"no-browser" help:"Fetch static HTML without launching Chrome"`
	Extractor   string `enum:"trafilatura,readability" default:"trafilatura" help:"Content extractor (trafilatura, readability)"`

	Summarize SummarizeCmd `cmd:"" help:"Summarize a single web page"`
	Batch     BatchCmd     `cmd:"" help:"Summarize many web pages in order"`
	Serve     ServeCmd     `cmd:"" help:"Serve the summarization HTTP API"`
}

// SummaryFlags are the per-request options shared by summarize and batch.
// Empty values keep the configured defaults.
type SummaryFlags struct {
	Length        string   `short:"l" help:"Summary length (short, medium, long)"`
	Format        string   `short:"f" help:"Summary format (paragraphs, bullets, json)"`
	Output        string   `short:"o" help:"Output mode (text, markdown, json, xml)"`
	Plugins       []string `short:"p" sep:"," help:"Analysis plugins to run (comma separated)"`
	MaxRetries    int      `name:"max-retries" default:"-1" help:"Attempts per network call (default from config)"`
	MaxChunkChars int      `name:"max-chunk-chars" help:"Largest chunk sent to the model in one call"`
}

// Apply overlays the flags that were set onto opts.
func (f SummaryFlags) Apply(opts websum.SummaryOptions) websum.SummaryOptions {
	if f.Length != "" {
		opts.Length = websum.Length(strings.ToLower(f.Length))
	}
	if f.Format != "" {
		opts.Format = websum.Format(strings.ToLower(f.Format))
	}
	if f.Output != "" {
		opts.Output = websum.OutputMode(strings.ToLower(f.Output))
	}
	if len(f.Plugins) > 0 {
		opts.Plugins = f.Plugins
	}
	if f.MaxRetries >= 0 {
		opts.MaxRetries = f.MaxRetries
	}
	if f.MaxChunkChars > 0 {
		opts.MaxChunkChars = f.MaxChunkChars
	}
	return opts
}

// SummarizeCmd is the "summarize" subcommand.
type SummarizeCmd struct {
	URL         string `arg:"" help:"Page URL"`
	FollowLinks int    `name:"follow-links" help:"Also summarize up to N same-site links"`
	Out         string `type:"path" help:"Write output to a file instead of stdout"`

	SummaryFlags `embed:""`
}

// BatchCmd is the "batch" subcommand.
type BatchCmd struct {
	URLs        []string `arg:"" optional:"" name:"url" help:"Page URLs"`
	File        string   `type:"existingfile" help:"Read URLs from a file, one per line"`
	Sitemap     string   `help:"Discover URLs from a site's sitemap"`
	Include     []string `sep:"none" help:"Only sitemap URLs matching this regex (repeatable)"`
	Exclude     []string `sep:"none" help:"Skip sitemap URLs matching this regex (repeatable)"`
	Limit       int      `help:"Maximum number of sitemap URLs"`
	Comparative bool     `help:"Add a comparative analysis across successful pages"`
	OutDir      string   `name:"out-dir" type:"path" help:"Also write one markdown file per summarized page"`
	Out         string   `type:"path" help:"Write output to a file instead of stdout"`

	SummaryFlags `embed:""`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:":8080" help:"Listen address"`
}
