package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/bloom"
	"golang.org/x/sync/errgroup"
)

// Visited-set sizing for link following.
const (
	visitedExpectedURLs      = 1000
	visitedFalsePositiveRate = 0.001
)

// run holds state shared by every URL of one SummarizeBatch or
// SummarizeURL call.
type run struct {
	visited   *bloom.Filter
	summaries map[string]string // content hash to summary
}

func newRun() *run {
	return &run{
		visited:   bloom.NewFilter(visitedExpectedURLs, visitedFalsePositiveRate),
		summaries: make(map[string]string),
	}
}

// process runs one valid URL through navigation, extraction,
// summarization and plugins. Any failure, including a panic, yields an
// error result; the error is also returned for callers that need it.
// The rendered HTML is returned for link extraction.
func (p *Pipeline) process(ctx context.Context, rawURL string, opts websum.SummaryOptions, run *run) (*websum.BatchResult, string, error) {
	start := time.Now()
	result := &websum.BatchResult{URL: rawURL}

	html, err := p.chain(ctx, rawURL, opts, run, result)
	elapsed := time.Since(start)
	if err != nil {
		failed := &websum.BatchResult{
			URL:            rawURL,
			Error:          websum.NewResultError(err),
			Retries:        result.Retries,
			ProcessingTime: elapsed,
		}
		p.observer().URLProcessed(websum.ErrorCode(err), elapsed)
		return failed, "", err
	}

	result.ProcessingTime = elapsed
	p.observer().URLProcessed("success", elapsed)
	return result, html, nil
}

func (p *Pipeline) chain(ctx context.Context, rawURL string, opts websum.SummaryOptions, run *run, result *websum.BatchResult) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = websum.Errorf(websum.EINTERNAL, "processing %s: panic: %v", rawURL, r)
		}
	}()

	policy := p.Retry.WithMaxRetries(opts.MaxRetries)
	html, retries, err := retryFetch(ctx, p.Browser, policy, rawURL)
	result.Retries += retries
	if err != nil {
		return "", err
	}

	extracted, err := p.Extractor.Extract(html)
	if err != nil {
		return "", websum.WrapError(websum.ECONTENT, err, "extracting content from %s", rawURL)
	}
	text := strings.TrimSpace(extracted.Text)
	if n := utf8.RuneCountInString(text); n < websum.MinContentChars {
		return "", websum.Errorf(websum.ECONTENT, "extracted content too short (%d characters)", n)
	}

	title := extracted.Title
	if title == "" {
		title = rawURL
	}
	result.Metadata = &websum.PageMetadata{
		Title:       title,
		Description: extracted.Description,
		URL:         rawURL,
		Timestamp:   time.Now().UTC(),
	}
	result.Content = text
	if opts.Output == websum.OutputMarkdown {
		markdown, err := p.Converter.Convert(extracted.ContentHTML)
		if err != nil {
			return "", websum.WrapError(websum.ECONTENT, err, "converting %s to markdown", rawURL)
		}
		result.Content = markdown
	}
	result.ContentHash = computeHash(text)
	result.Tokens = p.countTokens(ctx, text)

	if cached, ok := run.summaries[result.ContentHash]; ok {
		p.logger().Debug("reusing summary for duplicate content", "url", rawURL, "hash", result.ContentHash)
		result.Summary = cached
	} else {
		summary, err := p.Summarizer.SummarizeContent(ctx, text, opts)
		if err != nil {
			return "", err
		}
		result.Summary = summary.Text
		result.Retries += summary.Retries
		run.summaries[result.ContentHash] = summary.Text
	}

	if len(opts.Plugins) > 0 {
		analysis, tags, err := p.analyze(ctx, text, *result.Metadata, opts.Plugins)
		if err != nil {
			return "", err
		}
		result.Analysis = analysis
		result.Tags = tags
	}

	return html, nil
}

// analyze runs the named plugins concurrently. Results are merged in the
// order the plugins were named; the first failure fails the page.
func (p *Pipeline) analyze(ctx context.Context, content string, meta websum.PageMetadata, names []string) (map[string]any, []string, error) {
	plugins := make([]websum.Plugin, len(names))
	for i, name := range names {
		plugin, ok := p.Plugins.Get(name)
		if !ok {
			return nil, nil, websum.Errorf(websum.EINVALID, "unknown plugin %q", name)
		}
		plugins[i] = plugin
	}

	results := make([]*websum.PluginResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, plugin := range plugins {
		name := names[i]
		g.Go(func() error {
			r, err := plugin.Process(gctx, content, meta)
			if err != nil {
				return fmt.Errorf("plugin %s: %w", name, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	analysis := make(map[string]any, len(names))
	var tags []string
	for i, r := range results {
		if r == nil {
			continue
		}
		analysis[names[i]] = r.Analysis
		for _, tag := range r.Tags {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	return analysis, tags, nil
}

func (p *Pipeline) countTokens(ctx context.Context, text string) int {
	if p.TokenCounter == nil {
		return 0
	}
	n, err := p.TokenCounter.CountTokens(ctx, text)
	if err != nil {
		p.logger().Debug("token count failed", "err", err)
		return 0
	}
	return n
}

func computeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}
