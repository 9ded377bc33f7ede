// Package pipeline orchestrates page summarization: navigation, content
// extraction, summarization, and plugin analysis, for single URLs with
// optional link following and for ordered batches.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/retry"
	"github.com/google/uuid"
)

var _ websum.SummaryService = (*Pipeline)(nil)

// Defaults for zero-valued Pipeline fields.
const (
	DefaultRecycleEvery = 10
	DefaultLinkDelay    = time.Second
	DefaultMaxLinks     = 20
)

// Pipeline implements websum.SummaryService.
//
// Browser, Extractor and Summarizer are required. Converter is required
// for markdown output, Links for link following and Plugins when options
// name plugins. Pacer spaces batch navigations; nil disables pacing.
type Pipeline struct {
	Browser      websum.Browser
	Extractor    websum.Extractor
	Converter    websum.Converter
	Links        websum.LinkExtractor
	Summarizer   websum.Summarizer
	Plugins      websum.PluginRegistry
	TokenCounter websum.TokenCounter
	Pacer        *Pacer

	// Retry is the base policy for navigation. Its attempt count is
	// replaced by SummaryOptions.MaxRetries.
	Retry retry.Policy

	// RecycleEvery, LinkDelay and MaxLinks fall back to their defaults
	// when zero. A negative LinkDelay disables link pacing.
	RecycleEvery int
	LinkDelay    time.Duration
	MaxLinks     int

	Logger   *slog.Logger
	Observer Observer
}

// SummarizeBatch processes urls one at a time, in order. Each URL's
// failure is confined to its own result. Invalid options or a missing
// browser are returned as errors before any URL is processed.
//
// After every RecycleEvery URLs the browser is recycled; a failed recycle
// is logged and recorded as a warning and processing continues on the
// existing session. When opts.Comparative is set and at least two URLs
// succeeded, one comparative analysis is added to the report.
func (p *Pipeline) SummarizeBatch(ctx context.Context, urls []string, opts websum.SummaryOptions, progress websum.ProgressFunc) (*websum.BatchReport, error) {
	opts, err := p.prepare(opts)
	if err != nil {
		return nil, err
	}

	report := &websum.BatchReport{
		RunID:     uuid.NewString(),
		Results:   make([]*websum.BatchResult, len(urls)),
		StartedAt: time.Now(),
	}
	run := newRun()
	total := len(urls)
	logger := p.logger().With("run", report.RunID)

	logger.Info("batch started", "urls", total)
	notify(progress, websum.ProgressEvent{Type: websum.ProgressStarted, Total: total})

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			for j := i; j < total; j++ {
				report.Results[j] = &websum.BatchResult{URL: urls[j], Error: websum.NewResultError(err)}
			}
			logger.Warn("batch cancelled", "remaining", total-i, "err", err)
			break
		}

		notify(progress, websum.ProgressEvent{Type: websum.ProgressURLStarted, Index: i, Total: total, URL: u})

		var result *websum.BatchResult
		if err := websum.ValidateURL(u); err != nil {
			result = &websum.BatchResult{URL: u, Error: websum.NewResultError(err)}
			p.observer().URLProcessed(websum.EINVALID, 0)
		} else {
			if err := p.Pacer.Wait(ctx); err != nil {
				result = &websum.BatchResult{URL: u, Error: websum.NewResultError(err)}
			} else {
				result, _, _ = p.process(ctx, u, opts, run)
			}
		}
		report.Results[i] = result

		if result.Failed() {
			logger.Warn("url failed", "url", u, "code", result.Error.Code, "err", result.Error.Message)
			notify(progress, websum.ProgressEvent{Type: websum.ProgressURLFailed, Index: i, Total: total, URL: u, Err: result.Error})
		} else {
			logger.Info("url summarized", "url", u, "retries", result.Retries, "duration", result.ProcessingTime)
			notify(progress, websum.ProgressEvent{Type: websum.ProgressURLCompleted, Index: i, Total: total, URL: u})
		}

		if (i+1)%p.recycleEvery() == 0 && i+1 < total {
			p.recycle(logger, report, progress, i, total)
		}
	}

	if opts.Comparative {
		p.compare(ctx, logger, report, opts)
	}

	report.Duration = time.Since(report.StartedAt)
	logger.Info("batch finished",
		"succeeded", len(report.Succeeded()),
		"failed", report.FailedCount(),
		"duration", report.Duration,
	)
	notify(progress, websum.ProgressEvent{Type: websum.ProgressFinished, Index: total, Total: total})

	return report, nil
}

func (p *Pipeline) recycle(logger *slog.Logger, report *websum.BatchReport, progress websum.ProgressFunc, i, total int) {
	err := p.Browser.Recycle()
	p.observer().BrowserRecycled(err)
	if err != nil {
		logger.Warn("browser recycle failed, continuing with current session", "after", i+1, "err", err)
		report.Warnings = append(report.Warnings, "browser recycle failed: "+websum.ErrorMessage(err))
	} else {
		logger.Debug("browser recycled", "after", i+1)
	}
	notify(progress, websum.ProgressEvent{Type: websum.ProgressRecycled, Index: i, Total: total, Err: err})
}

func (p *Pipeline) compare(ctx context.Context, logger *slog.Logger, report *websum.BatchReport, opts websum.SummaryOptions) {
	if len(report.Succeeded()) < 2 {
		return
	}
	text, err := p.Summarizer.CompareResults(ctx, report.Results, opts)
	if err != nil {
		logger.Warn("comparative analysis failed", "err", err)
		report.Warnings = append(report.Warnings, "comparative analysis failed: "+websum.ErrorMessage(err))
		return
	}
	report.Comparative = text
}

// prepare applies defaults and checks that the pipeline can serve opts.
func (p *Pipeline) prepare(opts websum.SummaryOptions) (websum.SummaryOptions, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	if p.Browser == nil {
		return opts, websum.Errorf(websum.ERESOURCE, "browser not available")
	}
	if p.Extractor == nil || p.Summarizer == nil {
		return opts, websum.Errorf(websum.ERESOURCE, "pipeline not configured: extractor and summarizer required")
	}
	if opts.Output == websum.OutputMarkdown && p.Converter == nil {
		return opts, websum.Errorf(websum.EINVALID, "markdown output requires a converter")
	}
	for _, name := range opts.Plugins {
		if p.Plugins == nil {
			return opts, websum.Errorf(websum.EINVALID, "unknown plugin %q", name)
		}
		if _, ok := p.Plugins.Get(name); !ok {
			return opts, websum.Errorf(websum.EINVALID, "unknown plugin %q", name)
		}
	}
	return opts, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Pipeline) observer() Observer {
	if p.Observer == nil {
		return nopObserver{}
	}
	return p.Observer
}

func (p *Pipeline) recycleEvery() int {
	if p.RecycleEvery <= 0 {
		return DefaultRecycleEvery
	}
	return p.RecycleEvery
}

func notify(progress websum.ProgressFunc, event websum.ProgressEvent) {
	if progress != nil {
		progress(event)
	}
}
