package pipeline

import (
	"context"
	"time"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/retry"
)

// SummarizeURL summarizes one page. Invalid URLs and failures of the
// page itself are returned as errors.
//
// When opts.FollowLinks is positive, up to that many same-host links from
// the page are summarized too, sequentially and LinkDelay apart, skipping
// URLs already visited in this call. A failing link is recorded in its own
// result in Links and never affects the primary result.
func (p *Pipeline) SummarizeURL(ctx context.Context, rawURL string, opts websum.SummaryOptions) (*websum.BatchResult, error) {
	opts, err := p.prepare(opts)
	if err != nil {
		return nil, err
	}
	if err := websum.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if opts.FollowLinks > 0 && p.Links == nil {
		return nil, websum.Errorf(websum.EINVALID, "link following requires a link extractor")
	}

	run := newRun()
	run.visited.Visit(rawURL)

	pacer := NewPacer(p.linkDelay())
	if err := pacer.Wait(ctx); err != nil {
		return nil, err
	}

	result, html, err := p.process(ctx, rawURL, opts, run)
	if err != nil {
		return nil, err
	}

	if opts.FollowLinks > 0 {
		result.Links = p.followLinks(ctx, rawURL, html, opts, run, pacer)
	}
	return result, nil
}

func (p *Pipeline) followLinks(ctx context.Context, baseURL, html string, opts websum.SummaryOptions, run *run, pacer *Pacer) []*websum.BatchResult {
	logger := p.logger().With("page", baseURL)

	links, err := p.Links.ExtractLinks(html, baseURL, p.maxLinks())
	if err != nil {
		logger.Warn("link extraction failed", "err", err)
		return nil
	}

	var results []*websum.BatchResult
	for _, link := range links {
		if len(results) >= opts.FollowLinks {
			break
		}
		if !run.visited.Visit(link) {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}

		var result *websum.BatchResult
		if err := websum.ValidateURL(link); err != nil {
			result = &websum.BatchResult{URL: link, Error: websum.NewResultError(err)}
		} else if err := pacer.Wait(ctx); err != nil {
			result = &websum.BatchResult{URL: link, Error: websum.NewResultError(err)}
		} else {
			result, _, _ = p.process(ctx, link, opts, run)
		}

		if result.Failed() {
			logger.Warn("linked page failed", "url", link, "code", result.Error.Code, "err", result.Error.Message)
		} else {
			logger.Info("linked page summarized", "url", link)
		}
		results = append(results, result)
	}
	return results
}

// retryFetch navigates to url under the retry policy.
func retryFetch(ctx context.Context, f websum.Fetcher, policy retry.Policy, url string) (string, int, error) {
	return retry.Do(ctx, policy, "navigate "+url, func(ctx context.Context) (string, error) {
		return f.Fetch(ctx, url)
	})
}

func (p *Pipeline) linkDelay() time.Duration {
	if p.LinkDelay == 0 {
		return DefaultLinkDelay
	}
	return p.LinkDelay
}

func (p *Pipeline) maxLinks() int {
	if p.MaxLinks <= 0 {
		return DefaultMaxLinks
	}
	return p.MaxLinks
}
