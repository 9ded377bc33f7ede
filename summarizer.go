package websum

import "context"

// Summarizer turns extracted content into summaries.
type Summarizer interface {
	// SummarizeContent summarizes text, chunking it when it is too long
	// for a single model call.
	SummarizeContent(ctx context.Context, text string, opts SummaryOptions) (*Summary, error)

	// CompareResults produces a comparative analysis across the
	// successful results. Returns EINVALID if fewer than two succeeded.
	CompareResults(ctx context.Context, results []*BatchResult, opts SummaryOptions) (string, error)
}

// SummaryService is the entry point for summarizing web pages.
type SummaryService interface {
	// SummarizeURL summarizes a single page and, when opts.FollowLinks is
	// positive, the same-host pages it links to.
	SummarizeURL(ctx context.Context, url string, opts SummaryOptions) (*BatchResult, error)

	// SummarizeBatch summarizes each URL in order. Per-URL failures are
	// recorded in the results; only shared-infrastructure failures are
	// returned as errors.
	SummarizeBatch(ctx context.Context, urls []string, opts SummaryOptions, progress ProgressFunc) (*BatchReport, error)
}
