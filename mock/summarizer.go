package mock

import (
	"context"

	"github.com/fwojciec/websum"
)

var _ websum.Summarizer = (*Summarizer)(nil)

// Summarizer is a mock implementation of websum.Summarizer.
type Summarizer struct {
	SummarizeContentFn func(ctx context.Context, text string, opts websum.SummaryOptions) (*websum.Summary, error)
	CompareResultsFn   func(ctx context.Context, results []*websum.BatchResult, opts websum.SummaryOptions) (string, error)
}

func (s *Summarizer) SummarizeContent(ctx context.Context, text string, opts websum.SummaryOptions) (*websum.Summary, error) {
	return s.SummarizeContentFn(ctx, text, opts)
}

func (s *Summarizer) CompareResults(ctx context.Context, results []*websum.BatchResult, opts websum.SummaryOptions) (string, error) {
	return s.CompareResultsFn(ctx, results, opts)
}

var _ websum.SummaryService = (*SummaryService)(nil)

// SummaryService is a mock implementation of websum.SummaryService.
type SummaryService struct {
	SummarizeURLFn   func(ctx context.Context, url string, opts websum.SummaryOptions) (*websum.BatchResult, error)
	SummarizeBatchFn func(ctx context.Context, urls []string, opts websum.SummaryOptions, progress websum.ProgressFunc) (*websum.BatchReport, error)
}

func (s *SummaryService) SummarizeURL(ctx context.Context, url string, opts websum.SummaryOptions) (*websum.BatchResult, error) {
	return s.SummarizeURLFn(ctx, url, opts)
}

func (s *SummaryService) SummarizeBatch(ctx context.Context, urls []string, opts websum.SummaryOptions, progress websum.ProgressFunc) (*websum.BatchReport, error) {
	return s.SummarizeBatchFn(ctx, urls, opts, progress)
}
