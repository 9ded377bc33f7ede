// Package summarize produces length- and format-aware summaries with a
// language model, splitting long content into chunks and synthesizing
// the partial summaries into one.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/chunk"
	"github.com/fwojciec/websum/ratelimit"
	"github.com/fwojciec/websum/retry"
)

var _ websum.Summarizer = (*Summarizer)(nil)

// Summarizer implements websum.Summarizer. Every model call goes through
// the retry policy and then the shared rate limiter.
type Summarizer struct {
	model   websum.LanguageModel
	limiter *ratelimit.Limiter
	retry   retry.Policy
	logger  *slog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithRetryPolicy sets the base retry policy for model calls. The attempt
// count always comes from SummaryOptions.MaxRetries.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *Summarizer) {
		s.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) {
		s.logger = logger
	}
}

// New creates a Summarizer. A nil limiter leaves model calls unthrottled.
func New(model websum.LanguageModel, limiter *ratelimit.Limiter, opts ...Option) *Summarizer {
	s := &Summarizer{
		model:   model,
		limiter: limiter,
		retry:   retry.DefaultPolicy(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SummarizeContent summarizes text. Text that fits in one chunk takes a
// single model call. Longer text is summarized chunk by chunk, in order,
// and the partial summaries are synthesized with one more call. If any
// chunk fails after its retries, no synthesis is attempted.
func (s *Summarizer) SummarizeContent(ctx context.Context, text string, opts websum.SummaryOptions) (*websum.Summary, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, websum.Errorf(websum.ECONTENT, "no content to summarize")
	}

	chunks := chunk.Split(text, opts.MaxChunkChars)
	sum := &websum.Summary{Chunks: len(chunks)}

	if len(chunks) == 1 {
		prompt, err := directPrompt(text, opts)
		if err != nil {
			return nil, err
		}
		out, err := s.generate(ctx, "summarize", prompt, opts, sum, true)
		if err != nil {
			return nil, err
		}
		sum.Text = out
		return sum, nil
	}

	s.logger.Debug("summarizing in chunks", "chunks", len(chunks), "chars", len(text))

	partials := make([]string, len(chunks))
	for _, c := range chunks {
		prompt, err := chunkPrompt(c, opts)
		if err != nil {
			return nil, err
		}
		label := fmt.Sprintf("summarize chunk %d/%d", c.Index+1, c.Total)
		out, err := s.generate(ctx, label, prompt, opts, sum, false)
		if err != nil {
			return nil, err
		}
		partials[c.Index] = out
	}

	prompt, err := synthesisPrompt(partials, opts)
	if err != nil {
		return nil, err
	}
	out, err := s.generate(ctx, "synthesize summary", prompt, opts, sum, true)
	if err != nil {
		return nil, err
	}
	sum.Text = out
	return sum, nil
}

// CompareResults asks the model for common themes, unique points and
// contradictions across the successful results.
func (s *Summarizer) CompareResults(ctx context.Context, results []*websum.BatchResult, opts websum.SummaryOptions) (string, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return "", err
	}

	var succeeded []*websum.BatchResult
	for _, r := range results {
		if r.Succeeded() {
			succeeded = append(succeeded, r)
		}
	}
	if len(succeeded) < 2 {
		return "", websum.Errorf(websum.EINVALID, "comparative analysis needs at least two successful results, got %d", len(succeeded))
	}

	prompt, err := comparativePrompt(succeeded, opts)
	if err != nil {
		return "", err
	}
	return s.generate(ctx, "comparative analysis", prompt, opts, &websum.Summary{}, true)
}

// generate performs one logical model call: retries around the rate
// limiter around the model. Final outputs in JSON format are validated.
func (s *Summarizer) generate(ctx context.Context, label, prompt string, opts websum.SummaryOptions, sum *websum.Summary, final bool) (string, error) {
	policy := s.retry.WithMaxRetries(opts.MaxRetries)
	out, retries, err := retry.Do(ctx, policy, label, func(ctx context.Context) (string, error) {
		sum.ModelCalls++
		text, err := ratelimit.Execute(ctx, s.limiter, func(ctx context.Context) (string, error) {
			return s.model.Generate(ctx, prompt)
		})
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", websum.Errorf(websum.EMODEL, "empty summary")
		}
		if final && opts.Format == websum.FormatJSON {
			return normalizeJSON(text)
		}
		return text, nil
	})
	sum.Retries += retries
	if err != nil {
		s.logger.Warn("model call failed", "operation", label, "retries", retries, "err", err)
		return "", err
	}
	return out, nil
}

// normalizeJSON strips a surrounding code fence and checks the rest is
// a single valid JSON value.
func normalizeJSON(text string) (string, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	if !json.Valid([]byte(s)) {
		return "", websum.Errorf(websum.EMODEL, "model returned invalid JSON")
	}
	return s, nil
}
