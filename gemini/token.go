package gemini

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/websum"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// DefaultCountChunk is the largest slice of page text, in bytes, handed to
// the local tokenizer in one call.
const DefaultCountChunk = 64 * 1024

var _ websum.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens in extracted page text with the local Gemini
// tokenizer, without calling the API.
type TokenCounter struct {
	tok   *tokenizer.LocalTokenizer
	model string
	chunk int
}

// TokenCounterOption configures a TokenCounter.
type TokenCounterOption func(*TokenCounter)

// WithCountChunk sets how much text is tokenized per call. Values below 16
// bytes are ignored.
func WithCountChunk(n int) TokenCounterOption {
	return func(tc *TokenCounter) {
		if n >= 16 {
			tc.chunk = n
		}
	}
}

// NewTokenCounter creates a TokenCounter for model. Models without a local
// tokenizer return an EINVALID error.
func NewTokenCounter(model string, opts ...TokenCounterOption) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, websum.WrapError(websum.EINVALID, err, "no local tokenizer for model %q", model)
	}
	tc := &TokenCounter{tok: tok, model: model, chunk: DefaultCountChunk}
	for _, opt := range opts {
		opt(tc)
	}
	return tc, nil
}

// CountTokens counts the tokens in text. Whitespace-only text counts as
// zero. Long pages are counted piece by piece, split on paragraph breaks
// where possible, so totals may differ slightly from a single-pass count.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	total := 0
	for _, piece := range splitForCount(text, tc.chunk) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(piece, genai.RoleUser)}, nil)
		if err != nil {
			return 0, websum.WrapError(websum.EINTERNAL, err, "counting tokens for model %q", tc.model)
		}
		total += int(result.TotalTokens)
	}
	return total, nil
}

// splitForCount cuts text into pieces of at most size bytes, preferring
// paragraph breaks, then any whitespace, and never splitting a rune.
func splitForCount(text string, size int) []string {
	var pieces []string
	for len(text) > size {
		window := text[:size]
		cut := strings.LastIndex(window, "\n\n")
		if cut <= 0 {
			cut = strings.LastIndexAny(window, " \t\n")
		}
		if cut <= 0 {
			cut = size
			for cut < len(text) && !utf8.RuneStart(text[cut]) {
				cut++
			}
		}
		pieces = append(pieces, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}
