package websum

import "context"

// TokenCounter counts tokens in text for a specific model.
// Counts are informational; a failure never fails the page.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
