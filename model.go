package websum

import "context"

// LanguageModel generates text from a prompt.
type LanguageModel interface {
	// Generate returns the model's response to prompt.
	// Rate-limit and server failures are ETRANSIENT; rejected requests
	// are EPERMANENT; other generation failures are EMODEL.
	Generate(ctx context.Context, prompt string) (string, error)
}
