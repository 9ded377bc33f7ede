package mock

import (
	"context"

	"github.com/fwojciec/websum"
)

var _ websum.LanguageModel = (*LanguageModel)(nil)

// LanguageModel is a mock implementation of websum.LanguageModel.
type LanguageModel struct {
	GenerateFn func(ctx context.Context, prompt string) (string, error)
}

func (m *LanguageModel) Generate(ctx context.Context, prompt string) (string, error) {
	return m.GenerateFn(ctx, prompt)
}
