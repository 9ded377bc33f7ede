package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/websum"
)

var _ websum.LanguageModel = (*LoggingModel)(nil)

// LoggingModel wraps a LanguageModel with debug logging of prompt and
// response sizes.
type LoggingModel struct {
	next   websum.LanguageModel
	logger *slog.Logger
}

// NewLoggingModel creates a new LoggingModel.
func NewLoggingModel(next websum.LanguageModel, logger *slog.Logger) *LoggingModel {
	return &LoggingModel{next: next, logger: logger}
}

// Generate logs the call and delegates to the wrapped model.
func (m *LoggingModel) Generate(ctx context.Context, prompt string) (text string, err error) {
	defer func(begin time.Time) {
		m.logger.Debug("generate",
			"prompt_chars", len(prompt),
			"response_chars", len(text),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return m.next.Generate(ctx, prompt)
}
