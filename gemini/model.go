// Package gemini implements the language model and token counter on
// Google Gemini.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/websum"
	"google.golang.org/genai"
)

// Defaults for Model.
const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.4
	DefaultTimeout     = 2 * time.Minute
)

const systemInstruction = "You summarize web pages accurately and concisely. Use only the content provided and follow the requested length and format exactly."

var _ websum.LanguageModel = (*Model)(nil)

// Model implements websum.LanguageModel using Gemini.
type Model struct {
	client      *genai.Client
	name        string
	temperature float32
	timeout     time.Duration
}

// Option configures a Model.
type Option func(*Model)

// WithModel selects the Gemini model by name.
func WithModel(name string) Option {
	return func(m *Model) {
		if name != "" {
			m.name = name
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(m *Model) {
		m.temperature = t
	}
}

// WithTimeout bounds each Generate call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewModel creates a Model on client.
func NewModel(client *genai.Client, opts ...Option) *Model {
	m := &Model{
		client:      client,
		name:        DefaultModel,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Generate sends prompt to Gemini and returns the response text.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", websum.Errorf(websum.EINVALID, "prompt required")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	result, err := m.client.Models.GenerateContent(ctx, m.name,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		BuildConfig(m.temperature),
	)
	if err != nil {
		return "", ClassifyError(err)
	}
	if result == nil {
		return "", websum.Errorf(websum.EMODEL, "gemini returned nil result")
	}
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", websum.Errorf(websum.EMODEL, "prompt blocked: %s", fb.BlockReason)
	}

	return result.Text(), nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig(temperature float32) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature: &temperature,
	}
}

// ClassifyError maps a Gemini client error to a websum error. Rate limits
// and server failures are ETRANSIENT, other rejected requests EPERMANENT.
func ClassifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return websum.WrapError(websum.ETRANSIENT, err, "model call timed out")
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		code := websum.EMODEL
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			code = websum.ETRANSIENT
		case apiErr.Code >= http.StatusBadRequest:
			code = websum.EPERMANENT
		}
		return &websum.Error{
			Code:    code,
			Message: "gemini: " + apiErr.Message,
			Details: map[string]any{"status": apiErr.Code},
			Err:     err,
		}
	}
	return websum.WrapError(websum.EMODEL, err, "gemini")
}
