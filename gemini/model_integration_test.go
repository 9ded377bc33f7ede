//go:build integration

package gemini_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/gemini"
	"github.com/fwojciec/websum/ratelimit"
	"github.com/fwojciec/websum/summarize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestModel_Integration_Summarizes(t *testing.T) {
	t.Parallel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	require.NoError(t, err)

	limiter, err := ratelimit.New(5, time.Minute)
	require.NoError(t, err)
	defer limiter.Close()

	s := summarize.New(gemini.NewModel(client), limiter)
	text := strings.Repeat("Go is a statically typed, compiled language designed at Google. ", 10)

	sum, err := s.SummarizeContent(ctx, text, websum.SummaryOptions{Length: websum.LengthShort, MaxRetries: 2})

	require.NoError(t, err)
	assert.NotEmpty(t, sum.Text)
	assert.Equal(t, 1, sum.Chunks)
}
