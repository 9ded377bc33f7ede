package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/mock"
	wslog "github.com/fwojciec/websum/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingBrowser(t *testing.T) {
	t.Parallel()

	t.Run("logs fetch with bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Browser{
			FetchFn: func(context.Context, string) (string, error) {
				return "<html>content</html>", nil
			},
		}

		browser := wslog.NewLoggingBrowser(inner, newLogger(&buf))
		html, err := browser.Fetch(context.Background(), "https://example.com/docs")

		require.NoError(t, err)
		assert.Equal(t, "<html>content</html>", html)
		output := buf.String()
		assert.Contains(t, output, "level=DEBUG")
		assert.Contains(t, output, "url=https://example.com/docs")
		assert.Contains(t, output, "bytes=20")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs navigation failure with reason", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Browser{
			FetchFn: func(_ context.Context, url string) (string, error) {
				return "", websum.NavigationError(url, websum.ReasonServerError, 502, nil)
			},
		}

		browser := wslog.NewLoggingBrowser(inner, newLogger(&buf))
		_, err := browser.Fetch(context.Background(), "https://example.com")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "fetch failed")
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "code=transient")
		assert.Contains(t, output, "reason=serverError")
	})

	t.Run("logs recycle and delegates close", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		closed := false
		inner := &mock.Browser{
			RecycleFn: func() error { return errors.New("launch failed") },
			CloseFn:   func() error { closed = true; return nil },
		}

		browser := wslog.NewLoggingBrowser(inner, newLogger(&buf))

		assert.Error(t, browser.Recycle())
		assert.Contains(t, buf.String(), `err="launch failed"`)
		require.NoError(t, browser.Close())
		assert.True(t, closed)
	})
}

func TestLoggingModel_Generate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.LanguageModel{
		GenerateFn: func(context.Context, string) (string, error) {
			return "four", nil
		},
	}

	model := wslog.NewLoggingModel(inner, newLogger(&buf))
	text, err := model.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "four", text)
	output := buf.String()
	assert.Contains(t, output, "generate")
	assert.Contains(t, output, "prompt_chars=6")
	assert.Contains(t, output, "response_chars=4")
}

func TestLoggingSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("logs discovery with count and limit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(context.Context, string, *websum.URLFilter) ([]string, error) {
				return []string{"https://example.com/a", "https://example.com/b"}, nil
			},
		}

		svc := wslog.NewLoggingSitemapService(inner, newLogger(&buf))
		urls, err := svc.DiscoverURLs(context.Background(), "https://example.com", &websum.URLFilter{Limit: 5})

		require.NoError(t, err)
		assert.Len(t, urls, 2)
		output := buf.String()
		assert.Contains(t, output, "sitemap discovery")
		assert.Contains(t, output, "count=2")
		assert.Contains(t, output, "limit=5")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(context.Context, string, *websum.URLFilter) ([]string, error) {
				return nil, errors.New("connection failed")
			},
		}

		svc := wslog.NewLoggingSitemapService(inner, newLogger(&buf))
		_, err := svc.DiscoverURLs(context.Background(), "https://example.com", nil)

		require.Error(t, err)
		assert.Contains(t, buf.String(), `err="connection failed"`)
	})
}
