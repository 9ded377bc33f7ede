package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/mock"
	"github.com/fwojciec/websum/pipeline"
	"github.com/fwojciec/websum/plugin"
	"github.com/fwojciec/websum/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageText is long enough to pass the minimum content check.
func pageText(url string) string {
	return "Content of " + url + ". " + strings.Repeat("This page has plenty of words to summarize. ", 3)
}

// fixture wires a pipeline with mocks that succeed for every URL.
type fixture struct {
	mu        sync.Mutex
	fetched   []string
	recycles  int
	compares  int
	summaries int

	browser    *mock.Browser
	extractor  *mock.Extractor
	summarizer *mock.Summarizer
	pipeline   *pipeline.Pipeline
}

func newFixture() *fixture {
	f := &fixture{}
	f.browser = &mock.Browser{
		FetchFn: func(_ context.Context, url string) (string, error) {
			f.mu.Lock()
			f.fetched = append(f.fetched, url)
			f.mu.Unlock()
			return "<html>" + url + "</html>", nil
		},
		RecycleFn: func() error {
			f.mu.Lock()
			f.recycles++
			f.mu.Unlock()
			return nil
		},
		CloseFn: func() error { return nil },
	}
	f.extractor = &mock.Extractor{
		ExtractFn: func(html string) (*websum.ExtractResult, error) {
			url := strings.TrimSuffix(strings.TrimPrefix(html, "<html>"), "</html>")
			return &websum.ExtractResult{
				Title:       "Title " + url,
				ContentHTML: "<p>" + pageText(url) + "</p>",
				Text:        pageText(url),
			}, nil
		},
	}
	f.summarizer = &mock.Summarizer{
		SummarizeContentFn: func(_ context.Context, text string, _ websum.SummaryOptions) (*websum.Summary, error) {
			f.mu.Lock()
			f.summaries++
			f.mu.Unlock()
			return &websum.Summary{Text: "summary: " + text[:20], Chunks: 1, ModelCalls: 1}, nil
		},
		CompareResultsFn: func(_ context.Context, results []*websum.BatchResult, _ websum.SummaryOptions) (string, error) {
			f.mu.Lock()
			f.compares++
			f.mu.Unlock()
			return fmt.Sprintf("compared %d", len(results)), nil
		},
	}
	f.pipeline = &pipeline.Pipeline{
		Browser:    f.browser,
		Extractor:  f.extractor,
		Summarizer: f.summarizer,
		Retry:      retry.Policy{},
		LinkDelay:  -1,
	}
	return f
}

func options() websum.SummaryOptions {
	return websum.DefaultSummaryOptions()
}

func TestSummarizeBatch(t *testing.T) {
	t.Parallel()

	t.Run("invalid url is isolated and order preserved", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		urls := []string{"https://a.example/1", "not-a-url", "https://b.example/2"}

		report, err := f.pipeline.SummarizeBatch(context.Background(), urls, options(), nil)

		require.NoError(t, err)
		require.Len(t, report.Results, 3)
		for i, u := range urls {
			assert.Equal(t, u, report.Results[i].URL)
		}
		assert.True(t, report.Results[0].Succeeded())
		assert.True(t, report.Results[2].Succeeded())

		bad := report.Results[1]
		require.True(t, bad.Failed())
		assert.Equal(t, websum.EINVALID, bad.Error.Code)
		assert.Empty(t, bad.Summary)
		assert.Zero(t, bad.Retries)

		assert.Equal(t, []string{"https://a.example/1", "https://b.example/2"}, f.fetched)
		assert.NotEmpty(t, report.RunID)
	})

	t.Run("successful result is populated", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.pipeline.TokenCounter = &mock.TokenCounter{
			CountTokensFn: func(_ context.Context, text string) (int, error) { return len(text) / 4, nil },
		}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, options(), nil)

		require.NoError(t, err)
		r := report.Results[0]
		assert.Nil(t, r.Error)
		assert.True(t, strings.HasPrefix(r.Summary, "summary: "))
		require.NotNil(t, r.Metadata)
		assert.Equal(t, "Title https://a.example", r.Metadata.Title)
		assert.Equal(t, "https://a.example", r.Metadata.URL)
		assert.False(t, r.Metadata.Timestamp.IsZero())
		assert.Equal(t, strings.TrimSpace(pageText("https://a.example")), r.Content)
		assert.NotEmpty(t, r.ContentHash)
		assert.Positive(t, r.Tokens)
		assert.Positive(t, r.ProcessingTime)
	})

	t.Run("comparative requires two successes", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		opts := options()
		opts.Comparative = true

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example", "https://b.example"}, opts, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, f.compares)
		assert.Equal(t, "compared 2", report.Comparative)

		f2 := newFixture()
		report, err = f2.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example", "bogus"}, opts, nil)

		require.NoError(t, err)
		assert.Equal(t, 0, f2.compares)
		assert.Empty(t, report.Comparative)
	})

	t.Run("comparative failure becomes a warning", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.summarizer.CompareResultsFn = func(context.Context, []*websum.BatchResult, websum.SummaryOptions) (string, error) {
			return "", websum.Errorf(websum.EMODEL, "model down")
		}
		opts := options()
		opts.Comparative = true

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example", "https://b.example"}, opts, nil)

		require.NoError(t, err)
		assert.Empty(t, report.Comparative)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "model down")
	})

	t.Run("comparative not requested", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		_, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example", "https://b.example"}, options(), nil)

		require.NoError(t, err)
		assert.Equal(t, 0, f.compares)
	})

	t.Run("recycles browser every k urls", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.pipeline.RecycleEvery = 2
		urls := []string{"https://e.com/1", "https://e.com/2", "bad", "https://e.com/4", "https://e.com/5"}

		var events []websum.ProgressType
		_, err := f.pipeline.SummarizeBatch(context.Background(), urls, options(), func(e websum.ProgressEvent) {
			if e.Type == websum.ProgressRecycled {
				events = append(events, e.Type)
			}
		})

		require.NoError(t, err)
		assert.Equal(t, 2, f.recycles)
		assert.Len(t, events, 2)
	})

	t.Run("recycle failure continues with a warning", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.pipeline.RecycleEvery = 1
		f.browser.RecycleFn = func() error { return websum.Errorf(websum.ERESOURCE, "launch failed") }

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://e.com/1", "https://e.com/2", "https://e.com/3"}, options(), nil)

		require.NoError(t, err)
		assert.Len(t, report.Succeeded(), 3)
		assert.Len(t, report.Warnings, 2)
		assert.Contains(t, report.Warnings[0], "launch failed")
	})

	t.Run("transient navigation failure is retried", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		attempts := 0
		f.browser.FetchFn = func(_ context.Context, url string) (string, error) {
			attempts++
			if attempts == 1 {
				return "", websum.NavigationError(url, websum.ReasonServerError, 503, nil)
			}
			return "<html>" + url + "</html>", nil
		}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, options(), nil)

		require.NoError(t, err)
		assert.True(t, report.Results[0].Succeeded())
		assert.Equal(t, 1, report.Results[0].Retries)
	})

	t.Run("permanent navigation failure is not retried", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		attempts := 0
		f.browser.FetchFn = func(_ context.Context, url string) (string, error) {
			attempts++
			return "", websum.NavigationError(url, websum.ReasonHTTPError, 404, nil)
		}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, options(), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, websum.EPERMANENT, report.Results[0].Error.Code)
	})

	t.Run("exhausted retries record the failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		attempts := 0
		f.browser.FetchFn = func(_ context.Context, url string) (string, error) {
			attempts++
			return "", websum.NavigationError(url, websum.ReasonTimeout, 0, context.DeadlineExceeded)
		}
		opts := options()
		opts.MaxRetries = 2

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example", "https://b.example"}, opts, nil)

		require.NoError(t, err)
		assert.Equal(t, 4, attempts)
		for _, r := range report.Results {
			assert.Equal(t, websum.ETRANSIENT, r.Error.Code)
			assert.Equal(t, 1, r.Retries)
		}
	})

	t.Run("short content fails with content error", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.extractor.ExtractFn = func(string) (*websum.ExtractResult, error) {
			return &websum.ExtractResult{Title: "Empty", Text: "  too short  "}, nil
		}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, options(), nil)

		require.NoError(t, err)
		assert.Equal(t, websum.ECONTENT, report.Results[0].Error.Code)
		assert.Equal(t, 0, f.summaries)
	})

	t.Run("summarizer failure is isolated", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.summarizer.SummarizeContentFn = func(_ context.Context, text string, _ websum.SummaryOptions) (*websum.Summary, error) {
			if strings.Contains(text, "a.example") {
				return nil, websum.Errorf(websum.EMODEL, "empty summary")
			}
			return &websum.Summary{Text: "ok"}, nil
		}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example", "https://b.example"}, options(), nil)

		require.NoError(t, err)
		assert.Equal(t, websum.EMODEL, report.Results[0].Error.Code)
		assert.Nil(t, report.Results[0].Metadata)
		assert.Equal(t, "ok", report.Results[1].Summary)
	})

	t.Run("panic becomes internal error", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.extractor.ExtractFn = func(string) (*websum.ExtractResult, error) {
			panic("nil map")
		}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, options(), nil)

		require.NoError(t, err)
		assert.Equal(t, websum.EINTERNAL, report.Results[0].Error.Code)
		assert.Contains(t, report.Results[0].Error.Message, "nil map")
	})

	t.Run("duplicate content reuses summary", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.extractor.ExtractFn = func(string) (*websum.ExtractResult, error) {
			return &websum.ExtractResult{Title: "Same", Text: pageText("shared")}, nil
		}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example", "https://b.example"}, options(), nil)

		require.NoError(t, err)
		assert.Equal(t, 1, f.summaries)
		assert.Equal(t, report.Results[0].Summary, report.Results[1].Summary)
		assert.Equal(t, report.Results[0].ContentHash, report.Results[1].ContentHash)
	})

	t.Run("markdown output uses converter", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.pipeline.Converter = &mock.Converter{
			ConvertFn: func(html string) (string, error) { return "# converted", nil },
		}
		opts := options()
		opts.Output = websum.OutputMarkdown

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, opts, nil)

		require.NoError(t, err)
		assert.Equal(t, "# converted", report.Results[0].Content)
	})

	t.Run("plugins are merged in order", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		stub := func(name string, tags ...string) *mock.Plugin {
			return &mock.Plugin{
				NameFn: func() string { return name },
				ProcessFn: func(_ context.Context, _ string, meta websum.PageMetadata) (*websum.PluginResult, error) {
					return &websum.PluginResult{Analysis: map[string]any{"url": meta.URL}, Tags: tags}, nil
				},
			}
		}
		f.pipeline.Plugins = plugin.NewRegistry(stub("first", "go", "web"), stub("second", "web", "llm"))
		opts := options()
		opts.Plugins = []string{"first", "second"}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, opts, nil)

		require.NoError(t, err)
		r := report.Results[0]
		assert.Equal(t, []string{"go", "web", "llm"}, r.Tags)
		assert.Equal(t, map[string]any{"url": "https://a.example"}, r.Analysis["first"])
		assert.Contains(t, r.Analysis, "second")
	})

	t.Run("plugin failure fails the url", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.pipeline.Plugins = plugin.NewRegistry(&mock.Plugin{
			NameFn: func() string { return "broken" },
			ProcessFn: func(context.Context, string, websum.PageMetadata) (*websum.PluginResult, error) {
				return nil, errors.New("boom")
			},
		})
		opts := options()
		opts.Plugins = []string{"broken"}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, opts, nil)

		require.NoError(t, err)
		assert.Contains(t, report.Results[0].Error.Message, "plugin broken")
	})

	t.Run("plugin missing at analysis time starts no plugin", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		lookups := map[string]int{}
		started := 0
		first := &mock.Plugin{
			NameFn: func() string { return "first" },
			ProcessFn: func(context.Context, string, websum.PageMetadata) (*websum.PluginResult, error) {
				mu.Lock()
				started++
				mu.Unlock()
				return &websum.PluginResult{}, nil
			},
		}

		f := newFixture()
		f.pipeline.Plugins = &mock.PluginRegistry{
			GetFn: func(name string) (websum.Plugin, bool) {
				mu.Lock()
				defer mu.Unlock()
				lookups[name]++
				if name == "first" {
					return first, true
				}
				// "vanishing" resolves during option checks only.
				return first, lookups[name] == 1
			},
		}
		opts := options()
		opts.Plugins = []string{"first", "vanishing"}

		report, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, opts, nil)

		require.NoError(t, err)
		require.True(t, report.Results[0].Failed())
		assert.Equal(t, websum.EINVALID, report.Results[0].Error.Code)
		assert.Contains(t, report.Results[0].Error.Message, `unknown plugin "vanishing"`)
		mu.Lock()
		defer mu.Unlock()
		assert.Zero(t, started)
	})

	t.Run("unknown plugin is rejected up front", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.pipeline.Plugins = plugin.NewRegistry()
		opts := options()
		opts.Plugins = []string{"missing"}

		_, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, opts, nil)

		assert.Equal(t, websum.EINVALID, websum.ErrorCode(err))
		assert.Empty(t, f.fetched)
	})

	t.Run("invalid options are rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		opts := options()
		opts.Format = "poem"

		_, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, opts, nil)

		assert.Equal(t, websum.EINVALID, websum.ErrorCode(err))
	})

	t.Run("missing browser is a resource error", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.pipeline.Browser = nil

		_, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example"}, options(), nil)

		assert.Equal(t, websum.ERESOURCE, websum.ErrorCode(err))
	})

	t.Run("progress events", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		var events []websum.ProgressEvent
		_, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example", "nope"}, options(), func(e websum.ProgressEvent) {
			events = append(events, e)
		})

		require.NoError(t, err)
		var types []websum.ProgressType
		for _, e := range events {
			types = append(types, e.Type)
		}
		assert.Equal(t, []websum.ProgressType{
			websum.ProgressStarted,
			websum.ProgressURLStarted,
			websum.ProgressURLCompleted,
			websum.ProgressURLStarted,
			websum.ProgressURLFailed,
			websum.ProgressFinished,
		}, types)
		assert.Equal(t, 2, events[0].Total)
		assert.Equal(t, "nope", events[4].URL)
		assert.Error(t, events[4].Err)
	})

	t.Run("cancelled context marks remaining urls", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		ctx, cancel := context.WithCancel(context.Background())
		f.browser.FetchFn = func(_ context.Context, url string) (string, error) {
			cancel()
			return "<html>" + url + "</html>", nil
		}

		report, err := f.pipeline.SummarizeBatch(ctx, []string{"https://a.example", "https://b.example", "https://c.example"}, options(), nil)

		require.NoError(t, err)
		require.Len(t, report.Results, 3)
		assert.Equal(t, "https://b.example", report.Results[1].URL)
		assert.Equal(t, websum.EINTERNAL, report.Results[1].Error.Code)
		assert.True(t, report.Results[2].Failed())
	})

	t.Run("pacer spaces navigations", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.pipeline.Pacer = pipeline.NewPacer(50 * time.Millisecond)
		var starts []time.Time
		f.browser.FetchFn = func(_ context.Context, url string) (string, error) {
			starts = append(starts, time.Now())
			return "<html>" + url + "</html>", nil
		}

		_, err := f.pipeline.SummarizeBatch(context.Background(), []string{"https://a.example", "https://b.example", "https://c.example"}, options(), nil)

		require.NoError(t, err)
		require.Len(t, starts, 3)
		for i := 1; i < len(starts); i++ {
			assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), 40*time.Millisecond)
		}
	})
}

func TestSummarizeURL(t *testing.T) {
	t.Parallel()

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		_, err := f.pipeline.SummarizeURL(context.Background(), "ftp://x", options())

		assert.Equal(t, websum.EINVALID, websum.ErrorCode(err))
		assert.Empty(t, f.fetched)
	})

	t.Run("failure returns categorized error", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.browser.FetchFn = func(_ context.Context, url string) (string, error) {
			return "", websum.NavigationError(url, websum.ReasonHTTPError, 410, nil)
		}

		_, err := f.pipeline.SummarizeURL(context.Background(), "https://a.example", options())

		assert.Equal(t, websum.EPERMANENT, websum.ErrorCode(err))
		assert.Equal(t, "httpError", websum.ErrorDetails(err)["reason"])
	})

	t.Run("summarizes a single page", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		r, err := f.pipeline.SummarizeURL(context.Background(), "https://a.example", options())

		require.NoError(t, err)
		assert.True(t, r.Succeeded())
		assert.Empty(t, r.Links)
	})

	t.Run("follows links", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		var gotMax int
		f.pipeline.MaxLinks = 5
		f.pipeline.Links = &mock.LinkExtractor{
			ExtractLinksFn: func(_ string, baseURL string, max int) ([]string, error) {
				gotMax = max
				return []string{
					"https://a.example/",
					"https://a.example/one",
					"https://a.example/one#section",
					"https://a.example/broken",
					"https://a.example/two",
					"https://a.example/three",
				}, nil
			},
		}
		fetch := f.browser.FetchFn
		f.browser.FetchFn = func(ctx context.Context, url string) (string, error) {
			if strings.HasSuffix(url, "/broken") {
				return "", websum.NavigationError(url, websum.ReasonHTTPError, 404, nil)
			}
			return fetch(ctx, url)
		}
		opts := options()
		opts.FollowLinks = 3

		r, err := f.pipeline.SummarizeURL(context.Background(), "https://a.example", opts)

		require.NoError(t, err)
		assert.Equal(t, 5, gotMax)
		assert.True(t, r.Succeeded())
		require.Len(t, r.Links, 3)
		assert.Equal(t, "https://a.example/one", r.Links[0].URL)
		assert.True(t, r.Links[0].Succeeded())
		assert.Equal(t, "https://a.example/broken", r.Links[1].URL)
		assert.Equal(t, websum.EPERMANENT, r.Links[1].Error.Code)
		assert.Equal(t, "https://a.example/two", r.Links[2].URL)
		assert.NotContains(t, f.fetched, "https://a.example/three")
	})

	t.Run("link following requires extractor", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		opts := options()
		opts.FollowLinks = 1

		_, err := f.pipeline.SummarizeURL(context.Background(), "https://a.example", opts)

		assert.Equal(t, websum.EINVALID, websum.ErrorCode(err))
	})

	t.Run("links are paced", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.pipeline.LinkDelay = 60 * time.Millisecond
		f.pipeline.Links = &mock.LinkExtractor{
			ExtractLinksFn: func(string, string, int) ([]string, error) {
				return []string{"https://a.example/x", "https://a.example/y"}, nil
			},
		}
		opts := options()
		opts.FollowLinks = 2

		start := time.Now()
		r, err := f.pipeline.SummarizeURL(context.Background(), "https://a.example", opts)

		require.NoError(t, err)
		assert.Len(t, r.Links, 2)
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})
}
