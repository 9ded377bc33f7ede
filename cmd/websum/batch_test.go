package main_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/websum"
	main "github.com/fwojciec/websum/cmd/websum"
	"github.com/fwojciec/websum/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchService echoes URLs into a report, failing those listed in fail.
func batchService(got *[]string, gotOpts *websum.SummaryOptions, fail ...string) *mock.SummaryService {
	return &mock.SummaryService{
		SummarizeBatchFn: func(_ context.Context, urls []string, opts websum.SummaryOptions, progress websum.ProgressFunc) (*websum.BatchReport, error) {
			*got = urls
			if gotOpts != nil {
				*gotOpts = opts
			}
			report := &websum.BatchReport{RunID: "run-1"}
			for i, u := range urls {
				progress(websum.ProgressEvent{Type: websum.ProgressURLStarted, Index: i, Total: len(urls), URL: u})
				res := pageResult(u)
				for _, f := range fail {
					if f == u {
						res = &websum.BatchResult{URL: u, Error: &websum.ResultError{Code: websum.EPERMANENT, Message: "HTTP 404"}}
						progress(websum.ProgressEvent{Type: websum.ProgressURLFailed, Index: i, Total: len(urls), URL: u, Err: res.Error})
					}
				}
				report.Results = append(report.Results, res)
			}
			return report, nil
		},
	}
}

func TestBatchCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("summarizes argument URLs in order", func(t *testing.T) {
		t.Parallel()

		var got []string
		var opts websum.SummaryOptions
		deps, stdout, stderr := newDeps(batchService(&got, &opts))

		cmd := &main.BatchCmd{
			URLs:         []string{"https://a.example/", "https://b.example/"},
			Comparative:  true,
			SummaryFlags: main.SummaryFlags{MaxRetries: -1},
		}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example/", "https://b.example/"}, got)
		assert.True(t, opts.Comparative)
		assert.Contains(t, stderr.String(), "[1/2] https://a.example/\n[2/2] https://b.example/\n")
		assert.Contains(t, stdout.String(), "2 succeeded, 0 failed")
	})

	t.Run("reads URLs from file after arguments", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "urls.txt")
		require.NoError(t, os.WriteFile(path, []byte("# docs\nhttps://b.example/\n\n  https://c.example/  \n"), 0o644))

		var got []string
		deps, _, _ := newDeps(batchService(&got, nil))

		cmd := &main.BatchCmd{URLs: []string{"https://a.example/"}, File: path, SummaryFlags: main.SummaryFlags{MaxRetries: -1}}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example/", "https://b.example/", "https://c.example/"}, got)
	})

	t.Run("discovers URLs from sitemap with filter", func(t *testing.T) {
		t.Parallel()

		var got []string
		deps, _, stderr := newDeps(batchService(&got, nil))
		var gotFilter *websum.URLFilter
		deps.Sitemaps = &mock.SitemapService{
			DiscoverURLsFn: func(_ context.Context, baseURL string, filter *websum.URLFilter) ([]string, error) {
				gotFilter = filter
				assert.Equal(t, "https://docs.example/", baseURL)
				return []string{"https://docs.example/a", "https://docs.example/b"}, nil
			},
		}

		cmd := &main.BatchCmd{
			Sitemap:      "https://docs.example/",
			Include:      []string{"/docs/"},
			Exclude:      []string{"/blog/"},
			Limit:        5,
			SummaryFlags: main.SummaryFlags{MaxRetries: -1},
		}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://docs.example/a", "https://docs.example/b"}, got)
		require.NotNil(t, gotFilter)
		assert.Equal(t, 5, gotFilter.Limit)
		require.Len(t, gotFilter.Include, 1)
		require.Len(t, gotFilter.Exclude, 1)
		assert.Contains(t, stderr.String(), "Found 2 URLs in sitemap")
	})

	t.Run("invalid sitemap pattern", func(t *testing.T) {
		t.Parallel()

		var got []string
		deps, _, _ := newDeps(batchService(&got, nil))
		deps.Sitemaps = &mock.SitemapService{}

		cmd := &main.BatchCmd{Sitemap: "https://docs.example/", Include: []string{"("}, SummaryFlags: main.SummaryFlags{MaxRetries: -1}}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, websum.EINVALID, websum.ErrorCode(err))
		assert.Nil(t, got)
	})

	t.Run("no URLs", func(t *testing.T) {
		t.Parallel()

		var got []string
		deps, _, stderr := newDeps(batchService(&got, nil))

		cmd := &main.BatchCmd{SummaryFlags: main.SummaryFlags{MaxRetries: -1}}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, websum.EINVALID, websum.ErrorCode(err))
		assert.Contains(t, stderr.String(), "no URLs to summarize")
	})

	t.Run("failures are reported without failing the command", func(t *testing.T) {
		t.Parallel()

		var got []string
		deps, stdout, stderr := newDeps(batchService(&got, nil, "https://b.example/"))

		cmd := &main.BatchCmd{
			URLs:         []string{"https://a.example/", "https://b.example/"},
			SummaryFlags: main.SummaryFlags{Output: "json", MaxRetries: -1},
		}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stderr.String(), "[2/2] failed: permanent: HTTP 404")

		var report websum.BatchReport
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
		require.Len(t, report.Results, 2)
		assert.Equal(t, websum.EPERMANENT, report.Results[1].Error.Code)
	})

	t.Run("writes successful results to out dir", func(t *testing.T) {
		t.Parallel()

		var got []string
		deps, _, stderr := newDeps(batchService(&got, nil, "https://b.example/"))
		var written []string
		deps.Writer = &mock.ResultWriter{
			WriteFn: func(r *websum.BatchResult) error {
				written = append(written, r.URL)
				return nil
			},
		}

		cmd := &main.BatchCmd{
			URLs:         []string{"https://a.example/", "https://b.example/", "https://c.example/"},
			OutDir:       "pages",
			SummaryFlags: main.SummaryFlags{MaxRetries: -1},
		}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example/", "https://c.example/"}, written)
		assert.Contains(t, stderr.String(), "Saved 2 pages to pages")
	})

	t.Run("write failure is a warning", func(t *testing.T) {
		t.Parallel()

		var got []string
		deps, _, stderr := newDeps(batchService(&got, nil))
		deps.Writer = &mock.ResultWriter{
			WriteFn: func(*websum.BatchResult) error {
				return websum.Errorf(websum.ERESOURCE, "disk full")
			},
		}

		cmd := &main.BatchCmd{URLs: []string{"https://a.example/"}, OutDir: "pages", SummaryFlags: main.SummaryFlags{MaxRetries: -1}}
		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stderr.String(), "warning: https://a.example/: disk full")
		assert.Contains(t, stderr.String(), "Saved 0 pages to pages")
	})

	t.Run("service error", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(&mock.SummaryService{
			SummarizeBatchFn: func(context.Context, []string, websum.SummaryOptions, websum.ProgressFunc) (*websum.BatchReport, error) {
				return nil, websum.Errorf(websum.ERESOURCE, "browser not started")
			},
		})

		cmd := &main.BatchCmd{URLs: []string{"https://a.example/"}, SummaryFlags: main.SummaryFlags{MaxRetries: -1}}
		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error: browser not started")
	})
}
