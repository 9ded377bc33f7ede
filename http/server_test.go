package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/websum"
	websumhttp "github.com/fwojciec/websum/http"
	"github.com/fwojciec/websum/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, svc websum.SummaryService, opts ...websumhttp.ServerOption) *httptest.Server {
	t.Helper()

	opts = append(opts, websumhttp.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	srv := httptest.NewServer(websumhttp.NewServer(svc, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestServer(t *testing.T) {
	t.Parallel()

	t.Run("healthz", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &mock.SummaryService{})

		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("Content-Type"))
	})

	t.Run("summarize merges options over defaults", func(t *testing.T) {
		t.Parallel()

		var got websum.SummaryOptions
		svc := &mock.SummaryService{
			SummarizeURLFn: func(_ context.Context, url string, opts websum.SummaryOptions) (*websum.BatchResult, error) {
				got = opts
				return &websum.BatchResult{URL: url, Summary: "short summary"}, nil
			},
		}
		defaults := websum.DefaultSummaryOptions()
		defaults.MaxRetries = 5
		srv := newServer(t, svc, websumhttp.WithDefaults(defaults))

		resp, body := post(t, srv.URL+"/summarize", `{"url":"https://example.com","options":{"length":"short"}}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "short summary", body["summary"])
		assert.Equal(t, websum.LengthShort, got.Length)
		assert.Equal(t, 5, got.MaxRetries)
		assert.Equal(t, defaults.Format, got.Format)
	})

	t.Run("request plugins do not leak into defaults", func(t *testing.T) {
		t.Parallel()

		var got []websum.SummaryOptions
		svc := &mock.SummaryService{
			SummarizeURLFn: func(_ context.Context, url string, opts websum.SummaryOptions) (*websum.BatchResult, error) {
				got = append(got, opts)
				return &websum.BatchResult{URL: url, Summary: "s"}, nil
			},
		}
		defaults := websum.DefaultSummaryOptions()
		defaults.Plugins = []string{"readability", "keywords"}
		srv := newServer(t, svc, websumhttp.WithDefaults(defaults))

		resp, _ := post(t, srv.URL+"/summarize", `{"url":"https://example.com","options":{"plugins":["sentiment"]}}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = post(t, srv.URL+"/summarize", `{"url":"https://example.com"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		require.Len(t, got, 2)
		assert.Equal(t, []string{"sentiment"}, got[0].Plugins)
		assert.Equal(t, []string{"readability", "keywords"}, got[1].Plugins)
		assert.Equal(t, []string{"readability", "keywords"}, defaults.Plugins)
	})

	t.Run("summarize maps error codes to statuses", func(t *testing.T) {
		t.Parallel()

		svc := &mock.SummaryService{
			SummarizeURLFn: func(_ context.Context, url string, _ websum.SummaryOptions) (*websum.BatchResult, error) {
				return nil, websum.Errorf(websum.EINVALID, "invalid URL %q", url)
			},
		}
		srv := newServer(t, svc)

		resp, body := post(t, srv.URL+"/summarize", `{"url":"nope"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errBody, ok := body["error"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, websum.EINVALID, errBody["code"])
		assert.Contains(t, errBody["message"], "nope")
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &mock.SummaryService{})

		resp, _ := post(t, srv.URL+"/summarize", `{"url": "https://example.com", "unknown": 1}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("batch returns the report", func(t *testing.T) {
		t.Parallel()

		svc := &mock.SummaryService{
			SummarizeBatchFn: func(_ context.Context, urls []string, _ websum.SummaryOptions, _ websum.ProgressFunc) (*websum.BatchReport, error) {
				report := &websum.BatchReport{RunID: "run-1"}
				for _, u := range urls {
					report.Results = append(report.Results, &websum.BatchResult{URL: u, Summary: "s"})
				}
				return report, nil
			},
		}
		srv := newServer(t, svc)

		resp, body := post(t, srv.URL+"/batch", `{"urls":["https://a.example","https://b.example"]}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "run-1", body["runId"])
		assert.Len(t, body["results"], 2)
	})

	t.Run("batch limits", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, &mock.SummaryService{}, websumhttp.WithMaxBatch(1))

		resp, _ := post(t, srv.URL+"/batch", `{"urls":[]}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, _ = post(t, srv.URL+"/batch", `{"urls":["https://a.example","https://b.example"]}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, websumhttp.StatusCode(websum.EINVALID))
	assert.Equal(t, http.StatusNotFound, websumhttp.StatusCode(websum.ENOTFOUND))
	assert.Equal(t, http.StatusUnprocessableEntity, websumhttp.StatusCode(websum.ECONTENT))
	assert.Equal(t, http.StatusBadGateway, websumhttp.StatusCode(websum.EMODEL))
	assert.Equal(t, http.StatusServiceUnavailable, websumhttp.StatusCode(websum.ETRANSIENT))
	assert.Equal(t, http.StatusInternalServerError, websumhttp.StatusCode(websum.EINTERNAL))
}
