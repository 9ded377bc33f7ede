// Package http implements websum services over HTTP: a static page
// fetcher, sitemap discovery and the HTTP API server.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/websum"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultUserAgent identifies websum in outgoing requests.
const DefaultUserAgent = "websum/1.0 (+https://github.com/fwojciec/websum)"

// maxBodyBytes caps the size of a fetched page.
const maxBodyBytes = 10 << 20

var _ websum.Browser = (*Fetcher)(nil)

// Fetcher retrieves raw HTML with plain HTTP requests. It does not
// execute JavaScript and suits static sites only. Recycle drops idle
// connections.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
	return f
}

// Fetch retrieves the HTML content from the given URL. HTTP error
// statuses and network failures are returned as navigation errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", websum.WrapError(websum.EINVALID, err, "building request for %s", url)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classifyError(ctx, url, err)
	}
	defer resp.Body.Close()

	if err := websum.ClassifyStatus(url, resp.StatusCode); err != nil {
		return "", err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", classifyError(ctx, url, fmt.Errorf("reading body: %w", err))
	}
	return string(body), nil
}

// Recycle closes idle connections so later requests dial afresh.
func (f *Fetcher) Recycle() error {
	f.client.CloseIdleConnections()
	return nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func classifyError(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return websum.NavigationError(url, websum.ReasonTimeout, 0, err)
	}
	return websum.NavigationError(url, websum.ReasonOther, 0, err)
}
