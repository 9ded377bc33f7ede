package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/websum"
)

// maxIndexDepth bounds sitemap index nesting.
const maxIndexDepth = 3

var _ websum.SitemapService = (*SitemapService)(nil)

// SitemapService discovers page URLs from website sitemaps.
type SitemapService struct {
	client    *http.Client
	userAgent string
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client, userAgent: DefaultUserAgent}
}

// DiscoverURLs returns the page URLs listed in the sitemaps of baseURL's
// site, deduplicated in sitemap order. When baseURL has a non-root path
// only URLs under that path are kept. The filter is applied last, so its
// Limit counts admitted URLs. No sitemap yields an empty slice.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *websum.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := websum.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	base, _ := url.Parse(baseURL)

	prefix := strings.TrimSuffix(base.Path, "/")
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}

	sitemaps, err := s.locateSitemaps(ctx, root)
	if err != nil {
		return nil, err
	}

	w := &walker{s: s, visited: make(map[string]bool), seen: make(map[string]bool)}
	for _, sm := range sitemaps {
		if err := w.walk(ctx, sm, 0); err != nil {
			return nil, err
		}
	}

	urls := make([]string, 0, len(w.urls))
	for _, u := range w.urls {
		if prefix == "" || underPath(u, prefix) {
			urls = append(urls, u)
		}
	}
	return filter.Apply(urls), nil
}

// walker collects page URLs across nested sitemaps.
type walker struct {
	s       *SitemapService
	visited map[string]bool // sitemaps
	seen    map[string]bool // page URLs
	urls    []string
}

func (w *walker) walk(ctx context.Context, sitemapURL string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.visited[sitemapURL] || depth > maxIndexDepth {
		return nil
	}
	w.visited[sitemapURL] = true

	doc, err := w.s.fetchXML(ctx, sitemapURL)
	if err != nil {
		return err
	}
	root := doc.Root()
	if root == nil {
		return websum.Errorf(websum.ECONTENT, "empty sitemap XML at %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		for _, child := range locs(root, "sitemap") {
			if err := w.walk(ctx, child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, u := range locs(root, "url") {
		if !w.seen[u] {
			w.seen[u] = true
			w.urls = append(w.urls, u)
		}
	}
	return nil
}

// locs returns the trimmed <loc> text of each tag child of root.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if v := strings.TrimSpace(loc.Text()); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// underPath reports whether rawURL's path is prefix or lies below it.
func underPath(rawURL, prefix string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Path == prefix || strings.HasPrefix(u.Path, prefix+"/")
}

// locateSitemaps reads Sitemap directives from robots.txt, falling back to
// /sitemap.xml when robots.txt names none. It returns nil when neither
// exists.
func (s *SitemapService) locateSitemaps(ctx context.Context, root *url.URL) ([]string, error) {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	if body, err := s.get(ctx, robots); err == nil {
		sitemaps, err := parseRobots(body)
		body.Close()
		if err != nil {
			return nil, err
		}
		if len(sitemaps) > 0 {
			return sitemaps, nil
		}
	} else if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	req, err := s.request(ctx, http.MethodHead, fallback)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, nil
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return []string{fallback}, nil
}

func parseRobots(r io.Reader) ([]string, error) {
	var sitemaps []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			sitemaps = append(sitemaps, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return sitemaps, nil
}

// fetchXML downloads and parses a sitemap, decompressing gzipped ones.
func (s *SitemapService) fetchXML(ctx context.Context, target string) (*etree.Document, error) {
	body, err := s.get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(strings.ToLower(target), ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, websum.WrapError(websum.ECONTENT, err, "decompressing sitemap %s", target)
		}
		defer gz.Close()
		r = gz
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, websum.WrapError(websum.ECONTENT, err, "parsing sitemap XML at %s", target)
	}
	return doc, nil
}

func (s *SitemapService) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := s.request(ctx, http.MethodGet, target)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyError(ctx, target, err)
	}
	if err := websum.ClassifyStatus(target, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (s *SitemapService) request(ctx context.Context, method, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, websum.WrapError(websum.EINVALID, err, "building request for %s", target)
	}
	req.Header.Set("User-Agent", s.userAgent)
	return req, nil
}
