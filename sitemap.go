package websum

import (
	"context"
	"regexp"
	"slices"
)

// SitemapService discovers URLs to summarize from website sitemaps.
type SitemapService interface {
	// DiscoverURLs finds all page URLs listed in a site's sitemaps.
	// robots.txt Sitemap directives are consulted first, falling back
	// to /sitemap.xml. Sitemap indexes are resolved recursively.
	// A nil filter admits every URL.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter narrows discovered URLs by pattern and count.
type URLFilter struct {
	// Include, when non-empty, admits only URLs matching one of the patterns.
	Include []*regexp.Regexp

	// Exclude rejects URLs matching any pattern. Applied after Include.
	Exclude []*regexp.Regexp

	// Limit caps the number of admitted URLs. Zero means no limit.
	Limit int
}

// Match reports whether url passes the patterns. Limit is not consulted.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}
	matches := func(re *regexp.Regexp) bool { return re.MatchString(url) }
	if len(f.Include) > 0 && !slices.ContainsFunc(f.Include, matches) {
		return false
	}
	return !slices.ContainsFunc(f.Exclude, matches)
}

// Apply returns the URLs that match, truncated to Limit.
func (f *URLFilter) Apply(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !f.Match(u) {
			continue
		}
		out = append(out, u)
		if f != nil && f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}
