// Package goquery implements link extraction from rendered HTML using
// goquery.
package goquery

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/websum"
)

var _ websum.LinkExtractor = (*LinkExtractor)(nil)

// skippedExtensions are file types that are never worth summarizing.
var skippedExtensions = map[string]bool{
	".pdf": true, ".zip": true, ".gz": true, ".tar": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true,
	".mp3": true, ".mp4": true, ".webm": true,
	".css": true, ".js": true, ".xml": true, ".json": true,
}

// LinkExtractor finds same-host page links in HTML.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks returns same-host links in document order. Fragments are
// stripped, duplicates and links back to baseURL dropped, and links marked
// rel="nofollow" or pointing at non-page files skipped.
func (e *LinkExtractor) ExtractLinks(html string, baseURL string, max int) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, websum.Errorf(websum.EINVALID, "invalid base URL %q", baseURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, websum.Errorf(websum.ECONTENT, "failed to parse HTML: %v", err)
	}

	// A <base href> overrides the page URL for resolution.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(href); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	seen := map[string]bool{stripFragment(base): true}
	var links []string

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if max > 0 && len(links) >= max {
			return false
		}

		href, _ := sel.Attr("href")
		if href == "" || isNonHTTPLink(href) {
			return true
		}
		if rel, ok := sel.Attr("rel"); ok && strings.Contains(strings.ToLower(rel), "nofollow") {
			return true
		}

		resolved, ok := resolveURL(base, href)
		if !ok || resolved.Host != base.Host {
			return true
		}
		if skippedExtensions[strings.ToLower(path.Ext(resolved.Path))] {
			return true
		}

		link := resolved.String()
		if seen[link] {
			return true
		}
		seen[link] = true
		links = append(links, link)
		return true
	})

	return links, nil
}

// resolveURL resolves href against base and strips the fragment.
// Only http and https results are accepted.
func resolveURL(base *url.URL, href string) (*url.URL, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, false
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	return resolved, true
}

func stripFragment(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
