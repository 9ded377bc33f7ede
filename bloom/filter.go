// Package bloom tracks visited URLs using Bloom filters.
package bloom

import (
	"net/url"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a probabilistic set of visited URLs. URLs are normalized
// before insertion so trivially different spellings collide.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Visit records url and reports whether it had not been seen before.
// A false positive reports a new URL as seen, never the reverse.
func (f *Filter) Visit(url string) bool {
	return !f.f.TestAndAddString(Normalize(url))
}

// Seen reports whether url might have been visited.
func (f *Filter) Seen(url string) bool {
	return f.f.TestString(Normalize(url))
}

// EstimatedCount returns the approximate number of visited URLs.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

// Normalize drops the fragment and a trailing slash on non-root paths,
// gives an empty path the root path and lowercases the scheme and host. Unparseable input is returned as is.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
	}
	return u.String()
}
