package mock

import "github.com/fwojciec/websum"

var _ websum.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of websum.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html, baseURL string, max int) ([]string, error)
}

func (l *LinkExtractor) ExtractLinks(html, baseURL string, max int) ([]string, error) {
	return l.ExtractLinksFn(html, baseURL, max)
}
