package mock

import "github.com/fwojciec/websum"

var _ websum.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of websum.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*websum.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*websum.ExtractResult, error) {
	return e.ExtractFn(html)
}
