package mock

import "github.com/fwojciec/websum"

var _ websum.Converter = (*Converter)(nil)

// Converter is a mock implementation of websum.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
