package mock

import "github.com/fwojciec/websum"

var _ websum.ResultWriter = (*ResultWriter)(nil)

// ResultWriter is a mock implementation of websum.ResultWriter.
type ResultWriter struct {
	WriteFn func(result *websum.BatchResult) error
}

func (w *ResultWriter) Write(result *websum.BatchResult) error {
	return w.WriteFn(result)
}
