package pipeline

import "time"

// Observer receives pipeline measurements.
type Observer interface {
	// URLProcessed records the outcome of one URL. Status is "success"
	// or the error code of the failure.
	URLProcessed(status string, d time.Duration)

	// BrowserRecycled records a recycle attempt and its error, if any.
	BrowserRecycled(err error)
}

type nopObserver struct{}

func (nopObserver) URLProcessed(string, time.Duration) {}
func (nopObserver) BrowserRecycled(error)              {}
