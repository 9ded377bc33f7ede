package websum

// ProgressType identifies a batch lifecycle event.
type ProgressType string

// Batch progress events.
const (
	ProgressStarted      ProgressType = "started"
	ProgressURLStarted   ProgressType = "url_started"
	ProgressURLCompleted ProgressType = "url_completed"
	ProgressURLFailed    ProgressType = "url_failed"
	ProgressRecycled     ProgressType = "recycled"
	ProgressFinished     ProgressType = "finished"
)

// ProgressEvent reports progress during a batch.
type ProgressEvent struct {
	Type  ProgressType
	Index int
	Total int
	URL   string
	Err   error
}

// ProgressFunc is called as URLs are processed.
type ProgressFunc func(ProgressEvent)

// ResultWriter persists results as they complete.
type ResultWriter interface {
	Write(result *BatchResult) error
}
