package websum

import "time"

// PageMetadata describes the page a summary was produced from.
type PageMetadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Timestamp   time.Time `json:"timestamp"`
}

// ResultError is the serializable form of a per-URL failure.
type ResultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewResultError converts err into its serializable form.
func NewResultError(err error) *ResultError {
	if err == nil {
		return nil
	}
	return &ResultError{Code: ErrorCode(err), Message: ErrorMessage(err)}
}

// Error implements the error interface.
func (e *ResultError) Error() string {
	return e.Code + ": " + e.Message
}

// BatchResult is the outcome of processing one URL. A terminal result
// carries either a Summary or an Error, never both.
type BatchResult struct {
	URL            string         `json:"url"`
	Summary        string         `json:"summary,omitempty"`
	Metadata       *PageMetadata  `json:"metadata,omitempty"`
	Analysis       map[string]any `json:"analysis,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Error          *ResultError   `json:"error,omitempty"`
	Retries        int            `json:"retries,omitempty"`
	ProcessingTime time.Duration  `json:"processingTime"`
	Content        string         `json:"content,omitempty"`
	ContentHash    string         `json:"contentHash,omitempty"`
	Tokens         int            `json:"tokens,omitempty"`
	Links          []*BatchResult `json:"links,omitempty"`
}

// Succeeded reports whether the URL produced a summary.
func (r *BatchResult) Succeeded() bool {
	return r != nil && r.Error == nil && r.Summary != ""
}

// Failed reports whether the URL ended in an error.
func (r *BatchResult) Failed() bool {
	return r != nil && r.Error != nil
}

// Title returns the page title, falling back to the URL.
func (r *BatchResult) Title() string {
	if r.Metadata != nil && r.Metadata.Title != "" {
		return r.Metadata.Title
	}
	return r.URL
}

// BatchReport is the outcome of a batch run. Results are in input order.
type BatchReport struct {
	RunID       string         `json:"runId"`
	Results     []*BatchResult `json:"results"`
	Comparative string         `json:"comparative,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
	StartedAt   time.Time      `json:"startedAt"`
	Duration    time.Duration  `json:"duration"`
}

// Succeeded returns the successful results in input order.
func (r *BatchReport) Succeeded() []*BatchResult {
	var out []*BatchResult
	for _, res := range r.Results {
		if res.Succeeded() {
			out = append(out, res)
		}
	}
	return out
}

// FailedCount returns the number of failed results.
func (r *BatchReport) FailedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}

// Summary is the output of summarizing a single piece of content.
type Summary struct {
	Text       string
	Chunks     int
	ModelCalls int
	Retries    int
}
