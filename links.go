package websum

// LinkExtractor finds pages worth following from a rendered page.
type LinkExtractor interface {
	// ExtractLinks returns absolute same-host URLs found in html, in
	// document order, with fragments removed and duplicates dropped.
	// The baseURL resolves relative links and is itself excluded.
	// At most max links are returned; max <= 0 means no limit.
	ExtractLinks(html string, baseURL string, max int) ([]string, error)
}
