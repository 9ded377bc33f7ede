// Package readability implements content extraction with go-readability.
package readability

import (
	"strings"

	"github.com/fwojciec/websum"
	"github.com/go-shiori/go-readability"
)

var _ websum.Extractor = (*Extractor)(nil)

// Extractor extracts the main article of a page with the Readability
// algorithm.
type Extractor struct {
	parser readability.Parser
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{parser: readability.NewParser()}
}

// Extract processes raw HTML and returns the main content. The page
// excerpt becomes the description.
func (e *Extractor) Extract(rawHTML string) (*websum.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, websum.Errorf(websum.ECONTENT, "empty HTML input")
	}

	article, err := e.parser.Parse(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, websum.WrapError(websum.ECONTENT, err, "extracting article")
	}

	return &websum.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		Description: strings.TrimSpace(article.Excerpt),
		ContentHTML: article.Content,
		Text:        strings.TrimSpace(article.TextContent),
	}, nil
}
