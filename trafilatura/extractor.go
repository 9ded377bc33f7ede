// Package trafilatura implements content extraction with go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/websum"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ websum.Extractor = (*Extractor)(nil)

// Extractor extracts the main content and metadata of a page with
// go-trafilatura, falling back to readability heuristics when
// trafilatura finds too little.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*websum.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, websum.Errorf(websum.ECONTENT, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
	})
	if err != nil {
		return nil, websum.WrapError(websum.ECONTENT, err, "extracting content")
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &websum.ExtractResult{
		Title:       strings.TrimSpace(result.Metadata.Title),
		Description: strings.TrimSpace(result.Metadata.Description),
		ContentHTML: contentHTML,
		Text:        strings.TrimSpace(result.ContentText),
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
