// Package htmltomarkdown converts extracted page content to Markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/websum"
	"github.com/microcosm-cc/bluemonday"
)

var _ websum.Converter = (*Converter)(nil)

// Converter sanitizes HTML and converts it to Markdown. Scripts, styles,
// event handlers and other active content are removed before conversion.
type Converter struct {
	conv   *converter.Converter
	policy *bluemonday.Policy
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
	return &Converter{conv: conv, policy: policy}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", websum.Errorf(websum.ECONTENT, "empty HTML input")
	}

	result, err := c.conv.ConvertString(c.policy.Sanitize(html))
	if err != nil {
		return "", websum.WrapError(websum.ECONTENT, err, "converting to markdown")
	}
	return strings.TrimSpace(result), nil
}
