package websum

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms extracted HTML content into Markdown.
	Convert(html string) (string, error)
}
