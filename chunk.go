package websum

// ContentChunk is a contiguous slice of a page's text, sized for a single
// model call. StartChar and EndChar are byte offsets into the source text
// so that text[StartChar:EndChar] == Content.
type ContentChunk struct {
	Content   string `json:"content"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	StartChar int    `json:"startChar"`
	EndChar   int    `json:"endChar"`
}

// Len returns the chunk length in bytes.
func (c ContentChunk) Len() int {
	return c.EndChar - c.StartChar
}
