// Package chunk splits long text into bounded, contiguous chunks for
// summarization.
package chunk

import (
	"regexp"
	"unicode/utf8"

	"github.com/fwojciec/websum"
)

// DefaultMaxChars is the default upper bound on chunk length in bytes.
const DefaultMaxChars = websum.DefaultMaxChunkChars

var (
	// paragraphBreak matches a run of two or more line breaks,
	// allowing blank lines that contain only spaces or tabs.
	paragraphBreak = regexp.MustCompile(`\r?\n(?:[ \t]*\r?\n)+`)

	// sentenceBreak matches sentence-ending punctuation and the
	// whitespace that follows it.
	sentenceBreak = regexp.MustCompile(`[.!?]+\s+`)
)

type span struct {
	start, end int
}

func (s span) len() int { return s.end - s.start }

// Split divides text into chunks of at most maxChars bytes.
//
// Paragraphs are packed greedily, each carrying its trailing separator,
// so chunks tile the input: concatenating every chunk's Content
// reproduces text exactly. A paragraph longer than maxChars is packed by
// sentences instead, and a sentence longer than maxChars is cut on rune
// boundaries. Text that already fits, or a non-positive maxChars, yields
// a single chunk.
func Split(text string, maxChars int) []websum.ContentChunk {
	if maxChars <= 0 || len(text) <= maxChars {
		return []websum.ContentChunk{{Content: text, Index: 0, Total: 1, StartChar: 0, EndChar: len(text)}}
	}

	var spans []span
	for _, p := range pack(splitAfter(text, span{0, len(text)}, paragraphBreak), maxChars) {
		if p.len() <= maxChars {
			spans = append(spans, p)
			continue
		}
		for _, s := range pack(splitAfter(text, p, sentenceBreak), maxChars) {
			if s.len() <= maxChars {
				spans = append(spans, s)
				continue
			}
			spans = append(spans, hardSplit(text, s, maxChars)...)
		}
	}

	chunks := make([]websum.ContentChunk, len(spans))
	for i, s := range spans {
		chunks[i] = websum.ContentChunk{
			Content:   text[s.start:s.end],
			Index:     i,
			Total:     len(spans),
			StartChar: s.start,
			EndChar:   s.end,
		}
	}
	return chunks
}

// splitAfter cuts within into units that end just after each match of re.
func splitAfter(text string, within span, re *regexp.Regexp) []span {
	var units []span
	start := within.start
	for _, m := range re.FindAllStringIndex(text[within.start:within.end], -1) {
		end := within.start + m[1]
		if end > start {
			units = append(units, span{start, end})
		}
		start = end
	}
	if start < within.end {
		units = append(units, span{start, within.end})
	}
	return units
}

// pack merges adjacent units while the merged span stays within max.
// A unit that would overflow a non-empty running span seals it.
func pack(units []span, max int) []span {
	var out []span
	cur, open := span{}, false
	for _, u := range units {
		switch {
		case !open:
			cur, open = u, true
		case u.end-cur.start > max:
			out = append(out, cur)
			cur = u
		default:
			cur.end = u.end
		}
	}
	if open {
		out = append(out, cur)
	}
	return out
}

// hardSplit cuts s into pieces of at most max bytes without splitting
// a UTF-8 sequence. A rune wider than max becomes its own piece.
func hardSplit(text string, s span, max int) []span {
	var out []span
	for start := s.start; start < s.end; {
		end := start + max
		if end >= s.end {
			end = s.end
		} else {
			for end > start && !utf8.RuneStart(text[end]) {
				end--
			}
			if end == start {
				_, size := utf8.DecodeRuneInString(text[start:])
				end = start + size
			}
		}
		out = append(out, span{start, end})
		start = end
	}
	return out
}
