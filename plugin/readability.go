package plugin

import (
	"context"
	"math"

	"github.com/fwojciec/websum"
)

// Readability scores content with the Flesch reading-ease formula.
type Readability struct{}

// NewReadability returns the readability plugin.
func NewReadability() *Readability { return &Readability{} }

// Name implements websum.Plugin.
func (*Readability) Name() string { return "readability" }

// Process implements websum.Plugin.
func (*Readability) Process(_ context.Context, content string, _ websum.PageMetadata) (*websum.PluginResult, error) {
	ws := words(content)
	sentences := countSentences(content)
	if len(ws) == 0 || sentences == 0 {
		return &websum.PluginResult{Analysis: map[string]any{"words": 0, "sentences": 0}}, nil
	}

	syl := 0
	for _, w := range ws {
		syl += syllables(w)
	}

	ease := 206.835 - 1.015*float64(len(ws))/float64(sentences) - 84.6*float64(syl)/float64(len(ws))
	ease = math.Round(ease*10) / 10

	return &websum.PluginResult{
		Analysis: map[string]any{
			"words":             len(ws),
			"sentences":         sentences,
			"syllables":         syl,
			"fleschReadingEase": ease,
			"level":             readingLevel(ease),
		},
	}, nil
}

func readingLevel(ease float64) string {
	switch {
	case ease >= 90:
		return "very easy"
	case ease >= 80:
		return "easy"
	case ease >= 70:
		return "fairly easy"
	case ease >= 60:
		return "standard"
	case ease >= 50:
		return "fairly difficult"
	case ease >= 30:
		return "difficult"
	default:
		return "very difficult"
	}
}
