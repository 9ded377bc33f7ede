package plugin

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/fwojciec/websum"
	"github.com/pemistahl/lingua-go"
)

// DefaultLanguages are the languages the language plugin distinguishes
// unless configured otherwise.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Spanish,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Polish,
	lingua.Russian,
	lingua.Japanese,
	lingua.Chinese,
}

// Language detects the content language. The detector is built on first
// use because loading language models is expensive.
type Language struct {
	languages []lingua.Language

	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLanguage returns a language plugin choosing among languages,
// or DefaultLanguages when none are given.
func NewLanguage(languages ...lingua.Language) *Language {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &Language{languages: languages}
}

// Name implements websum.Plugin.
func (*Language) Name() string { return "language" }

// Process implements websum.Plugin. Undetectable content is reported
// as "unknown" without a tag.
func (l *Language) Process(_ context.Context, content string, _ websum.PageMetadata) (*websum.PluginResult, error) {
	l.once.Do(func() {
		l.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(l.languages...).
			Build()
	})

	lang, ok := l.detector.DetectLanguageOf(content)
	if !ok {
		return &websum.PluginResult{
			Analysis: map[string]any{"language": "unknown"},
		}, nil
	}

	iso := strings.ToLower(lang.IsoCode639_1().String())
	confidence := math.Round(l.detector.ComputeLanguageConfidence(content, lang)*100) / 100

	return &websum.PluginResult{
		Analysis: map[string]any{
			"language":   lang.String(),
			"iso":        iso,
			"confidence": confidence,
		},
		Tags: []string{"lang:" + iso},
	}, nil
}
