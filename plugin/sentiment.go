package plugin

import (
	"context"
	"math"

	"github.com/fwojciec/websum"
)

// Sentiment scores content against a small opinion lexicon.
// The score is (positive - negative) / (positive + negative), in [-1, 1].
type Sentiment struct {
	threshold float64
}

// NewSentiment returns the sentiment plugin. Scores within 0.1 of zero
// are labelled neutral.
func NewSentiment() *Sentiment { return &Sentiment{threshold: 0.1} }

// Name implements websum.Plugin.
func (*Sentiment) Name() string { return "sentiment" }

// Process implements websum.Plugin.
func (s *Sentiment) Process(_ context.Context, content string, _ websum.PageMetadata) (*websum.PluginResult, error) {
	var pos, neg int
	for _, w := range words(content) {
		if _, ok := positiveWords[w]; ok {
			pos++
		} else if _, ok := negativeWords[w]; ok {
			neg++
		}
	}

	score := 0.0
	if pos+neg > 0 {
		score = float64(pos-neg) / float64(pos+neg)
	}
	score = math.Round(score*100) / 100

	label := "neutral"
	switch {
	case score > s.threshold:
		label = "positive"
	case score < -s.threshold:
		label = "negative"
	}

	return &websum.PluginResult{
		Analysis: map[string]any{
			"score":    score,
			"label":    label,
			"positive": pos,
			"negative": neg,
		},
	}, nil
}

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "amazing": {}, "awesome": {}, "best": {},
	"better": {}, "benefit": {}, "benefits": {}, "easy": {}, "effective": {}, "efficient": {},
	"enjoy": {}, "fast": {}, "favorite": {}, "fantastic": {}, "fine": {}, "happy": {},
	"helpful": {}, "improve": {}, "improved": {}, "improvement": {}, "love": {}, "nice": {},
	"perfect": {}, "pleasant": {}, "positive": {}, "powerful": {}, "reliable": {}, "robust": {},
	"simple": {}, "smooth": {}, "stable": {}, "success": {}, "successful": {}, "superb": {},
	"win": {}, "wonderful": {}, "useful": {}, "valuable": {}, "secure": {}, "safe": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "poor": {}, "terrible": {}, "awful": {}, "worst": {}, "worse": {},
	"broken": {}, "bug": {}, "bugs": {}, "crash": {}, "crashes": {}, "difficult": {},
	"error": {}, "errors": {}, "fail": {}, "failed": {}, "failure": {}, "hard": {},
	"hate": {}, "horrible": {}, "issue": {}, "issues": {}, "lose": {}, "loss": {},
	"negative": {}, "problem": {}, "problems": {}, "risk": {}, "risky": {}, "slow": {},
	"unstable": {}, "unreliable": {}, "vulnerable": {}, "wrong": {}, "angry": {}, "sad": {},
	"insecure": {}, "dangerous": {}, "confusing": {}, "disappointing": {},
}
