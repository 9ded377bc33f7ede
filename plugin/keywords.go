package plugin

import (
	"context"
	"sort"

	"github.com/fwojciec/websum"
)

// DefaultKeywordCount is the number of keywords reported by Default.
const DefaultKeywordCount = 10

// Keywords reports the most frequent meaningful words and tags the
// result with them.
type Keywords struct {
	n int
}

// NewKeywords returns a keyword plugin reporting the top n words.
func NewKeywords(n int) *Keywords {
	if n <= 0 {
		n = DefaultKeywordCount
	}
	return &Keywords{n: n}
}

// Name implements websum.Plugin.
func (*Keywords) Name() string { return "keywords" }

// KeywordCount is a word and its frequency.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Process implements websum.Plugin.
func (k *Keywords) Process(_ context.Context, content string, _ websum.PageMetadata) (*websum.PluginResult, error) {
	top := topKeywords(content, k.n)
	tags := make([]string, len(top))
	for i, kc := range top {
		tags[i] = kc.Word
	}
	return &websum.PluginResult{
		Analysis: map[string]any{"keywords": top},
		Tags:     tags,
	}, nil
}

func topKeywords(content string, n int) []KeywordCount {
	freq := make(map[string]int)
	for _, w := range words(content) {
		if len([]rune(w)) < 3 || isStopword(w) {
			continue
		}
		freq[w]++
	}

	counts := make([]KeywordCount, 0, len(freq))
	for w, c := range freq {
		counts = append(counts, KeywordCount{Word: w, Count: c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})

	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func isStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

var stopwords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "against": {}, "all": {},
	"also": {}, "although": {}, "always": {}, "among": {}, "and": {}, "another": {},
	"any": {}, "anyone": {}, "anything": {}, "are": {}, "aren't": {}, "around": {},
	"because": {}, "been": {}, "before": {}, "being": {}, "below": {}, "between": {},
	"both": {}, "but": {}, "can": {}, "can't": {}, "cannot": {}, "could": {},
	"did": {}, "didn't": {}, "does": {}, "doesn't": {}, "doing": {}, "don't": {},
	"down": {}, "during": {}, "each": {}, "either": {}, "else": {}, "enough": {},
	"even": {}, "ever": {}, "every": {}, "few": {}, "for": {}, "from": {},
	"further": {}, "had": {}, "has": {}, "have": {}, "having": {}, "her": {},
	"here": {}, "hers": {}, "herself": {}, "him": {}, "himself": {}, "his": {},
	"how": {}, "however": {}, "into": {}, "isn't": {}, "it's": {}, "its": {},
	"itself": {}, "just": {}, "let": {}, "like": {}, "made": {}, "make": {},
	"many": {}, "may": {}, "more": {}, "most": {}, "much": {}, "must": {},
	"myself": {}, "never": {}, "not": {}, "nothing": {}, "now": {}, "off": {},
	"often": {}, "once": {}, "one": {}, "only": {}, "onto": {}, "other": {},
	"others": {}, "our": {}, "ours": {}, "out": {}, "over": {}, "own": {},
	"per": {}, "perhaps": {}, "rather": {}, "same": {}, "see": {}, "several": {},
	"she": {}, "should": {}, "since": {}, "some": {}, "something": {}, "still": {},
	"such": {}, "than": {}, "that": {}, "that's": {}, "the": {}, "their": {},
	"them": {}, "themselves": {}, "then": {}, "there": {}, "therefore": {}, "these": {},
	"they": {}, "this": {}, "those": {}, "through": {}, "thus": {}, "too": {},
	"toward": {}, "under": {}, "until": {}, "upon": {}, "use": {}, "used": {},
	"using": {}, "very": {}, "via": {}, "was": {}, "wasn't": {}, "way": {},
	"well": {}, "were": {}, "what": {}, "when": {}, "where": {}, "whether": {},
	"which": {}, "while": {}, "who": {}, "whom": {}, "whose": {}, "why": {},
	"will": {}, "with": {}, "within": {}, "without": {}, "won't": {}, "would": {},
	"yet": {}, "you": {}, "your": {}, "yours": {}, "yourself": {},

	// navigation and UI noise
	"click": {}, "menu": {}, "page": {}, "pages": {}, "website": {}, "site": {},
	"home": {}, "search": {}, "loading": {}, "cookie": {}, "cookies": {},
}
