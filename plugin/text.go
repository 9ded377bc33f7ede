package plugin

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}]+(?:'[\p{L}]+)?`)
	sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)
)

// words returns the lowercase words of text.
func words(text string) []string {
	found := wordPattern.FindAllString(text, -1)
	for i, w := range found {
		found[i] = strings.ToLower(w)
	}
	return found
}

// countSentences counts terminated sentences, treating unterminated
// trailing text as one more.
func countSentences(text string) int {
	n := len(sentencePattern.FindAllStringIndex(text, -1))
	if n == 0 && strings.TrimSpace(text) != "" {
		return 1
	}
	last := strings.LastIndexAny(text, ".!?")
	if last >= 0 && strings.IndexFunc(text[last+1:], unicode.IsLetter) >= 0 {
		n++
	}
	return n
}

// syllables estimates the syllable count of an English word by counting
// vowel groups, discounting a silent trailing "e".
func syllables(word string) int {
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	return max(1, count)
}
