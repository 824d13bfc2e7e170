package resolver

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	separatorChars = regexp.MustCompile(`[-_]+`)
	punctuation    = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespace     = regexp.MustCompile(`\s+`)
)

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "all": {}, "also": {}, "an": {}, "and": {},
	"any": {}, "are": {}, "as": {}, "at": {}, "be": {}, "been": {}, "before": {}, "being": {},
	"between": {}, "both": {}, "but": {}, "by": {}, "can": {}, "could": {}, "did": {}, "do": {},
	"does": {}, "each": {}, "following": {}, "for": {}, "from": {}, "had": {}, "has": {}, "have": {},
	"he": {}, "her": {}, "his": {}, "how": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {},
	"its": {}, "man": {}, "may": {}, "more": {}, "most": {}, "not": {}, "of": {}, "on": {}, "one": {},
	"or": {}, "other": {}, "our": {}, "she": {}, "should": {}, "so": {}, "some": {}, "such": {},
	"than": {}, "that": {}, "the": {}, "their": {}, "them": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "those": {}, "to": {}, "was": {}, "we": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "while": {}, "who": {}, "whom": {}, "why": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {},
}

// normalizeText lower-cases s, turns hyphens and underscores into spaces,
// drops remaining punctuation and collapses whitespace.
func normalizeText(s string) string {
	s = cases.Lower(language.Und).String(s)
	s = separatorChars.ReplaceAllString(s, " ")
	s = punctuation.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// humanize converts a hyphenated identifier into a normalized phrase.
func humanize(identifier string) string {
	return normalizeText(strings.ReplaceAll(identifier, "-", " "))
}

type wordSet map[string]struct{}

func newWordSet(normalized string) wordSet {
	fields := strings.Fields(normalized)
	set := make(wordSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func (s wordSet) count(words []string) int {
	n := 0
	for _, w := range words {
		if _, ok := s[w]; ok {
			n++
		}
	}
	return n
}

func uniqueWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isLowerHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// longestWords returns up to n of words ordered longest first. Equal lengths
// keep their original order.
func longestWords(words []string, n int) []string {
	out := append([]string(nil), words...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ceilRatio returns ceil(total*ratio), ignoring float error such as
// 10*0.3 = 3.0000000000000004.
func ceilRatio(total int, ratio float64) int {
	return int(math.Ceil(float64(total)*ratio - 1e-9))
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
