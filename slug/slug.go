// Package slug turns question text into URL-safe identifiers.
//
// Slugs are lowercase ASCII words joined by single hyphens. Generation is
// pure: it performs no I/O and never consults storage. Scope-level
// uniqueness is handled by the resolver package.
package slug

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Fallback is returned when the text contains nothing sluggable.
	Fallback = "question"

	// QuestionMaxLength is the default length cap for question slugs.
	QuestionMaxLength = 120
	// QuestionWideMaxLength is used when the default cap produced a short slug.
	QuestionWideMaxLength = 150
	// QuestionShortThreshold is the length under which the wide cap is used.
	QuestionShortThreshold = 30
)

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	disallowedChars  = regexp.MustCompile(`[^a-z0-9\s-]`)
	separatorPattern = regexp.MustCompile(`[\s_-]+`)
	validPattern     = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Generate normalizes text into a slug of at most maxLength characters.
// A maxLength of zero or less disables truncation.
func Generate(text string, maxLength int) string {
	s := tagPattern.ReplaceAllString(text, " ")
	// Casers carry state, so one is built per call.
	s = cases.Lower(language.Und).String(s)
	s = disallowedChars.ReplaceAllString(s, "")
	s = separatorPattern.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if maxLength > 0 && len(s) > maxLength {
		s = strings.TrimRight(s[:maxLength], "-")
	}
	if s == "" {
		s = Fallback
		if maxLength > 0 && len(s) > maxLength {
			s = s[:maxLength]
		}
	}
	return s
}

// ForQuestion builds the canonical slug for a question's text. Short
// results are regenerated with a wider cap to keep more of the text.
func ForQuestion(text string) string {
	s := Generate(text, QuestionMaxLength)
	if len(s) < QuestionShortThreshold {
		s = Generate(text, QuestionWideMaxLength)
	}
	return s
}

// Valid reports whether s is a well-formed slug.
func Valid(s string) bool {
	return validPattern.MatchString(s)
}

// WithCounter appends a numeric collision suffix to base. A zero counter
// returns base unchanged.
func WithCounter(base string, counter int) string {
	if counter <= 0 {
		return base
	}
	return base + "-" + strconv.Itoa(counter)
}
