package outline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// boilerplate phrases mark metadata lines (addresses, dates, links) that are
// typeset like headings but never are.
var boilerplate = []string{
	"address",
	"date",
	"time",
	"for:",
	"www.",
	"http",
	"rsvp",
	"mission statement",
}

// IsHeadingCandidate reports whether text is plausible as a structural heading.
func IsHeadingCandidate(text string) bool {
	if !hasLetter(text) {
		return false
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) <= 2 {
		return false
	}
	lower := lowerString(text)
	for _, phrase := range boilerplate {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// lowerString lower-cases with full Unicode rules. A Caser is stateful, so
// one is built per call to keep callers goroutine-safe.
func lowerString(s string) string {
	return cases.Lower(language.Und).String(s)
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(lowerString(s), lowerString(substr))
}
