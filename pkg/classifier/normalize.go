package classifier

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// fieldSeparator joins record fields in the search text. It is not a letter or
// digit and never appears in a normalized keyword, so phrases cannot span fields.
const fieldSeparator = " | "

// normalizeText applies NFKC, Unicode case folding, strips control characters
// and collapses whitespace runs to a single space.
func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// A Caser keeps internal state; one per call keeps this goroutine safe.
	s = cases.Fold().String(norm.NFKC.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// compileKeyword builds the boundary-anchored pattern for a normalized keyword.
// RE2 has no lookaround, so the boundaries consume one non-alphanumeric rune.
func compileKeyword(keyword string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(keyword) + `(?:[^\p{L}\p{N}]|$)`)
}

// keywordWeight is the number of words in a normalized keyword.
func keywordWeight(keyword string) int {
	return len(strings.Fields(keyword))
}

// displayName derives a display name from a slug: "cough-cold" -> "Cough Cold".
func displayName(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
