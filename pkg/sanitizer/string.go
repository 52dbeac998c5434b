package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanFreeText trims a descriptive field (title, content, status),
// collapses whitespace runs, and strips control characters.
func CleanFreeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CleanIdentifier trims an identifier-like field (staff names,
// customer ids). Inner whitespace is preserved, identifiers compare
// exactly.
func CleanIdentifier(s string) string {
	return strings.TrimSpace(s)
}

// EscapeKeyword prepares a user-supplied search term for use inside a
// regex filter. Quoting defuses patterns like "(a+)+b" that would
// otherwise cause catastrophic backtracking in the database.
func EscapeKeyword(s string) string {
	return regexp.QuoteMeta(strings.TrimSpace(s))
}
