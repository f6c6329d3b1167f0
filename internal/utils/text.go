package utils

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
)

var (
	emailFolder = cases.Fold()
	strict      = bluemonday.StrictPolicy()
)

// NormalizeEmail trims and case-folds an email address so lookups and
// uniqueness checks ignore case.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

// EmailLocalPart returns the part of the address before '@'.
func EmailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

// SanitizeText strips any markup from user supplied text and trims it.
func SanitizeText(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

// LengthBetween reports whether s has between min and max runes.
func LengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}
