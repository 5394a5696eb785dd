package wiki

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SlugifyAnchor converts a heading anchor to its URL fragment form:
// lower-cased, diacritics stripped, runs of non-alphanumeric characters
// collapsed to single hyphens.
func SlugifyAnchor(s string) string {
	if flat, _, err := transform.String(deaccenter, s); err == nil {
		s = flat
	}
	s = strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// TitleToPath derives a default page path from a title. Used when a page is
// created without an explicit path.
func TitleToPath(title string) string {
	return "/" + SlugifyAnchor(title)
}
