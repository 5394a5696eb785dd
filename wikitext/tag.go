package wikitext

import (
	"regexp"

	"github.com/mveld/tanglewiki/wiki"
)

// tagRegexp matches [[Key:Value]] tag expressions. The key must contain an
// unescaped colon-free segment before the first colon; links share the same
// bracket delimiter but are disambiguated because the link pattern excludes
// colons entirely.
var (
	tagRegexp        = regexp.MustCompile(`\[\[\s*([^:\[\]]+?)\s*:\s*(.+?)\s*\]\]`)
	doubleSpaceRegex = regexp.MustCompile(` {2,}`)
)

// ExtractTags removes every [[Key:Value]] expression from the text and
// accumulates the values into a TagMap, keys lower-cased, insertion order
// preserved per key. Runs of spaces left behind at removal sites are
// collapsed to a single space; newlines are untouched.
func ExtractTags(text string) (string, wiki.TagMap) {
	tags := wiki.TagMap{}

	stripped := tagRegexp.ReplaceAllStringFunc(text, func(match string) string {
		groups := tagRegexp.FindStringSubmatch(match)
		tags.Add(groups[1], groups[2])
		return ""
	})

	stripped = doubleSpaceRegex.ReplaceAllString(stripped, " ")

	return stripped, tags
}
