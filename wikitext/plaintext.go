package wikitext

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy strips every HTML element, leaving text content only.
var strictPolicy = bluemonday.StrictPolicy()

// PlainText derives a tag- and template-free plain-text projection of
// wikitext, used for description and summary generation. Tags are stripped,
// template expressions are deleted outright (parameters and all, no
// expansion), the remaining Markdown is rendered, and all HTML elements are
// removed. Already-plain input passes through unchanged modulo Markdown
// rendering.
func (p *Pipeline) PlainText(wikitext string) (string, error) {
	stripped, _ := ExtractTags(wikitext)
	stripped = placeholderRegexp.ReplaceAllString(stripped, "")
	stripped = templateRegexp.ReplaceAllString(stripped, "")

	var buf bytes.Buffer
	if err := p.md.Convert([]byte(stripped), &buf); err != nil {
		return "", err
	}

	plain := strictPolicy.Sanitize(buf.String())
	plain = html.UnescapeString(plain)
	return strings.TrimSpace(plain), nil
}

// Describe produces a page description: the plain-text projection truncated
// to maxRunes runes on a rune boundary.
func (p *Pipeline) Describe(wikitext string, maxRunes int) (string, error) {
	plain, err := p.PlainText(wikitext)
	if err != nil {
		return "", err
	}
	plain = strings.Join(strings.Fields(plain), " ")
	runes := []rune(plain)
	if len(runes) <= maxRunes {
		return plain, nil
	}
	return strings.TrimSpace(string(runes[:maxRunes])) + "…", nil
}
