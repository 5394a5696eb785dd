package wikitext

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// codeFenceRegexp matches a triple-backtick fenced span, newlines included.
// The match is deliberately greedy: adjacent fences collapse into the
// largest span per occurrence, which keeps everything between the outermost
// fences verbatim.
var codeFenceRegexp = regexp.MustCompile("(?s)```(.*)```")

const codeBlockToken = ":CODE_BLOCK_%d:"

// ExtractCodeBlocks replaces every fenced code block with a positional
// placeholder token and returns the blocks' inner content in order of
// appearance. It must run before every other parsing pass so tag, link, and
// template syntax inside code is never interpreted.
func ExtractCodeBlocks(text string) (string, []string) {
	var blocks []string
	shielded := codeFenceRegexp.ReplaceAllStringFunc(text, func(match string) string {
		inner := strings.TrimPrefix(match, "```")
		inner = strings.TrimSuffix(inner, "```")
		blocks = append(blocks, inner)
		return fmt.Sprintf(codeBlockToken, len(blocks)-1)
	})
	return shielded, blocks
}

// RestoreCodeBlocks substitutes each placeholder with a <pre><code> element
// containing the block's literal, HTML-escaped content. It must run strictly
// after Markdown rendering and template expansion: the Markdown renderer
// wraps a bare placeholder in a paragraph tag, and that wrapped form is what
// gets replaced.
func RestoreCodeBlocks(rendered string, blocks []string) string {
	for i, block := range blocks {
		token := fmt.Sprintf(codeBlockToken, i)
		element := "<pre><code>" + html.EscapeString(strings.TrimPrefix(block, "\n")) + "</code></pre>"

		wrapped := "<p>" + token + "</p>"
		if strings.Contains(rendered, wrapped) {
			rendered = strings.Replace(rendered, wrapped, element, 1)
		} else {
			// Placeholder ended up inline (e.g. fence on a line with
			// other text); fall back to the bare token.
			rendered = strings.Replace(rendered, token, element, 1)
		}
	}
	return rendered
}
