package wikitext

import (
	"bytes"
	stdhtml "html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TOCEntry represents a heading in the table of contents.
type TOCEntry struct {
	ID       string
	Text     string
	Children []TOCEntry
}

// buildTOCTree constructs a nested TOC from a flat list of heading nodes.
// h2 is top-level, h3 nests under h2, h4 under h3. Headings that appear
// before a parent of the expected level are dropped.
func buildTOCTree(nodes []*html.Node) []TOCEntry {
	var root []TOCEntry

	for _, n := range nodes {
		level := headingLevel(n)
		if level < 2 || level > 4 {
			continue
		}

		entry := TOCEntry{
			ID:   getAttr(n, "id"),
			Text: textContent(n),
		}

		switch level {
		case 2:
			root = append(root, entry)
		case 3:
			if len(root) > 0 {
				root[len(root)-1].Children = append(root[len(root)-1].Children, entry)
			}
		case 4:
			if len(root) > 0 {
				parent := &root[len(root)-1]
				if len(parent.Children) > 0 {
					parent.Children[len(parent.Children)-1].Children = append(
						parent.Children[len(parent.Children)-1].Children, entry)
				}
			}
		}
	}

	return root
}

func headingLevel(n *html.Node) int {
	switch n.Data {
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	default:
		return 0
	}
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func renderTOCList(entries []TOCEntry, b *strings.Builder) {
	b.WriteString("<ol>")
	for _, e := range entries {
		b.WriteString(`<li><a href="#` + e.ID + `">`)
		b.WriteString(stdhtml.EscapeString(e.Text))
		b.WriteString("</a>")
		if len(e.Children) > 0 {
			renderTOCList(e.Children, b)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ol>")
}

// insertTOC parses rendered HTML, and when at least one h2 exists, inserts
// a nested table of contents immediately before the first h2.
func insertTOC(rendered string) (string, error) {
	root, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return "", err
	}

	document := goquery.NewDocumentFromNode(root)

	headers := document.Find("h2, h3, h4")
	if headers.Length() == 0 {
		return rendered, nil
	}

	var nodes []*html.Node
	headers.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, s.Nodes[0])
	})
	tree := buildTOCTree(nodes)
	if len(tree) == 0 {
		return rendered, nil
	}

	var tocHTML strings.Builder
	tocHTML.WriteString(`<div id="toc"><span class="toc-title">Contents</span>`)
	renderTOCList(tree, &tocHTML)
	tocHTML.WriteString("</div>")

	fakeBody := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	fragments, err := html.ParseFragment(strings.NewReader(tocHTML.String()), fakeBody)
	if err != nil {
		return "", err
	}
	var tocNode *html.Node
	for _, n := range fragments {
		if n.Type == html.ElementNode {
			tocNode = n
			break
		}
	}
	if tocNode == nil {
		return rendered, nil
	}

	h2s := document.Find("h2")
	if h2s.Length() == 0 {
		return rendered, nil
	}
	firstH2 := h2s.Nodes[0]
	firstH2.Parent.InsertBefore(tocNode, firstH2)

	var out bytes.Buffer
	if err := html.Render(&out, root); err != nil {
		return "", err
	}
	return out.String(), nil
}
