package wikitext

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mveld/tanglewiki/wiki"
)

// linkRegexp matches [[Target]], [[Target|Text]], [[Target#Anchor]], and
// [[Target#Anchor|Text]]. Colons are excluded from the body so [[Key:Value]]
// tag expressions are never misidentified as links.
var linkRegexp = regexp.MustCompile(`\[\[([^:\[\]]+?)\]\]`)

// DefaultLinkConcurrency bounds concurrent graph lookups within one
// ParseAll call. Each occurrence resolves independently, so lookups for
// distinct occurrences may run in parallel.
const DefaultLinkConcurrency = 8

// LinkResolver resolves bracket links against the page graph and renders
// them as anchors.
type LinkResolver struct {
	graph       Graph
	concurrency int
}

// NewLinkResolver creates a LinkResolver. A concurrency of 0 or less uses
// DefaultLinkConcurrency.
func NewLinkResolver(graph Graph, concurrency int) *LinkResolver {
	if concurrency <= 0 {
		concurrency = DefaultLinkConcurrency
	}
	return &LinkResolver{graph: graph, concurrency: concurrency}
}

// splitLinkExpr splits the inner text of a bracket link into target, display
// text, and raw anchor. The pipe separator is split first, then the anchor
// within the target segment. Display text defaults to the full pre-pipe
// segment, anchor suffix included.
func splitLinkExpr(inner string) (target, text, anchor string) {
	pre := inner
	if idx := strings.Index(inner, "|"); idx >= 0 {
		pre = strings.TrimSpace(inner[:idx])
		text = strings.TrimSpace(inner[idx+1:])
	} else {
		text = strings.TrimSpace(inner)
	}
	target = strings.TrimSpace(pre)
	if idx := strings.Index(target, "#"); idx >= 0 {
		anchor = strings.TrimSpace(target[idx+1:])
		target = strings.TrimSpace(target[:idx])
	}
	return target, text, anchor
}

// Resolve parses one link expression body and resolves it against the graph.
// A missing target is not an error: the record comes back with IsNew set and
// a /new?title= creation path. Store failures propagate.
func (r *LinkResolver) Resolve(ctx context.Context, inner string) (*wiki.LinkRecord, error) {
	target, text, anchor := splitLinkExpr(inner)

	rec := &wiki.LinkRecord{
		Target: target,
		Text:   text,
		Anchor: wiki.SlugifyAnchor(anchor),
	}

	ref, err := r.graph.LookupPage(ctx, target)
	if errors.Is(err, wiki.ErrPageNotFound) {
		rec.IsNew = true
		rec.Title = target
		// Anchors are dropped on creation-redirect URLs.
		rec.Path = "/new?title=" + url.QueryEscape(target)
		return rec, nil
	}
	if err != nil {
		return nil, err
	}

	rec.PageID = ref.ID
	rec.Title = ref.Title
	rec.Path = ref.Path
	if rec.Anchor != "" {
		rec.Path += "#" + rec.Anchor
	}
	return rec, nil
}

// RenderLink emits the anchor element for a resolved link record. Requested
// links get class="isNew"; resolved links get a title attribute only when
// the resolved title differs from the display text.
func RenderLink(rec *wiki.LinkRecord) string {
	href := html.EscapeString(rec.Path)
	text := rec.Text

	if rec.IsNew {
		return fmt.Sprintf(`<a href="%s" class="isNew">%s</a>`, href, text)
	}
	if rec.Title != rec.Text {
		return fmt.Sprintf(`<a href="%s" title="%s">%s</a>`, href, html.EscapeString(rec.Title), text)
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, href, text)
}

// ParseAll finds every bracket link in one left-to-right pass, resolves each
// occurrence independently (bounded concurrency, no caching between
// occurrences), and replaces each with its rendered anchor. Records are
// returned in occurrence order, duplicates included; de-duplication is a
// persistence concern, not a parse concern.
func (r *LinkResolver) ParseAll(ctx context.Context, text string) (string, []*wiki.LinkRecord, error) {
	matches := linkRegexp.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text, nil, nil
	}

	records := make([]*wiki.LinkRecord, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, m := range matches {
		i, inner := i, text[m[2]:m[3]]
		g.Go(func() error {
			rec, err := r.Resolve(gctx, inner)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for i, m := range matches {
		b.WriteString(text[last:m[0]])
		b.WriteString(RenderLink(records[i]))
		last = m[1]
	}
	b.WriteString(text[last:])

	return b.String(), records, nil
}
