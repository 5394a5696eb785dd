package wikitext

import (
	"context"
	"sort"
	"strings"

	"github.com/mveld/tanglewiki/wiki"
)

// fakePage is one node of the in-memory test graph.
type fakePage struct {
	id         int
	title      string
	path       string
	pageType   string
	parentPath string
	body       string
	readRole   int
	files      []*wiki.PageFile
	tags       wiki.TagMap
}

// fakeGraph is an in-memory Graph for parser tests. Pages are ordered by
// insertion; "newest" ordering is reverse insertion order.
type fakeGraph struct {
	pages []*fakePage
}

func (g *fakeGraph) add(p *fakePage) *fakePage {
	p.id = len(g.pages) + 1
	if p.tags == nil {
		p.tags = wiki.TagMap{}
	}
	g.pages = append(g.pages, p)
	return p
}

func (g *fakeGraph) summary(p *fakePage) *wiki.PageSummary {
	return &wiki.PageSummary{
		ID:    p.id,
		Title: p.title,
		Path:  p.path,
		Type:  p.pageType,
		Files: p.files,
		Tags:  p.tags,
	}
}

func (g *fakeGraph) LookupPage(ctx context.Context, titleOrPath string) (*PageRef, error) {
	// Path match wins over title match.
	for _, p := range g.pages {
		if p.path == titleOrPath {
			return &PageRef{ID: p.id, Title: p.title, Path: p.path}, nil
		}
	}
	for _, p := range g.pages {
		if p.title == titleOrPath {
			return &PageRef{ID: p.id, Title: p.title, Path: p.path}, nil
		}
	}
	return nil, wiki.ErrPageNotFound
}

func (g *fakeGraph) Children(ctx context.Context, parentPath, typeFilter string, order ChildOrder, limit int, requester *wiki.Member) ([]*wiki.PageSummary, error) {
	var out []*wiki.PageSummary
	for _, p := range g.pages {
		if p.parentPath != parentPath {
			continue
		}
		if typeFilter != "" && p.pageType != typeFilter {
			continue
		}
		if !requester.CanRead(p.readRole) {
			continue
		}
		out = append(out, g.summary(p))
	}
	if order == OrderNewest {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *fakeGraph) Search(ctx context.Context, q SearchQuery, requester *wiki.Member) ([]*wiki.PageSummary, error) {
	var out []*wiki.PageSummary
	for _, p := range g.pages {
		if q.Type != "" && p.pageType != q.Type {
			continue
		}
		if q.TitleContains != "" && !strings.Contains(p.title, q.TitleContains) {
			continue
		}
		if !requester.CanRead(p.readRole) {
			continue
		}
		out = append(out, g.summary(p))
	}
	return out, nil
}

func (g *fakeGraph) Files(ctx context.Context, pageID int, requester *wiki.Member) ([]*wiki.PageFile, error) {
	for _, p := range g.pages {
		if p.id != pageID {
			continue
		}
		if !requester.CanRead(p.readRole) {
			return nil, wiki.ErrPageNotFound
		}
		return p.files, nil
	}
	return nil, wiki.ErrPageNotFound
}

func (g *fakeGraph) TemplatePage(ctx context.Context, name string, requester *wiki.Member) (string, error) {
	for _, p := range g.pages {
		if p.pageType == "Template" && p.title == name && requester.CanRead(p.readRole) {
			return p.body, nil
		}
	}
	return "", wiki.ErrTemplateNotFound
}
