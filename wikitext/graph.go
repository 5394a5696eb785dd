// Package wikitext implements the wikitext parsing and rendering pipeline:
// tag extraction, link resolution against the live page graph, recursive
// template expansion, and code-block shielding, layered over a standard
// Markdown renderer.
//
// The parser holds no database connection of its own. Every entry point
// takes a Graph capability value so resolution always reflects current
// graph state and the whole pipeline is testable with an in-memory fake.
package wikitext

import (
	"context"
	"strconv"

	"github.com/mveld/tanglewiki/wiki"
)

// PageRef is the result of a graph lookup: just enough to link to a page.
type PageRef struct {
	ID    int    `db:"id"`
	Title string `db:"title"`
	Path  string `db:"path"`
}

// ChildOrder selects the ordering of a child-page listing.
type ChildOrder string

const (
	OrderAlphabetical ChildOrder = "alphabetical"
	OrderNewest       ChildOrder = "newest"
)

// SearchQuery describes a page search. Zero fields are unconstrained.
type SearchQuery struct {
	PathPrefix    string
	TitleContains string
	Type          string
	Tags          map[string]string
	// MatchAny switches tag matching from AND to OR.
	MatchAny bool
	Limit    int
	Offset   int
}

// Graph is the page-graph capability consumed by the parser. Implementations
// must resolve LookupPage by exact path match first, then exact title match,
// so a title/path collision is deterministic.
type Graph interface {
	// LookupPage resolves a title-or-path string to a page reference.
	// Returns wiki.ErrPageNotFound when nothing matches.
	LookupPage(ctx context.Context, titleOrPath string) (*PageRef, error)

	// Children lists child pages of the page at parentPath, optionally
	// filtered by type, permission-filtered for the requester. A limit of
	// 0 means no limit.
	Children(ctx context.Context, parentPath, typeFilter string, order ChildOrder, limit int, requester *wiki.Member) ([]*wiki.PageSummary, error)

	// Search returns pages matching the query, permission-filtered.
	Search(ctx context.Context, q SearchQuery, requester *wiki.Member) ([]*wiki.PageSummary, error)

	// Files returns the files attached to a page, or wiki.ErrPageNotFound
	// if the page does not exist or the requester may not read it.
	Files(ctx context.Context, pageID int, requester *wiki.Member) ([]*wiki.PageFile, error)

	// TemplatePage returns the current body of the Template-type page with
	// the given title. Returns wiki.ErrTemplateNotFound when absent (or
	// unreadable by the requester, which is indistinguishable by design).
	TemplatePage(ctx context.Context, name string, requester *wiki.Member) (string, error)
}

// FileURL builds a serving URL for an attached file. The thumbnail variant
// is requested for gallery and art rendering.
type FileURL func(pageID int, file *wiki.PageFile, thumbnail bool) string

// DefaultFileURL serves files under /files/<page>/<name>.
func DefaultFileURL(pageID int, file *wiki.PageFile, thumbnail bool) string {
	name := file.Name
	if thumbnail && file.Thumbnail != "" {
		name = file.Thumbnail
	}
	return "/files/" + strconv.Itoa(pageID) + "/" + name
}
