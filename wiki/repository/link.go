package repository

import (
	"context"

	"github.com/mveld/tanglewiki/wiki"
)

// LinkRepository defines the interface for the link-graph side of page
// persistence.
type LinkRepository interface {
	// ReplacePageLinks replaces all outgoing link rows for the source page
	// within one transaction: a reader never observes a page with zero
	// links mid-save.
	ReplacePageLinks(ctx context.Context, sourceID int, records []*wiki.LinkRecord) error

	// SelectPageLinks returns the stored link rows for a source page.
	SelectPageLinks(ctx context.Context, sourceID int) ([]*wiki.LinkRecord, error)

	// SelectRequestedLinks returns requested (dangling) link titles grouped
	// by target title, ordered by number of distinct linking pages
	// descending, with the linking pages for each.
	SelectRequestedLinks(ctx context.Context, limit int) ([]*wiki.RequestedLink, error)

	// ResyncLinksTo repoints dangling link rows whose title matches a newly
	// created page's title or path. Called on page creation so the page
	// falls out of the requested index without waiting for every
	// referencing page to be re-saved.
	ResyncLinksTo(ctx context.Context, page *wiki.Page) error

	// CountLinks returns the total number of stored link rows.
	CountLinks(ctx context.Context) (int, error)
}
