package repository

import (
	"context"

	"github.com/mveld/tanglewiki/wiki"
)

// TagRepository defines the interface for denormalized tag persistence.
type TagRepository interface {
	// ReplacePageTags replaces all tag rows for a page in one transaction.
	ReplacePageTags(ctx context.Context, pageID int, tags wiki.TagMap) error

	// SelectPageTags returns a page's tags.
	SelectPageTags(ctx context.Context, pageID int) (wiki.TagMap, error)
}
