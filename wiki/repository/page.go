package repository

import (
	"context"

	"github.com/mveld/tanglewiki/wiki"
)

// PageRepository defines the interface for page persistence.
type PageRepository interface {
	// SelectPage retrieves a page by its path.
	SelectPage(ctx context.Context, path string) (*wiki.Page, error)

	// SelectPageByID retrieves a page by id.
	SelectPageByID(ctx context.Context, id int) (*wiki.Page, error)

	// InsertPage creates a page row and sets the page's ID.
	InsertPage(ctx context.Context, page *wiki.Page) error

	// UpdatePage overwrites a page row (last-writer-wins).
	UpdatePage(ctx context.Context, page *wiki.Page) error
}
