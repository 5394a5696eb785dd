package repository

import (
	"context"

	"github.com/mveld/tanglewiki/wiki"
)

// TemplateRepository defines the interface for per-page template instance
// persistence. Rendered markup is never stored; only the invocation's name,
// instance index, and parameters.
type TemplateRepository interface {
	// ReplacePageTemplates replaces all template rows for a page in one
	// transaction.
	ReplacePageTemplates(ctx context.Context, pageID int, instances []*wiki.TemplateInstance) error

	// SelectPageTemplates returns a page's stored template instances,
	// ordered by instance index.
	SelectPageTemplates(ctx context.Context, pageID int) ([]*wiki.TemplateInstance, error)
}
