package service

import (
	"context"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/microcosm-cc/bluemonday"

	"github.com/mveld/tanglewiki/wiki"
	"github.com/mveld/tanglewiki/wiki/repository"
)

// Store is the persistence surface the page service needs.
type Store interface {
	repository.PageRepository
	repository.LinkRepository
	repository.TagRepository
	repository.TemplateRepository
}

// PageService defines the interface for page operations.
type PageService interface {
	// Page retrieves a page by path, enforcing the requester's read role.
	Page(ctx context.Context, path string, requester *wiki.Member) (*wiki.Page, error)

	// PageByID retrieves a page by id, enforcing the requester's read role.
	PageByID(ctx context.Context, id int, requester *wiki.Member) (*wiki.Page, error)

	// SavePage renders and persists a page. A page with ID zero is created,
	// otherwise updated in place. The page's derived columns (HTML,
	// description, type, location) and its link, tag, and template rows are
	// all refreshed from the body.
	SavePage(ctx context.Context, page *wiki.Page, requester *wiki.Member) error

	// Preview renders a body without persisting anything.
	Preview(ctx context.Context, body string, requester *wiki.Member) (string, error)

	// RequestedLinks returns the most-linked-to titles that have no page yet.
	RequestedLinks(ctx context.Context, limit int) ([]*wiki.RequestedLink, error)

	// CountLinks returns the total number of tracked links across all pages.
	CountLinks(ctx context.Context) (int, error)
}

type pageService struct {
	store     Store
	rendering RenderingService
}

// NewPageService creates a PageService backed by the given store and
// rendering service.
func NewPageService(store Store, rendering RenderingService) PageService {
	return &pageService{store: store, rendering: rendering}
}

var (
	pathPattern = regexp.MustCompile(`^/[a-zA-Z0-9_\-/]*$`)
	titlePolicy = bluemonday.StrictPolicy()
)

func validatePage(page *wiki.Page) error {
	if strings.TrimSpace(page.Title) == "" {
		return wiki.ErrEmptyTitle
	}
	if !pathPattern.MatchString(page.Path) {
		return wiki.ErrBadPath
	}
	return validation.ValidateStruct(page,
		validation.Field(&page.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&page.Path, validation.Required, validation.RuneLength(1, 500)),
	)
}

func (s *pageService) Page(ctx context.Context, path string, requester *wiki.Member) (*wiki.Page, error) {
	page, err := s.store.SelectPage(ctx, path)
	if err != nil {
		return nil, err
	}
	// Denied reads are indistinguishable from missing pages.
	if !requester.CanRead(page.ReadRole) {
		return nil, wiki.ErrPageNotFound
	}
	return page, nil
}

func (s *pageService) PageByID(ctx context.Context, id int, requester *wiki.Member) (*wiki.Page, error) {
	page, err := s.store.SelectPageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.CanRead(page.ReadRole) {
		return nil, wiki.ErrPageNotFound
	}
	return page, nil
}

func (s *pageService) SavePage(ctx context.Context, page *wiki.Page, requester *wiki.Member) error {
	if requester == nil || requester.Role < wiki.RoleMember {
		return wiki.ErrForbidden
	}

	page.Title = strings.TrimSpace(titlePolicy.Sanitize(page.Title))
	if page.Path == "" {
		page.Path = wiki.TitleToPath(page.Title)
	}
	if err := validatePage(page); err != nil {
		return err
	}

	result, err := s.rendering.RenderPage(ctx, page, requester)
	if err != nil {
		return err
	}
	page.HTML = result.HTML
	page.Type = result.Tags.Pop(wiki.TagKeyType)
	page.Location = result.Tags.Pop(wiki.TagKeyLocation)

	description, err := s.rendering.Describe(page.Body)
	if err != nil {
		return err
	}
	page.Description = description

	creating := page.ID == 0
	if creating {
		if err := s.store.InsertPage(ctx, page); err != nil {
			return err
		}
	} else {
		if err := s.store.UpdatePage(ctx, page); err != nil {
			return err
		}
	}

	if err := s.store.ReplacePageTags(ctx, page.ID, result.Tags); err != nil {
		return err
	}
	if err := s.store.ReplacePageLinks(ctx, page.ID, result.Links); err != nil {
		return err
	}
	if err := s.store.ReplacePageTemplates(ctx, page.ID, result.Templates); err != nil {
		return err
	}

	// A new page absorbs any dangling links already pointing at its title
	// or path, so it drops out of the requested index immediately. Pages
	// whose stored HTML still renders the old red link pick up the change
	// on their next save.
	if creating {
		return s.store.ResyncLinksTo(ctx, page)
	}
	return nil
}

func (s *pageService) Preview(ctx context.Context, body string, requester *wiki.Member) (string, error) {
	return s.rendering.Preview(ctx, body, requester)
}

func (s *pageService) RequestedLinks(ctx context.Context, limit int) ([]*wiki.RequestedLink, error) {
	return s.store.SelectRequestedLinks(ctx, limit)
}

func (s *pageService) CountLinks(ctx context.Context) (int, error) {
	return s.store.CountLinks(ctx)
}
