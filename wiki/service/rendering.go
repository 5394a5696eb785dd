package service

import (
	"context"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mveld/tanglewiki/wiki"
	"github.com/mveld/tanglewiki/wikitext"
)

// DescriptionLength caps derived page descriptions, in runes.
const DescriptionLength = 200

// RenderingService defines the interface for rendering wikitext content.
type RenderingService interface {
	// RenderPage runs the full parse pipeline over a page's body and
	// sanitizes the resulting HTML.
	RenderPage(ctx context.Context, page *wiki.Page, requester *wiki.Member) (*wikitext.Result, error)

	// Preview renders a body without any page context, for edit previews.
	Preview(ctx context.Context, body string, requester *wiki.Member) (string, error)

	// Describe derives a plain-text description from a body.
	Describe(body string) (string, error)
}

// renderingService is the default implementation of RenderingService.
type renderingService struct {
	pipeline  *wikitext.Pipeline
	sanitizer *bluemonday.Policy
}

// NewRenderingService creates a RenderingService. A nil sanitizer uses
// DefaultPolicy.
func NewRenderingService(pipeline *wikitext.Pipeline, sanitizer *bluemonday.Policy) RenderingService {
	if sanitizer == nil {
		sanitizer = DefaultPolicy()
	}
	return &renderingService{pipeline: pipeline, sanitizer: sanitizer}
}

// DefaultPolicy returns the sanitizer policy for rendered page HTML. It
// extends the UGC baseline with the attributes the pipeline emits: link
// classes and titles, gallery and figure markup, and form stubs.
func DefaultPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("a", "div", "span", "ul", "ol", "li")
	p.AllowAttrs("title", "download").OnElements("a")
	p.AllowAttrs("id").Globally()
	p.AllowElements("figure", "figcaption")
	p.AllowElements("form", "input")
	p.AllowAttrs("name", "method").OnElements("form")
	p.AllowAttrs("type", "name", "value").OnElements("input")
	return p
}

func (s *renderingService) RenderPage(ctx context.Context, page *wiki.Page, requester *wiki.Member) (*wikitext.Result, error) {
	result, err := s.pipeline.Render(ctx, page.Body, page.Summary(), requester)
	if err != nil {
		return nil, err
	}
	result.HTML = s.sanitizer.Sanitize(result.HTML)
	return result, nil
}

func (s *renderingService) Preview(ctx context.Context, body string, requester *wiki.Member) (string, error) {
	result, err := s.pipeline.Render(ctx, body, nil, requester)
	if err != nil {
		return "", err
	}
	return s.sanitizer.Sanitize(result.HTML), nil
}

func (s *renderingService) Describe(body string) (string, error) {
	return s.pipeline.Describe(body, DescriptionLength)
}
