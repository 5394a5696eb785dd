package wikitext

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/mveld/tanglewiki/wiki"
)

// ErrRenderTimeout is returned when a page render exceeds the pipeline's
// overall deadline, nested lookups and recursive expansion included.
var ErrRenderTimeout = errors.New("page render timed out")

// DefaultRenderTimeout bounds one full page render.
const DefaultRenderTimeout = 5 * time.Second

// Result is the output of one pipeline render. HTML is complete rendered
// markup (unsanitized; callers sanitize before storage or display). Tags,
// Links, and Templates are handed to the page-save path for persistence.
type Result struct {
	HTML      string
	Tags      wiki.TagMap
	Links     []*wiki.LinkRecord
	Templates []*wiki.TemplateInstance
}

// Options tune a Pipeline. The zero value gives defaults.
type Options struct {
	// LinkConcurrency caps concurrent link-target lookups (default 8).
	LinkConcurrency int
	// TemplateDepth caps template recursion (default 20).
	TemplateDepth int
	// Timeout bounds one whole render (default 5s).
	Timeout time.Duration
	// FileURL builds file-serving URLs for template renderers.
	FileURL FileURL
	// TOC inserts a table of contents before the first h2.
	TOC bool
}

// Pipeline orchestrates the parsing passes in their load-bearing order:
// code blocks are shielded first, tags stripped before the Markdown render
// (so tag brackets never reach the Markdown engine), links resolved on the
// rendered HTML (bracket syntax survives Markdown), templates expanded
// last (so their output is never re-read as tags, only as further
// templates), and code blocks restored at the very end.
type Pipeline struct {
	md        goldmark.Markdown
	graph     Graph
	links     *LinkResolver
	templates *TemplateExpander
	timeout   time.Duration
	toc       bool
}

// NewPipeline creates a Pipeline over the given graph.
func NewPipeline(graph Graph, opts Options) *Pipeline {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRenderTimeout
	}
	return &Pipeline{
		md: goldmark.New(
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
			),
		),
		graph:     graph,
		links:     NewLinkResolver(graph, opts.LinkConcurrency),
		templates: NewTemplateExpander(graph, opts.FileURL, opts.TemplateDepth),
		timeout:   opts.Timeout,
		toc:       opts.TOC,
	}
}

// Render runs the full pipeline over one page body. page provides the
// context for relative template parameters (Children defaults to the page
// being rendered); requester flows through every nested query.
func (p *Pipeline) Render(ctx context.Context, wikitext string, page *wiki.PageSummary, requester *wiki.Member) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	shielded, blocks := ExtractCodeBlocks(wikitext)

	stripped, tags := ExtractTags(shielded)

	instances := ExtractInstances(stripped)

	var buf bytes.Buffer
	if err := p.md.Convert([]byte(stripped), &buf); err != nil {
		return nil, err
	}

	rendered, records, err := p.links.ParseAll(ctx, buf.String())
	if err != nil {
		return nil, renderErr(ctx, err)
	}

	expanded, err := p.templates.Expand(ctx, rendered, page, requester)
	if err != nil {
		return nil, renderErr(ctx, err)
	}

	final := RestoreCodeBlocks(expanded, blocks)

	if p.toc {
		final, err = insertTOC(final)
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		HTML:      final,
		Tags:      tags,
		Links:     records,
		Templates: instances,
	}, nil
}

// renderErr converts a deadline-driven failure into ErrRenderTimeout so
// callers surface a rendering error rather than partial HTML.
func renderErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrRenderTimeout
	}
	return err
}
