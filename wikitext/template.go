package wikitext

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mveld/tanglewiki/wiki"
)

// ErrDepthExceeded is returned by an expansion chain that exceeds the
// configured recursion ceiling. The offending instance renders as empty;
// the page render as a whole carries on.
var ErrDepthExceeded = errors.New("template recursion depth exceeded")

// DefaultTemplateDepth is the default recursion ceiling for nested template
// expansion.
const DefaultTemplateDepth = 20

var (
	// templateRegexp matches one {{...}} span. Braces are excluded from the
	// body, so spans are non-nested per occurrence scan. A parameter value
	// containing literal braces is not representable — a known syntax
	// limitation, not something to silently reinterpret.
	templateRegexp = regexp.MustCompile(`(?s)\{\{([^{}]+?)\}\}`)

	// paramRegexp matches key="value" pairs, tolerating curly double quotes.
	paramRegexp = regexp.MustCompile(`(\w+)\s*=\s*["“”](.*?)["“”]`)

	// placeholderRegexp matches {{{param}}} substitution placeholders.
	placeholderRegexp = regexp.MustCompile(`\{\{\{([^{}]+?)\}\}\}`)

	// templateDefRegexp captures the substitution source between a Template
	// page's own {{Template}}...{{/Template}} markers.
	templateDefRegexp = regexp.MustCompile(`(?s)\{\{Template\}\}(.*?)\{\{/Template\}\}`)

	newlineFlattener = strings.NewReplacer("\r", " ", "\n", " ")
)

// TemplateExpander expands {{Name param="value"}} expressions, dispatching
// to built-in renderers or user-authored Template pages, recursing on its
// own output until no template markers remain or the depth ceiling is hit.
type TemplateExpander struct {
	graph    Graph
	fileURL  FileURL
	maxDepth int
	log      *slog.Logger
}

// NewTemplateExpander creates a TemplateExpander. maxDepth of 0 or less uses
// DefaultTemplateDepth; a nil fileURL uses DefaultFileURL.
func NewTemplateExpander(graph Graph, fileURL FileURL, maxDepth int) *TemplateExpander {
	if maxDepth <= 0 {
		maxDepth = DefaultTemplateDepth
	}
	if fileURL == nil {
		fileURL = DefaultFileURL
	}
	return &TemplateExpander{
		graph:    graph,
		fileURL:  fileURL,
		maxDepth: maxDepth,
		log:      slog.Default().With("component", "templates"),
	}
}

// parseInstance splits a template expression body into its name and
// parameters. Embedded newlines are flattened first, so multi-line
// invocations parse the same as single-line ones. The name is everything up
// to the first parameter assignment (names may contain spaces and colons,
// e.g. "Template:Hello").
func parseInstance(inner string) (string, map[string]string) {
	inner = newlineFlattener.Replace(inner)
	// The template pass runs on rendered HTML, where the Markdown renderer
	// has escaped straight double quotes.
	inner = strings.ReplaceAll(inner, "&quot;", `"`)

	params := map[string]string{}
	name := strings.TrimSpace(inner)

	if loc := paramRegexp.FindStringIndex(inner); loc != nil {
		name = strings.TrimSpace(inner[:loc[0]])
		for _, m := range paramRegexp.FindAllStringSubmatch(inner[loc[0]:], -1) {
			params[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
		}
	}

	return name, params
}

// ExtractInstances parses every template occurrence in the text without
// expanding anything. Instance indexes follow position of occurrence unless
// overridden with an instance="n" parameter. Definition spans and bare
// {{{param}}} placeholders are shielded the same way expansion shields
// them, so neither is recorded as an invocation.
func ExtractInstances(text string) []*wiki.TemplateInstance {
	text, _ = shieldSpans(text, templateDefRegexp, "TEMPLATE_DEF")
	text, _ = shieldSpans(text, placeholderRegexp, "TEMPLATE_PARAM")

	var instances []*wiki.TemplateInstance
	for i, m := range templateRegexp.FindAllStringSubmatch(text, -1) {
		name, params := parseInstance(m[1])
		if skipName(name) {
			continue
		}
		index := i
		if n, err := strconv.Atoi(params["instance"]); err == nil {
			index = n
		}
		instances = append(instances, &wiki.TemplateInstance{
			Name:   name,
			Index:  index,
			Params: params,
		})
	}
	return instances
}

// skipName reports whether a matched span is a template-definition marker
// rather than an invocation.
func skipName(name string) bool {
	lower := strings.ToLower(name)
	return lower == "template" || lower == "/template"
}

// Expand runs the full template pass over text. page is the page being
// rendered (the default subject for Children/Gallery/Download/Art);
// requester flows into every nested graph query for uniform permission
// filtering.
func (e *TemplateExpander) Expand(ctx context.Context, text string, page *wiki.PageSummary, requester *wiki.Member) (string, error) {
	return e.expand(ctx, text, page, requester, 0)
}

func (e *TemplateExpander) expand(ctx context.Context, text string, page *wiki.PageSummary, requester *wiki.Member, depth int) (string, error) {
	if depth > e.maxDepth {
		return "", ErrDepthExceeded
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Template-definition spans and bare {{{param}}} placeholders are
	// literal text from the expander's point of view: shield them so the
	// occurrence scan cannot chew on their braces.
	text, defs := shieldSpans(text, templateDefRegexp, "TEMPLATE_DEF")
	text, holes := shieldSpans(text, placeholderRegexp, "TEMPLATE_PARAM")

	matches := templateRegexp.FindAllStringSubmatchIndex(text, -1)
	if matches != nil {
		var b strings.Builder
		b.Grow(len(text))
		last := 0
		for _, m := range matches {
			b.WriteString(text[last:m[0]])
			last = m[1]

			name, params := parseInstance(text[m[2]:m[3]])
			if skipName(name) {
				b.WriteString(text[m[0]:m[1]])
				continue
			}

			rendered, err := e.dispatch(ctx, name, params, page, requester)
			if err != nil {
				return "", err
			}

			// Recurse on the renderer's output so templates can invoke
			// other templates. A chain that exceeds the ceiling costs
			// only this instance, not the page.
			expanded, err := e.expand(ctx, rendered, page, requester, depth+1)
			if errors.Is(err, ErrDepthExceeded) {
				e.log.Warn("template recursion ceiling hit", "template", name, "depth", depth)
				expanded = ""
			} else if err != nil {
				return "", err
			}
			b.WriteString(expanded)
		}
		b.WriteString(text[last:])
		text = b.String()
	}

	text = restoreSpans(text, holes, "TEMPLATE_PARAM")
	text = restoreSpans(text, defs, "TEMPLATE_DEF")
	return text, nil
}

func shieldSpans(text string, re *regexp.Regexp, label string) (string, []string) {
	var spans []string
	shielded := re.ReplaceAllStringFunc(text, func(match string) string {
		spans = append(spans, match)
		return fmt.Sprintf(":%s_%d:", label, len(spans)-1)
	})
	return shielded, spans
}

func restoreSpans(text string, spans []string, label string) string {
	for i, span := range spans {
		text = strings.Replace(text, fmt.Sprintf(":%s_%d:", label, i), span, 1)
	}
	return text
}

// dispatch routes one invocation to a built-in renderer or a user-defined
// Template page. Unknown names that have no matching Template page render
// as empty, never as an error.
func (e *TemplateExpander) dispatch(ctx context.Context, name string, params map[string]string, page *wiki.PageSummary, requester *wiki.Member) (string, error) {
	switch strings.ToLower(name) {
	case "artists":
		return e.renderArtists(ctx, requester)
	case "novels":
		return e.renderNovels(ctx, requester)
	case "children":
		return e.renderChildren(ctx, params, page, requester)
	case "gallery":
		return e.renderGallery(ctx, params, page, requester)
	case "download":
		return e.renderDownload(ctx, params, page, requester)
	case "art":
		return e.renderArt(ctx, params, page, requester)
	case "form":
		return e.renderForm(params), nil
	default:
		return e.renderUserTemplate(ctx, name, params, requester)
	}
}

// renderUserTemplate loads the Template-type page matching name, pulls the
// content between its {{Template}}...{{/Template}} markers, and substitutes
// caller parameters into the {{{param}}} placeholders. Unmatched
// placeholders stay literal. A missing template page renders empty.
func (e *TemplateExpander) renderUserTemplate(ctx context.Context, name string, params map[string]string, requester *wiki.Member) (string, error) {
	body, err := e.graph.TemplatePage(ctx, name, requester)
	if errors.Is(err, wiki.ErrTemplateNotFound) || errors.Is(err, wiki.ErrPageNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	def := templateDefRegexp.FindStringSubmatch(body)
	if def == nil {
		return "", nil
	}

	out := def[1]
	for key, value := range params {
		out = strings.ReplaceAll(out, "{{{"+key+"}}}", value)
	}
	return out, nil
}

func (e *TemplateExpander) renderArtists(ctx context.Context, requester *wiki.Member) (string, error) {
	artists, err := e.graph.Search(ctx, SearchQuery{Type: "Artist"}, requester)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, artist := range artists {
		art, err := e.graph.Children(ctx, artist.Path, "Art", OrderNewest, 4, requester)
		if err != nil {
			return "", err
		}
		if len(art) == 0 {
			continue
		}
		fmt.Fprintf(&b, `<h3><a href="%s">%s</a></h3>`, html.EscapeString(artist.Path), html.EscapeString(artist.Title))
		b.WriteString(`<ul class="gallery">`)
		for _, piece := range art {
			e.writeThumbItem(&b, piece)
		}
		b.WriteString("</ul>")
	}
	return b.String(), nil
}

func (e *TemplateExpander) renderNovels(ctx context.Context, requester *wiki.Member) (string, error) {
	novels, err := e.graph.Search(ctx, SearchQuery{Type: "Novel"}, requester)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, novel := range novels {
		art, err := e.graph.Children(ctx, novel.Path, "Art", OrderNewest, 0, requester)
		if err != nil {
			return "", err
		}
		var cover *wiki.PageSummary
		for _, piece := range art {
			if piece.Tags.Has("cover") {
				cover = piece
				break
			}
		}
		if cover == nil || cover.FirstFile() == nil {
			continue
		}
		src := e.fileURL(cover.ID, cover.FirstFile(), true)
		fmt.Fprintf(&b, `<div class="novel"><a href="%s"><img src="%s" alt="%s"></a><a href="%s">%s</a></div>`,
			html.EscapeString(novel.Path), html.EscapeString(src), html.EscapeString(novel.Title),
			html.EscapeString(novel.Path), html.EscapeString(novel.Title))
	}
	return b.String(), nil
}

// resolveSubject resolves an of/file/page parameter to a page reference,
// defaulting to the page being rendered.
func (e *TemplateExpander) resolveSubject(ctx context.Context, target string, page *wiki.PageSummary) (*wiki.PageSummary, error) {
	if target == "" {
		return page, nil
	}
	ref, err := e.graph.LookupPage(ctx, target)
	if err != nil {
		return nil, err
	}
	return &wiki.PageSummary{ID: ref.ID, Title: ref.Title, Path: ref.Path}, nil
}

func (e *TemplateExpander) renderChildren(ctx context.Context, params map[string]string, page *wiki.PageSummary, requester *wiki.Member) (string, error) {
	subject, err := e.resolveSubject(ctx, params["of"], page)
	if errors.Is(err, wiki.ErrPageNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if subject == nil {
		return "", nil
	}

	children, err := e.graph.Children(ctx, subject.Path, params["type"], OrderAlphabetical, 0, requester)
	if err != nil {
		return "", err
	}
	if len(children) == 0 {
		return "", nil
	}

	tag := "ul"
	if params["ordered"] == "true" {
		tag = "ol"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<%s>", tag)
	for _, child := range children {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, html.EscapeString(child.Path), html.EscapeString(child.Title))
	}
	fmt.Fprintf(&b, "</%s>", tag)
	return b.String(), nil
}

// renderGallery is Children with the type forced to Art, newest first, and
// thumbnail rendering. Items without an attached file are skipped silently.
func (e *TemplateExpander) renderGallery(ctx context.Context, params map[string]string, page *wiki.PageSummary, requester *wiki.Member) (string, error) {
	subject, err := e.resolveSubject(ctx, params["of"], page)
	if errors.Is(err, wiki.ErrPageNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if subject == nil {
		return "", nil
	}

	children, err := e.graph.Children(ctx, subject.Path, "Art", OrderNewest, 0, requester)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`<ul class="gallery">`)
	count := 0
	for _, child := range children {
		if child.FirstFile() == nil {
			continue
		}
		e.writeThumbItem(&b, child)
		count++
	}
	b.WriteString("</ul>")
	if count == 0 {
		return "", nil
	}
	return b.String(), nil
}

func (e *TemplateExpander) writeThumbItem(b *strings.Builder, page *wiki.PageSummary) {
	file := page.FirstFile()
	if file == nil {
		return
	}
	src := e.fileURL(page.ID, file, true)
	fmt.Fprintf(b, `<li><a href="%s"><img src="%s" alt="%s"></a></li>`,
		html.EscapeString(page.Path), html.EscapeString(src), html.EscapeString(page.Title))
}

func (e *TemplateExpander) renderDownload(ctx context.Context, params map[string]string, page *wiki.PageSummary, requester *wiki.Member) (string, error) {
	subject, err := e.resolveSubject(ctx, params["file"], page)
	if errors.Is(err, wiki.ErrPageNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if subject == nil {
		return "", nil
	}

	files, err := e.filesFor(ctx, subject, requester)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", nil
	}

	file := files[0]
	href := e.fileURL(subject.ID, file, false)
	return fmt.Sprintf(`<a href="%s" download>%s</a> <span class="filemeta">(%s, %s)</span>`,
		html.EscapeString(href), html.EscapeString(file.Name),
		html.EscapeString(file.MIME), file.HumanSize()), nil
}

func (e *TemplateExpander) renderArt(ctx context.Context, params map[string]string, page *wiki.PageSummary, requester *wiki.Member) (string, error) {
	subject, err := e.resolveSubject(ctx, params["page"], page)
	if errors.Is(err, wiki.ErrPageNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if subject == nil {
		return "", nil
	}

	files, err := e.filesFor(ctx, subject, requester)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", nil
	}

	thumb := params["useThumbnail"] != ""
	src := e.fileURL(subject.ID, files[0], thumb)

	var b strings.Builder
	fmt.Fprintf(&b, `<figure><img src="%s" alt="%s">`, html.EscapeString(src), html.EscapeString(subject.Title))
	if caption := params["caption"]; caption != "" {
		fmt.Fprintf(&b, "<figcaption>%s</figcaption>", caption)
	}
	b.WriteString("</figure>")
	return b.String(), nil
}

// renderForm emits a minimal named form stub; forms without a name render
// nothing.
func (e *TemplateExpander) renderForm(params map[string]string) string {
	name := params["name"]
	if name == "" {
		return ""
	}
	return fmt.Sprintf(`<form name="%s" method="post" class="wikiform"><input type="hidden" name="form" value="%s"></form>`,
		html.EscapeString(name), html.EscapeString(name))
}

// filesFor loads a page's attached files, treating permission denial and
// missing pages alike as "no files".
func (e *TemplateExpander) filesFor(ctx context.Context, page *wiki.PageSummary, requester *wiki.Member) ([]*wiki.PageFile, error) {
	if len(page.Files) > 0 {
		return page.Files, nil
	}
	files, err := e.graph.Files(ctx, page.ID, requester)
	if errors.Is(err, wiki.ErrPageNotFound) || errors.Is(err, wiki.ErrForbidden) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return files, nil
}
