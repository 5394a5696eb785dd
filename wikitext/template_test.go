package wikitext

import (
	"context"
	"strings"
	"testing"

	"github.com/mveld/tanglewiki/wiki"
)

func testExpander(t *testing.T) (*TemplateExpander, *fakeGraph) {
	t.Helper()
	graph := &fakeGraph{}
	return NewTemplateExpander(graph, nil, 0), graph
}

func expand(t *testing.T, e *TemplateExpander, text string, page *wiki.PageSummary) string {
	t.Helper()
	out, err := e.Expand(context.Background(), text, page, wiki.Anonymous())
	if err != nil {
		t.Fatalf("Expand(%q): %v", text, err)
	}
	return out
}

func TestUserTemplate(t *testing.T) {
	e, graph := testExpander(t)
	graph.add(&fakePage{
		title:    "Template:Hello",
		path:     "/templates/hello",
		pageType: "Template",
		body:     "notes\n{{Template}}Hello, {{{Name}}}!{{/Template}}\nmore notes",
	})

	cases := []struct {
		name string
		in   string
	}{
		{"straight quotes", `{{Template:Hello Name="Bob"}}`},
		{"curly quotes", `{{Template:Hello Name=”Bob”}}`},
		{"newline before param", "{{Template:Hello\n  Name=\"Bob\"}}"},
	}
	for _, tc := range cases {
		if got := expand(t, e, tc.in, nil); got != "Hello, Bob!" {
			t.Errorf("%s: got %q", tc.name, got)
		}
	}
}

func TestUserTemplateUnmatchedPlaceholder(t *testing.T) {
	e, graph := testExpander(t)
	graph.add(&fakePage{
		title:    "Greet",
		pageType: "Template",
		body:     "{{Template}}Hi {{{Name}}} {{{Other}}}{{/Template}}",
	})

	got := expand(t, e, `{{Greet Name="Bob"}}`, nil)
	if got != "Hi Bob {{{Other}}}" {
		t.Errorf("got %q, unmatched placeholders must stay literal", got)
	}
}

func TestUserTemplateMissing(t *testing.T) {
	e, _ := testExpander(t)
	if got := expand(t, e, `{{NoSuchTemplate}}`, nil); got != "" {
		t.Errorf("missing template must render empty, got %q", got)
	}
}

func TestUserTemplateWithoutMarkers(t *testing.T) {
	e, graph := testExpander(t)
	graph.add(&fakePage{title: "Bare", pageType: "Template", body: "no markers here"})

	if got := expand(t, e, `{{Bare}}`, nil); got != "" {
		t.Errorf("template without markers must render empty, got %q", got)
	}
}

// A self-referencing template terminates at the depth ceiling and renders
// that instance as empty rather than crashing the page.
func TestRecursionCeiling(t *testing.T) {
	graph := &fakeGraph{}
	graph.add(&fakePage{
		title:    "Loop",
		pageType: "Template",
		body:     "{{Template}}{{Loop}}{{/Template}}",
	})
	e := NewTemplateExpander(graph, nil, 5)

	out, err := e.Expand(context.Background(), "before {{Loop}} after", nil, wiki.Anonymous())
	if err != nil {
		t.Fatal(err)
	}
	if out != "before  after" {
		t.Errorf("got %q", out)
	}
}

// Templates may invoke other templates through their output.
func TestNestedTemplates(t *testing.T) {
	e, graph := testExpander(t)
	graph.add(&fakePage{
		title:    "Outer",
		pageType: "Template",
		body:     `{{Template}}[{{Inner Word="deep"}}]{{/Template}}`,
	})
	graph.add(&fakePage{
		title:    "Inner",
		pageType: "Template",
		body:     "{{Template}}({{{Word}}}){{/Template}}",
	})

	if got := expand(t, e, `{{Outer}}`, nil); got != "[(deep)]" {
		t.Errorf("got %q", got)
	}
}

// A template definition embedded in a page body is literal text, not an
// invocation of a template named "Template".
func TestDefinitionSpanProtected(t *testing.T) {
	e, _ := testExpander(t)

	in := "doc {{Template}}body with {{{Param}}}{{/Template}} end"
	if got := expand(t, e, in, nil); got != in {
		t.Errorf("definition span altered: %q", got)
	}
}

func TestExtractInstances(t *testing.T) {
	instances := ExtractInstances(`{{Gallery}} text {{Children type="Art" ordered="true"}} {{Gallery}}`)

	if len(instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(instances))
	}
	if instances[0].Name != "Gallery" || instances[0].Index != 0 {
		t.Errorf("instance 0 = %+v", instances[0])
	}
	if instances[1].Name != "Children" || instances[1].Params["type"] != "Art" || instances[1].Params["ordered"] != "true" {
		t.Errorf("instance 1 = %+v", instances[1])
	}
	if instances[2].Index != 2 {
		t.Errorf("instance 2 index = %d, want position of occurrence", instances[2].Index)
	}
}

func TestExtractInstancesExplicitIndex(t *testing.T) {
	instances := ExtractInstances(`{{Form name="a" instance="7"}}`)
	if len(instances) != 1 || instances[0].Index != 7 {
		t.Fatalf("instances = %+v", instances)
	}
}

func TestExtractInstancesIgnoresPlaceholders(t *testing.T) {
	instances := ExtractInstances(`Intro {{{greeting}}} and {{Gallery}}.`)
	if len(instances) != 1 || instances[0].Name != "Gallery" {
		t.Fatalf("placeholder recorded as an instance: %+v", instances)
	}
}

func TestExtractInstancesIgnoresDefinitionSpans(t *testing.T) {
	body := "{{Template}}Hello {{{who}}} from {{Gallery}}{{/Template}} outside {{Form name=\"f\"}}"
	instances := ExtractInstances(body)
	if len(instances) != 1 || instances[0].Name != "Form" {
		t.Fatalf("definition contents recorded as instances: %+v", instances)
	}
}

func childFixture(graph *fakeGraph) *wiki.PageSummary {
	parent := graph.add(&fakePage{title: "Parent", path: "/parent"})
	graph.add(&fakePage{title: "Beta", path: "/parent/beta", parentPath: "/parent", pageType: "Note"})
	graph.add(&fakePage{title: "Alpha", path: "/parent/alpha", parentPath: "/parent", pageType: "Note"})
	graph.add(&fakePage{
		title: "Pic", path: "/parent/pic", parentPath: "/parent", pageType: "Art",
		files: []*wiki.PageFile{{Name: "pic.png", Thumbnail: "pic_thumb.png", MIME: "image/png", Size: 2048}},
	})
	graph.add(&fakePage{title: "Fileless", path: "/parent/fileless", parentPath: "/parent", pageType: "Art"})
	return graph.summary(parent)
}

func TestChildrenBuiltin(t *testing.T) {
	e, graph := testExpander(t)
	page := childFixture(graph)

	got := expand(t, e, `{{Children}}`, page)
	if !strings.HasPrefix(got, "<ul>") {
		t.Errorf("expected unordered list, got %q", got)
	}
	// Alphabetical by default.
	if strings.Index(got, "Alpha") > strings.Index(got, "Beta") {
		t.Errorf("children out of order: %q", got)
	}

	got = expand(t, e, `{{Children ordered="true" type="Note"}}`, page)
	if !strings.HasPrefix(got, "<ol>") {
		t.Errorf("expected ordered list, got %q", got)
	}
	if strings.Contains(got, "Pic") {
		t.Errorf("type filter ignored: %q", got)
	}
}

func TestChildrenOfParameter(t *testing.T) {
	e, graph := testExpander(t)
	childFixture(graph)
	elsewhere := graph.summary(graph.add(&fakePage{title: "Elsewhere", path: "/elsewhere"}))

	got := expand(t, e, `{{Children of="Parent"}}`, elsewhere)
	if !strings.Contains(got, "Alpha") {
		t.Errorf("of parameter not honored: %q", got)
	}

	if got := expand(t, e, `{{Children of="No Such Page"}}`, elsewhere); got != "" {
		t.Errorf("missing subject must render empty, got %q", got)
	}
}

func TestGalleryBuiltin(t *testing.T) {
	e, graph := testExpander(t)
	page := childFixture(graph)

	got := expand(t, e, `{{Gallery}}`, page)
	if !strings.Contains(got, `class="gallery"`) {
		t.Errorf("expected gallery list, got %q", got)
	}
	if !strings.Contains(got, "pic_thumb.png") {
		t.Errorf("expected thumbnail image, got %q", got)
	}
	// Art children without an attached file are skipped silently.
	if strings.Contains(got, "Fileless") {
		t.Errorf("fileless item rendered: %q", got)
	}
}

func TestDownloadBuiltin(t *testing.T) {
	e, graph := testExpander(t)
	withFile := graph.summary(graph.add(&fakePage{
		title: "Handout", path: "/handout",
		files: []*wiki.PageFile{{Name: "notes.pdf", MIME: "application/pdf", Size: 4096}},
	}))
	bare := graph.summary(graph.add(&fakePage{title: "Bare", path: "/bare"}))

	got := expand(t, e, `{{Download}}`, withFile)
	if !strings.Contains(got, "notes.pdf") || !strings.Contains(got, "application/pdf") || !strings.Contains(got, "4.0 KB") {
		t.Errorf("download link incomplete: %q", got)
	}

	if got := expand(t, e, `{{Download}}`, bare); got != "" {
		t.Errorf("page with no files must render empty, got %q", got)
	}

	got = expand(t, e, `{{Download file="Handout"}}`, bare)
	if !strings.Contains(got, "notes.pdf") {
		t.Errorf("file parameter not honored: %q", got)
	}
}

func TestArtBuiltin(t *testing.T) {
	e, graph := testExpander(t)
	page := graph.summary(graph.add(&fakePage{
		title: "Sunset", path: "/sunset",
		files: []*wiki.PageFile{{Name: "sunset.jpg", Thumbnail: "sunset_t.jpg", MIME: "image/jpeg", Size: 100}},
	}))

	got := expand(t, e, `{{Art caption="A sunset"}}`, page)
	if !strings.Contains(got, "<figure>") || !strings.Contains(got, "<figcaption>A sunset</figcaption>") {
		t.Errorf("figure markup incomplete: %q", got)
	}
	if !strings.Contains(got, "sunset.jpg") || strings.Contains(got, "sunset_t.jpg") {
		t.Errorf("expected full-size image by default: %q", got)
	}

	got = expand(t, e, `{{Art useThumbnail="true"}}`, page)
	if !strings.Contains(got, "sunset_t.jpg") {
		t.Errorf("thumbnail variant not used: %q", got)
	}
}

func TestFormBuiltin(t *testing.T) {
	e, _ := testExpander(t)

	got := expand(t, e, `{{Form name="contact"}}`, nil)
	if !strings.Contains(got, `<form name="contact"`) {
		t.Errorf("form stub missing: %q", got)
	}

	if got := expand(t, e, `{{Form}}`, nil); got != "" {
		t.Errorf("nameless form must render empty, got %q", got)
	}
}

func TestArtistsBuiltin(t *testing.T) {
	e, graph := testExpander(t)
	graph.add(&fakePage{title: "Prolific", path: "/prolific", pageType: "Artist"})
	graph.add(&fakePage{
		title: "Work", path: "/prolific/work", parentPath: "/prolific", pageType: "Art",
		files: []*wiki.PageFile{{Name: "w.png", Thumbnail: "w_t.png"}},
	})
	graph.add(&fakePage{title: "Idle", path: "/idle", pageType: "Artist"})

	got := expand(t, e, `{{Artists}}`, nil)
	if !strings.Contains(got, "Prolific") {
		t.Errorf("artist with art omitted: %q", got)
	}
	// Artists with zero art children are omitted entirely.
	if strings.Contains(got, "Idle") {
		t.Errorf("artist without art rendered: %q", got)
	}
}

func TestNovelsBuiltin(t *testing.T) {
	e, graph := testExpander(t)
	graph.add(&fakePage{title: "Covered", path: "/covered", pageType: "Novel"})
	graph.add(&fakePage{
		title: "Cover Art", path: "/covered/cover", parentPath: "/covered", pageType: "Art",
		tags:  wiki.TagMap{"cover": {"front"}},
		files: []*wiki.PageFile{{Name: "c.png", Thumbnail: "c_t.png"}},
	})
	graph.add(&fakePage{title: "Uncovered", path: "/uncovered", pageType: "Novel"})

	got := expand(t, e, `{{Novels}}`, nil)
	if !strings.Contains(got, "Covered") || !strings.Contains(got, "c_t.png") {
		t.Errorf("novel cover missing: %q", got)
	}
	if strings.Contains(got, "Uncovered") {
		t.Errorf("novel without cover rendered: %q", got)
	}
}

func TestParseInstanceName(t *testing.T) {
	name, params := parseInstance(`Template:Hello  Name="Bob"  Greeting="Hi"`)
	if name != "Template:Hello" {
		t.Errorf("name = %q", name)
	}
	if params["Name"] != "Bob" || params["Greeting"] != "Hi" {
		t.Errorf("params = %v", params)
	}

	name, params = parseInstance("Gallery")
	if name != "Gallery" || len(params) != 0 {
		t.Errorf("bare name parse: %q %v", name, params)
	}
}
