package wikitext

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractTags(t *testing.T) {
	stripped, tags := ExtractTags("[[Hello:World]] [[Hello:Test]] [[Tag:1]]")

	if got := tags["hello"]; !reflect.DeepEqual(got, []string{"World", "Test"}) {
		t.Errorf("hello values = %v", got)
	}
	if got := tags["tag"]; !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("tag values = %v", got)
	}
	if strings.Contains(stripped, "[[") || strings.Contains(stripped, "]]") {
		t.Errorf("bracket remnants in %q", stripped)
	}
	if strings.Contains(stripped, "  ") {
		t.Errorf("doubled spaces in %q", stripped)
	}
}

func TestExtractTagsKeyCaseAndTrim(t *testing.T) {
	_, tags := ExtractTags("[[ Type : Art ]]")
	if got := tags.First("type"); got != "Art" {
		t.Errorf("First(type) = %q", got)
	}
}

func TestExtractTagsInlineRemoval(t *testing.T) {
	stripped, _ := ExtractTags("Hello [[Type:Art]] world")
	if stripped != "Hello world" {
		t.Errorf("stripped = %q", stripped)
	}
}

func TestExtractTagsPreservesNewlines(t *testing.T) {
	stripped, _ := ExtractTags("line one [[A:B]]\n\nline two")
	if !strings.Contains(stripped, "\n\n") {
		t.Errorf("newlines collapsed: %q", stripped)
	}
}

// A bracket expression without a colon is link syntax, not a tag.
func TestExtractTagsIgnoresLinks(t *testing.T) {
	stripped, tags := ExtractTags("[[Nope]]")
	if stripped != "[[Nope]]" {
		t.Errorf("link syntax consumed: %q", stripped)
	}
	if len(tags) != 0 {
		t.Errorf("unexpected tags: %v", tags)
	}
}

func TestExtractTagsInsertionOrder(t *testing.T) {
	_, tags := ExtractTags("[[Type:Art]] [[Type:Sketch]]")
	if got := tags.First("type"); got != "Art" {
		t.Errorf("primary type = %q, want first occurrence", got)
	}
}
