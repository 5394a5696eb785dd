package storage

import (
	"context"
	"testing"

	"github.com/mveld/tanglewiki/wiki"
)

func TestReplacePageLinksRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	src := mustInsertPage(t, db, &wiki.Page{Title: "Source", Path: "/source"})
	dest := mustInsertPage(t, db, &wiki.Page{Title: "Dest", Path: "/dest"})

	records := []*wiki.LinkRecord{
		{PageID: dest.ID, Title: "Dest"},
		{Title: "Page Four", IsNew: true},
		{Title: "Page Four", IsNew: true}, // duplicates persist as stored
	}
	if err := db.ReplacePageLinks(ctx, src.ID, records); err != nil {
		t.Fatal(err)
	}

	got, err := db.SelectPageLinks(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	if got[0].IsNew || got[0].PageID != dest.ID {
		t.Errorf("row 0 = %+v", got[0])
	}
	if !got[1].IsNew || got[1].PageID != 0 {
		t.Errorf("row 1 = %+v", got[1])
	}

	// A second save with a smaller set fully replaces the first.
	if err := db.ReplacePageLinks(ctx, src.ID, records[:1]); err != nil {
		t.Fatal(err)
	}
	got, err = db.SelectPageLinks(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("replace left %d rows, want 1", len(got))
	}
}

func TestSelectRequestedLinks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	one := mustInsertPage(t, db, &wiki.Page{Title: "One", Path: "/one"})
	two := mustInsertPage(t, db, &wiki.Page{Title: "Two", Path: "/two"})

	// "Page Five" is requested by two pages, "Page Four" by one.
	if err := db.ReplacePageLinks(ctx, one.ID, []*wiki.LinkRecord{
		{Title: "Page Four", IsNew: true},
		{Title: "Page Five", IsNew: true},
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.ReplacePageLinks(ctx, two.ID, []*wiki.LinkRecord{
		{Title: "Page Five", IsNew: true},
	}); err != nil {
		t.Fatal(err)
	}

	requested, err := db.SelectRequestedLinks(ctx, 25)
	if err != nil {
		t.Fatal(err)
	}
	if len(requested) != 2 {
		t.Fatalf("expected 2 requested titles, got %d", len(requested))
	}
	if requested[0].Title != "Page Five" || len(requested[0].Pages) != 2 {
		t.Errorf("most requested = %+v", requested[0])
	}
	if requested[1].Title != "Page Four" || len(requested[1].Pages) != 1 {
		t.Errorf("second = %+v", requested[1])
	}
	if requested[1].Pages[0].Path != "/one" {
		t.Errorf("linking page = %+v", requested[1].Pages[0])
	}
}

// Repeated links from one page count once in the requested index.
func TestSelectRequestedLinksDistinctSources(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	src := mustInsertPage(t, db, &wiki.Page{Title: "Source", Path: "/source"})
	if err := db.ReplacePageLinks(ctx, src.ID, []*wiki.LinkRecord{
		{Title: "Thrice", IsNew: true},
		{Title: "Thrice", IsNew: true},
		{Title: "Thrice", IsNew: true},
		{Title: "Once", IsNew: true},
	}); err != nil {
		t.Fatal(err)
	}

	other := mustInsertPage(t, db, &wiki.Page{Title: "Other", Path: "/other"})
	if err := db.ReplacePageLinks(ctx, other.ID, []*wiki.LinkRecord{
		{Title: "Once", IsNew: true},
	}); err != nil {
		t.Fatal(err)
	}

	requested, err := db.SelectRequestedLinks(ctx, 25)
	if err != nil {
		t.Fatal(err)
	}
	// "Once" has two distinct sources, "Thrice" only one.
	if requested[0].Title != "Once" {
		t.Errorf("order = %+v", requested)
	}
	if len(requested[1].Pages) != 1 {
		t.Errorf("duplicate rows must collapse to one linking page: %+v", requested[1])
	}
}

func TestCountLinks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	count, err := db.CountLinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("empty store count = %d", count)
	}

	src := mustInsertPage(t, db, &wiki.Page{Title: "Source", Path: "/source"})
	if err := db.ReplacePageLinks(ctx, src.ID, []*wiki.LinkRecord{
		{Title: "One", IsNew: true},
		{Title: "Two", IsNew: true},
	}); err != nil {
		t.Fatal(err)
	}

	count, err = db.CountLinks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestResyncLinksTo(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	src := mustInsertPage(t, db, &wiki.Page{Title: "Source", Path: "/source"})
	if err := db.ReplacePageLinks(ctx, src.ID, []*wiki.LinkRecord{
		{Title: "Page Five", IsNew: true},
	}); err != nil {
		t.Fatal(err)
	}

	created := mustInsertPage(t, db, &wiki.Page{Title: "Page Five", Path: "/page-five"})
	if err := db.ResyncLinksTo(ctx, created); err != nil {
		t.Fatal(err)
	}

	requested, err := db.SelectRequestedLinks(ctx, 25)
	if err != nil {
		t.Fatal(err)
	}
	for _, req := range requested {
		if req.Title == "Page Five" {
			t.Errorf("created title still requested: %+v", requested)
		}
	}

	links, err := db.SelectPageLinks(ctx, src.ID)
	if err != nil {
		t.Fatal(err)
	}
	if links[0].IsNew || links[0].PageID != created.ID {
		t.Errorf("link not repointed: %+v", links[0])
	}
}
