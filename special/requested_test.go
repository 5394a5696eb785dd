package special

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mveld/tanglewiki/wiki"
)

type mockRequestedLister struct {
	requested []*wiki.RequestedLink
	total     int
	err       error
	lastLimit int
}

func (m *mockRequestedLister) RequestedLinks(ctx context.Context, limit int) ([]*wiki.RequestedLink, error) {
	m.lastLimit = limit
	return m.requested, m.err
}

func (m *mockRequestedLister) CountLinks(ctx context.Context) (int, error) {
	return m.total, m.err
}

type mockTemplater struct {
	rendered bool
	name     string
	data     map[string]interface{}
	err      error
}

func (m *mockTemplater) RenderTemplate(w io.Writer, name string, data map[string]interface{}) error {
	m.rendered = true
	m.name = name
	m.data = data
	if m.err != nil {
		return m.err
	}
	w.Write([]byte("rendered"))
	return nil
}

func TestRequestedPages(t *testing.T) {
	t.Run("renders requested titles", func(t *testing.T) {
		requested := []*wiki.RequestedLink{
			{Title: "Page Five", Pages: []*wiki.PageSummary{{ID: 1}, {ID: 2}}},
			{Title: "Page Four", Pages: []*wiki.PageSummary{{ID: 1}}},
		}
		lister := &mockRequestedLister{requested: requested, total: 3}
		tmpl := &mockTemplater{}
		handler := NewRequestedPagesPage(lister, tmpl)

		rr := httptest.NewRecorder()
		handler.Handle(rr, httptest.NewRequest("GET", "/special/requested", nil))

		if !tmpl.rendered {
			t.Fatal("expected template to be rendered")
		}
		if lister.lastLimit != DefaultRequestedLimit {
			t.Errorf("limit = %d, want %d", lister.lastLimit, DefaultRequestedLimit)
		}
		got, ok := tmpl.data["Requested"].([]*wiki.RequestedLink)
		if !ok || len(got) != 2 || got[0].Title != "Page Five" {
			t.Errorf("unexpected Requested data: %v", tmpl.data["Requested"])
		}
		if tmpl.data["TotalLinks"] != 3 {
			t.Errorf("TotalLinks = %v, want 3", tmpl.data["TotalLinks"])
		}
	})

	t.Run("honors limit parameter", func(t *testing.T) {
		lister := &mockRequestedLister{}
		handler := NewRequestedPagesPage(lister, &mockTemplater{})

		rr := httptest.NewRecorder()
		handler.Handle(rr, httptest.NewRequest("GET", "/special/requested?limit=5", nil))

		if lister.lastLimit != 5 {
			t.Errorf("limit = %d, want 5", lister.lastLimit)
		}
	})

	t.Run("rejects bad limit", func(t *testing.T) {
		handler := NewRequestedPagesPage(&mockRequestedLister{}, &mockTemplater{})

		rr := httptest.NewRecorder()
		handler.Handle(rr, httptest.NewRequest("GET", "/special/requested?limit=zero", nil))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 500 on lister error", func(t *testing.T) {
		lister := &mockRequestedLister{err: errors.New("database error")}
		handler := NewRequestedPagesPage(lister, &mockTemplater{})

		rr := httptest.NewRecorder()
		handler.Handle(rr, httptest.NewRequest("GET", "/special/requested", nil))

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
		}
	})

	t.Run("returns 500 on template error", func(t *testing.T) {
		tmpl := &mockTemplater{err: errors.New("template error")}
		handler := NewRequestedPagesPage(&mockRequestedLister{}, tmpl)

		rr := httptest.NewRecorder()
		handler.Handle(rr, httptest.NewRequest("GET", "/special/requested", nil))

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
		}
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	handler := NewRequestedPagesPage(&mockRequestedLister{}, &mockTemplater{})
	r.Register("Requested", handler)

	if _, ok := r.Get("requested"); !ok {
		t.Error("lookup should be case-insensitive")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("unexpected handler for unregistered name")
	}
	names := r.Names()
	if len(names) != 1 || names[0] != "requested" {
		t.Errorf("Names() = %v", names)
	}
}
