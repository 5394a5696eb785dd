package special

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mveld/tanglewiki/wiki"
)

// DefaultRequestedLimit caps how many requested titles the page shows when
// the request does not ask for a specific count.
const DefaultRequestedLimit = 50

// RequestedLister retrieves the requested-pages index: titles that pages
// link to but that do not exist yet, most-requested first.
type RequestedLister interface {
	RequestedLinks(ctx context.Context, limit int) ([]*wiki.RequestedLink, error)
	CountLinks(ctx context.Context) (int, error)
}

// Templater renders a named page template.
type Templater interface {
	RenderTemplate(w io.Writer, name string, data map[string]interface{}) error
}

// RequestedPagesPage handles the requested-pages special page.
type RequestedPagesPage struct {
	lister    RequestedLister
	templater Templater
}

// NewRequestedPagesPage creates a requested-pages handler.
func NewRequestedPagesPage(lister RequestedLister, templater Templater) *RequestedPagesPage {
	return &RequestedPagesPage{
		lister:    lister,
		templater: templater,
	}
}

// Handle serves the requested-pages index. An optional limit query parameter
// bounds the number of titles shown.
func (p *RequestedPagesPage) Handle(rw http.ResponseWriter, req *http.Request) {
	limit := DefaultRequestedLimit
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(rw, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	requested, err := p.lister.RequestedLinks(req.Context(), limit)
	if err != nil {
		slog.Error("failed to load requested pages", "error", err)
		http.Error(rw, "Internal server error", http.StatusInternalServerError)
		return
	}

	total, err := p.lister.CountLinks(req.Context())
	if err != nil {
		slog.Error("failed to count links", "error", err)
		http.Error(rw, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":      "Requested pages",
		"Requested":  requested,
		"TotalLinks": total,
	}
	if err := p.templater.RenderTemplate(rw, "requested.html", data); err != nil {
		slog.Error("failed to render requested pages template", "error", err)
		http.Error(rw, "Internal server error", http.StatusInternalServerError)
	}
}
