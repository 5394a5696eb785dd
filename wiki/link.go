package wiki

// LinkRecord is one [[...]] link occurrence resolved against the page graph.
// Invariant: PageID is non-zero if and only if IsNew is false.
type LinkRecord struct {
	// Target is the pre-anchor target string exactly as written.
	Target string
	// Text is the display text (defaults to the full pre-pipe segment).
	Text string
	// PageID is the matched page's id, or 0 for a requested link.
	PageID int
	// Title is the matched page's title, or Target for a requested link.
	Title string
	// Path is the href the link renders with: the matched page's path
	// (plus a slugified #anchor when one was given), or a /new?title=...
	// creation URL for requested links.
	Path string
	// Anchor is the slugified anchor, or "" when none was given.
	Anchor string
	// IsNew marks a requested link: no page matched the target.
	IsNew bool
}

// RequestedLink is one entry of the requested-link index: a title no page
// has yet, with the distinct pages that link to it.
type RequestedLink struct {
	Title string
	Pages []*PageSummary
}

// TemplateInstance is one {{Name ...}} occurrence extracted from a page
// body. Rendered markup is a render-time-only value and is never persisted.
type TemplateInstance struct {
	Name   string
	Index  int
	Params map[string]string
}
