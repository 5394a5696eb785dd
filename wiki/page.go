package wiki

import (
	"database/sql"
	"fmt"
	"time"
)

// Page is a wiki page: a node in the page graph with a wikitext body.
// Type and Location are populated from the reserved [[Type:...]] and
// [[Location:...]] tags at save time rather than stored as generic tags.
type Page struct {
	ID          int           `db:"id"`
	Title       string        `db:"title"`
	Path        string        `db:"path"`
	ParentID    sql.NullInt64 `db:"parent_id"`
	Type        string        `db:"type"`
	Location    string        `db:"location"`
	Body        string        `db:"body"`
	HTML        string        `db:"html"`
	Description string        `db:"description"`
	ReadRole    int           `db:"read_role"`
	Created     int64         `db:"created"`
	Updated     int64         `db:"updated"`

	Files []*PageFile
}

// CreatedTime returns the creation time, stored as unix seconds.
func (p *Page) CreatedTime() time.Time { return time.Unix(p.Created, 0) }

// UpdatedTime returns the last-update time, stored as unix seconds.
func (p *Page) UpdatedTime() time.Time { return time.Unix(p.Updated, 0) }

func (p *Page) String() string {
	return fmt.Sprintf("%s (%s)", p.Title, p.Path)
}

// PageSummary is a lightweight page representation used for child listings,
// search results, and link resolution. Files and Tags are loaded eagerly so
// template renderers can inspect them without further queries.
type PageSummary struct {
	ID    int    `db:"id"`
	Title string `db:"title"`
	Path  string `db:"path"`
	Type  string `db:"type"`

	Files []*PageFile
	Tags  TagMap
}

// FirstFile returns the page's first attached file, or nil if it has none.
func (s *PageSummary) FirstFile() *PageFile {
	if len(s.Files) == 0 {
		return nil
	}
	return s.Files[0]
}

// PageFile is a file attached to a page.
type PageFile struct {
	ID        int    `db:"id"`
	PageID    int    `db:"page_id"`
	Name      string `db:"name"`
	Thumbnail string `db:"thumbnail"`
	MIME      string `db:"mime"`
	Size      int64  `db:"size"`
}

// HumanSize renders the file size in a human-readable unit.
func (f *PageFile) HumanSize() string {
	const unit = 1024
	if f.Size < unit {
		return fmt.Sprintf("%d B", f.Size)
	}
	div, exp := int64(unit), 0
	for n := f.Size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(f.Size)/float64(div), "KMGTPE"[exp])
}

// Summary converts a full page to its summary form.
func (p *Page) Summary() *PageSummary {
	return &PageSummary{
		ID:    p.ID,
		Title: p.Title,
		Path:  p.Path,
		Type:  p.Type,
		Files: p.Files,
	}
}
