package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/mveld/tanglewiki/wiki"
	"github.com/mveld/tanglewiki/wikitext"
)

// Page repository and graph-query methods for sqliteStore

func requesterRole(m *wiki.Member) int {
	if m == nil {
		return wiki.RoleAnonymous
	}
	return m.Role
}

func (db *sqliteStore) SelectPage(ctx context.Context, path string) (*wiki.Page, error) {
	page := &wiki.Page{}
	err := db.conn.GetContext(ctx, page, `
		SELECT id, title, path, parent_id, type, location, body, html, description, read_role, created, updated
		FROM Page WHERE path = ?`, path)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrPageNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to select page")
	}

	page.Files, err = db.Files(ctx, page.ID, &wiki.Member{Role: wiki.RoleAdmin})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (db *sqliteStore) SelectPageByID(ctx context.Context, id int) (*wiki.Page, error) {
	page := &wiki.Page{}
	err := db.conn.GetContext(ctx, page, `
		SELECT id, title, path, parent_id, type, location, body, html, description, read_role, created, updated
		FROM Page WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrPageNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to select page by id")
	}
	return page, nil
}

func (db *sqliteStore) InsertPage(ctx context.Context, page *wiki.Page) error {
	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO Page (title, path, parent_id, type, location, body, html, description, read_role)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		page.Title, page.Path, page.ParentID, page.Type, page.Location,
		page.Body, page.HTML, page.Description, page.ReadRole)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return wiki.ErrPageExists
		}
		return errors.Wrap(err, "failed to insert page")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read inserted page id")
	}
	page.ID = int(id)
	return nil
}

func (db *sqliteStore) UpdatePage(ctx context.Context, page *wiki.Page) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE Page SET title = ?, parent_id = ?, type = ?, location = ?, body = ?,
			html = ?, description = ?, read_role = ?, updated = strftime('%s', 'now')
		WHERE id = ?`,
		page.Title, page.ParentID, page.Type, page.Location, page.Body,
		page.HTML, page.Description, page.ReadRole, page.ID)
	return errors.Wrap(err, "failed to update page")
}

// LookupPage implements wikitext.Graph. Path match wins over title match.
func (db *sqliteStore) LookupPage(ctx context.Context, titleOrPath string) (*wikitext.PageRef, error) {
	ref := &wikitext.PageRef{}
	err := db.LookupPageStmt.GetContext(ctx, ref, titleOrPath, titleOrPath, titleOrPath)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrPageNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up page")
	}
	return ref, nil
}

// Children implements wikitext.Graph: permission-filtered child listing of
// the page at parentPath.
func (db *sqliteStore) Children(ctx context.Context, parentPath, typeFilter string, order wikitext.ChildOrder, limit int, requester *wiki.Member) ([]*wiki.PageSummary, error) {
	q := `SELECT child.id, child.title, child.path, child.type
		FROM Page child JOIN Page parent ON child.parent_id = parent.id
		WHERE parent.path = ? AND child.read_role <= ?`
	args := []interface{}{parentPath, requesterRole(requester)}

	if typeFilter != "" {
		q += ` AND child.type = ?`
		args = append(args, typeFilter)
	}

	if order == wikitext.OrderNewest {
		q += ` ORDER BY child.created DESC, child.id DESC`
	} else {
		q += ` ORDER BY child.title COLLATE NOCASE ASC`
	}

	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	var summaries []*wiki.PageSummary
	if err := db.conn.SelectContext(ctx, &summaries, q, args...); err != nil {
		return nil, errors.Wrap(err, "failed to select children")
	}

	for _, s := range summaries {
		if err := db.fillSummary(ctx, s); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

// Search implements wikitext.Graph. Zero-valued query fields are
// unconstrained; tag pairs combine with AND unless MatchAny is set.
func (db *sqliteStore) Search(ctx context.Context, q wikitext.SearchQuery, requester *wiki.Member) ([]*wiki.PageSummary, error) {
	query := `SELECT id, title, path, type FROM Page WHERE read_role <= ?`
	args := []interface{}{requesterRole(requester)}

	if q.PathPrefix != "" {
		query += ` AND path LIKE ? ESCAPE '\'`
		args = append(args, likePrefix(q.PathPrefix))
	}
	if q.TitleContains != "" {
		query += ` AND title LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(q.TitleContains)+"%")
	}
	if q.Type != "" {
		query += ` AND type = ?`
		args = append(args, q.Type)
	}

	if len(q.Tags) > 0 {
		if q.MatchAny {
			var clauses []string
			for tag, value := range q.Tags {
				clauses = append(clauses, `(tag = ? AND value = ?)`)
				args = append(args, tag, value)
			}
			query += ` AND EXISTS (SELECT 1 FROM PageTag WHERE page_id = Page.id AND (` +
				strings.Join(clauses, " OR ") + `))`
		} else {
			for tag, value := range q.Tags {
				query += ` AND EXISTS (SELECT 1 FROM PageTag WHERE page_id = Page.id AND tag = ? AND value = ?)`
				args = append(args, tag, value)
			}
		}
	}

	query += ` ORDER BY title COLLATE NOCASE ASC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	if q.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, q.Offset)
	}

	var summaries []*wiki.PageSummary
	if err := db.conn.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to search pages")
	}

	for _, s := range summaries {
		if err := db.fillSummary(ctx, s); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

// Files implements wikitext.Graph. A page the requester may not read is
// indistinguishable from a missing page.
func (db *sqliteStore) Files(ctx context.Context, pageID int, requester *wiki.Member) ([]*wiki.PageFile, error) {
	var readRole int
	err := db.conn.GetContext(ctx, &readRole, `SELECT read_role FROM Page WHERE id = ?`, pageID)
	if err == sql.ErrNoRows {
		return nil, wiki.ErrPageNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to check page read role")
	}
	if readRole > requesterRole(requester) {
		return nil, wiki.ErrPageNotFound
	}

	var files []*wiki.PageFile
	if err := db.PageFilesStmt.SelectContext(ctx, &files, pageID); err != nil {
		return nil, errors.Wrap(err, "failed to select page files")
	}
	return files, nil
}

// TemplatePage implements wikitext.Graph: the current body of the
// Template-type page with the given title.
func (db *sqliteStore) TemplatePage(ctx context.Context, name string, requester *wiki.Member) (string, error) {
	var body string
	err := db.TemplateBodyStmt.GetContext(ctx, &body, name, requesterRole(requester))
	if err == sql.ErrNoRows {
		return "", wiki.ErrTemplateNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to select template body")
	}
	return body, nil
}

func (db *sqliteStore) fillSummary(ctx context.Context, s *wiki.PageSummary) error {
	var err error
	s.Files, err = db.filesUnchecked(ctx, s.ID)
	if err != nil {
		return err
	}
	s.Tags, err = db.SelectPageTags(ctx, s.ID)
	return err
}

// filesUnchecked skips the read-role check; callers use it only for pages
// already permission-filtered by the enclosing query.
func (db *sqliteStore) filesUnchecked(ctx context.Context, pageID int) ([]*wiki.PageFile, error) {
	var files []*wiki.PageFile
	if err := db.PageFilesStmt.SelectContext(ctx, &files, pageID); err != nil {
		return nil, errors.Wrap(err, "failed to select page files")
	}
	return files, nil
}

// InsertFile attaches a file to a page.
func (db *sqliteStore) InsertFile(ctx context.Context, f *wiki.PageFile) error {
	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO PageFile (page_id, name, thumbnail, mime, size) VALUES (?, ?, ?, ?, ?)`,
		f.PageID, f.Name, f.Thumbnail, f.MIME, f.Size)
	if err != nil {
		return errors.Wrap(err, "failed to insert file")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read inserted file id")
	}
	f.ID = int(id)
	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func likePrefix(s string) string {
	return escapeLike(s) + "%"
}
