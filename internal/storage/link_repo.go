package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/mveld/tanglewiki/wiki"
)

// Link repository methods for sqliteStore

// ReplacePageLinks deletes every link row for the source page and inserts
// one row per record, all inside one transaction. A full replace, never an
// incremental diff: an edit that removes a reference can leave no orphaned
// stale links behind.
func (db *sqliteStore) ReplacePageLinks(ctx context.Context, sourceID int, records []*wiki.LinkRecord) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin link transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM PageLink WHERE src = ?`, sourceID); err != nil {
		return errors.Wrap(err, "failed to delete old links")
	}

	for _, rec := range records {
		dest := sql.NullInt64{Int64: int64(rec.PageID), Valid: !rec.IsNew}
		if _, err = tx.ExecContext(ctx, `INSERT INTO PageLink (src, dest, title) VALUES (?, ?, ?)`,
			sourceID, dest, rec.Title); err != nil {
			return errors.Wrap(err, "failed to insert link")
		}
	}

	err = tx.Commit()
	return errors.Wrap(err, "failed to commit link transaction")
}

func (db *sqliteStore) SelectPageLinks(ctx context.Context, sourceID int) ([]*wiki.LinkRecord, error) {
	rows, err := db.conn.QueryxContext(ctx,
		`SELECT dest, title FROM PageLink WHERE src = ? ORDER BY id ASC`, sourceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select page links")
	}
	defer rows.Close()

	var records []*wiki.LinkRecord
	for rows.Next() {
		var dest sql.NullInt64
		var title string
		if err := rows.Scan(&dest, &title); err != nil {
			return nil, errors.Wrap(err, "failed to scan link row")
		}
		records = append(records, &wiki.LinkRecord{
			PageID: int(dest.Int64),
			Title:  title,
			IsNew:  !dest.Valid,
		})
	}
	return records, rows.Err()
}

// SelectRequestedLinks builds the requested-link index: dangling link rows
// grouped by target title, most-requested first, each with the distinct
// pages that requested it. The index reflects the link table as stored; see
// ResyncLinksTo for how rows are repointed when a requested page appears.
func (db *sqliteStore) SelectRequestedLinks(ctx context.Context, limit int) ([]*wiki.RequestedLink, error) {
	if limit <= 0 {
		limit = 25
	}

	rows, err := db.conn.QueryxContext(ctx, `
		SELECT title, COUNT(DISTINCT src) AS requests
		FROM PageLink
		WHERE dest IS NULL
		GROUP BY title
		ORDER BY requests DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select requested titles")
	}
	defer rows.Close()

	var requested []*wiki.RequestedLink
	for rows.Next() {
		var title string
		var count int
		if err := rows.Scan(&title, &count); err != nil {
			return nil, errors.Wrap(err, "failed to scan requested title")
		}
		requested = append(requested, &wiki.RequestedLink{Title: title})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, req := range requested {
		var pages []*wiki.PageSummary
		err := db.conn.SelectContext(ctx, &pages, `
			SELECT DISTINCT p.id, p.title, p.path, p.type
			FROM PageLink l JOIN Page p ON l.src = p.id
			WHERE l.dest IS NULL AND l.title = ?
			ORDER BY l.id ASC`, req.Title)
		if err != nil {
			return nil, errors.Wrap(err, "failed to select linking pages")
		}
		req.Pages = pages
	}

	return requested, nil
}

// ResyncLinksTo repoints dangling link rows at a newly created page when
// their stored title matches the page's title or path. Without this, a
// requested title would only leave the index once every referencing page
// was re-saved.
func (db *sqliteStore) ResyncLinksTo(ctx context.Context, page *wiki.Page) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE PageLink SET dest = ? WHERE dest IS NULL AND (title = ? OR title = ?)`,
		page.ID, page.Title, page.Path)
	return errors.Wrap(err, "failed to resync links")
}

func (db *sqliteStore) CountLinks(ctx context.Context) (int, error) {
	var count int
	err := db.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM PageLink`)
	return count, errors.Wrap(err, "failed to count links")
}
