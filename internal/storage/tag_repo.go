package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mveld/tanglewiki/wiki"
)

// Tag repository methods for sqliteStore

// ReplacePageTags wholesale-replaces a page's denormalized tag rows inside
// one transaction, preserving per-key value order via insertion order.
func (db *sqliteStore) ReplacePageTags(ctx context.Context, pageID int, tags wiki.TagMap) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin tag transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM PageTag WHERE page_id = ?`, pageID); err != nil {
		return errors.Wrap(err, "failed to delete old tags")
	}

	for tag, values := range tags {
		for _, value := range values {
			if _, err = tx.ExecContext(ctx, `INSERT INTO PageTag (page_id, tag, value) VALUES (?, ?, ?)`,
				pageID, tag, value); err != nil {
				return errors.Wrap(err, "failed to insert tag")
			}
		}
	}

	err = tx.Commit()
	return errors.Wrap(err, "failed to commit tag transaction")
}

func (db *sqliteStore) SelectPageTags(ctx context.Context, pageID int) (wiki.TagMap, error) {
	rows, err := db.PageTagsStmt.QueryxContext(ctx, pageID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select page tags")
	}
	defer rows.Close()

	tags := wiki.TagMap{}
	for rows.Next() {
		var tag, value string
		if err := rows.Scan(&tag, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag row")
		}
		tags.Add(tag, value)
	}
	return tags, rows.Err()
}
