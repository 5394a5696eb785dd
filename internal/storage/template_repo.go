package storage

import (
	"context"
	"database/sql"
	"sort"

	"github.com/pkg/errors"

	"github.com/mveld/tanglewiki/wiki"
)

// Template repository methods for sqliteStore

// ReplacePageTemplates wholesale-replaces a page's template instance rows
// inside one transaction: one row per (template, instance, parameter),
// a single parameterless row for instances invoked with no parameters.
func (db *sqliteStore) ReplacePageTemplates(ctx context.Context, pageID int, instances []*wiki.TemplateInstance) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin template transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM PageTemplate WHERE page_id = ?`, pageID); err != nil {
		return errors.Wrap(err, "failed to delete old template rows")
	}

	insert := `INSERT INTO PageTemplate (page_id, template, instance, parameter, value) VALUES (?, ?, ?, ?, ?)`
	for _, inst := range instances {
		if len(inst.Params) == 0 {
			if _, err = tx.ExecContext(ctx, insert, pageID, inst.Name, inst.Index, nil, nil); err != nil {
				return errors.Wrap(err, "failed to insert template row")
			}
			continue
		}
		for param, value := range inst.Params {
			if _, err = tx.ExecContext(ctx, insert, pageID, inst.Name, inst.Index, param, value); err != nil {
				return errors.Wrap(err, "failed to insert template row")
			}
		}
	}

	err = tx.Commit()
	return errors.Wrap(err, "failed to commit template transaction")
}

func (db *sqliteStore) SelectPageTemplates(ctx context.Context, pageID int) ([]*wiki.TemplateInstance, error) {
	rows, err := db.conn.QueryxContext(ctx, `
		SELECT template, instance, parameter, value FROM PageTemplate
		WHERE page_id = ? ORDER BY instance ASC, id ASC`, pageID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to select page templates")
	}
	defer rows.Close()

	type key struct {
		name  string
		index int
	}
	byKey := map[key]*wiki.TemplateInstance{}

	for rows.Next() {
		var name string
		var index int
		var param, value sql.NullString
		if err := rows.Scan(&name, &index, &param, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan template row")
		}

		k := key{name, index}
		inst, ok := byKey[k]
		if !ok {
			inst = &wiki.TemplateInstance{Name: name, Index: index, Params: map[string]string{}}
			byKey[k] = inst
		}
		if param.Valid {
			inst.Params[param.String] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	instances := make([]*wiki.TemplateInstance, 0, len(byKey))
	for _, inst := range byKey {
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool {
		if instances[i].Index != instances[j].Index {
			return instances[i].Index < instances[j].Index
		}
		return instances[i].Name < instances[j].Name
	})
	return instances, nil
}
