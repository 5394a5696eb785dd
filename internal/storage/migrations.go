package storage

import (
	_ "embed"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// RunMigrations executes the database schema and any necessary migrations.
// Idempotent and safe to run multiple times.
func RunMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "failed to execute schema")
	}

	// Migration: add the description column to Page if it doesn't exist.
	// Databases created before description derivation lack it.
	var colExists int
	err := db.Get(&colExists, `SELECT COUNT(*) FROM pragma_table_info('Page') WHERE name = 'description'`)
	if err != nil {
		return errors.Wrap(err, "failed to inspect Page columns")
	}
	if colExists == 0 {
		if _, err := db.Exec(`ALTER TABLE Page ADD COLUMN description TEXT NOT NULL DEFAULT ''`); err != nil {
			return errors.Wrap(err, "failed to add description column")
		}
	}

	return nil
}
