package storage

import (
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DriverName is the registered name of the pure-Go sqlite driver.
const DriverName = "sqlite"

// PreparedStatements holds the prepared SQL statements for the hot lookup
// paths. Exported to allow reuse in test utilities.
type PreparedStatements struct {
	LookupPageStmt   *sqlx.Stmt
	TemplateBodyStmt *sqlx.Stmt
	PageFilesStmt    *sqlx.Stmt
	PageTagsStmt     *sqlx.Stmt
}

// InitializeStatements prepares the hot-path statements. Exported to allow
// reuse in test utilities.
func InitializeStatements(conn *sqlx.DB) (*PreparedStatements, error) {
	stmts := &PreparedStatements{}
	var err error

	// Link resolution: exact path match wins over exact title match so a
	// title/path collision is deterministic.
	stmts.LookupPageStmt, err = conn.Preparex(`
		SELECT id, title, path FROM Page
		WHERE path = ? OR title = ?
		ORDER BY CASE WHEN path = ? THEN 0 ELSE 1 END
		LIMIT 1`)
	if err != nil {
		return nil, err
	}

	stmts.TemplateBodyStmt, err = conn.Preparex(`
		SELECT body FROM Page WHERE type = 'Template' AND title = ? AND read_role <= ?`)
	if err != nil {
		return nil, err
	}

	stmts.PageFilesStmt, err = conn.Preparex(`
		SELECT id, page_id, name, thumbnail, mime, size FROM PageFile WHERE page_id = ? ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}

	stmts.PageTagsStmt, err = conn.Preparex(`
		SELECT tag, value FROM PageTag WHERE page_id = ? ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}

	return stmts, nil
}

// sqliteStore is the sqlite-backed store. It implements the parser's
// wikitext.Graph capability and the repository interfaces. Methods are
// defined in separate files:
//   - page_repo.go: page rows plus the graph queries (lookup, children,
//     search, files, template bodies)
//   - link_repo.go: link rows and the requested-link aggregate
//   - tag_repo.go: denormalized tag rows
//   - template_repo.go: per-page template instance rows
type sqliteStore struct {
	*PreparedStatements
	conn *sqlx.DB
}

// Init wires a store over an existing connection. The connection should
// already have migrations applied via RunMigrations.
func Init(db *sqlx.DB) (*sqliteStore, error) {
	store := &sqliteStore{conn: db}

	var err error
	store.PreparedStatements, err = InitializeStatements(db)
	if err != nil {
		return nil, err
	}

	return store, nil
}
