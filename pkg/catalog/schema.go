package catalog

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS catalogs (
	key TEXT PRIMARY KEY,
	refreshed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog_entries (
	catalog_key TEXT NOT NULL REFERENCES catalogs(key) ON DELETE CASCADE,
	urn TEXT NOT NULL,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	PRIMARY KEY (catalog_key, urn)
);

CREATE INDEX IF NOT EXISTS ix_catalog_entries_key ON catalog_entries (catalog_key)
`

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
