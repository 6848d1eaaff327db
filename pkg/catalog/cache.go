package catalog

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx.
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Store is the on-disk catalog cache, keyed by catalog source identifier.
// Reads may run concurrently; Put serializes writers so a refresh never
// interleaves with another refresh of the same database.
type Store struct {
	db *sql.DB

	writeMu sync.Mutex
}

// NewStore wraps an initialized database connection (see InitDB).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the cached entries for key plus the time they were refreshed.
// ok is false when the key has never been cached.
func (st *Store) Get(key string) (entries []Entry, refreshedAt time.Time, ok bool, err error) {
	var unix int64
	err = st.db.QueryRow(`SELECT refreshed_at FROM catalogs WHERE key = ?`, key).Scan(&unix)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("read catalog %q: %w", key, err)
	}

	rows, err := st.db.Query(
		`SELECT urn, title, author FROM catalog_entries WHERE catalog_key = ? ORDER BY urn`, key)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("read catalog entries %q: %w", key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.URN, &e.Title, &e.Author); err != nil {
			return nil, time.Time{}, false, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, false, err
	}
	return entries, time.Unix(unix, 0), true, nil
}

// Put replaces the cached entry set for key and stamps it with refreshedAt.
// The replace is transactional: readers see either the old set or the new
// one, never a partial write.
func (st *Store) Put(key string, entries []Entry, refreshedAt time.Time) error {
	st.writeMu.Lock()
	defer st.writeMu.Unlock()

	tx, err := st.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := putCatalog(tx, key, entries, refreshedAt); err != nil {
		return fmt.Errorf("refresh catalog %q: %w", key, err)
	}
	return tx.Commit()
}

func putCatalog(db DBExecutor, key string, entries []Entry, refreshedAt time.Time) error {
	_, err := db.Exec(`INSERT INTO catalogs (key, refreshed_at) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET refreshed_at = excluded.refreshed_at`,
		key, refreshedAt.Unix())
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM catalog_entries WHERE catalog_key = ?`, key); err != nil {
		return err
	}
	for _, e := range entries {
		_, err := db.Exec(
			`INSERT INTO catalog_entries (catalog_key, urn, title, author) VALUES (?, ?, ?, ?)`,
			key, e.URN, e.Title, e.Author)
		if err != nil {
			return err
		}
	}
	return nil
}
