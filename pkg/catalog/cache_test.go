package catalog

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	require.NoError(t, InitDB(db))
	return db
}

func TestStorePutGet(t *testing.T) {
	st := NewStore(setupTestDB(t))

	entries := testEntries()
	refreshed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.Put("vocab.perseus.org", entries, refreshed))

	got, gotTime, ok, err := st.Get("vocab.perseus.org")
	require.NoError(t, err)
	require.True(t, ok)
	assert.ElementsMatch(t, entries, got)
	assert.True(t, gotTime.Equal(refreshed))
}

func TestStoreGetAbsent(t *testing.T) {
	st := NewStore(setupTestDB(t))

	_, _, ok, err := st.Get("vocab.perseus.org")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePutReplacesEntries(t *testing.T) {
	st := NewStore(setupTestDB(t))

	require.NoError(t, st.Put("k", testEntries(), time.Now()))
	replacement := []Entry{{URN: "urn:cts:greekLit:tlg0001.tlg001", Title: "Argonautica", Author: "Apollonius"}}
	require.NoError(t, st.Put("k", replacement, time.Now()))

	got, _, ok, err := st.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Argonautica", got[0].Title)
}

func TestStoreKeysAreIndependent(t *testing.T) {
	st := NewStore(setupTestDB(t))

	require.NoError(t, st.Put("a", testEntries()[:2], time.Now()))
	require.NoError(t, st.Put("b", testEntries()[2:], time.Now()))

	a, _, ok, err := st.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, a, 2)

	b, _, ok, err := st.Get("b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, b, 3)
}
