package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []Entry {
	return []Entry{
		{URN: "urn:cts:greekLit:tlg0012.tlg001.perseus-grc2", Title: "Iliad", Author: "Homer"},
		{URN: "urn:cts:greekLit:tlg0012.tlg002.perseus-grc2", Title: "Odyssey", Author: "Homer"},
		{URN: "urn:cts:greekLit:tlg0059.tlg011.perseus-grc2", Title: "Symposium", Author: "Plato"},
		{URN: "urn:cts:greekLit:tlg0032.tlg004.perseus-grc2", Title: "Symposium", Author: "Xenophon"},
		{URN: "urn:cts:greekLit:tlg0003.tlg001.perseus-grc2", Title: "Histories", Author: "Thucydides"},
	}
}

func TestResolveExactTitleCaseInsensitive(t *testing.T) {
	ix := NewIndex(testEntries())

	matches := ix.Resolve("iliad")
	require.Len(t, matches, 1)
	assert.Equal(t, "Iliad", matches[0].Title)
	assert.Equal(t, "Homer", matches[0].Author)
}

func TestResolveAmbiguousTitleReturnsAllOrdered(t *testing.T) {
	ix := NewIndex(testEntries())

	matches := ix.Resolve("symposium")
	require.Len(t, matches, 2)
	// Equal titles, so order falls to the author tie-break.
	assert.Equal(t, "Plato", matches[0].Author)
	assert.Equal(t, "Xenophon", matches[1].Author)
}

func TestResolveSubstring(t *testing.T) {
	ix := NewIndex(testEntries())

	matches := ix.Resolve("sympos")
	require.Len(t, matches, 2)

	matches = ix.Resolve("homer")
	require.Len(t, matches, 2)
	assert.Equal(t, "Iliad", matches[0].Title)
	assert.Equal(t, "Odyssey", matches[1].Title)
}

func TestResolveZeroMatches(t *testing.T) {
	ix := NewIndex(testEntries())
	assert.Empty(t, ix.Resolve("xyzzy123"))
	assert.Empty(t, ix.Resolve(""))
	assert.Empty(t, ix.Resolve("   "))
}

func TestResolveURNBypassesCatalog(t *testing.T) {
	// Works even on an empty, never-loaded index.
	ix := NewIndex(nil)

	urn := "urn:cts:greekLit:tlg0012.tlg001.perseus-grc2"
	matches := ix.Resolve(urn)
	require.Len(t, matches, 1)
	assert.Equal(t, urn, matches[0].URN)
	assert.Equal(t, "tlg0012.tlg001.perseus-grc2", matches[0].Title)
}

func TestIsURN(t *testing.T) {
	assert.True(t, IsURN("urn:cts:greekLit:tlg0012.tlg001.perseus-grc2"))
	assert.True(t, IsURN("  URN:CTS:greekLit:tlg0012.tlg001  "))
	assert.False(t, IsURN("iliad"))
	assert.False(t, IsURN("urn:isbn:12345"))
}

func TestWorkComponent(t *testing.T) {
	assert.Equal(t, "tlg0012.tlg001.perseus-grc2",
		WorkComponent("urn:cts:greekLit:tlg0012.tlg001.perseus-grc2"))
	assert.Equal(t, "urn:cts:greekLit", WorkComponent("urn:cts:greekLit"))
}

func TestListOrderedByAuthorThenTitle(t *testing.T) {
	ix := NewIndex(testEntries())
	list := ix.List()
	require.Len(t, list, 5)
	assert.Equal(t, "Homer", list[0].Author)
	assert.Equal(t, "Iliad", list[0].Title)
	assert.Equal(t, "Odyssey", list[1].Title)
	assert.Equal(t, "Xenophon", list[4].Author)
}
