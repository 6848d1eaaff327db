package catalog

import (
	"sort"
	"strings"
)

// Entry is one text available from Perseus. Immutable once loaded.
type Entry struct {
	URN    string
	Title  string
	Author string
}

// urnPrefix is the structural marker for direct URN queries
// (e.g. urn:cts:greekLit:tlg0012.tlg001.perseus-grc2).
const urnPrefix = "urn:cts:"

// IsURN reports whether the query addresses a text directly by URN rather
// than by title or author.
func IsURN(query string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(query)), urnPrefix)
}

// WorkComponent returns the work part of a CTS URN, used for naming when no
// catalog metadata is available (urn:cts:greekLit:tlg0012.tlg001.perseus-grc2
// -> tlg0012.tlg001.perseus-grc2).
func WorkComponent(urn string) string {
	parts := strings.Split(urn, ":")
	if len(parts) >= 4 && parts[3] != "" {
		return parts[3]
	}
	return urn
}

// Index holds the loaded catalog and answers lookup queries. Read-only after
// construction.
type Index struct {
	entries []Entry
	// exact maps lowercased titles and authors to their entries so that a
	// full-string match can short-circuit substring scanning.
	exact map[string][]Entry
}

// NewIndex builds an index over the given entries.
func NewIndex(entries []Entry) *Index {
	idx := make(map[string][]Entry)
	for _, e := range entries {
		if t := strings.ToLower(strings.TrimSpace(e.Title)); t != "" {
			idx[t] = append(idx[t], e)
		}
		if a := strings.ToLower(strings.TrimSpace(e.Author)); a != "" {
			idx[a] = append(idx[a], e)
		}
	}
	return &Index{entries: entries, exact: idx}
}

// Len returns the number of catalog entries.
func (ix *Index) Len() int { return len(ix.entries) }

// List returns all entries ordered by author then title, for display.
func (ix *Index) List() []Entry {
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Author != out[j].Author {
			return out[i].Author < out[j].Author
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// Resolve matches a free-text query against titles and authors,
// case-insensitively. A URN-shaped query bypasses matching entirely and
// yields a single synthetic entry, so it works even on an empty index. An
// exact full-string match on title or author short-circuits to that single
// result; otherwise all entries containing the query as a substring are
// returned, ordered by title then author. Zero matches is a valid result.
func (ix *Index) Resolve(query string) []Entry {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	if IsURN(q) {
		return []Entry{{URN: q, Title: WorkComponent(q)}}
	}

	lq := strings.ToLower(q)
	if hits := ix.exact[lq]; len(hits) == 1 {
		return []Entry{hits[0]}
	}

	var out []Entry
	for _, e := range ix.entries {
		if strings.Contains(strings.ToLower(e.Title), lq) ||
			strings.Contains(strings.ToLower(e.Author), lq) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].Author < out[j].Author
	})
	return out
}
