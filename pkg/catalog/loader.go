package catalog

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/japaniel/lexitheras/pkg/lexerror"
)

// Fetcher abstracts the live catalog source (implemented by perseus.Client).
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]byte, error)
}

// LoadOptions controls cache behavior during Load.
type LoadOptions struct {
	// Key identifies the catalog source in the cache store.
	Key string
	// Freshness is how long a cached catalog stays valid.
	Freshness time.Duration
	// ForceRefresh skips the cache read and always fetches live.
	ForceRefresh bool
}

// Load returns an Index from the cache when it is present and fresh,
// otherwise fetches the live catalog and refreshes the cache. A failed cache
// write is logged but does not fail the load; the fresh entries are still
// served.
func Load(ctx context.Context, st *Store, src Fetcher, opts LoadOptions) (*Index, error) {
	if !opts.ForceRefresh {
		entries, refreshedAt, ok, err := st.Get(opts.Key)
		if err != nil {
			log.Warn().Err(err).Str("key", opts.Key).Msg("catalog cache read failed, fetching live")
		} else if ok && time.Since(refreshedAt) < opts.Freshness {
			log.Debug().
				Str("key", opts.Key).
				Int("entries", len(entries)).
				Time("refreshedAt", refreshedAt).
				Msg("catalog served from cache")
			return NewIndex(entries), nil
		}
	}

	raw, err := src.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := ParseEditions(raw)
	if err != nil {
		return nil, err
	}
	if err := st.Put(opts.Key, entries, time.Now()); err != nil {
		log.Warn().Err(err).Str("key", opts.Key).Msg("catalog cache write failed")
	}
	log.Info().Str("key", opts.Key).Int("entries", len(entries)).Msg("catalog refreshed")
	return NewIndex(entries), nil
}

// word-list links look like /word-list/urn:cts:greekLit:tlg0012.tlg001.perseus-grc2/
var reWordListHref = regexp.MustCompile(`/word-list/(urn:cts:[^/"?#]+)`)

// ParseEditions extracts catalog entries from the Perseus editions listing.
// The page groups texts under per-author headings; each text links to its
// word list with the URN in the href.
func ParseEditions(raw []byte) ([]Entry, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, lexerror.ParseError{Msg: "parsing editions page", Err: err}
	}

	var entries []Entry
	var author string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h2", "h3":
				if t := nodeText(n); t != "" {
					author = t
				}
			case "a":
				if m := reWordListHref.FindStringSubmatch(attr(n, "href")); m != nil {
					title := nodeText(n)
					if title != "" {
						entries = append(entries, Entry{URN: m[1], Title: title, Author: author})
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(entries) == 0 {
		return nil, lexerror.ParseError{Msg: "no texts found on editions page"}
	}
	return entries, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// nodeText collects the visible text beneath n with whitespace collapsed.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
