package vocab

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/japaniel/lexitheras/pkg/lexerror"
	"github.com/japaniel/lexitheras/pkg/perseus"
)

// Source is one supported markup variant. Extraction depends only on this
// capability, not on a specific parser's object model.
type Source interface {
	// Name identifies the variant in logs and errors.
	Name() string
	// Detect reports whether the payload looks like this variant.
	Detect(data []byte) bool
	// Occurrences yields tagged word tokens in document order. Surface,
	// lemma and gloss may be empty for individual tokens; Extract filters
	// those out.
	Occurrences(data []byte) ([]Occurrence, error)
}

// sources lists the adapters in sniffing order. XML declares itself
// explicitly, so it goes first.
var sources = []Source{vocabXML{}, wordListHTML{}}

// Extract parses raw markup into occurrences, ordered by appearance so that
// position-based tie-breaking downstream stays deterministic. Tokens missing
// a lemma or gloss carry no vocabulary data and are skipped; markup matching
// no known variant is a ParseError.
func Extract(raw perseus.RawText) ([]Occurrence, error) {
	for _, src := range sources {
		if !src.Detect(raw.Body) {
			continue
		}
		occs, err := src.Occurrences(raw.Body)
		if err != nil {
			return nil, err
		}
		out := make([]Occurrence, 0, len(occs))
		for _, o := range occs {
			if o.Surface == "" || o.Lemma == "" || o.Gloss == "" {
				continue
			}
			o.Position = len(out)
			out = append(out, o)
		}
		return out, nil
	}
	return nil, lexerror.ParseError{Msg: "unrecognized vocabulary markup for " + raw.URN}
}

// wordListHTML reads the vocab.perseus.org word-list table. Rows carry the
// Greek form, optionally a separate lemma column, and the short definition.
type wordListHTML struct{}

func (wordListHTML) Name() string { return "word-list-html" }

func (wordListHTML) Detect(data []byte) bool {
	return bytes.Contains(data, []byte("word-list")) && bytes.Contains(data, []byte("<table"))
}

func (wordListHTML) Occurrences(data []byte) ([]Occurrence, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, lexerror.ParseError{Msg: "parsing word list page", Err: err}
	}

	table := findTable(doc, "word-list")
	if table == nil {
		return nil, lexerror.ParseError{Msg: "could not find vocabulary table on page"}
	}

	var occs []Occurrence
	forEachRow(table, func(cells []string) {
		switch {
		case len(cells) >= 3:
			occs = append(occs, Occurrence{Surface: cells[0], Lemma: cells[1], Gloss: cells[2]})
		case len(cells) == 2:
			// Perseus does not separate the lemma in this view; the
			// headword doubles as both.
			occs = append(occs, Occurrence{Surface: cells[0], Lemma: cells[0], Gloss: cells[1]})
		}
	})
	return occs, nil
}

// findTable returns the first <table> whose class list contains the given
// class.
func findTable(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == "table" {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTable(c, class); t != nil {
			return t
		}
	}
	return nil
}

// forEachRow walks the table's data rows in document order, handing each
// row's cleaned <td> texts to fn. Header rows (<th> cells only) are skipped.
func forEachRow(table *html.Node, fn func(cells []string)) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == "td" {
					cells = append(cells, cellText(c))
				}
			}
			if len(cells) > 0 {
				fn(cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
}

// cellText collects a cell's visible text with whitespace collapsed.
// Superscript footnote markers are dropped so "λόγος¹" style references do
// not pollute the card fields.
func cellText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "sup" {
			return
		}
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

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
