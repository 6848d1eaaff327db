package vocab

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/japaniel/lexitheras/pkg/lexerror"
)

// vocabXML reads the older Perseus hopper vocabulary export: a flat
// <vocabulary> document with one <word> element per tagged token, in text
// order.
type vocabXML struct{}

// xmlWord matches one tagged token in the export.
type xmlWord struct {
	Form     string `xml:"form"`
	Lemma    string `xml:"lemma"`
	ShortDef string `xml:"shortdef"`
}

type xmlVocabulary struct {
	XMLName xml.Name  `xml:"vocabulary"`
	Words   []xmlWord `xml:"word"`
}

func (vocabXML) Name() string { return "vocab-xml" }

func (vocabXML) Detect(data []byte) bool {
	head := bytes.TrimSpace(data)
	if !bytes.HasPrefix(head, []byte("<?xml")) && !bytes.HasPrefix(head, []byte("<vocabulary")) {
		return false
	}
	return bytes.Contains(head, []byte("<vocabulary"))
}

func (vocabXML) Occurrences(data []byte) ([]Occurrence, error) {
	var doc xmlVocabulary
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, lexerror.ParseError{Msg: "parsing vocabulary XML", Err: err}
	}

	occs := make([]Occurrence, 0, len(doc.Words))
	for _, w := range doc.Words {
		occs = append(occs, Occurrence{
			Surface: strings.TrimSpace(w.Form),
			Lemma:   strings.TrimSpace(w.Lemma),
			Gloss:   strings.TrimSpace(w.ShortDef),
		})
	}
	return occs, nil
}
