package anki

import (
	"fmt"
	"strings"

	"github.com/japaniel/lexitheras/pkg/vocab"
)

// Card is one front/back flashcard pair. The four raw fields mirror the
// note model used in the .apkg artifact; Front and Back render what the
// learner actually sees.
type Card struct {
	Greek       string
	Translation string
	Lemma       string
	Rank        int
}

// Front is the question side: the Greek surface form plus its frequency
// rank, so learners see how common the word is in this text.
func (c Card) Front() string {
	return fmt.Sprintf("%s (rank %d)", c.Greek, c.Rank)
}

// Back is the answer side: the English gloss plus the dictionary headword.
func (c Card) Back() string {
	return fmt.Sprintf("%s (lemma: %s)", c.Translation, c.Lemma)
}

// Deck is the complete flashcard package for one text. Immutable once built.
type Deck struct {
	Name  string
	Cards []Card
}

// Build maps ranked vocabulary entries onto a deck, one card per entry,
// rank order preserved.
func Build(name string, entries []vocab.Entry) *Deck {
	d := &Deck{Name: name, Cards: make([]Card, 0, len(entries))}
	for _, e := range entries {
		d.Cards = append(d.Cards, Card{
			Greek:       e.Surface,
			Translation: e.Gloss,
			Lemma:       e.Lemma,
			Rank:        e.Rank,
		})
	}
	return d
}

// DefaultDeckName derives a deck name from catalog metadata. When only a URN
// is known, callers should pass the work component as the title.
func DefaultDeckName(title, author string) string {
	if author != "" {
		return fmt.Sprintf("Greek Vocabulary - %s (%s)", title, author)
	}
	return "Greek Vocabulary - " + title
}

// DefaultFileName derives an output filename from a text URN, e.g.
// urn:cts:greekLit:tlg0012.tlg001.perseus-grc2 ->
// urn_cts_greekLit_tlg0012_tlg001_perseus-grc2.apkg.
func DefaultFileName(urn string) string {
	return strings.NewReplacer(":", "_", ".", "_").Replace(urn) + ".apkg"
}
