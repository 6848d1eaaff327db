package vocab

// Occurrence is one tagged word instance encountered while parsing a text's
// vocabulary markup. Duplicates across the text are expected; they are the
// frequency signal.
type Occurrence struct {
	Surface  string
	Lemma    string
	Gloss    string
	Position int // order of appearance in the source
}

// Entry is a deduplicated, ranked vocabulary item derived from all
// occurrences sharing the same (surface, lemma) pair.
type Entry struct {
	Surface   string
	Lemma     string
	Gloss     string
	Frequency int
	Rank      int
}
