package vocab

import "sort"

// Aggregate collapses occurrences into ranked, deduplicated entries. The
// grouping key is the (surface, lemma) pair, so homographs with different
// lemmas stay distinct. Entries are ordered by descending frequency, ties
// broken by the earliest first-appearance position; ranks are the dense
// sequence 1..K. Pure and deterministic: the same input always yields the
// same output. Empty input yields an empty result.
func Aggregate(occurrences []Occurrence) []Entry {
	type key struct {
		surface string
		lemma   string
	}
	type acc struct {
		entry Entry
		first int
	}

	byKey := make(map[key]int, len(occurrences))
	groups := make([]acc, 0, len(occurrences))
	for _, o := range occurrences {
		k := key{o.Surface, o.Lemma}
		if i, ok := byKey[k]; ok {
			groups[i].entry.Frequency++
			continue
		}
		byKey[k] = len(groups)
		groups = append(groups, acc{
			entry: Entry{Surface: o.Surface, Lemma: o.Lemma, Gloss: o.Gloss, Frequency: 1},
			first: o.Position,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].entry.Frequency != groups[j].entry.Frequency {
			return groups[i].entry.Frequency > groups[j].entry.Frequency
		}
		return groups[i].first < groups[j].first
	})

	entries := make([]Entry, len(groups))
	for i, g := range groups {
		g.entry.Rank = i + 1
		entries[i] = g.entry
	}
	return entries
}
