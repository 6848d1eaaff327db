package lexitheras

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/japaniel/lexitheras/pkg/anki"
	"github.com/japaniel/lexitheras/pkg/catalog"
	"github.com/japaniel/lexitheras/pkg/lexerror"
	"github.com/japaniel/lexitheras/pkg/perseus"
	"github.com/japaniel/lexitheras/pkg/vocab"
)

// State tracks where a run is in the resolve -> fetch -> extract ->
// aggregate -> build sequence.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateDisambiguating
	StateFetching
	StateExtracting
	StateAggregating
	StateBuilding
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateDisambiguating:
		return "disambiguating"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateAggregating:
		return "aggregating"
	case StateBuilding:
		return "building"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Fetcher is the transport boundary the orchestrator drives.
type Fetcher interface {
	FetchWordList(ctx context.Context, urn string) (perseus.RawText, error)
}

// Options tune a single run.
type Options struct {
	// DeckName overrides the name derived from the resolved entry.
	DeckName string
	// OutputPath overrides the filename derived from the URN.
	OutputPath string
	// SearchOnly stops after resolution; no deck is fetched or built.
	SearchOnly bool
}

// Outcome is what a completed (or suspended) run hands back to the caller.
type Outcome struct {
	State    State
	Resolved catalog.Entry
	Deck     *anki.Deck
	Path     string
	// Candidates is set when State is StateDisambiguating; the caller picks
	// one and passes it to Resume.
	Candidates []catalog.Entry
	// Warning reports a non-fatal condition such as an empty vocabulary.
	Warning error
}

// Orchestrator drives one deck build from query to artifact. It owns no
// shared state; run several in parallel for several texts. Disambiguation is
// an explicit suspension point: Run returns the candidate list and the
// caller resumes with a choice (or abandons the orchestrator).
type Orchestrator struct {
	index   *catalog.Index
	fetcher Fetcher
	opts    Options

	state      State
	query      string
	candidates []catalog.Entry
}

// New creates an idle orchestrator over a resolved catalog index.
func New(index *catalog.Index, fetcher Fetcher, opts Options) *Orchestrator {
	return &Orchestrator{index: index, fetcher: fetcher, opts: opts, state: StateIdle}
}

// State returns the current state, for callers reporting progress.
func (o *Orchestrator) State() State { return o.state }

// Run resolves the query and, when it names exactly one text, carries the
// build through to a written artifact. More than one match suspends the run
// in the disambiguating state; zero matches fail with NotFoundQueryError.
func (o *Orchestrator) Run(ctx context.Context, query string) (*Outcome, error) {
	if o.state != StateIdle {
		return nil, fmt.Errorf("orchestrator already used (state %s)", o.state)
	}
	o.query = query
	o.state = StateResolving

	matches := o.index.Resolve(query)
	switch len(matches) {
	case 0:
		return nil, o.fail(lexerror.NotFoundQueryError{Query: query})
	case 1:
		return o.proceed(ctx, matches[0])
	default:
		o.state = StateDisambiguating
		o.candidates = matches
		log.Debug().Str("query", query).Int("matches", len(matches)).Msg("query is ambiguous")
		return &Outcome{State: StateDisambiguating, Candidates: matches}, nil
	}
}

// Resume continues a run suspended in the disambiguating state with the
// chosen entry, which must be one of the candidates.
func (o *Orchestrator) Resume(ctx context.Context, choice catalog.Entry) (*Outcome, error) {
	if o.state != StateDisambiguating {
		return nil, fmt.Errorf("resume called in state %s", o.state)
	}
	for _, c := range o.candidates {
		if c.URN == choice.URN {
			return o.proceed(ctx, c)
		}
	}
	return nil, o.fail(fmt.Errorf("selection %q is not among the candidates", choice.URN))
}

// Abort ends a suspended run without a selection.
func (o *Orchestrator) Abort() error {
	if o.state != StateDisambiguating {
		return fmt.Errorf("abort called in state %s", o.state)
	}
	urns := make([]string, len(o.candidates))
	for i, c := range o.candidates {
		urns[i] = c.URN
	}
	return o.fail(lexerror.AmbiguousQueryError{Query: o.query, Count: len(o.candidates), Candidates: urns})
}

func (o *Orchestrator) proceed(ctx context.Context, entry catalog.Entry) (*Outcome, error) {
	if o.opts.SearchOnly {
		o.state = StateDone
		return &Outcome{State: StateDone, Resolved: entry}, nil
	}

	o.state = StateFetching
	log.Info().Str("urn", entry.URN).Str("title", entry.Title).Msg("fetching word list")
	raw, err := o.fetcher.FetchWordList(ctx, entry.URN)
	if err != nil {
		return nil, o.fail(err)
	}

	o.state = StateExtracting
	occurrences, err := vocab.Extract(raw)
	if err != nil {
		return nil, o.fail(err)
	}

	o.state = StateAggregating
	entries := vocab.Aggregate(occurrences)
	log.Info().
		Str("urn", entry.URN).
		Int("occurrences", len(occurrences)).
		Int("entries", len(entries)).
		Msg("vocabulary aggregated")

	o.state = StateBuilding
	var warning error
	if len(entries) == 0 {
		warning = lexerror.EmptyVocabularyError{URN: entry.URN}
		log.Warn().Str("urn", entry.URN).Msg("word list yielded no usable vocabulary")
	}

	deck := anki.Build(o.deckName(entry), entries)
	path := o.opts.OutputPath
	if path == "" {
		path = anki.DefaultFileName(entry.URN)
	}
	if err := anki.WriteAPKG(deck, path); err != nil {
		return nil, o.fail(err)
	}

	o.state = StateDone
	log.Info().Str("path", path).Int("cards", len(deck.Cards)).Msg("deck written")
	return &Outcome{
		State:    StateDone,
		Resolved: entry,
		Deck:     deck,
		Path:     path,
		Warning:  warning,
	}, nil
}

func (o *Orchestrator) deckName(entry catalog.Entry) string {
	if o.opts.DeckName != "" {
		return o.opts.DeckName
	}
	title := entry.Title
	if title == "" {
		title = catalog.WorkComponent(entry.URN)
	}
	return anki.DefaultDeckName(title, entry.Author)
}

func (o *Orchestrator) fail(err error) error {
	o.state = StateFailed
	return err
}
