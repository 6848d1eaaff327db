package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/japaniel/lexitheras/pkg/catalog"
	"github.com/japaniel/lexitheras/pkg/config"
	"github.com/japaniel/lexitheras/pkg/lexerror"
	"github.com/japaniel/lexitheras/pkg/lexitheras"
	"github.com/japaniel/lexitheras/pkg/perseus"

	_ "github.com/mattn/go-sqlite3"
)

// Exit codes are part of the CLI contract; scripts branch on them.
const (
	exitOK         = 0
	exitUsage      = 1
	exitNoMatches  = 2
	exitAmbiguous  = 3
	exitFetchParse = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	outFlag := flag.String("o", "", "Output .apkg path (single query only)")
	nameFlag := flag.String("deck-name", "", "Deck name (single query only)")
	listFlag := flag.Bool("list", false, "List all texts in the catalog and exit")
	searchFlag := flag.Bool("search", false, "Resolve the query without building a deck")
	refreshFlag := flag.Bool("refresh", false, "Force a catalog refresh, ignoring the cache")
	cacheFlag := flag.String("cache", "", "Catalog cache database path (overrides config)")
	workersFlag := flag.Int("workers", 0, "Concurrent builds for multiple queries (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	setupLogging(cfg.Log.Level)

	queries := flag.Args()
	if !*listFlag && len(queries) == 0 {
		fmt.Fprintln(os.Stderr, "usage: lexitheras [flags] <title, author, or urn:cts:... > [more queries]")
		flag.PrintDefaults()
		return exitUsage
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := perseus.NewClient(cfg.Perseus.BaseURL, cfg.Perseus.Timeout)

	// Direct URN queries never touch the catalog, so a pure-URN invocation
	// works offline apart from the word list fetch itself.
	needCatalog := *listFlag
	for _, q := range queries {
		if !catalog.IsURN(q) {
			needCatalog = true
		}
	}

	index := catalog.NewIndex(nil)
	if needCatalog {
		cachePath := cfg.Catalog.CachePath
		if *cacheFlag != "" {
			cachePath = *cacheFlag
		}
		conn, err := sql.Open("sqlite3", cachePath)
		if err != nil {
			log.Error().Err(err).Str("path", cachePath).Msg("failed to open catalog cache")
			return exitUsage
		}
		defer conn.Close()
		if err := catalog.InitDB(conn); err != nil {
			log.Error().Err(err).Msg("failed to initialize catalog cache")
			return exitUsage
		}

		index, err = catalog.Load(ctx, catalog.NewStore(conn), client, catalog.LoadOptions{
			Key:          client.CatalogKey(),
			Freshness:    cfg.Catalog.Freshness(),
			ForceRefresh: *refreshFlag,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to load catalog")
			return exitCode(err)
		}
	}

	if *listFlag {
		for _, e := range index.List() {
			fmt.Printf("%s\t%s\t%s\n", e.Author, e.Title, e.URN)
		}
		return exitOK
	}

	opts := lexitheras.Options{SearchOnly: *searchFlag}

	if len(queries) > 1 {
		workers := cfg.Build.Workers
		if *workersFlag > 0 {
			workers = *workersFlag
		}
		return runBatch(ctx, index, client, opts, workers, queries)
	}

	opts.DeckName = *nameFlag
	opts.OutputPath = *outFlag
	return runSingle(ctx, index, client, opts, queries[0])
}

func runSingle(ctx context.Context, index *catalog.Index, client *perseus.Client, opts lexitheras.Options, query string) int {
	orc := lexitheras.New(index, client, opts)
	outcome, err := orc.Run(ctx, query)
	if err != nil {
		return report(query, err)
	}

	if outcome.State == lexitheras.StateDisambiguating {
		choice, ok := promptSelection(query, outcome.Candidates)
		if !ok {
			err := orc.Abort()
			return report(query, err)
		}
		outcome, err = orc.Resume(ctx, choice)
		if err != nil {
			return report(query, err)
		}
	}

	printOutcome(outcome)
	return exitOK
}

func runBatch(ctx context.Context, index *catalog.Index, client *perseus.Client, opts lexitheras.Options, workers int, queries []string) int {
	runner := &lexitheras.Runner{Index: index, Fetcher: client, Workers: workers, Opts: opts}
	code := exitOK
	for _, res := range runner.BuildAll(ctx, queries) {
		if res.Err != nil {
			c := report(res.Query, res.Err)
			if code == exitOK {
				code = c
			}
			continue
		}
		printOutcome(res.Outcome)
	}
	return code
}

func printOutcome(outcome *lexitheras.Outcome) {
	if outcome == nil {
		return
	}
	e := outcome.Resolved
	if outcome.Deck == nil {
		// Search-only run.
		fmt.Printf("%s\t%s\t%s\n", e.Author, e.Title, e.URN)
		return
	}
	fmt.Printf("%s: %d cards -> %s\n", outcome.Deck.Name, len(outcome.Deck.Cards), outcome.Path)
}

// promptSelection lists the candidates and reads a 1-based choice from
// stdin. ok is false when the user gives no usable answer.
func promptSelection(query string, candidates []catalog.Entry) (catalog.Entry, bool) {
	fmt.Fprintf(os.Stderr, "%q matches %d texts:\n", query, len(candidates))
	for i, c := range candidates {
		fmt.Fprintf(os.Stderr, "  [%d] %s, %s (%s)\n", i+1, c.Title, c.Author, c.URN)
	}
	fmt.Fprint(os.Stderr, "Select a text (or press Enter to abort): ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return catalog.Entry{}, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || n < 1 || n > len(candidates) {
		return catalog.Entry{}, false
	}
	return candidates[n-1], true
}

func report(query string, err error) int {
	code := exitCode(err)
	var amb lexerror.AmbiguousQueryError
	if errors.As(err, &amb) {
		log.Error().Str("query", query).Int("matches", amb.Count).Msg("ambiguous query, no selection made")
		return code
	}
	log.Error().Err(err).Str("query", query).Msg("deck build failed")
	return code
}

// exitCode maps the error taxonomy onto the CLI exit contract.
func exitCode(err error) int {
	var (
		notFoundQuery  lexerror.NotFoundQueryError
		ambiguous      lexerror.AmbiguousQueryError
		network        lexerror.NetworkError
		notFoundSource lexerror.NotFoundSourceError
		parse          lexerror.ParseError
	)
	switch {
	case errors.As(err, &notFoundQuery):
		return exitNoMatches
	case errors.As(err, &ambiguous):
		return exitAmbiguous
	case errors.As(err, &network), errors.As(err, &notFoundSource), errors.As(err, &parse):
		return exitFetchParse
	}
	return exitUsage
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
}
