package lexitheras

import (
	"context"

	"github.com/japaniel/lexitheras/pkg/catalog"
)

// Runner builds decks for several queries concurrently, one orchestrator per
// query. Runs are fully independent (each owns its data and writes its own
// artifact), so the only shared machinery is the worker pool.
type Runner struct {
	Index   *catalog.Index
	Fetcher Fetcher
	Workers int
	// Opts applies to every run. OutputPath is ignored; batch artifacts are
	// always named after their URN so runs cannot overwrite each other.
	Opts Options
}

// RunResult pairs a query with how its run ended.
type RunResult struct {
	Query   string
	Outcome *Outcome
	Err     error
}

// BuildAll runs every query and returns one result per query, in input
// order. Batch mode has nobody to ask, so an ambiguous query is aborted and
// reported as AmbiguousQueryError rather than suspended.
func (r *Runner) BuildAll(ctx context.Context, queries []string) []RunResult {
	results := make([]RunResult, len(queries))

	opts := r.Opts
	opts.OutputPath = ""

	pool := NewWorkerPool(r.Workers, len(queries))
	pool.Start(ctx)
	for i, query := range queries {
		i, query := i, query
		job := func(ctx context.Context) error {
			orc := New(r.Index, r.Fetcher, opts)
			outcome, err := orc.Run(ctx, query)
			if err == nil && outcome.State == StateDisambiguating {
				err = orc.Abort()
				outcome = nil
			}
			results[i] = RunResult{Query: query, Outcome: outcome, Err: err}
			return err
		}
		if err := pool.SubmitCtx(ctx, job); err != nil {
			results[i] = RunResult{Query: query, Err: err}
		}
	}
	pool.Close()

	// Cancellation stops the workers with jobs still queued. Those slots were
	// never written; report them as cancelled rather than returning zero
	// values the caller would mistake for successes.
	for i := range results {
		if results[i].Outcome == nil && results[i].Err == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = RunResult{Query: queries[i], Err: err}
		}
	}
	return results
}
