package lexitheras

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lexitheras/pkg/anki"
	"github.com/japaniel/lexitheras/pkg/lexerror"
	"github.com/japaniel/lexitheras/pkg/perseus"
)

// chdir changes the working directory for the duration of the test,
// mirroring t.Chdir from Go 1.24 for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestBuildAllIndependentRuns(t *testing.T) {
	chdir(t, t.TempDir())

	iliad := "urn:cts:greekLit:tlg0012.tlg001.perseus-grc2"
	symposium := "urn:cts:greekLit:tlg0059.tlg011.perseus-grc2"
	fetcher := &fakeFetcher{pages: map[string]string{
		iliad:     wordListPage,
		symposium: wordListPage,
	}}

	r := &Runner{Index: testIndex(), Fetcher: fetcher, Workers: 2}
	results := r.BuildAll(context.Background(), []string{iliad, symposium})
	require.Len(t, results, 2)

	for _, res := range results {
		require.NoError(t, res.Err)
		require.NotNil(t, res.Outcome)
		assert.Equal(t, StateDone, res.Outcome.State)

		_, err := os.Stat(anki.DefaultFileName(res.Outcome.Resolved.URN))
		assert.NoError(t, err, "each run writes its own artifact")
	}
}

func TestBuildAllResultsStayInInputOrder(t *testing.T) {
	chdir(t, t.TempDir())

	iliad := "urn:cts:greekLit:tlg0012.tlg001.perseus-grc2"
	fetcher := &fakeFetcher{pages: map[string]string{iliad: wordListPage}}

	queries := []string{iliad, "xyzzy123"}
	r := &Runner{Index: testIndex(), Fetcher: fetcher, Workers: 4}
	results := r.BuildAll(context.Background(), queries)

	require.Len(t, results, 2)
	assert.Equal(t, iliad, results[0].Query)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "xyzzy123", results[1].Query)

	var notFound lexerror.NotFoundQueryError
	require.True(t, errors.As(results[1].Err, &notFound))
}

// cancellingFetcher cancels the run on its first call and then blocks until
// the context is done, simulating an interrupt arriving mid-batch.
type cancellingFetcher struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (f *cancellingFetcher) FetchWordList(ctx context.Context, urn string) (perseus.RawText, error) {
	f.once.Do(f.cancel)
	<-ctx.Done()
	return perseus.RawText{}, ctx.Err()
}

func TestBuildAllReportsCancelledQueries(t *testing.T) {
	chdir(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	iliad := "urn:cts:greekLit:tlg0012.tlg001.perseus-grc2"
	queries := make([]string, 20)
	for i := range queries {
		queries[i] = iliad
	}

	r := &Runner{Index: testIndex(), Fetcher: &cancellingFetcher{cancel: cancel}, Workers: 1}
	results := r.BuildAll(ctx, queries)
	require.Len(t, results, len(queries))

	for i, res := range results {
		assert.Equal(t, iliad, res.Query, "results[%d] must name its query", i)
		require.Error(t, res.Err, "results[%d] must not look like a success", i)
		if res.Err != nil && res.Outcome == nil {
			assert.ErrorIs(t, res.Err, context.Canceled, "results[%d]", i)
		}
	}
}

func TestBuildAllAbortsAmbiguousQueries(t *testing.T) {
	chdir(t, t.TempDir())

	r := &Runner{Index: testIndex(), Fetcher: &fakeFetcher{}, Workers: 2}
	results := r.BuildAll(context.Background(), []string{"symposium"})
	require.Len(t, results, 1)

	var ambiguous lexerror.AmbiguousQueryError
	require.True(t, errors.As(results[0].Err, &ambiguous), "batch mode has nobody to prompt")
	assert.Equal(t, 2, ambiguous.Count)
}
