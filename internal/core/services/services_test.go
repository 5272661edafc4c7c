package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

// testSettings returns the defaults plus a "$" number range on slot 1,
// a date range on slot 2 and a date-time range on slot 3.
func testSettings() domain.Settings {
	settings := domain.DefaultSettings()
	settings.Database.Backend = domain.BackendInMemory
	settings.Search.Ranges = []domain.RangeSpec{
		{Slot: 1, Marker: "$", Kind: domain.RangeNumber},
		{Slot: 2, Kind: domain.RangeDate},
		{Slot: 3, Kind: domain.RangeDateTime},
	}
	return settings
}

// newServices returns index and search services sharing one in-memory index.
func newServices(t *testing.T) (*IndexService, *SearchService) {
	t.Helper()
	settings := testSettings()
	w := engine.NewInMemory()
	t.Cleanup(func() { _ = w.Close() })

	idx, err := NewIndexService(w, settings, ":memory:")
	require.NoError(t, err)
	search, err := NewSearchService(w.ReadOnly(), settings.Search)
	require.NoError(t, err)
	return idx, search
}

func index(t *testing.T, idx *IndexService, req domain.IndexRequest) domain.DocID {
	t.Helper()
	id, err := idx.IndexText(context.Background(), req)
	require.NoError(t, err)
	return id
}

func hitIDs(page *domain.SearchPage) []domain.DocID {
	ids := make([]domain.DocID, 0, len(page.Hits))
	for _, h := range page.Hits {
		ids = append(ids, h.DocID)
	}
	return ids
}

func TestNewServices_RejectInvalidInput(t *testing.T) {
	_, err := NewSearchService(nil, domain.DefaultSettings().Search)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewIndexService(nil, domain.DefaultSettings(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	settings := domain.DefaultSettings()
	settings.Search.Language = "klingon"
	_, err = NewIndexService(engine.NewInMemory(), settings, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_Search(t *testing.T) {
	idx, search := newServices(t)
	ctx := context.Background()

	fox := index(t, idx, domain.IndexRequest{Text: "the quick brown fox", Values: map[domain.Slot]string{1: "15"}})
	dog := index(t, idx, domain.IndexRequest{Text: "the lazy dog", Values: map[domain.Slot]string{1: "25"}})
	both := index(t, idx, domain.IndexRequest{Text: "fox chases dog", Values: map[domain.Slot]string{1: "15"}})

	t.Run("ranked hits with data", func(t *testing.T) {
		page, err := search.Search(ctx, "fox", domain.SearchOptions{})
		require.NoError(t, err)

		assert.ElementsMatch(t, []domain.DocID{fox, both}, hitIDs(page))
		assert.True(t, page.Exact)
		assert.Equal(t, 2, page.MatchesEstimated)
		assert.Equal(t, 10, page.Limit)
		assert.Equal(t, 0, page.Hits[0].Rank)
		assert.NotEmpty(t, page.Hits[0].Data)
		assert.NotEmpty(t, page.Description)
	})

	t.Run("no matches is not an error", func(t *testing.T) {
		page, err := search.Search(ctx, "unicorn", domain.SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, page.Hits)
		assert.Equal(t, 0, page.MatchesUpper)
	})

	t.Run("window", func(t *testing.T) {
		all, err := search.Search(ctx, "fox dog", domain.SearchOptions{})
		require.NoError(t, err)
		require.Len(t, all.Hits, 3)

		page, err := search.Search(ctx, "fox dog", domain.SearchOptions{Offset: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, page.Hits, 1)
		assert.Equal(t, all.Hits[1].DocID, page.Hits[0].DocID)
		assert.Equal(t, 1, page.Hits[0].Rank)
	})

	t.Run("excluded ids", func(t *testing.T) {
		page, err := search.Search(ctx, "fox", domain.SearchOptions{ExcludeIDs: []domain.DocID{fox}})
		require.NoError(t, err)
		assert.Equal(t, []domain.DocID{both}, hitIDs(page))
	})

	t.Run("number range", func(t *testing.T) {
		page, err := search.Search(ctx, "$20..30", domain.SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, []domain.DocID{dog}, hitIDs(page))
	})

	t.Run("facets", func(t *testing.T) {
		page, err := search.Search(ctx, "fox dog", domain.SearchOptions{FacetSlots: []domain.Slot{1}})
		require.NoError(t, err)
		require.Len(t, page.Facets, 1)
		assert.Equal(t, map[string]int{"15": 2, "25": 1}, page.Facets[0].Counts)
		assert.Equal(t, 3, page.Facets[0].Total)
	})

	t.Run("snippets", func(t *testing.T) {
		page, err := search.Search(ctx, "fox", domain.SearchOptions{Snippets: true})
		require.NoError(t, err)
		for _, hit := range page.Hits {
			assert.Contains(t, hit.Snippet, "**fox**")
		}
	})

	t.Run("negative paging", func(t *testing.T) {
		_, err := search.Search(ctx, "fox", domain.SearchOptions{Offset: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := search.Search(cancelled, "fox", domain.SearchOptions{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSearchService_FieldsAndFilters(t *testing.T) {
	idx, search := newServices(t)
	ctx := context.Background()

	report := index(t, idx, domain.IndexRequest{
		Text:    "annual figures",
		Fields:  map[string]string{"title": "budget report"},
		Filters: map[string]string{"type": "pdf"},
	})
	memo := index(t, idx, domain.IndexRequest{
		Text:    "budget discussion",
		Filters: map[string]string{"type": "doc"},
	})

	page, err := search.Search(ctx, "title:budget", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []domain.DocID{report}, hitIDs(page))

	page, err = search.Search(ctx, "budget type:doc", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []domain.DocID{memo}, hitIDs(page))

	page, err = search.Search(ctx, "budget", domain.SearchOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.DocID{report, memo}, hitIDs(page))
}

func TestSearchService_Expand(t *testing.T) {
	idx, search := newServices(t)
	ctx := context.Background()

	a := index(t, idx, domain.IndexRequest{Text: "quick brown fox"})
	b := index(t, idx, domain.IndexRequest{Text: "quick brown bear"})
	index(t, idx, domain.IndexRequest{Text: "slow green turtle"})

	t.Run("relevant ids", func(t *testing.T) {
		terms, err := search.Expand(ctx, "fox", domain.ExpandOptions{
			MaxTerms:    10,
			RelevantIDs: []domain.DocID{a, b},
		})
		require.NoError(t, err)
		require.NotEmpty(t, terms)
		for _, term := range terms {
			assert.NotContains(t, term.Term, "turtle")
		}
	})

	t.Run("excluded prefixes", func(t *testing.T) {
		terms, err := search.Expand(ctx, "quick", domain.ExpandOptions{
			MaxTerms:        10,
			ExcludePrefixes: []string{"Z"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, terms)
		for _, term := range terms {
			assert.NotEqual(t, byte('Z'), term.Term[0])
		}
	})

	t.Run("max terms must be positive", func(t *testing.T) {
		_, err := search.Expand(ctx, "fox", domain.ExpandOptions{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestIndexService_IndexText(t *testing.T) {
	idx, _ := newServices(t)
	ctx := context.Background()

	t.Run("unique id replaces", func(t *testing.T) {
		first := index(t, idx, domain.IndexRequest{UniqueID: "doc-1", Text: "first version"})
		second := index(t, idx, domain.IndexRequest{UniqueID: "doc-1", Text: "second version"})
		assert.Equal(t, first, second)

		stats, err := idx.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.DocCount)
	})

	t.Run("invalid requests", func(t *testing.T) {
		cases := map[string]domain.IndexRequest{
			"empty":          {},
			"unknown field":  {Text: "x", Fields: map[string]string{"nope": "y"}},
			"unknown filter": {Text: "x", Filters: map[string]string{"nope": "y"}},
			"bad number":     {Text: "x", Values: map[domain.Slot]string{1: "cheap"}},
			"bad date":       {Text: "x", Values: map[domain.Slot]string{2: "someday"}},
		}
		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := idx.IndexText(ctx, req)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			})
		}
	})
}

func TestIndexService_DeleteAndStats(t *testing.T) {
	idx, _ := newServices(t)
	ctx := context.Background()

	id := index(t, idx, domain.IndexRequest{Text: "alpha beta"})
	index(t, idx, domain.IndexRequest{Text: "gamma"})

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DocCount)
	assert.Equal(t, domain.DocID(2), stats.LastDocID)
	assert.Equal(t, domain.BackendInMemory, stats.Backend)
	assert.Equal(t, ":memory:", stats.Path)
	assert.Positive(t, stats.TermCount)

	require.NoError(t, idx.Delete(ctx, id))
	assert.ErrorIs(t, idx.Delete(ctx, id), domain.ErrDocNotFound)

	stats, err = idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocCount)
	assert.Equal(t, domain.DocID(2), stats.LastDocID)
}

func TestSearchService_DateTimeRange(t *testing.T) {
	idx, search := newServices(t)
	ctx := context.Background()

	index(t, idx, domain.IndexRequest{Text: "standup", Values: map[domain.Slot]string{3: "2024-03-05T09:00:00Z"}})
	late := index(t, idx, domain.IndexRequest{Text: "retro", Values: map[domain.Slot]string{3: "2024-03-05T16:30:00+01:00"}})
	index(t, idx, domain.IndexRequest{Text: "planning", Values: map[domain.Slot]string{3: "2024-03-07 10:00"}})

	page, err := search.Search(ctx, "2024-03-05T12:00..2024-03-06T00:00", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []domain.DocID{late}, hitIDs(page))

	_, err = idx.IndexText(ctx, domain.IndexRequest{Text: "bad", Values: map[domain.Slot]string{3: "teatime"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexService_StatsOnClosedIndex(t *testing.T) {
	w := engine.NewInMemory()
	idx, err := NewIndexService(w, testSettings(), ":memory:")
	require.NoError(t, err)
	index(t, idx, domain.IndexRequest{Text: "alpha"})

	require.NoError(t, w.Close())
	_, err = idx.Stats(context.Background())
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)
}

func TestIndexService_IndexFiles(t *testing.T) {
	idx, search := newServices(t)
	ctx := context.Background()

	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	require.NoError(t, os.WriteFile(paths[0], []byte("penguins live in the south"), 0600))
	require.NoError(t, os.WriteFile(paths[1], []byte("polar bears live in the north"), 0600))

	n, err := idx.IndexFiles(ctx, paths)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Run("reindexing replaces", func(t *testing.T) {
		n, err := idx.IndexFiles(ctx, paths)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		stats, err := idx.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.DocCount)
	})

	t.Run("searchable", func(t *testing.T) {
		page, err := search.Search(ctx, "penguins", domain.SearchOptions{})
		require.NoError(t, err)
		require.Len(t, page.Hits, 1)
		assert.Contains(t, page.Hits[0].Data, paths[0])
	})

	t.Run("missing file leaves index unchanged", func(t *testing.T) {
		_, err := idx.IndexFiles(ctx, []string{paths[0], filepath.Join(dir, "missing.txt")})
		assert.ErrorIs(t, err, os.ErrNotExist)

		stats, err := idx.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.DocCount)
	})

	t.Run("markdown title and body", func(t *testing.T) {
		md := filepath.Join(dir, "guide.md")
		require.NoError(t, os.WriteFile(md, []byte("# Walrus Handbook\n\n**Tusks** grow [slowly](http://example.com)."), 0600))
		_, err := idx.IndexFiles(ctx, []string{md})
		require.NoError(t, err)

		page, err := search.Search(ctx, "title:walrus", domain.SearchOptions{})
		require.NoError(t, err)
		require.Len(t, page.Hits, 1)
		assert.Contains(t, page.Hits[0].Data, md)

		page, err = search.Search(ctx, "example", domain.SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, page.Hits)
	})

	t.Run("no paths", func(t *testing.T) {
		n, err := idx.IndexFiles(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

type onceWatcher struct{ calls int }

func (w *onceWatcher) Watch(_ context.Context, onChange func()) error {
	onChange()
	w.calls++
	return nil
}

func (w *onceWatcher) Close() error { return nil }

func TestSearchService_WatchReopens(t *testing.T) {
	_, search := newServices(t)
	w := &onceWatcher{}

	require.NoError(t, search.Watch(context.Background(), w))
	assert.Equal(t, 1, w.calls)

	_, err := search.Search(context.Background(), "anything", domain.SearchOptions{})
	assert.NoError(t, err)
}

func TestUniqueTerm(t *testing.T) {
	a := uniqueTerm("/very/long/path/to/a/file.txt")
	assert.Len(t, a, len(uniquePrefix)+16)
	assert.Equal(t, a, uniqueTerm("/very/long/path/to/a/file.txt"))
	assert.NotEqual(t, a, uniqueTerm("/other"))
}
