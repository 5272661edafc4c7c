package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := run("search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_PassesOptions(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()

	_, err := run("search", "fox", "-n", "5", "--offset", "10", "--exclude", "3,4", "--facet", "1", "--snippets")

	require.NoError(t, err)
	assert.Equal(t, "fox", mocks.search.lastQuery)
	assert.Equal(t, domain.SearchOptions{
		Offset:     10,
		Limit:      5,
		ExcludeIDs: []domain.DocID{3, 4},
		FacetSlots: []domain.Slot{1},
		Snippets:   true,
	}, mocks.search.lastOpts)
}

func TestSearchCmd_Table(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.search.page = &domain.SearchPage{
		Hits: []domain.SearchHit{
			{DocID: 12, Rank: 0, Percent: 100, Weight: 1.25, Data: "first line\nsecond line", Snippet: "a **fox**"},
		},
		MatchesLower:     900,
		MatchesEstimated: 1200,
		MatchesUpper:     1500,
		Facets: []domain.Facet{
			{Slot: 1, Total: 3, Counts: map[string]int{"red": 1, "blue": 2}},
		},
	}

	out, err := run("search", "fox")

	require.NoError(t, err)
	assert.Contains(t, out, "Results 1-1 of about 1,200 matches (900-1,500)")
	assert.Contains(t, out, "[1] #12 100% (1.250) first line")
	assert.NotContains(t, out, "second line")
	assert.Contains(t, out, "a **fox**")
	assert.Less(t, indexOf(out, "blue"), indexOf(out, "red"))
}

func TestSearchCmd_EmptyResults(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := run("search", "unicorn")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found")
}

func TestSearchCmd_JSON(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.search.page = &domain.SearchPage{Hits: []domain.SearchHit{{DocID: 1}}, Exact: true}

	out, err := run("search", "fox", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"DocID": 1`)
	assert.Contains(t, out, `"Exact": true`)
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	searchService = nil

	_, err := run("search", "test")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.search.err = domain.ErrQuerySyntax

	_, err := run("search", "(")

	assert.ErrorIs(t, err, domain.ErrQuerySyntax)
	assert.Contains(t, err.Error(), "search failed")
}

func TestMatchCount(t *testing.T) {
	assert.Equal(t, "1,234 matches", matchCount(&domain.SearchPage{MatchesEstimated: 1234, Exact: true}))
	assert.Equal(t, "about 10 matches (2-18)",
		matchCount(&domain.SearchPage{MatchesLower: 2, MatchesEstimated: 10, MatchesUpper: 18}))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "one", preview("one\ntwo"))
	long := string(make([]rune, dataPreviewLength+5))
	assert.Len(t, []rune(preview(long)), dataPreviewLength+3)
}

func TestExpandCmd(t *testing.T) {
	mocks, cleanup := setupTestServices()
	defer cleanup()
	mocks.search.terms = []domain.ExpandTerm{{Term: "brown", Weight: 1.5}}

	out, err := run("expand", "fox", "--relevant", "1,2", "--exclude-prefix", "Z")

	require.NoError(t, err)
	assert.Contains(t, out, "brown")
	assert.Equal(t, domain.ExpandOptions{
		MaxTerms:        10,
		RelevantIDs:     []domain.DocID{1, 2},
		FromTop:         5,
		ExcludePrefixes: []string{"Z"},
	}, mocks.search.lastExpand)

	t.Run("no suggestions", func(t *testing.T) {
		mocks.search.terms = nil
		out, err := run("expand", "fox")
		require.NoError(t, err)
		assert.Contains(t, out, "No suggestions")
	})
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
