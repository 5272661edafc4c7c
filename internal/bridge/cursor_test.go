package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

func executeCommon(t *testing.T, s *Searcher) *ResultPage {
	t.Helper()
	page, err := s.Execute(context.Background(), engine.NewTerm("common"), 0, 10, 0, nil, nil)
	require.NoError(t, err)
	return page
}

func TestMatchCursor_PositionalEquality(t *testing.T) {
	page := executeCommon(t, newSearcher(t, newIndex(t, uniformTexts(3)...)))

	a := page.Begin()
	b := a.Copy()
	assert.True(t, a.Equal(b))

	require.NoError(t, b.Next())
	assert.False(t, a.Equal(b))

	require.NoError(t, a.Next())
	assert.True(t, a.Equal(b))
}

func TestMatchCursor_CopyIsIndependent(t *testing.T) {
	page := executeCommon(t, newSearcher(t, newIndex(t, uniformTexts(3)...)))

	a := page.Begin()
	b := a.Copy()
	require.NoError(t, b.Next())
	require.NoError(t, b.Next())

	id, err := a.Value()
	require.NoError(t, err)
	assert.Equal(t, domain.DocID(3), id)

	id, err = b.Value()
	require.NoError(t, err)
	assert.Equal(t, domain.DocID(1), id)
}

func TestMatchCursor_Sentinels(t *testing.T) {
	page := executeCommon(t, newSearcher(t, newIndex(t, uniformTexts(2)...)))

	end := page.End()
	_, err := end.Value()
	assert.ErrorIs(t, err, domain.ErrEndOfSequence)
	assert.ErrorIs(t, end.Next(), domain.ErrEndOfSequence)
	assert.ErrorIs(t, end.Next(), domain.ErrInvalidState)

	begin := page.Begin()
	assert.ErrorIs(t, begin.Prev(), domain.ErrBeforeBegin)

	_, err = end.Weight()
	assert.ErrorIs(t, err, domain.ErrEndOfSequence)
}

func TestMatchCursor_Bidirectional(t *testing.T) {
	page := executeCommon(t, newSearcher(t, newIndex(t, uniformTexts(3)...)))

	it := page.End()
	var ids []domain.DocID
	begin := page.Begin()
	for !it.Equal(begin) {
		require.NoError(t, it.Prev())
		id, err := it.Value()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []domain.DocID{1, 2, 3}, ids)
}

func TestMatchCursor_Accessors(t *testing.T) {
	page := executeCommon(t, newSearcher(t, newIndex(t, "common alpha", "common common beta")))

	it := page.Begin()
	id, err := it.Value()
	require.NoError(t, err)
	assert.Equal(t, domain.DocID(2), id)

	pct, err := it.Percent()
	require.NoError(t, err)
	assert.Equal(t, 100, pct)

	doc, err := it.Document()
	require.NoError(t, err)
	assert.Equal(t, domain.DocID(2), doc.ID())
	assert.Equal(t, "common common beta", string(doc.Data()))
	assert.True(t, doc.HasTerm("beta"))

	require.NoError(t, it.Next())
	rank, err := it.Rank()
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
}

func TestMatchCursor_EqualAcrossEquivalentExecutions(t *testing.T) {
	s := newSearcher(t, newIndex(t, uniformTexts(3)...))
	a := executeCommon(t, s).Begin()
	b := executeCommon(t, s).Begin()
	assert.True(t, a.Equal(b))

	require.NoError(t, b.Next())
	assert.False(t, a.Equal(b))
}

func TestCursors_StaleAfterMutation(t *testing.T) {
	w := newIndex(t, uniformTexts(3)...)
	s := newSearcher(t, w)
	page := executeCommon(t, s)
	it := page.Begin()

	addTexts(t, w, "common again")

	_, err := it.Value()
	assert.ErrorIs(t, err, domain.ErrStaleHandle)
	assert.ErrorIs(t, it.Next(), domain.ErrStaleHandle)
	assert.ErrorIs(t, page.Stale(), domain.ErrStaleHandle)
	_, err = page.DocIDs()
	assert.ErrorIs(t, err, domain.ErrStaleHandle)

	// Positional comparison never touches the source.
	assert.True(t, it.Equal(page.Begin()))

	fresh := executeCommon(t, s)
	assert.NoError(t, fresh.Stale())
	assert.Equal(t, 4, fresh.Size())
}

func TestCursors_StaleAfterClose(t *testing.T) {
	w := newIndex(t, "the quick brown fox", "quick fox")
	s := newSearcher(t, w)
	ctx := context.Background()
	page, err := s.Execute(ctx, engine.NewTerm("fox"), 0, 10, 0, nil, nil)
	require.NoError(t, err)
	eset, err := s.Expand(ctx, engine.NewRSet(1), 10, 0, nil, 0)
	require.NoError(t, err)

	require.NoError(t, w.Close())

	it := page.Begin()
	_, err = it.Value()
	assert.ErrorIs(t, err, domain.ErrStaleHandle)
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)

	et := eset.Begin()
	_, err = et.Value()
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)

	_, err = s.Execute(ctx, engine.NewTerm("fox"), 0, 10, 0, nil, nil)
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)
}

func TestCursors_DocumentTermsStaleAfterClose(t *testing.T) {
	w := newIndex(t, "common alpha", "common beta")
	page := executeCommon(t, newSearcher(t, w))

	doc, err := page.Begin().Document()
	require.NoError(t, err)
	terms, _ := doc.Terms()
	term, err := terms.Value()
	require.NoError(t, err)
	assert.Equal(t, "beta", term)
	positions, _, err := terms.Positions()
	require.NoError(t, err)
	_, err = positions.Value()
	require.NoError(t, err)

	require.NoError(t, w.Close())

	_, err = terms.Value()
	assert.ErrorIs(t, err, domain.ErrStaleHandle)
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)
	_, err = terms.TermFreq()
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)
	_, err = positions.Value()
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)
	assert.ErrorIs(t, terms.Next(), domain.ErrStaleHandle)
}

func TestCursors_DocumentTermsStaleAfterMutation(t *testing.T) {
	w := newIndex(t, "common alpha")
	page := executeCommon(t, newSearcher(t, w))

	doc, err := page.Begin().Document()
	require.NoError(t, err)
	begin, _ := doc.Terms()
	_, err = begin.Value()
	require.NoError(t, err)

	addTexts(t, w, "common gamma")
	_, err = begin.Value()
	assert.ErrorIs(t, err, domain.ErrStaleHandle)

	// A document built by hand has no database to go stale with.
	loose := doc.Copy()
	lb, _ := TermList(loose)
	_, err = lb.Value()
	assert.NoError(t, err)
}

func TestMatchCursor_ValueOnTemporary(t *testing.T) {
	page := executeCommon(t, newSearcher(t, newIndex(t, uniformTexts(2)...)))

	id, err := page.Begin().Value()
	require.NoError(t, err)
	assert.Equal(t, domain.DocID(2), id)
	rank, err := page.Begin().Rank()
	require.NoError(t, err)
	assert.Zero(t, rank)
	assert.True(t, page.Begin().Equal(page.Begin()))
}

func TestExpansionCursor(t *testing.T) {
	s := newSearcher(t, newIndex(t, "the quick brown fox", "the lazy dog", "quick quick fox jumps"))
	ctx := context.Background()
	_, err := s.Execute(ctx, engine.NewTerm("fox"), 0, 10, 0, nil, nil)
	require.NoError(t, err)
	page, err := s.Expand(ctx, engine.NewRSet(1), 10, 0, nil, 0)
	require.NoError(t, err)

	it := page.Begin()
	c := it.Copy()
	require.NoError(t, c.Next())
	assert.False(t, it.Equal(c))
	require.NoError(t, c.Prev())
	assert.True(t, it.Equal(c))
	assert.ErrorIs(t, c.Prev(), domain.ErrBeforeBegin)

	term, err := it.Value()
	require.NoError(t, err)
	assert.Equal(t, "brown", term)
	w, err := it.Weight()
	require.NoError(t, err)
	assert.Greater(t, w, 0.0)

	end := page.End()
	_, err = end.Value()
	assert.ErrorIs(t, err, domain.ErrEndOfSequence)
}

func TestTermCursor(t *testing.T) {
	doc := engine.NewDocument()
	doc.AddPosting("beta", 1, 1)
	doc.AddPosting("alpha", 2, 1)
	doc.AddPosting("beta", 3, 1)

	begin, end := TermList(doc)
	terms, err := CollectTerms(begin, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, terms)

	it := begin.Copy()
	require.NoError(t, it.Next())
	wdf, err := it.Wdf()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), wdf)

	pb, pe, err := it.Positions()
	require.NoError(t, err)
	positions, err := CollectPositions(pb, pe)
	require.NoError(t, err)
	assert.Equal(t, []domain.TermPos{1, 3}, positions)

	assert.ErrorIs(t, end.Next(), domain.ErrEndOfSequence)

	doc.AddTerm("gamma", 1)
	_, err = begin.Value()
	assert.ErrorIs(t, err, domain.ErrStaleHandle)
	_, err = pb.Value()
	assert.ErrorIs(t, err, domain.ErrStaleHandle)
}

func TestPositionCursor(t *testing.T) {
	doc := engine.NewDocument()
	doc.AddPosting("word", 4, 1)
	doc.AddPosting("word", 9, 1)

	begin, end, err := Positions(doc, "word")
	require.NoError(t, err)
	c := begin.Copy()
	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	assert.True(t, c.Equal(end))

	p, err := begin.Value()
	require.NoError(t, err)
	assert.Equal(t, domain.TermPos(4), p)
}

func TestAllTerms(t *testing.T) {
	w := newIndex(t, "apple apricot banana")
	view, err := WritableAsReadOnly(w)
	require.NoError(t, err)

	begin, end, err := AllTerms(view, "ap")
	require.NoError(t, err)
	terms, err := CollectTerms(begin, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "apricot"}, terms)

	freq, err := begin.TermFreq()
	require.NoError(t, err)
	assert.Equal(t, 1, freq)

	addTexts(t, w, "apple apple")
	begin, _, err = AllTerms(view, "ap")
	require.NoError(t, err)
	freq, err = begin.TermFreq()
	require.NoError(t, err)
	assert.Equal(t, 2, freq)
	cf, err := begin.CollectionFreq()
	require.NoError(t, err)
	assert.Equal(t, 3, cf)
	wdf, err := begin.Wdf()
	require.NoError(t, err)
	assert.Zero(t, wdf)

	addTexts(t, w, "apple")
	_, err = begin.Value()
	assert.ErrorIs(t, err, domain.ErrStaleHandle)
}
