package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

type idDecider func(id domain.DocID) (bool, error)

func (f idDecider) AcceptDocument(doc *Document) (bool, error) {
	return f(doc.ID())
}

type countingSpy struct {
	seen []domain.DocID
	err  error
}

func (s *countingSpy) Name() string { return "counting" }

func (s *countingSpy) Observe(doc *Document, _ float64) error {
	s.seen = append(s.seen, doc.ID())
	return s.err
}

type prefixKeeper string

func (p prefixKeeper) KeepTerm(term string) (bool, error) {
	return term[0] == p[0], nil
}

func msetIDs(t *testing.T, m *MSet) []domain.DocID {
	t.Helper()
	var ids []domain.DocID
	for it, end := m.Begin(), m.End(); !it.Equal(&end); {
		id, err := it.DocID()
		require.NoError(t, err)
		ids = append(ids, id)
		require.NoError(t, it.Next())
	}
	return ids
}

func TestGetMSet_RanksTiesByDescendingID(t *testing.T) {
	db := newCorpus(t, "the quick brown fox", "the lazy dog", "quick quick fox jumps")
	enq := NewEnquire(db.ReadOnly())
	enq.SetQuery(NewTerm("fox"))

	m, err := enq.GetMSet(0, 10, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.DocID{3, 1}, msetIDs(t, m))
	assert.True(t, m.Exact())
	assert.Equal(t, 2, m.MatchesEstimated())
	assert.Equal(t, 2, m.TermFreq("fox"))
}

func TestGetMSet_BM25PrefersHigherWdf(t *testing.T) {
	db := newCorpus(t, "quick brown fox", "quick quick fox", "lazy dog")
	enq := NewEnquire(db.ReadOnly())
	enq.SetQuery(NewTerm("quick"))

	m, err := enq.GetMSet(0, 10, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.DocID{2, 1}, msetIDs(t, m))

	it := m.Begin()
	pct, err := it.Percent()
	require.NoError(t, err)
	assert.Equal(t, 100, pct)
	rank, err := it.Rank()
	require.NoError(t, err)
	assert.Equal(t, 0, rank)
}

func TestGetMSet_Window(t *testing.T) {
	db := newCorpus(t, "a", "a", "a", "a", "a")
	enq := NewEnquire(db.ReadOnly())
	enq.SetQuery(NewTerm("a"))

	m, err := enq.GetMSet(1, 2, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.DocID{4, 3}, msetIDs(t, m))
	assert.Equal(t, 1, m.FirstItem())
	assert.Equal(t, 5, m.MatchesLowerBound())

	past, err := enq.GetMSet(10, 2, 0, nil, nil)
	require.NoError(t, err)
	assert.True(t, past.Empty())
	assert.Equal(t, 5, past.MatchesUpperBound())

	_, err = enq.GetMSet(-1, 2, 0, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetMSet_DeciderBounds(t *testing.T) {
	db := newCorpus(t, "common", "common", "common", "common", "common")
	enq := NewEnquire(db.ReadOnly())
	enq.SetQuery(NewTerm("common"))
	even := idDecider(func(id domain.DocID) (bool, error) { return id%2 == 0, nil })

	m, err := enq.GetMSet(0, 1, 0, nil, even)
	require.NoError(t, err)
	assert.Equal(t, []domain.DocID{4}, msetIDs(t, m))
	assert.Equal(t, 1, m.MatchesLowerBound())
	assert.Equal(t, 4, m.MatchesUpperBound())
	assert.Equal(t, 3, m.MatchesEstimated())
	assert.False(t, m.Exact())

	t.Run("checking everything is exact", func(t *testing.T) {
		m, err := enq.GetMSet(0, 1, 10, nil, even)
		require.NoError(t, err)
		assert.True(t, m.Exact())
		assert.Equal(t, 2, m.MatchesEstimated())
	})

	t.Run("decider error aborts", func(t *testing.T) {
		boom := errors.New("boom")
		failing := idDecider(func(domain.DocID) (bool, error) { return false, boom })
		_, err := enq.GetMSet(0, 1, 0, nil, failing)
		assert.ErrorIs(t, err, boom)
	})
}

func TestGetMSet_Spies(t *testing.T) {
	db := newCorpus(t, "x", "x", "x", "y")
	enq := NewEnquire(db.ReadOnly())
	enq.SetQuery(NewTerm("x"))
	spy := &countingSpy{}
	enq.AddMatchSpy(spy)

	_, err := enq.GetMSet(0, 2, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.DocID{3, 2}, spy.seen)

	spy.seen = nil
	_, err = enq.GetMSet(0, 1, 3, nil, nil)
	require.NoError(t, err)
	assert.Len(t, spy.seen, 3)

	spy.err = errors.New("spy failed")
	_, err = enq.GetMSet(0, 1, 0, nil, nil)
	assert.ErrorIs(t, err, spy.err)

	enq.ClearMatchSpies()
	_, err = enq.GetMSet(0, 1, 0, nil, nil)
	assert.NoError(t, err)
}

func TestGetMSet_InvalidWeight(t *testing.T) {
	db := newCorpus(t, "x")
	enq := NewEnquire(db.ReadOnly())
	q, err := NewScaleWeight(math.Inf(1), NewTerm("x"))
	require.NoError(t, err)
	inner, err := NewScaleWeight(0, NewTerm("x"))
	require.NoError(t, err)
	both, err := NewQuery(OpAnd, q, inner)
	require.NoError(t, err)
	scaled, err := NewScaleWeight(0, both)
	require.NoError(t, err)
	enq.SetQuery(scaled)

	_, err = enq.GetMSet(0, 10, 0, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidWeight)
}

func TestMSetIterator_Bidirectional(t *testing.T) {
	db := newCorpus(t, "a", "a")
	enq := NewEnquire(db.ReadOnly())
	enq.SetQuery(NewTerm("a"))
	m, err := enq.GetMSet(0, 10, 0, nil, nil)
	require.NoError(t, err)

	begin, end := m.Begin(), m.End()
	assert.ErrorIs(t, begin.Prev(), domain.ErrBeforeBegin)
	_, err = end.DocID()
	assert.ErrorIs(t, err, domain.ErrEndOfSequence)
	assert.ErrorIs(t, end.Next(), domain.ErrEndOfSequence)

	it := m.End()
	require.NoError(t, it.Prev())
	id, err := it.DocID()
	require.NoError(t, err)
	assert.Equal(t, domain.DocID(1), id)

	doc, err := it.Document()
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), doc.Data())
}

func TestMSetIterator_EqualAcrossEquivalentRuns(t *testing.T) {
	db := newCorpus(t, "a", "a")
	enq := NewEnquire(db.ReadOnly())
	enq.SetQuery(NewTerm("a"))

	m1, err := enq.GetMSet(0, 10, 0, nil, nil)
	require.NoError(t, err)
	m2, err := enq.GetMSet(0, 10, 0, nil, nil)
	require.NoError(t, err)
	b1, b2 := m1.Begin(), m2.Begin()
	assert.True(t, b1.Equal(&b2))
	e1 := m1.End()
	assert.False(t, b1.Equal(&e1))

	_, err = db.AddDocument(NewDocument())
	require.NoError(t, err)
	m3, err := enq.GetMSet(0, 10, 0, nil, nil)
	require.NoError(t, err)
	b3 := m3.Begin()
	assert.False(t, b1.Equal(&b3))
}

func TestGetMSet_RelevanceFeedback(t *testing.T) {
	db := newCorpus(t, "apple pie", "apple tart", "apple crumble")
	enq := NewEnquire(db.ReadOnly())
	q, err := NewQuery(OpOr, NewTerm("apple"), NewTerm("tart"))
	require.NoError(t, err)
	enq.SetQuery(q)

	m, err := enq.GetMSet(0, 10, 0, NewRSet(2), nil)
	require.NoError(t, err)
	ids := msetIDs(t, m)
	require.Len(t, ids, 3)
	assert.Equal(t, domain.DocID(2), ids[0])
}

func TestGetESet(t *testing.T) {
	db := newCorpus(t, "the quick brown fox", "the lazy dog", "quick quick fox jumps")
	enq := NewEnquire(db.ReadOnly())
	enq.SetQuery(NewTerm("fox"))

	es, err := enq.GetESet(10, NewRSet(1), 0, nil, 0)
	require.NoError(t, err)
	var terms []string
	for it, end := es.Begin(), es.End(); !it.Equal(&end); {
		term, err := it.Term()
		require.NoError(t, err)
		terms = append(terms, term)
		require.NoError(t, it.Next())
	}
	assert.Equal(t, []string{"brown", "quick", "the"}, terms)

	t.Run("include query terms", func(t *testing.T) {
		es, err := enq.GetESet(10, NewRSet(1), ExpandIncludeQueryTerms, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, 4, es.Size())
	})

	t.Run("decider", func(t *testing.T) {
		es, err := enq.GetESet(10, NewRSet(1), 0, prefixKeeper("q"), 0)
		require.NoError(t, err)
		require.Equal(t, 1, es.Size())
		assert.Equal(t, "quick", es.Items()[0].Term)
	})

	t.Run("empty rset", func(t *testing.T) {
		es, err := enq.GetESet(10, NewRSet(), 0, nil, 0)
		require.NoError(t, err)
		assert.True(t, es.Empty())
	})

	t.Run("min weight", func(t *testing.T) {
		es, err := enq.GetESet(10, NewRSet(1), 0, nil, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, es.Size())
	})
}

func TestRSet(t *testing.T) {
	r := NewRSet(3, 1, 0)
	assert.Equal(t, 2, r.Size())
	assert.True(t, r.Contains(3))
	assert.Equal(t, []domain.DocID{1, 3}, r.IDs())
	r.RemoveDocument(3)
	assert.False(t, r.Contains(3))
	r.RemoveDocument(1)
	assert.True(t, r.Empty())
}
