package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func termsOf(doc *Document) []string {
	var out []string
	list := doc.TermList()
	for it, end := list.Begin(), list.End(); !it.Equal(&end); _ = it.Next() {
		term, _ := it.Term()
		out = append(out, term)
	}
	return out
}

func TestTermGenerator_Plain(t *testing.T) {
	g := NewTermGenerator()
	doc := NewDocument()
	g.SetDocument(doc)

	require.NoError(t, g.IndexText("The Quick fox, the end.", 1, ""))
	assert.Equal(t, []string{"end", "fox", "quick", "the"}, termsOf(doc))
	assert.Equal(t, domain.TermPos(5), g.Termpos())

	pl, err := doc.Positions("the")
	require.NoError(t, err)
	assert.Equal(t, 2, pl.Len())

	g.IncreaseTermpos(100)
	require.NoError(t, g.IndexText("title words", 1, "S"))
	pl, err = doc.Positions("Stitle")
	require.NoError(t, err)
	it := pl.Begin()
	pos, err := it.Position()
	require.NoError(t, err)
	assert.Equal(t, domain.TermPos(106), pos)
}

func TestTermGenerator_NoDocument(t *testing.T) {
	g := NewTermGenerator()
	err := g.IndexText("x", 1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestTermGenerator_WithoutPositions(t *testing.T) {
	g := NewTermGenerator()
	doc := NewDocument()
	g.SetDocument(doc)
	require.NoError(t, g.IndexTextWithoutPositions("a a b", 1, ""))
	pl, err := doc.Positions("a")
	require.NoError(t, err)
	assert.Equal(t, 0, pl.Len())
	assert.Equal(t, uint32(3), doc.Length())
}

func TestTermGenerator_Stemming(t *testing.T) {
	stem, err := NewStem("english")
	require.NoError(t, err)

	tests := []struct {
		strategy domain.StemStrategy
		want     []string
	}{
		{domain.StemNone, []string{"2024", "running"}},
		{domain.StemSome, []string{"2024", "Zrun", "running"}},
		{domain.StemAll, []string{"2024", "run"}},
		{domain.StemAllZ, []string{"2024", "Zrun"}},
	}
	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			g := NewTermGenerator()
			g.SetStemmer(stem)
			g.SetStemmingStrategy(tt.strategy)
			doc := NewDocument()
			g.SetDocument(doc)
			require.NoError(t, g.IndexText("running 2024", 1, ""))
			assert.Equal(t, tt.want, termsOf(doc))
		})
	}
}

func TestTermGenerator_Stopper(t *testing.T) {
	t.Run("all drops stopwords", func(t *testing.T) {
		g := NewTermGenerator()
		g.SetStopper(NewSimpleStopper("the"))
		doc := NewDocument()
		g.SetDocument(doc)
		require.NoError(t, g.IndexText("the cat", 1, ""))
		assert.Equal(t, []string{"cat"}, termsOf(doc))
		pl, err := doc.Positions("cat")
		require.NoError(t, err)
		it := pl.Begin()
		pos, err := it.Position()
		require.NoError(t, err)
		assert.Equal(t, domain.TermPos(2), pos)
	})

	t.Run("stemmed keeps stopwords unstemmed", func(t *testing.T) {
		stem, err := NewStem("english")
		require.NoError(t, err)
		g := NewTermGenerator()
		g.SetStemmer(stem)
		g.SetStopper(NewSimpleStopper("was"))
		g.SetStopperStrategy(domain.StopStemmed)
		doc := NewDocument()
		g.SetDocument(doc)
		require.NoError(t, g.IndexText("was", 1, ""))
		assert.Equal(t, []string{"was"}, termsOf(doc))
	})

	t.Run("errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		g := NewTermGenerator()
		g.SetStopper(stopFunc(func(string) (bool, error) { return false, boom }))
		g.SetDocument(NewDocument())
		assert.ErrorIs(t, g.IndexText("x", 1, ""), boom)
	})
}

func TestTermGenerator_Spelling(t *testing.T) {
	db := NewInMemory()
	defer db.Close()
	g := NewTermGenerator()
	g.SetDatabase(db)
	g.SetFlags(TermGenSpelling)
	g.SetDocument(NewDocument())
	require.NoError(t, g.IndexText("search engine", 1, ""))
	require.NoError(t, g.IndexText("ignored", 1, "S"))

	s, err := db.SpellingSuggestion("serch", 1)
	require.NoError(t, err)
	assert.Equal(t, "search", s)
	s, err = db.SpellingSuggestion("ignore", 1)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestStem(t *testing.T) {
	s, err := NewStem("English")
	require.NoError(t, err)
	assert.Equal(t, "english", s.Language())
	assert.Equal(t, "connect", s.Stem("connections"))
	assert.Equal(t, "Stem(english)", s.String())

	none, err := NewStem("none")
	require.NoError(t, err)
	assert.True(t, none.IsNone())
	assert.Equal(t, "running", none.Stem("running"))

	var nilStem *Stem
	assert.True(t, nilStem.IsNone())

	_, err = NewStem("klingon")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, StemLanguages(), "none")
}
