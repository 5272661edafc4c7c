package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

func TestWritableAsReadOnly(t *testing.T) {
	w := newIndex(t, "alpha")
	view, err := WritableAsReadOnly(w)
	require.NoError(t, err)
	assert.True(t, view.IsView())
	assert.Equal(t, w.UUID(), view.UUID())

	addTexts(t, w, "beta")
	n, err := view.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, view.Close())
	assert.False(t, w.IsClosed())

	require.NoError(t, w.Close())
	_, err = WritableAsReadOnly(w)
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)

	_, err = WritableAsReadOnly(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWritableAsReadOnly_ClosedWriterInvalidatesView(t *testing.T) {
	w := newIndex(t, "alpha")
	view, err := WritableAsReadOnly(w)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = view.DocCount()
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)
}

func TestCopyDatabase(t *testing.T) {
	w := newIndex(t, "alpha", "beta")
	view, err := WritableAsReadOnly(w)
	require.NoError(t, err)

	c, err := CopyDatabase(view)
	require.NoError(t, err)
	addTexts(t, w, "gamma")
	addTexts(t, c, "delta", "epsilon")

	n, err := w.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = c.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	ok, err := c.TermExists("gamma")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, w.Close())
	n, err = c.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = CopyDatabase(view)
	assert.ErrorIs(t, err, domain.ErrDatabaseClosed)
}

func TestCopyDatabase_CursorsDoNotMatchOriginal(t *testing.T) {
	w := newIndex(t, uniformTexts(3)...)
	view, err := WritableAsReadOnly(w)
	require.NoError(t, err)
	c, err := CopyDatabase(view)
	require.NoError(t, err)
	assert.NotEqual(t, w.UUID(), c.UUID())

	a := executeCommon(t, newSearcher(t, w)).Begin()
	b := executeCommon(t, newSearcher(t, c)).Begin()
	ida, err := a.Value()
	require.NoError(t, err)
	idb, err := b.Value()
	require.NoError(t, err)
	assert.Equal(t, ida, idb)
	assert.False(t, a.Equal(b))
}

func TestCopyDocument(t *testing.T) {
	doc := engine.NewDocument()
	doc.SetData([]byte("payload"))
	doc.AddTerm("alpha", 1)
	doc.AddValue(0, []byte("v"))

	c := CopyDocument(doc)
	c.AddTerm("beta", 1)
	c.AddValue(0, []byte("changed"))

	assert.False(t, doc.HasTerm("beta"))
	assert.Equal(t, []byte("v"), doc.Value(0))
	assert.Equal(t, "payload", string(c.Data()))
	assert.Nil(t, CopyDocument(nil))
}

func TestCopyQuery(t *testing.T) {
	q, err := engine.NewQuery(engine.OpAnd, engine.NewTerm("a"), engine.NewTerm("b"))
	require.NoError(t, err)

	c := CopyQuery(q)
	assert.Equal(t, q.String(), c.String())
	assert.NotSame(t, q, c)
	assert.NotSame(t, q.Subqueries()[0], c.Subqueries()[0])
	assert.Nil(t, CopyQuery(nil))
}

func TestDocumentView(t *testing.T) {
	doc := engine.NewDocument()
	doc.SetData([]byte("data"))
	doc.AddTerm("alpha", 1)
	doc.AddValue(2, []byte("x"))
	v := DocumentView{doc: doc}

	assert.Equal(t, []byte("data"), v.Data())
	assert.Equal(t, []byte("x"), v.Value(2))
	assert.True(t, v.HasTerm("alpha"))

	begin, end := v.Terms()
	terms, err := CollectTerms(begin, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, terms)

	c := v.Copy()
	c.AddTerm("beta", 1)
	assert.False(t, v.HasTerm("beta"))
}
