package bridge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/engine"
)

// newIndex indexes each text as one document, ids 1..n.
func newIndex(t *testing.T, texts ...string) *engine.WritableDatabase {
	t.Helper()
	w := engine.NewInMemory()
	addTexts(t, w, texts...)
	return w
}

func addTexts(t *testing.T, w *engine.WritableDatabase, texts ...string) {
	t.Helper()
	g := engine.NewTermGenerator()
	for _, text := range texts {
		doc := engine.NewDocument()
		doc.SetData([]byte(text))
		g.SetDocument(doc)
		require.NoError(t, g.IndexText(text, 1, ""))
		_, err := w.AddDocument(doc)
		require.NoError(t, err)
	}
}

// uniformTexts returns n documents that all match "common" equally.
func uniformTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("common w%d", i+1)
	}
	return texts
}

func descendingIDs(from, to int) []domain.DocID {
	var ids []domain.DocID
	for id := from; id >= to; id-- {
		ids = append(ids, domain.DocID(id))
	}
	return ids
}

func newSearcher(t *testing.T, w *engine.WritableDatabase) *Searcher {
	t.Helper()
	view, err := WritableAsReadOnly(w)
	require.NoError(t, err)
	s, err := NewSearcher(view)
	require.NoError(t, err)
	return s
}
