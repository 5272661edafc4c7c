package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newCorpus indexes each text as one document, ids 1..n, without stemming.
func newCorpus(t *testing.T, texts ...string) *WritableDatabase {
	t.Helper()
	db := NewInMemory()
	g := NewTermGenerator()
	for _, text := range texts {
		doc := NewDocument()
		doc.SetData([]byte(text))
		g.SetDocument(doc)
		require.NoError(t, g.IndexText(text, 1, ""))
		_, err := db.AddDocument(doc)
		require.NoError(t, err)
	}
	return db
}
