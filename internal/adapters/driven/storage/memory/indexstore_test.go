package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

func TestIndexStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewIndexStore()

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrDatabaseNotFound)
	assert.ErrorIs(t, store.Apply(ctx, domain.ChangeSet{}), domain.ErrDatabaseNotFound)

	require.NoError(t, store.Reset(ctx, "u1"))
	require.NoError(t, store.Apply(ctx, domain.ChangeSet{
		LastDocID: 2,
		Upserts: []domain.StoredDocument{
			{ID: 2, Data: []byte("b"), Terms: []domain.StoredTerm{{Term: "x", Wdf: 1, Positions: []domain.TermPos{1}}}},
			{ID: 1, Data: []byte("a"), Values: map[domain.Slot][]byte{0: []byte("v")}},
		},
		Metadata:  map[string]string{"k": "v"},
		Spellings: map[string]int{"x": 1},
		Synonyms:  map[string][]string{"x": {"y"}},
	}))
	assert.Equal(t, 1, store.Applied())

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", snap.UUID)
	require.Len(t, snap.Documents, 2)
	assert.Equal(t, domain.DocID(1), snap.Documents[0].ID)
	assert.Equal(t, []byte("v"), snap.Documents[0].Values[0])
	assert.Equal(t, []domain.TermPos{1}, snap.Documents[1].Terms[0].Positions)

	t.Run("snapshots are copies", func(t *testing.T) {
		snap.Documents[1].Terms[0].Positions[0] = 99
		snap.Metadata["k"] = "changed"
		again, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.TermPos(1), again.Documents[1].Terms[0].Positions[0])
		assert.Equal(t, "v", again.Metadata["k"])
	})

	require.NoError(t, store.Apply(ctx, domain.ChangeSet{
		LastDocID: 1,
		Deletes:   []domain.DocID{2},
		Metadata:  map[string]string{"k": ""},
		Spellings: map[string]int{"x": 0},
		Synonyms:  map[string][]string{"x": nil},
	}))
	snap, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DocID(2), snap.LastDocID)
	require.Len(t, snap.Documents, 1)
	assert.Empty(t, snap.Metadata)
	assert.Empty(t, snap.Spellings)
	assert.Empty(t, snap.Synonyms)

	require.NoError(t, store.Reset(ctx, "u2"))
	snap, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u2", snap.UUID)
	assert.Empty(t, snap.Documents)
	assert.NoError(t, store.Close())
}
