package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

func TestMemoryStorePopulateOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	inserted, err := store.Populate(ctx, []faq.Entry{
		{ID: "0", Text: "a", Embedding: []float32{1, 0}},
		{ID: "1", Text: "b", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = store.Populate(ctx, []faq.Entry{{ID: "0", Text: "again", Embedding: []float32{1, 0}}})
	require.NoError(t, err)
	require.False(t, inserted)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestMemoryStoreAddAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	max, err := store.MaxID(ctx)
	require.NoError(t, err)
	require.Zero(t, max)

	require.NoError(t, store.Add(ctx, []faq.Entry{
		{ID: "1", Text: "shipping", Embedding: []float32{1, 0, 0}},
		{ID: "5", Text: "refunds", Embedding: []float32{0, 1, 0}},
	}))
	require.ErrorIs(t, store.Add(ctx, []faq.Entry{{ID: "5", Embedding: []float32{0, 0, 1}}}), ErrDuplicateID)

	max, err = store.MaxID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), max)

	matches, err := store.Query(ctx, []float32{0.1, 0.9, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "refunds", matches[0].Entry.Text)
}
