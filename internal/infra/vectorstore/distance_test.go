package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

func TestCosineDistance(t *testing.T) {
	d, err := cosineDistance([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	require.InDelta(t, 0, d, 1e-9)

	d, err = cosineDistance([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	require.InDelta(t, 1, d, 1e-9)

	d, err = cosineDistance([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	require.InDelta(t, 2, d, 1e-9)

	d, err = cosineDistance([]float32{0, 0}, []float32{1, 0})
	require.NoError(t, err)
	require.Equal(t, 1.0, d)

	_, err = cosineDistance([]float32{1}, []float32{1, 2})
	require.Error(t, err)
}

func TestNearestOrdersByDistanceThenInsertion(t *testing.T) {
	candidates := []faq.Entry{
		{ID: "0", Embedding: []float32{0, 1}},
		{ID: "1", Embedding: []float32{1, 0}},
		{ID: "2", Embedding: []float32{2, 0}},
		{ID: "3", Embedding: []float32{1, 1}},
	}
	got, err := nearest([]float32{1, 0}, candidates, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "1", got[0].Entry.ID)
	require.Equal(t, "2", got[1].Entry.ID)
	require.Equal(t, "3", got[2].Entry.ID)

	none, err := nearest([]float32{1, 0}, nil, 3)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	vec := []float32{0.5, -1.25, 3e-7, 42}
	out, err := decodeEmbedding(encodeEmbedding(vec))
	require.NoError(t, err)
	require.Equal(t, vec, out)

	_, err = decodeEmbedding([]byte{1, 2, 3})
	require.Error(t, err)
}
