package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// DeterministicEmbedder avoids network calls by hashing words into a fixed
// number of buckets. Texts sharing words land close together under cosine.
type DeterministicEmbedder struct {
	dim int
}

// NewDeterministicEmbedder constructs the embedder.
func NewDeterministicEmbedder(dim int) *DeterministicEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &DeterministicEmbedder{dim: dim}
}

// Embed converts each text into a normalized bag-of-words vector.
func (e *DeterministicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

func (e *DeterministicEmbedder) vector(text string) []float32 {
	vector := make([]float32, e.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		hash := fnv.New64a()
		_, _ = hash.Write([]byte(word))
		seed := hash.Sum64()
		sign := float32(1)
		if seed&1 == 1 {
			sign = -1
		}
		vector[(seed>>1)%uint64(e.dim)] += sign
	}
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}
	scale := float32(1 / math.Sqrt(norm))
	for j := range vector {
		vector[j] *= scale
	}
	return vector
}

var _ faq.Embedder = (*DeterministicEmbedder)(nil)
