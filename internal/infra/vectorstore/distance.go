package vectorstore

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// cosineDistance returns 1 - cos(a, b). A zero-magnitude vector is treated as
// orthogonal to everything.
func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectorstore: dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
}

// nearest scores candidates against query and keeps the k closest. Candidates
// must be in insertion order; ties keep that order.
func nearest(query []float32, candidates []faq.Entry, k int) ([]faq.Match, error) {
	if k <= 0 || len(candidates) == 0 {
		return nil, nil
	}
	matches := make([]faq.Match, 0, len(candidates))
	for _, c := range candidates {
		dist, err := cosineDistance(query, c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", c.ID, err)
		}
		matches = append(matches, faq.Match{Entry: c, Distance: dist})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: non-numeric id %q", id)
	}
	return n, nil
}
