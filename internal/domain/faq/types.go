package faq

import (
	"errors"
	"time"
)

// NoResultsMessage is returned by SemanticSearch when nothing matched.
const NoResultsMessage = "No relevant FAQ found."

// DefaultTopK is the number of matches returned when callers pass k <= 0.
const DefaultTopK = 2

const resultSeparator = "\n\n"

var (
	// ErrMissingField reports a dataset record without the configured question or answer field.
	ErrMissingField = errors.New("dataset record missing field")
	// ErrEmbeddingCount reports a provider that returned a different number of vectors than inputs.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)

// Entry is one stored FAQ: the question and answer text plus its embedding.
type Entry struct {
	ID        string
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// Match is an entry returned by a similarity query.
type Match struct {
	Entry    Entry
	Distance float64
}

// Record is a raw dataset row keyed by field name.
type Record map[string]any

// TrendingQuery represents a frequently searched query.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
