package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// ErrDuplicateID reports an insert whose id is already stored.
var ErrDuplicateID = errors.New("vectorstore: duplicate id")

// MemoryStore is an in-memory faq.VectorStore used for tests/dev. Nothing is persisted.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []faq.Entry
	byID    map[string]int
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Count implements faq.VectorStore.
func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// MaxID implements faq.VectorStore.
func (s *MemoryStore) MaxID(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var max int64
	for _, e := range s.entries {
		id, err := parseID(e.ID)
		if err != nil {
			return 0, err
		}
		if id > max {
			max = id
		}
	}
	return max, nil
}

// Populate implements faq.VectorStore.
func (s *MemoryStore) Populate(_ context.Context, entries []faq.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) > 0 {
		return false, nil
	}
	if err := s.insertLocked(entries); err != nil {
		return false, err
	}
	return true, nil
}

// Add implements faq.VectorStore.
func (s *MemoryStore) Add(_ context.Context, entries []faq.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(entries)
}

func (s *MemoryStore) insertLocked(entries []faq.Entry) error {
	for _, e := range entries {
		if _, exists := s.byID[e.ID]; exists {
			return fmt.Errorf("%w %q", ErrDuplicateID, e.ID)
		}
	}
	for _, e := range entries {
		clone := e
		clone.Embedding = append([]float32(nil), e.Embedding...)
		s.byID[e.ID] = len(s.entries)
		s.entries = append(s.entries, clone)
	}
	return nil
}

// Query implements faq.VectorStore.
func (s *MemoryStore) Query(_ context.Context, embedding []float32, k int) ([]faq.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nearest(embedding, s.entries, k)
}

// Close implements faq.VectorStore.
func (s *MemoryStore) Close() error { return nil }

var _ faq.VectorStore = (*MemoryStore)(nil)
