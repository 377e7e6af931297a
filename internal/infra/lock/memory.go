package lock

import (
	"context"
	"sync"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

// MemoryLocker serializes holders of the same key within one process.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewMemoryLocker constructs the locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

// Acquire blocks until key is free or ctx is done.
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	slot := l.slot(key)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-slot })
		return nil
	}, nil
}

func (l *MemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	return slot
}

var _ faq.Locker = (*MemoryLocker)(nil)
