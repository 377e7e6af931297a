package faq

import (
	"context"
	"strconv"
	"sync"
)

// idAllocator hands out increasing numeric ids. The starting point is read
// from the store once; later ids come from the in-memory counter.
type idAllocator struct {
	mu     sync.Mutex
	loaded bool
	next   int64
	maxID  func(ctx context.Context) (int64, error)
}

func newIDAllocator(maxID func(ctx context.Context) (int64, error)) *idAllocator {
	return &idAllocator{maxID: maxID}
}

func (a *idAllocator) Next(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		current, err := a.maxID(ctx)
		if err != nil {
			return "", err
		}
		a.next = current + 1
		a.loaded = true
	}
	id := a.next
	a.next++
	return strconv.FormatInt(id, 10), nil
}

// Observe moves the counter past id when it has fallen behind.
func (a *idAllocator) Observe(id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded && a.next <= id {
		a.next = id + 1
	}
}
