package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLockerExcludesSameKey(t *testing.T) {
	locker := NewMemoryLocker()
	var (
		wg      sync.WaitGroup
		holders int32
		maxSeen int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "populate:faq")
			if err != nil {
				return
			}
			n := atomic.AddInt32(&holders, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&holders, -1)
			_ = release(context.Background())
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), maxSeen)
}

func TestMemoryLockerHonorsContext(t *testing.T) {
	locker := NewMemoryLocker()
	release, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locker.Acquire(context.Background(), "other")
	require.NoError(t, err)
	require.NoError(t, other(context.Background()))

	require.NoError(t, release(context.Background()))
	require.NoError(t, release(context.Background()))
	again, err := locker.Acquire(context.Background(), "k")
	require.NoError(t, err)
	require.NoError(t, again(context.Background()))
}

func TestValkeyLockerDefaults(t *testing.T) {
	l := NewValkeyLocker(nil, "", 0)
	require.Equal(t, defaultTTL, l.ttl)
	require.Equal(t, "faqstore:lock:populate:faq", l.lockKey("populate:faq"))
}
