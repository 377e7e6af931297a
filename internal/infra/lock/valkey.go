package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

const (
	defaultTTL       = 5 * time.Minute
	defaultRetryWait = 200 * time.Millisecond
)

// ErrLockLost is returned on release when the lock expired and another owner
// took it over.
var ErrLockLost = errors.New("lock: ownership lost before release")

// releaseScript deletes the key only while it still holds our token.
var releaseScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ValkeyLocker is a single-instance Valkey lock shared by every process that
// populates the same collection.
type ValkeyLocker struct {
	client    valkey.Client
	prefix    string
	ttl       time.Duration
	retryWait time.Duration
}

// NewValkeyLocker constructs the locker. ttl bounds how long a crashed holder
// can block others.
func NewValkeyLocker(client valkey.Client, prefix string, ttl time.Duration) *ValkeyLocker {
	if prefix == "" {
		prefix = "faqstore"
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ValkeyLocker{client: client, prefix: prefix, ttl: ttl, retryWait: defaultRetryWait}
}

// Acquire polls SET NX until the key is free or ctx is done.
func (l *ValkeyLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	lockKey := l.lockKey(key)
	token := uuid.NewString()
	for {
		err := l.client.Do(ctx, l.client.B().Set().Key(lockKey).Value(token).Nx().PxMilliseconds(l.ttl.Milliseconds()).Build()).Error()
		if err == nil {
			break
		}
		if !valkey.IsValkeyNil(err) {
			return nil, fmt.Errorf("acquire %s: %w", lockKey, err)
		}
		timer := time.NewTimer(l.retryWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return func(ctx context.Context) error {
		deleted, err := releaseScript.Exec(ctx, l.client, []string{lockKey}, []string{token}).AsInt64()
		if err != nil {
			return fmt.Errorf("release %s: %w", lockKey, err)
		}
		if deleted == 0 {
			return ErrLockLost
		}
		return nil
	}, nil
}

func (l *ValkeyLocker) lockKey(key string) string {
	return fmt.Sprintf("%s:lock:%s", l.prefix, key)
}

var _ faq.Locker = (*ValkeyLocker)(nil)
