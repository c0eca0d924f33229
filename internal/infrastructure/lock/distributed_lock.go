package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// Redis distributed lock
// ============================================================================
//
// Acquire: SET key owner NX PX ttl
// Release: compare-and-delete in Lua so a holder whose lock already expired
// cannot delete the lock of the next holder.
//
// The locks here only reduce duplicate work (e.g. two gateway verify calls
// for one reference). Ledger correctness comes from the conditional UPDATEs
// in the repository layer, never from these locks.

var ErrLockFailed = errors.New("could not acquire distributed lock")

const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock is non-blocking.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock retries TryLock every retryInterval, at most maxRetries times.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

func (l *DistributedLock) Unlock(ctx context.Context) error {
	return l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Err()
}

// NewReferenceLock serialises reconciliation work on one gateway reference.
func NewReferenceLock(client *redis.Client, reference, owner string) *DistributedLock {
	return NewDistributedLock(client, fmt.Sprintf("deposit:lock:ref:%s", reference), owner, 30*time.Second)
}

// NewUserLock serialises order creation for one user.
func NewUserLock(client *redis.Client, userID int64, owner string) *DistributedLock {
	return NewDistributedLock(client, fmt.Sprintf("ledger:lock:user:%d", userID), owner, 30*time.Second)
}
