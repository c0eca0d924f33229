package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestTryLockIsExclusive(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	first := NewReferenceLock(client, "PSK1", "owner-a")
	second := NewReferenceLock(client, "PSK1", "owner-b")

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Unlock(ctx))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockDoesNotReleaseForeignLock(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	holder := NewUserLock(client, 7, "holder")
	stranger := NewUserLock(client, 7, "stranger")

	ok, err := holder.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, stranger.Unlock(ctx))

	val, err := mr.Get("ledger:lock:user:7")
	require.NoError(t, err)
	assert.Equal(t, "holder", val)
}

func TestLockGivesUpAfterRetries(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	held := NewDistributedLock(client, "k", "a", time.Minute)
	ok, err := held.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	waiter := NewDistributedLock(client, "k", "b", time.Minute)
	err = waiter.Lock(ctx, time.Millisecond, 3)
	assert.ErrorIs(t, err, ErrLockFailed)
}

func TestLockExpires(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	l := NewDistributedLock(client, "exp", "a", time.Second)
	ok, err := l.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	other := NewDistributedLock(client, "exp", "b", time.Second)
	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
