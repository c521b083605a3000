package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	keys map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{keys: map[string]string{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[keys[0]] == args[0] {
		delete(f.keys, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestTryLockIsExclusive(t *testing.T) {
	store := newFakeRedis()
	locker := NewLocker(store)
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "dre:job", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = locker.TryLock(ctx, "dre:job", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// a foreign token leaves the lease in place
	require.NoError(t, locker.Release(ctx, "dre:job", "someone-else"))
	_, ok, _ = locker.TryLock(ctx, "dre:job", time.Minute)
	assert.False(t, ok)

	require.NoError(t, locker.Release(ctx, "dre:job", token))
	_, ok, err = locker.TryLock(ctx, "dre:job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTryLockValidatesInput(t *testing.T) {
	var unset *Locker
	_, _, err := unset.TryLock(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, unset.Release(context.Background(), "k", "t"))
	assert.Nil(t, NewLocker(nil))

	locker := NewLocker(newFakeRedis())
	_, _, err = locker.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, _, err = locker.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}
