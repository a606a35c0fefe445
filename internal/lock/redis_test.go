package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisForTest(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := Dial(context.Background(), addr, "", 0)
	if err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Second, nil)
}

func TestRedisLock(t *testing.T) {
	r := redisForTest(t)
	key := "test:" + t.Name()

	unlock, err := r.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = r.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := r.Lock(context.Background(), key)
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockExpires(t *testing.T) {
	r := redisForTest(t)
	key := "test:" + t.Name()

	_, err := r.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	unlock, err := r.Lock(ctx, key)
	require.NoError(t, err)
	unlock()
}
