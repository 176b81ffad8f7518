package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRunLock_Integration(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") != "true" {
		t.Skip("Skipping integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx := context.Background()
	first := &RedisRunLock{client: client, token: "first"}
	second := &RedisRunLock{client: client, token: "second"}

	ok, err := first.Acquire(ctx, "reclassify-test", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx, "reclassify-test", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Only the holder can release.
	require.NoError(t, second.Release(ctx, "reclassify-test"))
	ok, err = second.Acquire(ctx, "reclassify-test", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx, "reclassify-test"))
	ok, err = second.Acquire(ctx, "reclassify-test", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release(ctx, "reclassify-test"))
}
