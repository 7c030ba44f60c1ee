//go:build integration

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBackend_Integration(t *testing.T) {
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	prefix := "storefront:test:" + time.Now().Format("150405.000000") + ":"
	b := NewRedisBackend(client, prefix, time.Minute)
	testBackend(t, b)

	t.Run("TTL follows expiry", func(t *testing.T) {
		id := &Identity{Actor: ActorAdmin, ID: "root", ExpiresAt: time.Now().Add(10 * time.Second)}
		require.NoError(t, b.Save(ctx, id))
		ttl, err := client.TTL(ctx, prefix+string(ActorAdmin)).Result()
		require.NoError(t, err)
		assert.LessOrEqual(t, ttl, 10*time.Second)
		assert.Greater(t, ttl, time.Duration(0))
		require.NoError(t, b.Delete(ctx, ActorAdmin))
	})
}
