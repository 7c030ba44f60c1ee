package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores identities as JSON strings under
// <prefix><actor>. Identities with an expiry get a matching TTL;
// otherwise the configured default TTL applies (zero means no TTL).
type RedisBackend struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisBackend creates a RedisBackend on an existing client.
func NewRedisBackend(client redis.Cmdable, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "storefront:session:"
	}
	return &RedisBackend{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (b *RedisBackend) key(actor Actor) string {
	return b.prefix + string(actor)
}

// Load implements Backend.
func (b *RedisBackend) Load(ctx context.Context, actor Actor) (*Identity, error) {
	raw, err := b.client.Get(ctx, b.key(actor)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	id, err := decodeIdentity(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return id, nil
}

// Save implements Backend.
func (b *RedisBackend) Save(ctx context.Context, id *Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ttl := b.ttl
	if !id.ExpiresAt.IsZero() {
		if until := id.ExpiresAt.Sub(b.now()); until > 0 {
			ttl = until
		}
	}
	if err := b.client.Set(ctx, b.key(id.Actor), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in redis: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (b *RedisBackend) Delete(ctx context.Context, actor Actor) error {
	if err := b.client.Del(ctx, b.key(actor)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

var _ Backend = (*RedisBackend)(nil)
