package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Cache = (*RedisCache)(nil)

var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCache stores entries as plain string keys "<namespace>:<key>".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to url and verifies the connection.
// A zero ttl stores entries without expiry.
func NewRedisCache(url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient wraps an existing client. Close closes the client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, ns.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", ns, err)
	}
	return value, nil
}

func (c *RedisCache) Set(ctx context.Context, ns Namespace, key string, value []byte) error {
	if err := c.client.Set(ctx, ns.key(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", ns, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, ns Namespace, key string) error {
	if err := c.client.Del(ctx, ns.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", ns, err)
	}
	return nil
}

func (c *RedisCache) CompareAndDelete(ctx context.Context, ns Namespace, key string, expected []byte) (bool, error) {
	deleted, err := compareAndDelete.Run(ctx, c.client, []string{ns.key(key)}, expected).Int64()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-delete %s: %w", ns, err)
	}
	return deleted == 1, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying connection for stores sharing the same pool.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}
