package explain

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores finished explanations by request key.
type Cache interface {
	Get(ctx context.Context, key string) (text string, ok bool, err error)
	Set(ctx context.Context, key, text string) error
}

// RedisCache keeps explanations as plain strings under explain:{key}.
// Entries expire after the TTL plus up to 10% jitter.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRedisCache returns a cache on client. A non-positive ttl keeps
// entries forever.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	text, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, text string) error {
	return c.client.Set(ctx, c.key(key), text, c.ttlWithJitter()).Err()
}

func (c *RedisCache) key(key string) string {
	return "explain:" + key
}

func (c *RedisCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int64N(jitterMax+1))
}
