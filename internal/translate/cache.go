package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = time.Hour

// Cache provides Redis-backed caching of translation fan-outs so repeated
// submissions of the same text skip the service round-trips.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ResultCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "translations:" + hex.EncodeToString(sum[:])
}

func (c *Cache) Get(ctx context.Context, text string) ([]Text, error) {
	data, err := c.client.Get(ctx, c.key(text)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var texts []Text
	if err := json.Unmarshal(data, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

func (c *Cache) Set(ctx context.Context, text string, texts []Text) error {
	data, err := json.Marshal(texts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(text), data, c.ttl).Err()
}
