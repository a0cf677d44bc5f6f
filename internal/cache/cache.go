package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deepscan/deepscan/pkg/models"
)

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	SetAnalysis(ctx context.Context, session string, payload *models.RawPayload, ttl time.Duration) error
	GetAnalysis(ctx context.Context, session string) (*models.RawPayload, bool, error)
	SetImageMetadata(ctx context.Context, session string, meta *models.ImageMetadata, ttl time.Duration) error
	GetImageMetadata(ctx context.Context, session string) (*models.ImageMetadata, bool, error)
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Close releases the underlying Redis connections.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// SetAnalysis stores a session's raw analysis slot. Writing replaces any
// previous slot for the session; last write wins.
func (c *RedisCache) SetAnalysis(ctx context.Context, session string, payload *models.RawPayload, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding analysis slot: %w", err)
	}
	return c.client.Set(ctx, AnalysisKey(session), data, ttl).Err()
}

// GetAnalysis reads a session's raw analysis slot. A missing slot is not an
// error; the second return reports presence.
func (c *RedisCache) GetAnalysis(ctx context.Context, session string) (*models.RawPayload, bool, error) {
	val, err := c.client.Get(ctx, AnalysisKey(session)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var payload models.RawPayload
	if err := json.Unmarshal(val, &payload); err != nil {
		return nil, false, fmt.Errorf("decoding analysis slot: %w", err)
	}
	return &payload, true, nil
}

func (c *RedisCache) SetImageMetadata(ctx context.Context, session string, meta *models.ImageMetadata, ttl time.Duration) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding image metadata: %w", err)
	}
	return c.client.Set(ctx, ImageMetadataKey(session), data, ttl).Err()
}

func (c *RedisCache) GetImageMetadata(ctx context.Context, session string) (*models.ImageMetadata, bool, error) {
	val, err := c.client.Get(ctx, ImageMetadataKey(session)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var meta models.ImageMetadata
	if err := json.Unmarshal(val, &meta); err != nil {
		return nil, false, fmt.Errorf("decoding image metadata: %w", err)
	}
	return &meta, true, nil
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
