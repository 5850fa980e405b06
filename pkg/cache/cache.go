package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL constants
const (
	TTLAnalytics  = 5 * time.Minute  // post metrics snapshots
	TTLCredential = 10 * time.Minute // resolved ads credentials (change rarely)
	TTLShort      = 1 * time.Minute
	TTLDefault    = 5 * time.Minute
)

// Cache key prefixes
const (
	PrefixAnalytics  = "analytics:"
	PrefixCredential = "credential:"
	PrefixAdsConfig  = "adsconfig:"
)

// Service is the Redis cache service interface
type Service interface {
	// Generic operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Analytics snapshot cache
	GetAnalytics(ctx context.Context, userID, platform, postID string, dest interface{}) error
	SetAnalytics(ctx context.Context, userID, platform, postID string, data interface{}) error
	InvalidateAnalytics(ctx context.Context, userID, platform, postID string) error

	// Resolved ads-config cache
	GetAdsConfig(ctx context.Context, userID string, dest interface{}) error
	SetAdsConfig(ctx context.Context, userID string, data interface{}) error
	InvalidateUser(ctx context.Context, userID string) error

	// Utility
	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache is the Redis-backed implementation
type redisCache struct {
	client *redis.Client
}

// NewService creates a new cache service
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable reports whether Redis is connected
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping tests the Redis connection
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get reads a value from the cache into dest
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return fmt.Errorf("redis not available")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set stores a value in the cache
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // no Redis, silently skip
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys from the cache
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Exists checks whether a key is cached
func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

func analyticsKey(userID, platform, postID string) string {
	return PrefixAnalytics + userID + ":" + platform + "_" + postID
}

func (c *redisCache) GetAnalytics(ctx context.Context, userID, platform, postID string, dest interface{}) error {
	return c.Get(ctx, analyticsKey(userID, platform, postID), dest)
}

func (c *redisCache) SetAnalytics(ctx context.Context, userID, platform, postID string, data interface{}) error {
	return c.Set(ctx, analyticsKey(userID, platform, postID), data, TTLAnalytics)
}

func (c *redisCache) InvalidateAnalytics(ctx context.Context, userID, platform, postID string) error {
	return c.Delete(ctx, analyticsKey(userID, platform, postID))
}

func adsConfigKey(userID string) string {
	return PrefixAdsConfig + userID
}

func (c *redisCache) GetAdsConfig(ctx context.Context, userID string, dest interface{}) error {
	return c.Get(ctx, adsConfigKey(userID), dest)
}

func (c *redisCache) SetAdsConfig(ctx context.Context, userID string, data interface{}) error {
	return c.Set(ctx, adsConfigKey(userID), data, TTLCredential)
}

// InvalidateUser drops every cached entry derived from a user's credentials.
// Called after a credential save so stale tokens are never resolved.
func (c *redisCache) InvalidateUser(ctx context.Context, userID string) error {
	if c.client == nil {
		return nil
	}
	keys := []string{adsConfigKey(userID)}

	iter := c.client.Scan(ctx, 0, PrefixAnalytics+userID+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.client.Del(ctx, keys...).Err()
}
