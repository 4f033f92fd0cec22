package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"sika/internal/log"
)

const responseTTL = 60 * time.Second

// ResponseCache caches serialized report responses in Redis so that multiple
// API instances share one invalidation domain. It is optional: a nil
// *ResponseCache is a no-op on every method.
type ResponseCache struct {
	client *redis.Client
	logger *log.Logger
}

// NewResponseCache connects to Redis at the given URL. An empty URL disables
// caching and returns nil without error.
func NewResponseCache(url string, logger *log.Logger) (*ResponseCache, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		// Accept bare host:port as well.
		opt = &redis.Options{Addr: url}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &ResponseCache{
		client: client,
		logger: logger.WithComponent(log.ComponentCache),
	}, nil
}

// GetJSON loads a cached value into v. A miss, decode failure, or Redis error
// all report false; callers fall through to the database.
func (c *ResponseCache) GetJSON(ctx context.Context, key string, v any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.WarnContext(ctx, "Dropping undecodable cache entry", "key", key, log.FieldError, err.Error())
		c.client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores v under key with the response TTL. Failures are logged and
// swallowed; caching is best effort.
func (c *ResponseCache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.SetEx(ctx, key, data, responseTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "Cache write failed", "key", key, log.FieldError, err.Error())
	}
}

// InvalidateOwner removes every cached response belonging to an owner.
func (c *ResponseCache) InvalidateOwner(ctx context.Context, ownerID string) {
	if c == nil {
		return
	}
	pattern := OwnerPrefix(ownerID) + "*"
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WarnContext(ctx, "Cache invalidation scan failed", log.FieldOwner, ownerID, log.FieldError, err.Error())
		return
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}

func (c *ResponseCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// OwnerPrefix is the key prefix shared by all of an owner's cached responses.
func OwnerPrefix(ownerID string) string {
	return "sika:" + ownerID + ":"
}

// SummariesKey caches the monthly summaries listing.
func SummariesKey(ownerID string) string {
	return OwnerPrefix(ownerID) + "summaries"
}

// CategoriesKey caches a category breakdown for a date window.
func CategoriesKey(ownerID, start, end string) string {
	return fmt.Sprintf("%scategories:%s:%s", OwnerPrefix(ownerID), start, end)
}

// TrendsKey caches trend calculations.
func TrendsKey(ownerID string) string {
	return OwnerPrefix(ownerID) + "trends"
}
