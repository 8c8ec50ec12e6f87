package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"lodestar/internal/domain/models"
	"lodestar/internal/domain/services"
)

// capsKeyPrefix namespaces effective-capability cache entries.
const capsKeyPrefix = "authz:caps"

// RedisCapabilityCache caches effective capability sets per (subject,
// folder) pair. Entries are short-lived and explicitly invalidated on grant
// and membership changes; capabilities are never cached across resources.
// Cache failures degrade to a miss: the grant store stays authoritative.
type RedisCapabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCapabilityCache creates a capability cache with the given TTL.
func NewRedisCapabilityCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) services.CapabilityCache {
	return &RedisCapabilityCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func capsKey(userID, folderID string) string {
	return fmt.Sprintf("%s:%s:%s", capsKeyPrefix, userID, folderID)
}

// Get returns the cached set for (userID, folderID), if present.
func (c *RedisCapabilityCache) Get(ctx context.Context, userID, folderID string) (models.CapabilitySet, bool) {
	data, err := c.client.Get(ctx, capsKey(userID, folderID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("capability cache read failed", "error", err)
		}
		return nil, false
	}

	var caps []models.Capability
	if err := json.Unmarshal(data, &caps); err != nil {
		c.logger.Warn("capability cache entry corrupt", "key", capsKey(userID, folderID), "error", err)
		return nil, false
	}

	return models.NewCapabilitySet(caps...), true
}

// Set stores the set for (userID, folderID). Best-effort.
func (c *RedisCapabilityCache) Set(ctx context.Context, userID, folderID string, caps models.CapabilitySet) {
	data, err := json.Marshal(caps.Slice())
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, capsKey(userID, folderID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("capability cache write failed", "error", err)
	}
}

// InvalidateFolder drops every subject's cached set for the folder. Called
// on grant and revoke.
func (c *RedisCapabilityCache) InvalidateFolder(ctx context.Context, folderID string) {
	c.deleteMatching(ctx, fmt.Sprintf("%s:*:%s", capsKeyPrefix, folderID))
}

// InvalidateUser drops the user's cached sets on every folder. Called on
// team membership change.
func (c *RedisCapabilityCache) InvalidateUser(ctx context.Context, userID string) {
	c.deleteMatching(ctx, fmt.Sprintf("%s:%s:*", capsKeyPrefix, userID))
}

func (c *RedisCapabilityCache) deleteMatching(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("capability cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("capability cache scan failed", "pattern", pattern, "error", err)
	}
}
