package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appaccess "github.com/veyra-hq/veyra/internal/application/access"
	"github.com/veyra-hq/veyra/internal/application/access/dto"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

const snapshotKeyPrefix = "veyra:snapshot"

var _ appaccess.SnapshotCache = (*RedisSnapshotCache)(nil)

// RedisSnapshotCache caches built session snapshots in Redis. Keys embed the
// org so an entitlement or grant change can invalidate a whole tenant with
// one scan.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

// NewRedisSnapshotCache creates a snapshot cache with the given TTL.
func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration, logger logger.Interface) *RedisSnapshotCache {
	return &RedisSnapshotCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func snapshotKey(orgID, userID uint) string {
	return fmt.Sprintf("%s:%d:%d", snapshotKeyPrefix, orgID, userID)
}

// Get returns the cached snapshot, or nil on a miss.
func (c *RedisSnapshotCache) Get(ctx context.Context, userID, orgID uint) (*dto.SnapshotResponse, error) {
	data, err := c.client.Get(ctx, snapshotKey(orgID, userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot cache: %w", err)
	}

	var snapshot dto.SnapshotResponse
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.logger.Warnw("corrupt snapshot cache entry dropped",
			"org_id", orgID, "user_id", userID, "error", err)
		_ = c.client.Del(ctx, snapshotKey(orgID, userID)).Err()
		return nil, nil
	}
	return &snapshot, nil
}

// Set stores a snapshot under the cache TTL.
func (c *RedisSnapshotCache) Set(ctx context.Context, snapshot *dto.SnapshotResponse) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := snapshotKey(snapshot.OrgID, snapshot.UserID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot cache: %w", err)
	}
	return nil
}

// DeleteByOrg drops every cached snapshot for an organization.
func (c *RedisSnapshotCache) DeleteByOrg(ctx context.Context, orgID uint) error {
	pattern := fmt.Sprintf("%s:%d:*", snapshotKeyPrefix, orgID)

	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan snapshot keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete snapshot keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if deleted > 0 {
		c.logger.Infow("snapshots invalidated", "org_id", orgID, "count", deleted)
	}
	return nil
}
