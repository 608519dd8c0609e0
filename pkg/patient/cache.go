package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicore/platform/pkg/common/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisIdentityCache keeps the legacy-id to primary-UUID mapping in Redis
// with a TTL. Failures are logged and treated as misses.
type RedisIdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdentityCache(client *redis.Client, ttl time.Duration) *RedisIdentityCache {
	return &RedisIdentityCache{client: client, ttl: ttl}
}

func identityKey(legacyID int64) string {
	return fmt.Sprintf("patient:legacy:%d", legacyID)
}

func (c *RedisIdentityCache) GetLegacy(ctx context.Context, legacyID int64) (uuid.UUID, bool) {
	value, err := c.client.Get(ctx, identityKey(legacyID)).Result()
	if err == redis.Nil {
		return uuid.Nil, false
	}
	if err != nil {
		logger.Log.WithError(err).WithField("legacy_id", legacyID).Debug("identity cache read failed")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *RedisIdentityCache) SetLegacy(ctx context.Context, legacyID int64, id uuid.UUID) {
	if err := c.client.Set(ctx, identityKey(legacyID), id.String(), c.ttl).Err(); err != nil {
		logger.Log.WithError(err).WithField("legacy_id", legacyID).Debug("identity cache write failed")
	}
}
