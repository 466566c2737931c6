package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docverify/internal/domain"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

const identityKeyPrefix = "app:identity:"

// RedisCache caches application identity records as JSON with a TTL.
type RedisCache struct {
	client   *redis.Client
	cacheTTL time.Duration
}

func NewRedisCache(client *redis.Client, cacheTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, cacheTTL: cacheTTL}
}

func (c *RedisCache) FindIdentity(ctx context.Context, applicationID id.ApplicationID) (*domain.ApplicationIdentityRecord, error) {
	raw, err := c.client.Get(ctx, identityKey(applicationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached identity: %w", err)
	}
	var record domain.ApplicationIdentityRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode cached identity: %w", err)
	}
	return &record, nil
}

func (c *RedisCache) SaveIdentity(ctx context.Context, applicationID id.ApplicationID, record *domain.ApplicationIdentityRecord) error {
	if record == nil {
		return nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return c.client.Set(ctx, identityKey(applicationID), raw, c.cacheTTL).Err()
}

func identityKey(applicationID id.ApplicationID) string {
	return identityKeyPrefix + applicationID.String()
}
