package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"go-opname-ws/internal/repository"

	"github.com/google/uuid"
)

const summaryKeyPrefix = "opname:summary:"

type RedisSummaryCache struct {
	client *redis.Client
}

func NewRedisSummaryCache(addr string, password string, db int) *RedisSummaryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSummaryCache{client: client}
}

func summaryKey(sessionID uuid.UUID) string {
	return summaryKeyPrefix + sessionID.String()
}

func (c *RedisSummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

func (c *RedisSummaryCache) Get(ctx context.Context, sessionID uuid.UUID) (*repository.OpnameSummary, bool, error) {
	val, err := c.client.Get(ctx, summaryKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var summary repository.OpnameSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, false, err
	}
	return &summary, true, nil
}

func (c *RedisSummaryCache) Set(ctx context.Context, summary *repository.OpnameSummary, ttl time.Duration) error {
	if summary == nil {
		return nil
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(summary.SessionID), payload, ttl).Err()
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	return c.client.Del(ctx, summaryKey(sessionID)).Err()
}
