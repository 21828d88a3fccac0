package data

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"alerthub/cmd/alert-service/internal/domain"
)

// SLAStatusCache 最近一次 SLA 状态的 Redis 缓存
type SLAStatusCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSLAStatusCache 创建缓存
func NewSLAStatusCache(rdb *redis.Client, ttl time.Duration) *SLAStatusCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SLAStatusCache{redis: rdb, ttl: ttl}
}

func (c *SLAStatusCache) key(tenantID string) string {
	return "sla:status:" + tenantID
}

// SetStatus 缓存租户的最新状态
func (c *SLAStatusCache) SetStatus(ctx context.Context, status *domain.SLAStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, c.key(status.TenantID), data, c.ttl).Err()
}

// GetStatus 读取缓存状态；缓存未命中返回 (nil, nil)
func (c *SLAStatusCache) GetStatus(ctx context.Context, tenantID string) (*domain.SLAStatus, error) {
	data, err := c.redis.Get(ctx, c.key(tenantID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var status domain.SLAStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// NewRedisClient 创建 Redis 客户端
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
