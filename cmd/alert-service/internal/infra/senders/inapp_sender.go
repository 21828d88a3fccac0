package senders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/domain"
)

// InAppSender 应用内通知
// 告警本体已经持久化，应用内投递由此满足；Redis 推送只是
// 实时提示，失败不构成告警丢失。
type InAppSender struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewInAppSender 创建应用内发送器
func NewInAppSender(rdb *redis.Client, logger *zap.Logger) *InAppSender {
	return &InAppSender{
		redis:  rdb,
		logger: logger,
	}
}

// Send 将告警写入租户的通知列表并发布实时事件
func (s *InAppSender) Send(ctx context.Context, alert *domain.Alert, rule *domain.AlertRule) error {
	key := "alert:tenant:" + alert.TenantID

	jsonData, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	score := float64(alert.TriggeredAt.Unix())
	if err := s.redis.ZAdd(ctx, key, redis.Z{
		Score:  score,
		Member: jsonData,
	}).Err(); err != nil {
		return err
	}

	// 只保留最近 100 条
	s.redis.ZRemRangeByRank(ctx, key, 0, -101)
	s.redis.Expire(ctx, key, 30*24*time.Hour)

	// 发布到租户实时频道
	channel := "alert:realtime:" + alert.TenantID
	s.redis.Publish(ctx, channel, jsonData)

	s.logger.Debug("in-app alert stored",
		zap.String("tenant_id", alert.TenantID),
		zap.String("alert_id", alert.ID),
	)
	return nil
}
