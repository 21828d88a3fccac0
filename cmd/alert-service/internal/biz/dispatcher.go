package biz

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/domain"
	"alerthub/pkg/monitoring"
)

// Sender 单渠道通知传输
// 每个渠道独立失败；载荷格式是渠道内部细节。
type Sender interface {
	Send(ctx context.Context, alert *domain.Alert, rule *domain.AlertRule) error
}

// Dispatcher 将触发的告警扇出到规则配置的全部渠道
// 单渠道失败被隔离记录，不影响其余渠道，也绝不回传规则引擎——
// 通知失败不能让已触发的告警被撤销或重新排队。
type Dispatcher struct {
	senders map[domain.NotificationChannel]Sender
	logger  *zap.Logger
}

// NewDispatcher 创建分发器
func NewDispatcher(senders map[domain.NotificationChannel]Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		senders: senders,
		logger:  logger,
	}
}

// Dispatch 并发尝试所有渠道并等待全部完成
func (d *Dispatcher) Dispatch(ctx context.Context, alert *domain.Alert, rule *domain.AlertRule) {
	var wg sync.WaitGroup
	for _, ch := range rule.Channels {
		wg.Add(1)
		go func(ch domain.NotificationChannel) {
			defer wg.Done()
			d.sendOne(ctx, ch, alert, rule)
		}(ch)
	}
	wg.Wait()
}

// sendOne 单渠道发送，panic 与错误都在此边界收住
func (d *Dispatcher) sendOne(ctx context.Context, ch domain.NotificationChannel, alert *domain.Alert, rule *domain.AlertRule) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification channel panicked",
				zap.String("channel", string(ch)),
				zap.String("rule_id", rule.ID),
				zap.String("tenant_id", rule.TenantID),
				zap.Any("panic", r),
			)
			monitoring.NotificationsTotal.WithLabelValues(string(ch), "panic").Inc()
		}
	}()

	sender, ok := d.senders[ch]
	if !ok {
		d.logger.Warn("no sender configured for channel",
			zap.String("channel", string(ch)),
			zap.String("rule_id", rule.ID),
		)
		return
	}

	if err := sender.Send(ctx, alert, rule); err != nil {
		d.logger.Error("notification channel failed",
			zap.String("channel", string(ch)),
			zap.String("rule_id", rule.ID),
			zap.String("tenant_id", rule.TenantID),
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
		monitoring.NotificationsTotal.WithLabelValues(string(ch), "error").Inc()
		return
	}
	monitoring.NotificationsTotal.WithLabelValues(string(ch), "ok").Inc()
}
