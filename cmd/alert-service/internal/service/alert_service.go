package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/biz"
	"alerthub/cmd/alert-service/internal/domain"
	"alerthub/pkg/monitoring"
)

// AlertService 对上暴露的控制面：规则 CRUD、告警生命周期、
// SLA 状态查询与违约历史。
type AlertService struct {
	engine     *biz.AlertRuleEngine
	monitor    *biz.SLAMonitor
	buffer     *biz.MetricsBuffer
	alertRepo  domain.AlertRepository
	violations domain.ViolationRepository
	logger     *zap.Logger
}

// NewAlertService 创建服务
func NewAlertService(
	engine *biz.AlertRuleEngine,
	monitor *biz.SLAMonitor,
	buffer *biz.MetricsBuffer,
	alertRepo domain.AlertRepository,
	violations domain.ViolationRepository,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		engine:     engine,
		monitor:    monitor,
		buffer:     buffer,
		alertRepo:  alertRepo,
		violations: violations,
		logger:     logger,
	}
}

// RecordExecution 记录一条执行快照（即发即忘，无失败路径）
func (s *AlertService) RecordExecution(tenantID string, snap domain.ExecutionSnapshot) {
	s.buffer.Record(tenantID, snap)
	monitoring.IngestedSnapshots.WithLabelValues("http").Inc()
}

// CreateRule 创建告警规则
func (s *AlertService) CreateRule(ctx context.Context, rule *domain.AlertRule) error {
	return s.engine.CreateRule(ctx, rule)
}

// UpdateRule 更新告警规则
func (s *AlertService) UpdateRule(ctx context.Context, id string, patch domain.AlertRulePatch) (*domain.AlertRule, error) {
	return s.engine.UpdateRule(ctx, id, patch)
}

// DeleteRule 删除告警规则
func (s *AlertService) DeleteRule(ctx context.Context, id string) (bool, error) {
	return s.engine.DeleteRule(ctx, id)
}

// GetRules 列出租户的告警规则
func (s *AlertService) GetRules(tenantID string) []*domain.AlertRule {
	return s.engine.GetRules(tenantID)
}

// AcknowledgeAlert 确认告警
func (s *AlertService) AcknowledgeAlert(ctx context.Context, id string) (*domain.Alert, error) {
	alert, err := s.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	alert.Acknowledge()
	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return nil, err
	}
	s.logger.Info("alert acknowledged", zap.String("alert_id", id))
	return alert, nil
}

// ResolveAlert 解决告警
func (s *AlertService) ResolveAlert(ctx context.Context, id string) (*domain.Alert, error) {
	alert, err := s.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	alert.Resolve()
	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return nil, err
	}
	s.logger.Info("alert resolved", zap.String("alert_id", id))
	return alert, nil
}

// GetAlertHistory 查询租户告警历史
func (s *AlertService) GetAlertHistory(ctx context.Context, tenantID string, limit int) ([]*domain.Alert, error) {
	return s.alertRepo.ListByTenant(ctx, tenantID, limit)
}

// SetTenantTier 登记租户的 SLA 层级，周期检查按此层级评估
func (s *AlertService) SetTenantTier(tenantID string, tier domain.SLATier) error {
	if !tier.IsValid() {
		return domain.ErrUnknownTier
	}
	s.monitor.SetTenantTier(tenantID, tier)
	s.logger.Info("tenant tier registered",
		zap.String("tenant_id", tenantID),
		zap.String("tier", string(tier)),
	)
	return nil
}

// CalculateSLAStatus 按需计算租户的 SLA 合规状态（含持久化副作用）
func (s *AlertService) CalculateSLAStatus(ctx context.Context, tenantID string, tier domain.SLATier) (*domain.SLAStatus, error) {
	if !tier.IsValid() {
		return nil, domain.ErrUnknownTier
	}
	return s.monitor.Check(ctx, tenantID, tier)
}

// GetViolationHistory 查询租户违约历史
func (s *AlertService) GetViolationHistory(ctx context.Context, tenantID string, start, end time.Time) ([]*domain.SLAViolation, error) {
	return s.violations.ListByTenant(ctx, tenantID, start, end)
}
