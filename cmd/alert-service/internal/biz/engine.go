package biz

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/domain"
	"alerthub/pkg/monitoring"
)

// ruleState 规则的运行时状态，仅用于冷却判定，不作为一等记录持久化
type ruleState struct {
	lastTriggeredAt time.Time
	lastValue       float64
}

// AlertRuleEngine 告警规则引擎
// 进程内唯一持有规则表、规则状态与指标缓冲区；
// 变更只来自控制操作（CRUD）与 tick 本身。
type AlertRuleEngine struct {
	mu     sync.RWMutex
	rules  map[string]*domain.AlertRule
	states map[string]*ruleState

	buffer     *MetricsBuffer
	ruleRepo   domain.RuleRepository
	alertRepo  domain.AlertRepository
	dispatcher *Dispatcher
	logger     *zap.Logger

	interval time.Duration
	now      func() time.Time

	ticking atomic.Bool // tick 互斥守卫，禁止两个 tick 重叠
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewAlertRuleEngine 创建规则引擎
func NewAlertRuleEngine(
	buffer *MetricsBuffer,
	ruleRepo domain.RuleRepository,
	alertRepo domain.AlertRepository,
	dispatcher *Dispatcher,
	interval time.Duration,
	logger *zap.Logger,
) *AlertRuleEngine {
	if interval <= 0 {
		interval = time.Minute
	}
	return &AlertRuleEngine{
		rules:      make(map[string]*domain.AlertRule),
		states:     make(map[string]*ruleState),
		buffer:     buffer,
		ruleRepo:   ruleRepo,
		alertRepo:  alertRepo,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
		now:        time.Now,
	}
}

// LoadRules 从存储加载规则到内存缓存（启动时调用一次）
func (e *AlertRuleEngine) LoadRules(ctx context.Context) error {
	rules, err := e.ruleRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range rules {
		e.rules[r.ID] = r
		e.states[r.ID] = &ruleState{}
	}
	e.logger.Info("alert rules loaded", zap.Int("count", len(rules)))
	return nil
}

// Start 启动周期评估循环
func (e *AlertRuleEngine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		e.logger.Info("alert evaluation started", zap.Duration("interval", e.interval))
		for {
			select {
			case <-ctx.Done():
				e.logger.Info("alert evaluation stopped")
				return
			case <-ticker.C:
				e.Tick(ctx)
			}
		}
	}()
}

// Stop 停止评估循环；在途 tick 允许跑完，但不再开始新的 tick
func (e *AlertRuleEngine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

// Tick 执行一轮评估，覆盖全部已启用规则
// 前一轮未结束时直接跳过本轮；单规则失败被捕获记录后继续下一条。
func (e *AlertRuleEngine) Tick(ctx context.Context) {
	if !e.ticking.CompareAndSwap(false, true) {
		e.logger.Warn("previous tick still in flight, skipping")
		return
	}
	defer e.ticking.Store(false)

	monitoring.EvaluationTicks.Inc()

	e.mu.RLock()
	rules := make([]*domain.AlertRule, 0, len(e.rules))
	for _, r := range e.rules {
		if r.Enabled {
			rules = append(rules, r)
		}
	}
	e.mu.RUnlock()

	for _, rule := range rules {
		e.evaluateRule(ctx, rule)
	}
}

// evaluateRule 评估单条规则，错误与 panic 都终止于此边界
func (e *AlertRuleEngine) evaluateRule(ctx context.Context, rule *domain.AlertRule) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("rule evaluation panicked",
				zap.String("rule_id", rule.ID),
				zap.String("tenant_id", rule.TenantID),
				zap.Any("panic", r),
			)
			monitoring.EvaluationErrors.Inc()
		}
	}()

	monitoring.RuleEvaluations.Inc()

	snaps := e.buffer.Window(rule.TenantID, rule.Condition.Window.Duration())
	value, ok := MetricValue(snaps, rule.Condition.Metric)
	if !Evaluate(value, ok, rule.Condition) {
		return
	}

	now := e.now()

	e.mu.Lock()
	state, exists := e.states[rule.ID]
	if !exists {
		state = &ruleState{}
		e.states[rule.ID] = state
	}
	// 冷却去重：距上次触发不足 cooldown 则静默
	if !state.lastTriggeredAt.IsZero() && now.Sub(state.lastTriggeredAt) < rule.Cooldown {
		e.mu.Unlock()
		return
	}
	state.lastTriggeredAt = now
	state.lastValue = value
	e.mu.Unlock()

	alert := &domain.Alert{
		ID:          uuid.New().String(),
		RuleID:      rule.ID,
		TenantID:    rule.TenantID,
		Severity:    rule.Severity,
		Title:       rule.Name,
		Message:     fmt.Sprintf("%s: %s %s %g (observed %g over %s)", rule.Name, rule.Condition.Metric, rule.Condition.Operator, rule.Condition.Threshold, value, rule.Condition.Window),
		Metric:      rule.Condition.Metric,
		Value:       value,
		TriggeredAt: now,
	}

	// 告警本身存不下去要大声报出来：用户将永远看不到这条告警。
	// 但仍不中断本轮其余规则。
	if err := e.alertRepo.Create(ctx, alert); err != nil {
		e.logger.Error("FAILED TO PERSIST ALERT, notification user will never see it",
			zap.String("rule_id", rule.ID),
			zap.String("tenant_id", rule.TenantID),
			zap.String("alert_id", alert.ID),
			zap.Error(err),
		)
		monitoring.EvaluationErrors.Inc()
	}

	monitoring.AlertsTriggered.WithLabelValues(string(rule.Severity)).Inc()
	e.logger.Info("alert triggered",
		zap.String("rule_id", rule.ID),
		zap.String("tenant_id", rule.TenantID),
		zap.String("metric", string(rule.Condition.Metric)),
		zap.Float64("value", value),
		zap.String("severity", string(rule.Severity)),
	)

	e.dispatcher.Dispatch(ctx, alert, rule)
}

// CreateRule 创建规则；配置错误在此拒绝，绝不进入求值器
func (e *AlertRuleEngine) CreateRule(ctx context.Context, rule *domain.AlertRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if err := e.ruleRepo.Create(ctx, rule); err != nil {
		return fmt.Errorf("persist rule: %w", err)
	}

	e.mu.Lock()
	e.rules[rule.ID] = rule
	e.states[rule.ID] = &ruleState{}
	e.mu.Unlock()

	e.logger.Info("alert rule created",
		zap.String("rule_id", rule.ID),
		zap.String("tenant_id", rule.TenantID),
		zap.String("metric", string(rule.Condition.Metric)),
	)
	return nil
}

// UpdateRule 应用补丁并写回存储；规则不存在返回 ErrRuleNotFound
func (e *AlertRuleEngine) UpdateRule(ctx context.Context, id string, patch domain.AlertRulePatch) (*domain.AlertRule, error) {
	e.mu.RLock()
	existing, ok := e.rules[id]
	e.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRuleNotFound
	}

	updated := *existing
	patch.Apply(&updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := e.ruleRepo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("persist rule update: %w", err)
	}

	e.mu.Lock()
	e.rules[id] = &updated
	e.mu.Unlock()

	e.logger.Info("alert rule updated", zap.String("rule_id", id))
	return &updated, nil
}

// DeleteRule 删除规则及其运行时状态
func (e *AlertRuleEngine) DeleteRule(ctx context.Context, id string) (bool, error) {
	e.mu.RLock()
	_, ok := e.rules[id]
	e.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := e.ruleRepo.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}

	e.mu.Lock()
	delete(e.rules, id)
	delete(e.states, id)
	e.mu.Unlock()

	e.logger.Info("alert rule deleted", zap.String("rule_id", id))
	return true, nil
}

// GetRules 返回租户的全部规则
func (e *AlertRuleEngine) GetRules(tenantID string) []*domain.AlertRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.AlertRule, 0)
	for _, r := range e.rules {
		if r.TenantID == tenantID {
			rules = append(rules, r)
		}
	}
	return rules
}
