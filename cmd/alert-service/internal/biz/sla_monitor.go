package biz

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/domain"
	"alerthub/pkg/monitoring"
)

// StatusCache SLA 状态缓存（最新一次计算结果，按租户）
type StatusCache interface {
	SetStatus(ctx context.Context, status *domain.SLAStatus) error
	GetStatus(ctx context.Context, tenantID string) (*domain.SLAStatus, error)
}

// SLAMonitor 周期性地为所有已知租户重算 SLA 合规状态，
// 持久化违约与状态快照，并刷新缓存。
type SLAMonitor struct {
	buffer        *MetricsBuffer
	violationRepo domain.ViolationRepository
	statusRepo    domain.SLAStatusRepository
	cache         StatusCache
	cfg           SLAConfig
	logger        *zap.Logger

	mu    sync.RWMutex
	tiers map[string]domain.SLATier // 租户 → 层级

	interval time.Duration
	now      func() time.Time

	checking atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSLAMonitor 创建 SLA 监控器
func NewSLAMonitor(
	buffer *MetricsBuffer,
	violationRepo domain.ViolationRepository,
	statusRepo domain.SLAStatusRepository,
	cache StatusCache,
	cfg SLAConfig,
	interval time.Duration,
	logger *zap.Logger,
) *SLAMonitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SLAMonitor{
		buffer:        buffer,
		violationRepo: violationRepo,
		statusRepo:    statusRepo,
		cache:         cache,
		cfg:           cfg,
		logger:        logger,
		tiers:         make(map[string]domain.SLATier),
		interval:      interval,
		now:           time.Now,
	}
}

// SetTenantTier 登记租户的服务层级（控制面调用）
func (m *SLAMonitor) SetTenantTier(tenantID string, tier domain.SLATier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[tenantID] = tier
}

// tenantTier 未登记的租户按 basic 处理
func (m *SLAMonitor) tenantTier(tenantID string) domain.SLATier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tier, ok := m.tiers[tenantID]; ok {
		return tier
	}
	return domain.TierBasic
}

// Start 启动周期检查循环
func (m *SLAMonitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.logger.Info("SLA monitoring started", zap.Duration("interval", m.interval))
		for {
			select {
			case <-ctx.Done():
				m.logger.Info("SLA monitoring stopped")
				return
			case <-ticker.C:
				m.Tick(ctx)
			}
		}
	}()
}

// Stop 停止检查循环
func (m *SLAMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

// Tick 为每个持有数据的租户执行一次合规检查
// 单租户失败被记录后继续下一个租户。
func (m *SLAMonitor) Tick(ctx context.Context) {
	if !m.checking.CompareAndSwap(false, true) {
		m.logger.Warn("previous SLA check still in flight, skipping")
		return
	}
	defer m.checking.Store(false)

	for _, tenantID := range m.buffer.Tenants() {
		if _, err := m.Check(ctx, tenantID, m.tenantTier(tenantID)); err != nil {
			m.logger.Error("SLA check failed",
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
		}
	}
}

// Check 计算一个租户的合规状态并执行持久化/缓存副作用
// 调用方显式给出的层级会被登记，后续周期检查沿用
func (m *SLAMonitor) Check(ctx context.Context, tenantID string, tier domain.SLATier) (*domain.SLAStatus, error) {
	status, err := CalculateSLAStatus(m.buffer.All(tenantID), tenantID, tier, m.cfg, m.now())
	if err != nil {
		return nil, err
	}
	m.SetTenantTier(tenantID, tier)

	for i := range status.Violations {
		v := status.Violations[i]
		if err := m.violationRepo.Create(ctx, &v); err != nil {
			m.logger.Error("failed to persist SLA violation",
				zap.String("tenant_id", tenantID),
				zap.String("type", string(v.Type)),
				zap.Error(err),
			)
		}
		monitoring.SLAViolationsTotal.WithLabelValues(string(v.Type), string(v.Severity)).Inc()
	}

	if err := m.statusRepo.Create(ctx, status.Snapshot()); err != nil {
		m.logger.Error("failed to persist SLA status snapshot",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
	}

	if m.cache != nil {
		if err := m.cache.SetStatus(ctx, status); err != nil {
			m.logger.Warn("failed to cache SLA status",
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
		}
	}

	if !status.IsCompliant {
		m.logger.Warn("tenant out of SLA compliance",
			zap.String("tenant_id", tenantID),
			zap.String("tier", string(tier)),
			zap.Int("violations", len(status.Violations)),
		)
	}
	return status, nil
}
