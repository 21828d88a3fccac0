package domain

import (
	"context"
	"time"
)

// RuleRepository 规则仓储接口
type RuleRepository interface {
	Create(ctx context.Context, rule *AlertRule) error
	Update(ctx context.Context, rule *AlertRule) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*AlertRule, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*AlertRule, error)
	ListAll(ctx context.Context) ([]*AlertRule, error)
}

// AlertRepository 告警仓储接口
type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) error
	Update(ctx context.Context, alert *Alert) error
	GetByID(ctx context.Context, id string) (*Alert, error)
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*Alert, error)
}

// ViolationRepository 违约仓储接口
type ViolationRepository interface {
	Create(ctx context.Context, violation *SLAViolation) error
	ListByTenant(ctx context.Context, tenantID string, start, end time.Time) ([]*SLAViolation, error)
}

// SLAStatusRepository SLA 状态快照仓储接口
type SLAStatusRepository interface {
	Create(ctx context.Context, snapshot *SLAStatusSnapshot) error
	Latest(ctx context.Context, tenantID string) (*SLAStatusSnapshot, error)
}
