package domain

import (
	"time"

	"github.com/google/uuid"
)

// SLATier SLA 服务层级
type SLATier string

const (
	TierPremium  SLATier = "premium"
	TierStandard SLATier = "standard"
	TierBasic    SLATier = "basic"
)

// IsValid 检查层级是否受支持
func (t SLATier) IsValid() bool {
	switch t {
	case TierPremium, TierStandard, TierBasic:
		return true
	}
	return false
}

// SLAThresholds 某层级的固定合规阈值（代码定义的常量表，不持久化）
type SLAThresholds struct {
	UptimePercentage      float64 // 要求的正常运行时间百分比
	MaxDowntimeMinutes    float64 // 每 30 天月允许的最大停机分钟数
	ResponseTimeP95Ms     float64 // 可接受的 P95 延迟上限（毫秒）
	SuccessRatePercentage float64 // 可接受的最低成功率
}

// TierThresholds 各层级的合规阈值表
var TierThresholds = map[SLATier]SLAThresholds{
	TierPremium: {
		UptimePercentage:      99.99,
		MaxDowntimeMinutes:    4.32,
		ResponseTimeP95Ms:     500,
		SuccessRatePercentage: 99.5,
	},
	TierStandard: {
		UptimePercentage:      99.9,
		MaxDowntimeMinutes:    43.2,
		ResponseTimeP95Ms:     1000,
		SuccessRatePercentage: 99.0,
	},
	TierBasic: {
		UptimePercentage:      99.5,
		MaxDowntimeMinutes:    216,
		ResponseTimeP95Ms:     2000,
		SuccessRatePercentage: 98.0,
	},
}

// SLAViolationType 违约类型
type SLAViolationType string

const (
	ViolationUptime      SLAViolationType = "uptime"
	ViolationLatency     SLAViolationType = "latency"
	ViolationSuccessRate SLAViolationType = "success_rate"
)

// SLAViolation 单项 SLA 阈值违约记录
// 每次计算发现违约都新建记录，持久化层负责累积历史。
type SLAViolation struct {
	ID         string           `json:"id" gorm:"primaryKey"`
	TenantID   string           `json:"tenant_id" gorm:"index:idx_violation_tenant_time"`
	Tier       SLATier          `json:"tier"`
	Type       SLAViolationType `json:"type"`
	Severity   AlertSeverity    `json:"severity"`
	Message    string           `json:"message" gorm:"type:text"`
	Metric     string           `json:"metric"`
	Value      float64          `json:"value"`
	Threshold  float64          `json:"threshold"`
	DetectedAt time.Time        `json:"detected_at" gorm:"index:idx_violation_tenant_time"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

// TableName specifies the table name
func (SLAViolation) TableName() string {
	return "sla_violations"
}

// NewSLAViolation 创建违约记录
func NewSLAViolation(tenantID string, tier SLATier, vtype SLAViolationType, severity AlertSeverity, message, metric string, value, threshold float64, detectedAt time.Time) SLAViolation {
	return SLAViolation{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Tier:       tier,
		Type:       vtype,
		Severity:   severity,
		Message:    message,
		Metric:     metric,
		Value:      value,
		Threshold:  threshold,
		DetectedAt: detectedAt,
	}
}

// SLAStatus SLA 合规状态快照（按需或定时重算，内存中不保留历史）
type SLAStatus struct {
	TenantID                  string         `json:"tenant_id"`
	Tier                      SLATier        `json:"tier"`
	UptimePct                 float64        `json:"uptime_pct"`
	DowntimeMinutes           float64        `json:"downtime_minutes"`
	SuccessRatePct            float64        `json:"success_rate_pct"`
	P95LatencyMs              float64        `json:"p95_latency_ms"`
	DayOfMonth                int            `json:"day_of_month"`
	ProjectedMonthlyUptimePct float64        `json:"projected_monthly_uptime_pct"`
	IsCompliant               bool           `json:"is_compliant"`
	Violations                []SLAViolation `json:"violations"`
	CheckedAt                 time.Time      `json:"checked_at"`
}

// SLAStatusSnapshot 持久化的 SLA 状态历史记录
type SLAStatusSnapshot struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	TenantID        string    `json:"tenant_id" gorm:"index:idx_sla_tenant_time"`
	Tier            SLATier   `json:"tier"`
	UptimePct       float64   `json:"uptime_pct"`
	DowntimeMinutes float64   `json:"downtime_minutes"`
	SuccessRatePct  float64   `json:"success_rate_pct"`
	P95LatencyMs    float64   `json:"p95_latency_ms"`
	IsCompliant     bool      `json:"is_compliant"`
	ViolationCount  int       `json:"violation_count"`
	CheckedAt       time.Time `json:"checked_at" gorm:"index:idx_sla_tenant_time"`
}

// TableName specifies the table name
func (SLAStatusSnapshot) TableName() string {
	return "sla_status_snapshots"
}

// Snapshot 将状态折算为可持久化的历史记录
func (s *SLAStatus) Snapshot() *SLAStatusSnapshot {
	return &SLAStatusSnapshot{
		ID:              uuid.New().String(),
		TenantID:        s.TenantID,
		Tier:            s.Tier,
		UptimePct:       s.UptimePct,
		DowntimeMinutes: s.DowntimeMinutes,
		SuccessRatePct:  s.SuccessRatePct,
		P95LatencyMs:    s.P95LatencyMs,
		IsCompliant:     s.IsCompliant,
		ViolationCount:  len(s.Violations),
		CheckedAt:       s.CheckedAt,
	}
}
