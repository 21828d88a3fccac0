package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ComparisonOperator 条件比较运算符
type ComparisonOperator string

const (
	OpGreaterThan ComparisonOperator = ">"
	OpLessThan    ComparisonOperator = "<"
	// OpEqual / OpNotEqual 做精确数值比较，面向 0/1 标志型指标，
	// 不适用于连续指标。
	OpEqual    ComparisonOperator = "="
	OpNotEqual ComparisonOperator = "!="
	// OpBetween 两端闭区间，阈值必须是有序的 [min, max]。
	OpBetween ComparisonOperator = "between"
)

// IsValid 检查运算符是否受支持
func (op ComparisonOperator) IsValid() bool {
	switch op {
	case OpGreaterThan, OpLessThan, OpEqual, OpNotEqual, OpBetween:
		return true
	}
	return false
}

// AlertSeverity 告警严重级别
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// IsValid 检查严重级别是否受支持
func (s AlertSeverity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// NotificationChannel 通知渠道
type NotificationChannel string

const (
	ChannelWebhook NotificationChannel = "webhook"
	ChannelEmail   NotificationChannel = "email"
	ChannelSMS     NotificationChannel = "sms"
	ChannelInApp   NotificationChannel = "inapp"
)

// IsValid 检查渠道是否受支持
func (c NotificationChannel) IsValid() bool {
	switch c {
	case ChannelWebhook, ChannelEmail, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

// ChannelList is a JSONB-stored list of notification channels.
type ChannelList []NotificationChannel

// Scan implements sql.Scanner interface
func (l *ChannelList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value")
	}
	return json.Unmarshal(bytes, l)
}

// Value implements driver.Valuer interface
func (l ChannelList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// AlertCondition 告警条件（嵌入规则中的不可变值）
type AlertCondition struct {
	Metric       MetricName         `json:"metric"`
	Operator     ComparisonOperator `json:"operator"`
	Threshold    float64            `json:"threshold"`
	ThresholdMax *float64           `json:"threshold_max,omitempty"` // 仅 between 使用
	Window       TimeWindow         `json:"window"`
}

// Scan implements sql.Scanner interface
func (c *AlertCondition) Scan(value interface{}) error {
	if value == nil {
		*c = AlertCondition{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value")
	}
	return json.Unmarshal(bytes, c)
}

// Value implements driver.Valuer interface
func (c AlertCondition) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Validate 校验条件配置，非法条件在创建期拒绝，绝不进入求值器
func (c *AlertCondition) Validate() error {
	if !IsValidMetric(c.Metric) {
		return ErrUnknownMetric
	}
	if !c.Operator.IsValid() {
		return ErrInvalidOperator
	}
	if !c.Window.IsValid() {
		return ErrInvalidWindow
	}
	if c.Operator == OpBetween {
		if c.ThresholdMax == nil {
			return ErrBetweenNeedsRange
		}
		if *c.ThresholdMax < c.Threshold {
			return ErrBetweenRangeOrder
		}
	} else if c.ThresholdMax != nil {
		return ErrUnexpectedRange
	}
	return nil
}

// AlertRule 告警规则聚合根
type AlertRule struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	TenantID    string         `json:"tenant_id" gorm:"index:idx_rule_tenant"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Condition   AlertCondition `json:"condition" gorm:"type:jsonb"`
	Channels    ChannelList    `json:"channels" gorm:"type:jsonb"`
	Severity    AlertSeverity  `json:"severity"`
	Enabled     bool           `json:"enabled" gorm:"default:true"`
	Cooldown    time.Duration  `json:"cooldown"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName specifies the table name
func (AlertRule) TableName() string {
	return "alert_rules"
}

// NewAlertRule 创建告警规则
func NewAlertRule(tenantID, name, description string, cond AlertCondition, channels []NotificationChannel, severity AlertSeverity, cooldown time.Duration) *AlertRule {
	now := time.Now()
	return &AlertRule{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		Condition:   cond,
		Channels:    channels,
		Severity:    severity,
		Enabled:     true,
		Cooldown:    cooldown,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate 校验规则配置
func (r *AlertRule) Validate() error {
	if r.TenantID == "" {
		return errors.New("tenant_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if err := r.Condition.Validate(); err != nil {
		return err
	}
	if len(r.Channels) == 0 {
		return ErrNoChannels
	}
	for _, ch := range r.Channels {
		if !ch.IsValid() {
			return ErrInvalidChannel
		}
	}
	if !r.Severity.IsValid() {
		return ErrInvalidSeverity
	}
	if r.Cooldown <= 0 {
		return ErrInvalidCooldown
	}
	return nil
}

// AlertRulePatch 规则更新补丁，nil 字段表示保持不变
type AlertRulePatch struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Condition   *AlertCondition `json:"condition,omitempty"`
	Channels    *ChannelList    `json:"channels,omitempty"`
	Severity    *AlertSeverity  `json:"severity,omitempty"`
	Enabled     *bool           `json:"enabled,omitempty"`
	Cooldown    *time.Duration  `json:"cooldown,omitempty"`
}

// Apply 应用补丁并刷新更新时间
func (p *AlertRulePatch) Apply(r *AlertRule) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Condition != nil {
		r.Condition = *p.Condition
	}
	if p.Channels != nil {
		r.Channels = *p.Channels
	}
	if p.Severity != nil {
		r.Severity = *p.Severity
	}
	if p.Enabled != nil {
		r.Enabled = *p.Enabled
	}
	if p.Cooldown != nil {
		r.Cooldown = *p.Cooldown
	}
	r.UpdatedAt = time.Now()
}

// Alert 告警事实（触发后不可变，仅确认/解决操作盖时间戳）
type Alert struct {
	ID             string        `json:"id" gorm:"primaryKey"`
	RuleID         string        `json:"rule_id" gorm:"index"`
	TenantID       string        `json:"tenant_id" gorm:"index:idx_alert_tenant_time"`
	Severity       AlertSeverity `json:"severity"`
	Title          string        `json:"title"`
	Message        string        `json:"message" gorm:"type:text"`
	Metric         MetricName    `json:"metric"`
	Value          float64       `json:"value"`
	TriggeredAt    time.Time     `json:"triggered_at" gorm:"index:idx_alert_tenant_time"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
}

// TableName specifies the table name
func (Alert) TableName() string {
	return "alerts"
}

// Acknowledge 标记告警已确认
func (a *Alert) Acknowledge() {
	now := time.Now()
	a.AcknowledgedAt = &now
}

// Resolve 标记告警已解决
func (a *Alert) Resolve() {
	now := time.Now()
	a.ResolvedAt = &now
}
