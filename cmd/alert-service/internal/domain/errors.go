package domain

import "errors"

// 规则校验错误（配置错误在创建期拒绝，见 Validate）
var (
	ErrUnknownMetric     = errors.New("unknown metric name")
	ErrInvalidOperator   = errors.New("invalid comparison operator")
	ErrInvalidWindow     = errors.New("invalid time window")
	ErrBetweenNeedsRange = errors.New("between operator requires a [min, max] range")
	ErrBetweenRangeOrder = errors.New("between range must satisfy min <= max")
	ErrUnexpectedRange   = errors.New("threshold_max is only valid for the between operator")
	ErrNoChannels        = errors.New("at least one notification channel is required")
	ErrInvalidChannel    = errors.New("invalid notification channel")
	ErrInvalidSeverity   = errors.New("invalid severity")
	ErrInvalidCooldown   = errors.New("cooldown must be positive")
)

var (
	// ErrRuleNotFound 规则不存在
	ErrRuleNotFound = errors.New("alert rule not found")
	// ErrAlertNotFound 告警不存在
	ErrAlertNotFound = errors.New("alert not found")
	// ErrUnknownTier 未知的 SLA 层级
	ErrUnknownTier = errors.New("unknown SLA tier")
)
