package domain

import "time"

// MetricName 指标名称
type MetricName string

const (
	MetricErrorRate      MetricName = "error_rate"      // 错误率（百分比，窗口均值）
	MetricFailureRate    MetricName = "failure_rate"    // 操作失败率（百分比，窗口均值）
	MetricLatency        MetricName = "latency"         // 延迟（毫秒，窗口 P95）
	MetricSLAViolation   MetricName = "sla_violation"   // SLA 违约标志（0/1）
	MetricBudgetExceeded MetricName = "budget_exceeded" // 预算超额标志（0/1）
	MetricCostSpike      MetricName = "cost_spike"      // 成本突增（取最近一次快照值）
)

// ValidMetricNames 支持的指标名称集合
var ValidMetricNames = []MetricName{
	MetricErrorRate,
	MetricFailureRate,
	MetricLatency,
	MetricSLAViolation,
	MetricBudgetExceeded,
	MetricCostSpike,
}

// IsValidMetric 检查指标名称是否受支持
func IsValidMetric(name MetricName) bool {
	for _, m := range ValidMetricNames {
		if m == name {
			return true
		}
	}
	return false
}

// TimeWindow 告警条件的时间窗口
type TimeWindow string

const (
	Window5m  TimeWindow = "5m"
	Window15m TimeWindow = "15m"
	Window1h  TimeWindow = "1h"
	Window24h TimeWindow = "24h"
)

// Duration 返回窗口对应的时长
func (w TimeWindow) Duration() time.Duration {
	switch w {
	case Window5m:
		return 5 * time.Minute
	case Window15m:
		return 15 * time.Minute
	case Window1h:
		return time.Hour
	case Window24h:
		return 24 * time.Hour
	default:
		return 0
	}
}

// IsValid 检查窗口是否属于固定枚举集合
func (w TimeWindow) IsValid() bool {
	return w.Duration() > 0
}

// ExecutionSnapshot 单次执行的时间点记录
// 一旦追加到缓冲区即不可变；超出保留期后被剪枝。
type ExecutionSnapshot struct {
	Timestamp   time.Time              `json:"timestamp"`
	Success     bool                   `json:"success"`
	LatencyMs   float64                `json:"latency_ms"`
	OperationID string                 `json:"operation_id"`
	Metrics     map[MetricName]float64 `json:"metrics,omitempty"`
}

// MetricValue 返回快照上某指标的取值
// 延迟直接取 LatencyMs，其余查扩展指标字段。
func (s *ExecutionSnapshot) MetricValue(name MetricName) (float64, bool) {
	if name == MetricLatency {
		return s.LatencyMs, true
	}
	v, ok := s.Metrics[name]
	return v, ok
}
