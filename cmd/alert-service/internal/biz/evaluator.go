package biz

import (
	"math"
	"sort"

	"alerthub/cmd/alert-service/internal/domain"
)

// reducer 将窗口内快照归约为单个标量
// 返回 ok=false 表示数据不足（空窗口），调用方不得触发告警。
type reducer func(snaps []domain.ExecutionSnapshot, metric domain.MetricName) (float64, bool)

// reducers 指标到归约函数的策略表
// 新增指标只需注册条目，不用改动求值控制流。
var reducers = map[domain.MetricName]reducer{
	domain.MetricErrorRate:      reduceMean,
	domain.MetricFailureRate:    reduceMean,
	domain.MetricLatency:        reduceP95,
	domain.MetricSLAViolation:   reduceAnyFlag,
	domain.MetricBudgetExceeded: reduceAnyFlag,
	domain.MetricCostSpike:      reduceLatest,
}

// MetricValue 计算窗口内指标的标量值
// 未知指标或空窗口返回 ok=false。
func MetricValue(snaps []domain.ExecutionSnapshot, metric domain.MetricName) (float64, bool) {
	r, found := reducers[metric]
	if !found {
		return 0, false
	}
	return r(snaps, metric)
}

// Evaluate 将标量值与条件比较
// ok=false（数据不足）一律不告警；between 两端闭区间；
// = 和 != 做精确数值比较，面向 0/1 标志型指标。
func Evaluate(value float64, ok bool, cond domain.AlertCondition) bool {
	if !ok {
		return false
	}
	switch cond.Operator {
	case domain.OpGreaterThan:
		return value > cond.Threshold
	case domain.OpLessThan:
		return value < cond.Threshold
	case domain.OpEqual:
		return value == cond.Threshold
	case domain.OpNotEqual:
		return value != cond.Threshold
	case domain.OpBetween:
		if cond.ThresholdMax == nil {
			return false
		}
		return value >= cond.Threshold && value <= *cond.ThresholdMax
	default:
		return false
	}
}

// reduceMean 窗口算术平均（比率型指标）
func reduceMean(snaps []domain.ExecutionSnapshot, metric domain.MetricName) (float64, bool) {
	var sum float64
	var n int
	for i := range snaps {
		if v, ok := snaps[i].MetricValue(metric); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// reduceP95 延迟 P95：升序排序后取 index = ceil(n*0.95)-1，钳到 [0, n-1]
func reduceP95(snaps []domain.ExecutionSnapshot, metric domain.MetricName) (float64, bool) {
	values := make([]float64, 0, len(snaps))
	for i := range snaps {
		if v, ok := snaps[i].MetricValue(metric); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, false
	}
	return percentile95(values), true
}

// reduceAnyFlag 标志型指标：窗口内任一快照置位则为 1，否则 0
func reduceAnyFlag(snaps []domain.ExecutionSnapshot, metric domain.MetricName) (float64, bool) {
	if len(snaps) == 0 {
		return 0, false
	}
	for i := range snaps {
		if v, ok := snaps[i].MetricValue(metric); ok && v != 0 {
			return 1, true
		}
	}
	return 0, true
}

// reduceLatest 突增型指标：取最近一次快照的值，不做聚合
func reduceLatest(snaps []domain.ExecutionSnapshot, metric domain.MetricName) (float64, bool) {
	for i := len(snaps) - 1; i >= 0; i-- {
		if v, ok := snaps[i].MetricValue(metric); ok {
			return v, true
		}
	}
	return 0, false
}

// percentile95 对副本排序后按固定索引规则取 P95
func percentile95(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
