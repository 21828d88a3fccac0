package biz

import (
	"fmt"
	"time"

	"alerthub/cmd/alert-service/internal/domain"
)

// SLAConfig SLA 计算的可调参数
// 停机时间是按失败次数折算的近似值，不是实测中断时长；
// 严重级别边距决定违约定级为 critical 还是 warning。
type SLAConfig struct {
	// DowntimeMinutesPerFailure 每次失败折算的停机分钟数
	DowntimeMinutesPerFailure float64
	// CriticalUptimeMarginPct uptime 低于阈值超过该点数时定级 critical
	CriticalUptimeMarginPct float64
	// CriticalLatencyFactor P95 超过阈值该倍数时定级 critical
	CriticalLatencyFactor float64
	// CriticalSuccessMarginPct 成功率低于阈值超过该点数时定级 critical
	CriticalSuccessMarginPct float64
}

// DefaultSLAConfig 默认 SLA 计算参数
func DefaultSLAConfig() SLAConfig {
	return SLAConfig{
		DowntimeMinutesPerFailure: 0.5,
		CriticalUptimeMarginPct:   1.0,
		CriticalLatencyFactor:     2.0,
		CriticalSuccessMarginPct:  5.0,
	}
}

// CalculateSLAStatus 由缓冲快照和层级阈值计算合规状态
// 纯函数，无副作用；持久化由调用方单独执行。
// IsCompliant 恒等于违约列表为空，两者不会独立计算。
func CalculateSLAStatus(snaps []domain.ExecutionSnapshot, tenantID string, tier domain.SLATier, cfg SLAConfig, now time.Time) (*domain.SLAStatus, error) {
	thresholds, ok := domain.TierThresholds[tier]
	if !ok {
		return nil, domain.ErrUnknownTier
	}

	total := len(snaps)
	failed := 0
	latencies := make([]float64, 0, total)
	for i := range snaps {
		if !snaps[i].Success {
			failed++
		}
		latencies = append(latencies, snaps[i].LatencyMs)
	}

	// 无数据按 100% 处理，避免新租户出现误报
	uptimePct := 100.0
	successRatePct := 100.0
	if total > 0 {
		successes := float64(total - failed)
		uptimePct = successes / float64(total) * 100
		successRatePct = uptimePct
	}

	downtimeMinutes := float64(failed) * cfg.DowntimeMinutesPerFailure

	p95 := 0.0
	if len(latencies) > 0 {
		p95 = percentile95(latencies)
	}

	status := &domain.SLAStatus{
		TenantID:        tenantID,
		Tier:            tier,
		UptimePct:       uptimePct,
		DowntimeMinutes: downtimeMinutes,
		SuccessRatePct:  successRatePct,
		P95LatencyMs:    p95,
		DayOfMonth:      now.Day(),
		// 月度预测沿用当前观测值（按失败计数折算的近似模型）
		ProjectedMonthlyUptimePct: uptimePct,
		Violations:                []domain.SLAViolation{},
		CheckedAt:                 now,
	}

	if uptimePct < thresholds.UptimePercentage {
		severity := domain.SeverityWarning
		if uptimePct < thresholds.UptimePercentage-cfg.CriticalUptimeMarginPct {
			severity = domain.SeverityCritical
		}
		status.Violations = append(status.Violations, domain.NewSLAViolation(
			tenantID, tier, domain.ViolationUptime, severity,
			fmt.Sprintf("uptime %.2f%% below %s tier requirement of %.2f%%", uptimePct, tier, thresholds.UptimePercentage),
			"uptime_pct", uptimePct, thresholds.UptimePercentage, now,
		))
	}

	if downtimeMinutes > thresholds.MaxDowntimeMinutes {
		severity := domain.SeverityWarning
		if downtimeMinutes > thresholds.MaxDowntimeMinutes*2 {
			severity = domain.SeverityCritical
		}
		status.Violations = append(status.Violations, domain.NewSLAViolation(
			tenantID, tier, domain.ViolationUptime, severity,
			fmt.Sprintf("estimated downtime %.1f min exceeds %s tier allowance of %.1f min", downtimeMinutes, tier, thresholds.MaxDowntimeMinutes),
			"downtime_minutes", downtimeMinutes, thresholds.MaxDowntimeMinutes, now,
		))
	}

	if successRatePct < thresholds.SuccessRatePercentage {
		severity := domain.SeverityWarning
		if successRatePct < thresholds.SuccessRatePercentage-cfg.CriticalSuccessMarginPct {
			severity = domain.SeverityCritical
		}
		status.Violations = append(status.Violations, domain.NewSLAViolation(
			tenantID, tier, domain.ViolationSuccessRate, severity,
			fmt.Sprintf("success rate %.2f%% below %s tier requirement of %.2f%%", successRatePct, tier, thresholds.SuccessRatePercentage),
			"success_rate_pct", successRatePct, thresholds.SuccessRatePercentage, now,
		))
	}

	if p95 > thresholds.ResponseTimeP95Ms {
		severity := domain.SeverityWarning
		if p95 > thresholds.ResponseTimeP95Ms*cfg.CriticalLatencyFactor {
			severity = domain.SeverityCritical
		}
		status.Violations = append(status.Violations, domain.NewSLAViolation(
			tenantID, tier, domain.ViolationLatency, severity,
			fmt.Sprintf("P95 latency %.0fms exceeds %s tier limit of %.0fms", p95, tier, thresholds.ResponseTimeP95Ms),
			"p95_latency_ms", p95, thresholds.ResponseTimeP95Ms, now,
		))
	}

	status.IsCompliant = len(status.Violations) == 0
	return status, nil
}
