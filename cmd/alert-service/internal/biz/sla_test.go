package biz

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alerthub/cmd/alert-service/internal/domain"
)

func executionStream(total, failed int, latencyMs float64) []domain.ExecutionSnapshot {
	snaps := make([]domain.ExecutionSnapshot, 0, total)
	for i := 0; i < total; i++ {
		snaps = append(snaps, domain.ExecutionSnapshot{
			Timestamp: time.Now(),
			Success:   i >= failed,
			LatencyMs: latencyMs,
		})
	}
	return snaps
}

func TestSLA_PremiumAllSuccess(t *testing.T) {
	// premium，1000 条全部成功，延迟 300ms → 合规且无违约
	status, err := CalculateSLAStatus(executionStream(1000, 0, 300), "t1", domain.TierPremium, DefaultSLAConfig(), time.Now())
	require.NoError(t, err)

	assert.True(t, status.IsCompliant)
	assert.Empty(t, status.Violations)
	assert.Equal(t, 100.0, status.UptimePct)
	assert.Equal(t, 300.0, status.P95LatencyMs)
}

func TestSLA_PremiumUptimeBreach(t *testing.T) {
	// premium，100 条中 10 条失败 → uptime 90%，远低于 99.99 → critical uptime 违约
	status, err := CalculateSLAStatus(executionStream(100, 10, 300), "t1", domain.TierPremium, DefaultSLAConfig(), time.Now())
	require.NoError(t, err)

	assert.False(t, status.IsCompliant)
	assert.Equal(t, 90.0, status.UptimePct)

	var uptimeViolation *domain.SLAViolation
	for i := range status.Violations {
		if status.Violations[i].Type == domain.ViolationUptime && status.Violations[i].Metric == "uptime_pct" {
			uptimeViolation = &status.Violations[i]
			break
		}
	}
	require.NotNil(t, uptimeViolation, "expected an uptime violation")
	// 90 < 99.99 - 1 → critical
	assert.Equal(t, domain.SeverityCritical, uptimeViolation.Severity)
}

func TestSLA_StandardCompliant(t *testing.T) {
	// standard，5000 条中 2 条失败（99.96%），延迟 800ms → 合规
	status, err := CalculateSLAStatus(executionStream(5000, 2, 800), "t1", domain.TierStandard, DefaultSLAConfig(), time.Now())
	require.NoError(t, err)

	assert.True(t, status.IsCompliant)
	assert.Empty(t, status.Violations)
	assert.InDelta(t, 99.96, status.SuccessRatePct, 0.01)
	assert.Equal(t, 800.0, status.P95LatencyMs)
}

func TestSLA_StandardSuccessRateWithinTier(t *testing.T) {
	// standard，99.6% 成功率满足 99.0% 的成功率阈值，800ms 满足延迟阈值；
	// 仅 uptime（99.6 < 99.9，差距在 1 点以内）产生一条 warning 违约
	status, err := CalculateSLAStatus(executionStream(500, 2, 800), "t1", domain.TierStandard, DefaultSLAConfig(), time.Now())
	require.NoError(t, err)

	require.Len(t, status.Violations, 1)
	assert.Equal(t, domain.ViolationUptime, status.Violations[0].Type)
	assert.Equal(t, domain.SeverityWarning, status.Violations[0].Severity)
	for i := range status.Violations {
		assert.NotEqual(t, domain.ViolationSuccessRate, status.Violations[i].Type)
		assert.NotEqual(t, domain.ViolationLatency, status.Violations[i].Type)
	}
}

func TestSLA_NoDataIsCompliant(t *testing.T) {
	// 新租户无数据按 100% 处理，避免误报
	status, err := CalculateSLAStatus(nil, "fresh", domain.TierPremium, DefaultSLAConfig(), time.Now())
	require.NoError(t, err)

	assert.True(t, status.IsCompliant)
	assert.Equal(t, 100.0, status.UptimePct)
	assert.Equal(t, 100.0, status.SuccessRatePct)
	assert.Equal(t, 0.0, status.P95LatencyMs)
}

func TestSLA_LatencySeverityMargin(t *testing.T) {
	// premium P95 上限 500ms：600ms → warning，1100ms（>2x）→ critical
	status, err := CalculateSLAStatus(executionStream(100, 0, 600), "t1", domain.TierPremium, DefaultSLAConfig(), time.Now())
	require.NoError(t, err)
	require.Len(t, status.Violations, 1)
	assert.Equal(t, domain.ViolationLatency, status.Violations[0].Type)
	assert.Equal(t, domain.SeverityWarning, status.Violations[0].Severity)

	status, err = CalculateSLAStatus(executionStream(100, 0, 1100), "t1", domain.TierPremium, DefaultSLAConfig(), time.Now())
	require.NoError(t, err)
	require.Len(t, status.Violations, 1)
	assert.Equal(t, domain.SeverityCritical, status.Violations[0].Severity)
}

func TestSLA_UnknownTier(t *testing.T) {
	_, err := CalculateSLAStatus(nil, "t1", domain.SLATier("platinum"), DefaultSLAConfig(), time.Now())
	assert.ErrorIs(t, err, domain.ErrUnknownTier)
}

func TestSLA_ComplianceMatchesViolations(t *testing.T) {
	// 一致性律：对任意层级与任意合成输入，isCompliant ⇔ 违约列表为空
	rng := rand.New(rand.NewSource(42))
	tiers := []domain.SLATier{domain.TierPremium, domain.TierStandard, domain.TierBasic}

	for i := 0; i < 200; i++ {
		tier := tiers[rng.Intn(len(tiers))]
		total := rng.Intn(500)
		failed := 0
		if total > 0 {
			failed = rng.Intn(total + 1)
		}
		latency := float64(rng.Intn(5000))

		status, err := CalculateSLAStatus(executionStream(total, failed, latency), "t1", tier, DefaultSLAConfig(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, len(status.Violations) == 0, status.IsCompliant,
			"tier=%s total=%d failed=%d latency=%f", tier, total, failed, latency)
	}
}

func TestSLA_SnapshotRoundsUpStatus(t *testing.T) {
	status, err := CalculateSLAStatus(executionStream(100, 10, 300), "t1", domain.TierPremium, DefaultSLAConfig(), time.Now())
	require.NoError(t, err)

	snap := status.Snapshot()
	assert.Equal(t, status.TenantID, snap.TenantID)
	assert.Equal(t, status.IsCompliant, snap.IsCompliant)
	assert.Equal(t, len(status.Violations), snap.ViolationCount)
}
