package biz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/domain"
)

// mockRuleRepo 规则仓储 mock
type mockRuleRepo struct {
	CreateFunc  func(ctx context.Context, rule *domain.AlertRule) error
	ListAllFunc func(ctx context.Context) ([]*domain.AlertRule, error)
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *domain.AlertRule) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rule)
	}
	return nil
}
func (m *mockRuleRepo) Update(ctx context.Context, rule *domain.AlertRule) error { return nil }
func (m *mockRuleRepo) Delete(ctx context.Context, id string) error              { return nil }
func (m *mockRuleRepo) GetByID(ctx context.Context, id string) (*domain.AlertRule, error) {
	return nil, domain.ErrRuleNotFound
}
func (m *mockRuleRepo) ListByTenant(ctx context.Context, tenantID string) ([]*domain.AlertRule, error) {
	return nil, nil
}
func (m *mockRuleRepo) ListAll(ctx context.Context) ([]*domain.AlertRule, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return nil, nil
}

// mockAlertRepo 告警仓储 mock，记录创建的告警
type mockAlertRepo struct {
	mu        sync.Mutex
	alerts    []*domain.Alert
	CreateErr error
}

func (m *mockAlertRepo) Create(ctx context.Context, alert *domain.Alert) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
	return nil
}
func (m *mockAlertRepo) Update(ctx context.Context, alert *domain.Alert) error { return nil }
func (m *mockAlertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	return nil, domain.ErrAlertNotFound
}
func (m *mockAlertRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alerts, nil
}

func (m *mockAlertRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}

// recordingSender 记录发送次数的 Sender mock
type recordingSender struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *recordingSender) Send(ctx context.Context, alert *domain.Alert, rule *domain.AlertRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestEngine(t *testing.T, buffer *MetricsBuffer, alertRepo *mockAlertRepo, sender Sender) *AlertRuleEngine {
	t.Helper()
	senders := map[domain.NotificationChannel]Sender{
		domain.ChannelInApp: sender,
	}
	dispatcher := NewDispatcher(senders, zap.NewNop())
	return NewAlertRuleEngine(buffer, &mockRuleRepo{}, alertRepo, dispatcher, time.Minute, zap.NewNop())
}

func errorRateRule(tenantID string, cooldown time.Duration) *domain.AlertRule {
	return domain.NewAlertRule(
		tenantID, "high error rate", "",
		domain.AlertCondition{
			Metric:    domain.MetricErrorRate,
			Operator:  domain.OpGreaterThan,
			Threshold: 5,
			Window:    domain.Window5m,
		},
		[]domain.NotificationChannel{domain.ChannelInApp},
		domain.SeverityWarning,
		cooldown,
	)
}

func feedErrorRate(buf *MetricsBuffer, tenantID string, rate float64, n int) {
	for i := 0; i < n; i++ {
		buf.Record(tenantID, domain.ExecutionSnapshot{
			Timestamp: time.Now(),
			Success:   true,
			Metrics:   map[domain.MetricName]float64{domain.MetricErrorRate: rate},
		})
	}
}

func TestEngine_CooldownSingleTrigger(t *testing.T) {
	buffer := NewMetricsBuffer(DefaultRetention)
	alertRepo := &mockAlertRepo{}
	sender := &recordingSender{}
	engine := newTestEngine(t, buffer, alertRepo, sender)

	rule := errorRateRule("t1", 10*time.Minute)
	require.NoError(t, engine.CreateRule(context.Background(), rule))

	// 冷却期内 50 条超阈值快照只触发一次
	base := time.Now()
	engine.now = func() time.Time { return base }
	feedErrorRate(buffer, "t1", 6, 50)

	engine.Tick(context.Background())
	engine.now = func() time.Time { return base.Add(time.Minute) }
	engine.Tick(context.Background())

	assert.Equal(t, 1, alertRepo.count())
	assert.Equal(t, 1, sender.count())
}

func TestEngine_CooldownElapsedTriggersAgain(t *testing.T) {
	buffer := NewMetricsBuffer(DefaultRetention)
	alertRepo := &mockAlertRepo{}
	sender := &recordingSender{}
	engine := newTestEngine(t, buffer, alertRepo, sender)

	rule := errorRateRule("t1", 10*time.Minute)
	require.NoError(t, engine.CreateRule(context.Background(), rule))

	base := time.Now()
	engine.now = func() time.Time { return base }
	feedErrorRate(buffer, "t1", 6, 5)
	engine.Tick(context.Background())

	// 冷却期满后再次满足条件 → 第二条告警
	engine.now = func() time.Time { return base.Add(10 * time.Minute) }
	feedErrorRate(buffer, "t1", 6, 5)
	engine.Tick(context.Background())

	assert.Equal(t, 2, alertRepo.count())
}

func TestEngine_ConditionFalseNoAlert(t *testing.T) {
	buffer := NewMetricsBuffer(DefaultRetention)
	alertRepo := &mockAlertRepo{}
	sender := &recordingSender{}
	engine := newTestEngine(t, buffer, alertRepo, sender)

	require.NoError(t, engine.CreateRule(context.Background(), errorRateRule("t1", time.Minute)))
	feedErrorRate(buffer, "t1", 2, 10)

	engine.Tick(context.Background())
	assert.Zero(t, alertRepo.count())
}

func TestEngine_DisabledRuleSkipped(t *testing.T) {
	buffer := NewMetricsBuffer(DefaultRetention)
	alertRepo := &mockAlertRepo{}
	sender := &recordingSender{}
	engine := newTestEngine(t, buffer, alertRepo, sender)

	rule := errorRateRule("t1", time.Minute)
	require.NoError(t, engine.CreateRule(context.Background(), rule))

	enabled := false
	_, err := engine.UpdateRule(context.Background(), rule.ID, domain.AlertRulePatch{Enabled: &enabled})
	require.NoError(t, err)

	feedErrorRate(buffer, "t1", 6, 10)
	engine.Tick(context.Background())
	assert.Zero(t, alertRepo.count())
}

func TestEngine_EmptyWindowNoAlert(t *testing.T) {
	buffer := NewMetricsBuffer(DefaultRetention)
	alertRepo := &mockAlertRepo{}
	engine := newTestEngine(t, buffer, alertRepo, &recordingSender{})

	require.NoError(t, engine.CreateRule(context.Background(), errorRateRule("t1", time.Minute)))
	engine.Tick(context.Background())
	assert.Zero(t, alertRepo.count())
}

func TestEngine_PersistFailureDoesNotStopTick(t *testing.T) {
	buffer := NewMetricsBuffer(DefaultRetention)
	alertRepo := &mockAlertRepo{CreateErr: errors.New("store down")}
	sender := &recordingSender{}
	engine := newTestEngine(t, buffer, alertRepo, sender)

	require.NoError(t, engine.CreateRule(context.Background(), errorRateRule("t1", time.Minute)))
	require.NoError(t, engine.CreateRule(context.Background(), errorRateRule("t2", time.Minute)))
	feedErrorRate(buffer, "t1", 6, 5)
	feedErrorRate(buffer, "t2", 6, 5)

	engine.Tick(context.Background())

	// 两条规则都被评估并分发，持久化失败只是大声记录
	assert.Equal(t, 2, sender.count())
}

func TestEngine_CreateRuleValidation(t *testing.T) {
	engine := newTestEngine(t, NewMetricsBuffer(DefaultRetention), &mockAlertRepo{}, &recordingSender{})

	max := 1.0
	testCases := []struct {
		name string
		rule *domain.AlertRule
		want error
	}{
		{
			"unknown metric",
			domain.NewAlertRule("t1", "r", "", domain.AlertCondition{Metric: "bogus", Operator: domain.OpGreaterThan, Window: domain.Window5m},
				[]domain.NotificationChannel{domain.ChannelInApp}, domain.SeverityInfo, time.Minute),
			domain.ErrUnknownMetric,
		},
		{
			"between without range",
			domain.NewAlertRule("t1", "r", "", domain.AlertCondition{Metric: domain.MetricErrorRate, Operator: domain.OpBetween, Threshold: 5, Window: domain.Window5m},
				[]domain.NotificationChannel{domain.ChannelInApp}, domain.SeverityInfo, time.Minute),
			domain.ErrBetweenNeedsRange,
		},
		{
			"between inverted range",
			domain.NewAlertRule("t1", "r", "", domain.AlertCondition{Metric: domain.MetricErrorRate, Operator: domain.OpBetween, Threshold: 5, ThresholdMax: &max, Window: domain.Window5m},
				[]domain.NotificationChannel{domain.ChannelInApp}, domain.SeverityInfo, time.Minute),
			domain.ErrBetweenRangeOrder,
		},
		{
			"no channels",
			domain.NewAlertRule("t1", "r", "", domain.AlertCondition{Metric: domain.MetricErrorRate, Operator: domain.OpGreaterThan, Window: domain.Window5m},
				nil, domain.SeverityInfo, time.Minute),
			domain.ErrNoChannels,
		},
		{
			"bad window",
			domain.NewAlertRule("t1", "r", "", domain.AlertCondition{Metric: domain.MetricErrorRate, Operator: domain.OpGreaterThan, Window: "7m"},
				[]domain.NotificationChannel{domain.ChannelInApp}, domain.SeverityInfo, time.Minute),
			domain.ErrInvalidWindow,
		},
		{
			"zero cooldown",
			domain.NewAlertRule("t1", "r", "", domain.AlertCondition{Metric: domain.MetricErrorRate, Operator: domain.OpGreaterThan, Window: domain.Window5m},
				[]domain.NotificationChannel{domain.ChannelInApp}, domain.SeverityInfo, 0),
			domain.ErrInvalidCooldown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.CreateRule(context.Background(), tc.rule)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEngine_UpdateMissingRule(t *testing.T) {
	engine := newTestEngine(t, NewMetricsBuffer(DefaultRetention), &mockAlertRepo{}, &recordingSender{})

	_, err := engine.UpdateRule(context.Background(), "missing", domain.AlertRulePatch{})
	assert.ErrorIs(t, err, domain.ErrRuleNotFound)
}

func TestEngine_DeleteRule(t *testing.T) {
	engine := newTestEngine(t, NewMetricsBuffer(DefaultRetention), &mockAlertRepo{}, &recordingSender{})

	rule := errorRateRule("t1", time.Minute)
	require.NoError(t, engine.CreateRule(context.Background(), rule))

	deleted, err := engine.DeleteRule(context.Background(), rule.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, engine.GetRules("t1"))

	deleted, err = engine.DeleteRule(context.Background(), rule.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestEngine_BusyGuardSkipsOverlappingTick(t *testing.T) {
	engine := newTestEngine(t, NewMetricsBuffer(DefaultRetention), &mockAlertRepo{}, &recordingSender{})

	// 模拟一个在途 tick，新 tick 必须直接跳过
	engine.ticking.Store(true)
	engine.Tick(context.Background())
	assert.True(t, engine.ticking.Load(), "busy guard must still be held by the in-flight tick")
	engine.ticking.Store(false)
}

func TestEngine_LoadRules(t *testing.T) {
	stored := []*domain.AlertRule{
		errorRateRule("t1", time.Minute),
		errorRateRule("t2", time.Minute),
	}
	repo := &mockRuleRepo{
		ListAllFunc: func(ctx context.Context) ([]*domain.AlertRule, error) {
			return stored, nil
		},
	}
	dispatcher := NewDispatcher(map[domain.NotificationChannel]Sender{}, zap.NewNop())
	engine := NewAlertRuleEngine(NewMetricsBuffer(DefaultRetention), repo, &mockAlertRepo{}, dispatcher, time.Minute, zap.NewNop())

	require.NoError(t, engine.LoadRules(context.Background()))
	assert.Len(t, engine.GetRules("t1"), 1)
	assert.Len(t, engine.GetRules("t2"), 1)
}
