package biz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"alerthub/cmd/alert-service/internal/domain"
)

func TestBuffer_EmptyWindow(t *testing.T) {
	buf := NewMetricsBuffer(DefaultRetention)
	assert.Empty(t, buf.Window("t1", time.Hour))
}

func TestBuffer_WindowFiltersByAge(t *testing.T) {
	buf := NewMetricsBuffer(DefaultRetention)
	now := time.Now()
	buf.now = func() time.Time { return now }

	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-2 * time.Hour)})
	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-30 * time.Minute)})
	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-time.Minute)})

	assert.Len(t, buf.Window("t1", time.Hour), 2)
	assert.Len(t, buf.Window("t1", 5*time.Minute), 1)
	assert.Len(t, buf.Window("t1", 24*time.Hour), 3)
}

func TestBuffer_ArrivalOrderPreserved(t *testing.T) {
	buf := NewMetricsBuffer(DefaultRetention)
	now := time.Now()
	buf.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		buf.Record("t1", domain.ExecutionSnapshot{
			Timestamp:   now.Add(time.Duration(i-5) * time.Minute),
			OperationID: string(rune('a' + i)),
		})
	}

	window := buf.Window("t1", time.Hour)
	for i := 1; i < len(window); i++ {
		assert.True(t, !window[i].Timestamp.Before(window[i-1].Timestamp))
	}
	assert.Equal(t, "a", window[0].OperationID)
}

func TestBuffer_RecordPrunesExpired(t *testing.T) {
	buf := NewMetricsBuffer(time.Hour)
	now := time.Now()
	buf.now = func() time.Time { return now }

	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-2 * time.Hour)})
	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-time.Minute)})

	all := buf.All("t1")
	assert.Len(t, all, 1, "snapshot older than retention must be pruned on the next record")
}

func TestBuffer_WindowFiltersOutOfOrderStraggler(t *testing.T) {
	// 生产者时间戳（HTTP body、Kafka 重放）可能乱序到达：
	// 新快照之后追加的陈旧快照仍必须被窗口过滤掉
	buf := NewMetricsBuffer(DefaultRetention)
	now := time.Now()
	buf.now = func() time.Time { return now }

	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-time.Minute)})
	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-2 * time.Hour)})

	window := buf.Window("t1", time.Hour)
	assert.Len(t, window, 1)
	for i := range window {
		assert.False(t, window[i].Timestamp.Before(now.Add(-time.Hour)),
			"window must not contain snapshots older than the cutoff")
	}
}

func TestBuffer_PruneHandlesOutOfOrderStraggler(t *testing.T) {
	buf := NewMetricsBuffer(time.Hour)
	now := time.Now()
	buf.now = func() time.Time { return now }

	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-time.Minute)})
	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-2 * time.Hour)})
	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: now.Add(-30 * time.Minute)})

	all := buf.All("t1")
	assert.Len(t, all, 2, "expired snapshot must be pruned even when newer entries precede it")

	buf.mu.RLock()
	stored := len(buf.buffers["t1"])
	buf.mu.RUnlock()
	assert.Equal(t, 2, stored, "straggler must be removed from the backing slice, not just filtered on read")
}

func TestBuffer_TenantIsolation(t *testing.T) {
	buf := NewMetricsBuffer(DefaultRetention)
	buf.Record("t1", domain.ExecutionSnapshot{Timestamp: time.Now()})
	buf.Record("t2", domain.ExecutionSnapshot{Timestamp: time.Now()})
	buf.Record("t2", domain.ExecutionSnapshot{Timestamp: time.Now()})

	assert.Len(t, buf.Window("t1", time.Hour), 1)
	assert.Len(t, buf.Window("t2", time.Hour), 2)
	assert.ElementsMatch(t, []string{"t1", "t2"}, buf.Tenants())
}

func TestBuffer_ZeroTimestampDefaultsToNow(t *testing.T) {
	buf := NewMetricsBuffer(DefaultRetention)
	buf.Record("t1", domain.ExecutionSnapshot{})

	window := buf.Window("t1", time.Minute)
	assert.Len(t, window, 1)
	assert.False(t, window[0].Timestamp.IsZero())
}
