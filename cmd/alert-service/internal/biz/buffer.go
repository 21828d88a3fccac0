package biz

import (
	"sync"
	"time"

	"alerthub/cmd/alert-service/internal/domain"
)

// DefaultRetention 缓冲区默认保留期
// SLA 计算需要 30 天视图；告警评估在读取时按窗口过滤，
// 因此单缓冲区取较长上限即可同时服务两种视图。
const DefaultRetention = 30 * 24 * time.Hour

// MetricsBuffer 按租户隔离的执行快照缓冲区
// 仅追加、按时间有界；每次写入顺带剪枝过期快照。
type MetricsBuffer struct {
	mu        sync.RWMutex
	retention time.Duration
	buffers   map[string][]domain.ExecutionSnapshot
	now       func() time.Time
}

// NewMetricsBuffer 创建缓冲区
func NewMetricsBuffer(retention time.Duration) *MetricsBuffer {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &MetricsBuffer{
		retention: retention,
		buffers:   make(map[string][]domain.ExecutionSnapshot),
		now:       time.Now,
	}
}

// Record 追加一条快照并剪枝过期数据，无失败路径
func (b *MetricsBuffer) Record(tenantID string, snap domain.ExecutionSnapshot) {
	if snap.Timestamp.IsZero() {
		snap.Timestamp = b.now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	buf := append(b.buffers[tenantID], snap)
	cutoff := b.now().Add(-b.retention)

	// 时间戳来自生产者，可能乱序到达，剪枝必须逐条检查
	n := 0
	for i := range buf {
		if !buf[i].Timestamp.Before(cutoff) {
			buf[n] = buf[i]
			n++
		}
	}
	b.buffers[tenantID] = buf[:n]
}

// Window 返回窗口内（ts >= now-d）的快照，按到达顺序
// 空缓冲区返回空切片。
func (b *MetricsBuffer) Window(tenantID string, d time.Duration) []domain.ExecutionSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	buf := b.buffers[tenantID]
	if len(buf) == 0 {
		return nil
	}

	cutoff := b.now().Add(-d)
	out := make([]domain.ExecutionSnapshot, 0, len(buf))
	for i := range buf {
		if !buf[i].Timestamp.Before(cutoff) {
			out = append(out, buf[i])
		}
	}
	return out
}

// All 返回租户保留期内的全部快照（SLA 计算用）
func (b *MetricsBuffer) All(tenantID string) []domain.ExecutionSnapshot {
	return b.Window(tenantID, b.retention)
}

// Tenants 返回当前持有数据的租户列表
func (b *MetricsBuffer) Tenants() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tenants := make([]string, 0, len(b.buffers))
	for id, buf := range b.buffers {
		if len(buf) > 0 {
			tenants = append(tenants, id)
		}
	}
	return tenants
}
