package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/biz"
	"alerthub/cmd/alert-service/internal/domain"
	"alerthub/pkg/monitoring"
)

// executionEvent 生产者发布的执行事件载荷
type executionEvent struct {
	TenantID    string             `json:"tenant_id"`
	OperationID string             `json:"operation_id"`
	Timestamp   time.Time          `json:"timestamp"`
	Success     bool               `json:"success"`
	LatencyMs   float64            `json:"latency_ms"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// Consumer 从 executions 主题消费执行事件并写入指标缓冲区
type Consumer struct {
	reader *kafka.Reader
	buffer *biz.MetricsBuffer
	logger *zap.Logger
}

// NewConsumer 创建消费者
func NewConsumer(brokers []string, topic, groupID string, buffer *biz.MetricsBuffer, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
	})

	return &Consumer{
		reader: reader,
		buffer: buffer,
		logger: logger,
	}
}

// Start 消费循环；写缓冲区不会失败，坏消息记录后直接提交跳过
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("execution event consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("execution event consumer stopping")
			return c.reader.Close()
		default:
			message, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				c.logger.Error("failed to fetch message", zap.Error(err))
				continue
			}

			c.processMessage(message)

			if err := c.reader.CommitMessages(ctx, message); err != nil {
				c.logger.Error("failed to commit message", zap.Error(err))
			}
		}
	}
}

func (c *Consumer) processMessage(message kafka.Message) {
	var event executionEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		c.logger.Warn("malformed execution event, skipping",
			zap.Int64("offset", message.Offset),
			zap.Error(err),
		)
		return
	}
	if event.TenantID == "" {
		c.logger.Warn("execution event missing tenant_id, skipping",
			zap.Int64("offset", message.Offset),
		)
		return
	}

	snap := domain.ExecutionSnapshot{
		Timestamp:   event.Timestamp,
		Success:     event.Success,
		LatencyMs:   event.LatencyMs,
		OperationID: event.OperationID,
	}
	if len(event.Metrics) > 0 {
		snap.Metrics = make(map[domain.MetricName]float64, len(event.Metrics))
		for k, v := range event.Metrics {
			snap.Metrics[domain.MetricName(k)] = v
		}
	}

	c.buffer.Record(event.TenantID, snap)
	monitoring.IngestedSnapshots.WithLabelValues("kafka").Inc()
}
