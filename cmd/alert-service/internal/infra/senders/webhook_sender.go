package senders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/domain"
)

// WebhookSender 通过 HTTP POST 推送告警，按端点维护独立熔断器
type WebhookSender struct {
	client   *http.Client
	endpoint string
	logger   *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewWebhookSender 创建 webhook 发送器
func NewWebhookSender(endpoint string, timeout time.Duration, logger *zap.Logger) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// severityColor 严重级别到颜色码的映射（渠道内部约定）
func severityColor(s domain.AlertSeverity) string {
	switch s {
	case domain.SeverityCritical:
		return "#ff0000"
	case domain.SeverityWarning:
		return "#ff9500"
	default:
		return "#36a64f"
	}
}

// Send 构造载荷并 POST 到端点；熔断器打开视同发送失败
func (s *WebhookSender) Send(ctx context.Context, alert *domain.Alert, rule *domain.AlertRule) error {
	payload := map[string]interface{}{
		"title":       alert.Title,
		"description": alert.Message,
		"color":       severityColor(alert.Severity),
		"fields": map[string]interface{}{
			"severity": alert.Severity,
			"metric":   alert.Metric,
			"value":    alert.Value,
			"window":   rule.Condition.Window,
		},
		"timestamp": alert.TriggeredAt.Format(time.RFC3339),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	breaker := s.breakerFor(s.endpoint)
	_, err = breaker.Execute(func() (interface{}, error) {
		return nil, s.post(ctx, jsonData)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("webhook endpoint circuit open: %w", err)
	}
	return err
}

func (s *WebhookSender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "AlertHub-Notification/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}

// breakerFor 按端点懒建熔断器
func (s *WebhookSender) breakerFor(endpoint string) *gobreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, ok := s.breakers[endpoint]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("webhook circuit state changed",
				zap.String("endpoint", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	s.breakers[endpoint] = cb
	return cb
}
