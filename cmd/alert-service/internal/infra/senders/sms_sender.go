package senders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/domain"
)

// smsMaxLength 短信正文字符数上限，超出截断
const smsMaxLength = 160

// truncateSMS 按 rune 边界截断，标题可能含多字节字符
func truncateSMS(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// SMSSender 短信网关发送器
type SMSSender struct {
	client     *http.Client
	gatewayURL string
	apiKey     string
	toNumber   string
	logger     *zap.Logger
}

// NewSMSSender 创建短信发送器
func NewSMSSender(gatewayURL, apiKey, toNumber string, logger *zap.Logger) *SMSSender {
	return &SMSSender{
		client:     &http.Client{Timeout: 10 * time.Second},
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		toNumber:   toNumber,
		logger:     logger,
	}
}

// Send 发送告警短信
func (s *SMSSender) Send(ctx context.Context, alert *domain.Alert, rule *domain.AlertRule) error {
	text := truncateSMS(fmt.Sprintf("[%s] %s: %s=%g", alert.Severity, alert.Title, alert.Metric, alert.Value), smsMaxLength)

	payload := map[string]string{
		"to":   s.toNumber,
		"text": text,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status: %d", resp.StatusCode)
	}

	s.logger.Info("alert SMS sent",
		zap.String("to", s.toNumber),
		zap.String("alert_id", alert.ID),
	)
	return nil
}
