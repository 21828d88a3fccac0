package senders

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"alerthub/cmd/alert-service/internal/domain"
)

// EmailSender SMTP 邮件发送器
type EmailSender struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	toEmail      string
	logger       *zap.Logger
}

// NewEmailSender 创建邮件发送器
func NewEmailSender(host, port, user, password, from, to string, logger *zap.Logger) *EmailSender {
	return &EmailSender{
		smtpHost:     host,
		smtpPort:     port,
		smtpUser:     user,
		smtpPassword: password,
		fromEmail:    from,
		toEmail:      to,
		logger:       logger,
	}
}

// Send 发送告警邮件
func (s *EmailSender) Send(ctx context.Context, alert *domain.Alert, rule *domain.AlertRule) error {
	subject := fmt.Sprintf("[%s] %s", alert.Severity, alert.Title)
	body := fmt.Sprintf("%s\r\n\r\nMetric: %s\r\nObserved: %g\r\nWindow: %s\r\nTriggered: %s\r\nTenant: %s\r\n",
		alert.Message, alert.Metric, alert.Value, rule.Condition.Window,
		alert.TriggeredAt.Format("2006-01-02 15:04:05 MST"), alert.TenantID)

	message := fmt.Sprintf("From: %s\r\n", s.fromEmail)
	message += fmt.Sprintf("To: %s\r\n", s.toEmail)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += "\r\n" + body

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)

	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{s.toEmail}, []byte(message)); err != nil {
		return err
	}

	s.logger.Info("alert email sent",
		zap.String("to", s.toEmail),
		zap.String("alert_id", alert.ID),
	)
	return nil
}
