package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"alerthub/cmd/alert-service/internal/biz"
	"alerthub/cmd/alert-service/internal/conf"
	"alerthub/cmd/alert-service/internal/data"
	"alerthub/cmd/alert-service/internal/domain"
	"alerthub/cmd/alert-service/internal/handler"
	infrakafka "alerthub/cmd/alert-service/internal/infra/kafka"
	"alerthub/cmd/alert-service/internal/infra/senders"
	"alerthub/cmd/alert-service/internal/server"
	"alerthub/cmd/alert-service/internal/service"
)

// App 应用程序
type App struct {
	Logger     *zap.Logger
	HTTPServer *server.HTTPServer
	Engine     *biz.AlertRuleEngine
	Monitor    *biz.SLAMonitor
	Consumer   *infrakafka.Consumer

	db    *gorm.DB
	redis *redis.Client
}

// NewApp 组装应用程序
func NewApp(config *conf.Config, logger *zap.Logger) (*App, error) {
	db, err := data.NewDB(&data.Config{
		Host:            config.Database.Host,
		Port:            config.Database.Port,
		DBName:          config.Database.DBName,
		User:            config.Database.User,
		Password:        config.Database.Password,
		SSLMode:         config.Database.SSLMode,
		MaxOpenConns:    config.Database.MaxOpenConns,
		MaxIdleConns:    config.Database.MaxIdleConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	rdb := data.NewRedisClient(config.Redis.Addr, config.Redis.Password, config.Redis.DB)

	ruleRepo := data.NewRuleRepository(db)
	alertRepo := data.NewAlertRepository(db)
	violationRepo := data.NewViolationRepository(db)
	statusRepo := data.NewSLAStatusRepository(db)
	statusCache := data.NewSLAStatusCache(rdb, config.SLA.CacheTTL)

	buffer := biz.NewMetricsBuffer(config.Evaluation.Retention)

	senderMap := map[domain.NotificationChannel]biz.Sender{
		domain.ChannelWebhook: senders.NewWebhookSender(config.Channels.Webhook.Endpoint, config.Channels.Webhook.Timeout, logger),
		domain.ChannelEmail: senders.NewEmailSender(
			config.Channels.Email.SMTPHost,
			config.Channels.Email.SMTPPort,
			config.Channels.Email.SMTPUser,
			config.Channels.Email.SMTPPassword,
			config.Channels.Email.FromEmail,
			config.Channels.Email.ToEmail,
			logger,
		),
		domain.ChannelSMS: senders.NewSMSSender(
			config.Channels.SMS.GatewayURL,
			config.Channels.SMS.APIKey,
			config.Channels.SMS.ToNumber,
			logger,
		),
		domain.ChannelInApp: senders.NewInAppSender(rdb, logger),
	}
	dispatcher := biz.NewDispatcher(senderMap, logger)

	engine := biz.NewAlertRuleEngine(buffer, ruleRepo, alertRepo, dispatcher, config.Evaluation.Interval, logger)

	slaCfg := biz.SLAConfig{
		DowntimeMinutesPerFailure: config.SLA.DowntimeMinutesPerFailure,
		CriticalUptimeMarginPct:   config.SLA.CriticalUptimeMarginPct,
		CriticalLatencyFactor:     config.SLA.CriticalLatencyFactor,
		CriticalSuccessMarginPct:  config.SLA.CriticalSuccessMarginPct,
	}
	monitor := biz.NewSLAMonitor(buffer, violationRepo, statusRepo, statusCache, slaCfg, config.SLA.Interval, logger)

	srv := service.NewAlertService(engine, monitor, buffer, alertRepo, violationRepo, logger)
	httpServer := server.NewHTTPServer(handler.NewAlertHandler(srv, config.Evaluation.DefaultCooldown), logger)

	var consumer *infrakafka.Consumer
	if config.Kafka.Enabled {
		consumer = infrakafka.NewConsumer(config.Kafka.Brokers, config.Kafka.Topic, config.Kafka.GroupID, buffer, logger)
	}

	return &App{
		Logger:     logger,
		HTTPServer: httpServer,
		Engine:     engine,
		Monitor:    monitor,
		Consumer:   consumer,
		db:         db,
		redis:      rdb,
	}, nil
}

// Start 加载规则并启动评估循环与事件消费
func (a *App) Start(ctx context.Context) error {
	if err := a.Engine.LoadRules(ctx); err != nil {
		return err
	}
	a.Engine.Start(ctx)
	a.Monitor.Start(ctx)

	if a.Consumer != nil {
		go func() {
			if err := a.Consumer.Start(ctx); err != nil {
				a.Logger.Error("kafka consumer exited", zap.Error(err))
			}
		}()
	}

	a.Logger.Info("application started successfully")
	return nil
}

// Cleanup 清理资源
func (a *App) Cleanup() {
	a.Logger.Info("cleaning up resources...")

	a.Engine.Stop()
	a.Monitor.Stop()

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Error("failed to close database", zap.Error(err))
			}
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Error("failed to close redis", zap.Error(err))
		}
	}
}
