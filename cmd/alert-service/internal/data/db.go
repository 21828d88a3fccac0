package data

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"alerthub/cmd/alert-service/internal/domain"
)

// Config 数据库连接配置
type Config struct {
	Host            string
	Port            int
	DBName          string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN 拼接 postgres 连接串
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewDB 建立数据库连接并迁移表结构
func NewDB(conf *Config, logger *zap.Logger) (*gorm.DB, error) {
	logger.Info("connecting to database",
		zap.String("host", conf.Host),
		zap.String("dbname", conf.DBName),
	)

	db, err := gorm.Open(postgres.Open(conf.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := conf.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 100
	}
	maxIdle := conf.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 10
	}
	lifetime := conf.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)

	if err := db.AutoMigrate(
		&domain.AlertRule{},
		&domain.Alert{},
		&domain.SLAViolation{},
		&domain.SLAStatusSnapshot{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info("database connected successfully")
	return db, nil
}
