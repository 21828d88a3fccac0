package conf

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Evaluation    EvaluationConfig    `mapstructure:"evaluation"`
	SLA           SLAConfig           `mapstructure:"sla"`
	Channels      ChannelsConfig      `mapstructure:"channels"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	MetricsPort     int           `mapstructure:"metrics_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DBName          string        `mapstructure:"dbname"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// EvaluationConfig 告警评估配置
type EvaluationConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	DefaultCooldown time.Duration `mapstructure:"default_cooldown"`
	Retention       time.Duration `mapstructure:"retention"`
}

// SLAConfig SLA 检查配置
type SLAConfig struct {
	Interval                  time.Duration `mapstructure:"interval"`
	CacheTTL                  time.Duration `mapstructure:"cache_ttl"`
	DowntimeMinutesPerFailure float64       `mapstructure:"downtime_minutes_per_failure"`
	CriticalUptimeMarginPct   float64       `mapstructure:"critical_uptime_margin_pct"`
	CriticalLatencyFactor     float64       `mapstructure:"critical_latency_factor"`
	CriticalSuccessMarginPct  float64       `mapstructure:"critical_success_margin_pct"`
}

// ChannelsConfig 通知渠道配置
type ChannelsConfig struct {
	Webhook WebhookConfig `mapstructure:"webhook"`
	Email   EmailConfig   `mapstructure:"email"`
	SMS     SMSConfig     `mapstructure:"sms"`
}

// WebhookConfig webhook 渠道配置
type WebhookConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// EmailConfig 邮件渠道配置
type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     string `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromEmail    string `mapstructure:"from_email"`
	ToEmail      string `mapstructure:"to_email"`
}

// SMSConfig 短信渠道配置
type SMSConfig struct {
	GatewayURL string `mapstructure:"gateway_url"`
	APIKey     string `mapstructure:"api_key"`
	ToNumber   string `mapstructure:"to_number"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	Environment    string `mapstructure:"environment"`
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("alert-service")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// 从环境变量覆盖敏感配置
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		config.Channels.Email.SMTPPassword = password
	}
	if key := os.Getenv("SMS_API_KEY"); key != "" {
		config.Channels.SMS.APIKey = key
	}

	applyDefaults(&config)
	return &config, nil
}

// applyDefaults 填充缺省值
func applyDefaults(c *Config) {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.MetricsPort == 0 {
		c.Server.MetricsPort = 9090
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Evaluation.Interval == 0 {
		c.Evaluation.Interval = time.Minute
	}
	if c.Evaluation.DefaultCooldown == 0 {
		c.Evaluation.DefaultCooldown = 15 * time.Minute
	}
	if c.Evaluation.Retention == 0 {
		c.Evaluation.Retention = 30 * 24 * time.Hour
	}
	if c.SLA.Interval == 0 {
		c.SLA.Interval = 5 * time.Minute
	}
	if c.SLA.CacheTTL == 0 {
		c.SLA.CacheTTL = 5 * time.Minute
	}
	if c.SLA.DowntimeMinutesPerFailure == 0 {
		c.SLA.DowntimeMinutesPerFailure = 0.5
	}
	if c.SLA.CriticalUptimeMarginPct == 0 {
		c.SLA.CriticalUptimeMarginPct = 1.0
	}
	if c.SLA.CriticalLatencyFactor == 0 {
		c.SLA.CriticalLatencyFactor = 2.0
	}
	if c.SLA.CriticalSuccessMarginPct == 0 {
		c.SLA.CriticalSuccessMarginPct = 5.0
	}
}
