package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores all configuration of the application
type Config struct {
	GinMode   string
	HTTP      HTTPConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Notify    NotifyConfig
	Export    ExportConfig
	Log       LogConfig
	Bootstrap BootstrapConfig
}

type HTTPConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the postgres connection URL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
}

// Enabled reports whether the redis task queue should be used
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type NotifyConfig struct {
	Driver      string // log, sqs, webhook
	SQSQueueURL string
	WebhookURL  string
}

type ExportConfig struct {
	Bucket string
}

type LogConfig struct {
	Level  string
	Format string
}

type BootstrapConfig struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

const devJWTSecret = "default_super_secret_key"

// Load reads configs/.env when present, then the process environment
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{
		GinMode: getEnv("GIN_MODE", "debug"),
		HTTP: HTTPConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			AccessTTL:  getEnvAsDuration("JWT_ACCESS_TTL", 24*time.Hour),
			RefreshTTL: getEnvAsDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Stream:   getEnv("TASK_STREAM", "surveillance:tasks"),
			Group:    getEnv("TASK_GROUP", "surveillance-workers"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "surveillance-events"),
		},
		Notify: NotifyConfig{
			Driver:      strings.ToLower(getEnv("NOTIFY_DRIVER", "log")),
			SQSQueueURL: getEnv("NOTIFY_SQS_QUEUE_URL", ""),
			WebhookURL:  getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Export: ExportConfig{
			Bucket: getEnv("EXPORT_BUCKET", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@dharma.com"),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	if cfg.JWT.Secret == "" {
		if cfg.GinMode == "release" {
			return nil, errors.New("JWT_SECRET is required in release mode")
		}
		cfg.JWT.Secret = devJWTSecret
	}

	switch cfg.Notify.Driver {
	case "log":
	case "sqs":
		if cfg.Notify.SQSQueueURL == "" {
			return nil, errors.New("NOTIFY_SQS_QUEUE_URL is required for the sqs notify driver")
		}
	case "webhook":
		if cfg.Notify.WebhookURL == "" {
			return nil, errors.New("NOTIFY_WEBHOOK_URL is required for the webhook notify driver")
		}
	default:
		return nil, fmt.Errorf("unknown NOTIFY_DRIVER %q", cfg.Notify.Driver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
