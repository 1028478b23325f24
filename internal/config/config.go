package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	SMTP         SMTPConfig
	SMS          SMSConfig
	Webhook      WebhookConfig
	Kafka        KafkaConfig
	Notification NotificationConfig
	Ingest       IngestConfig
	CORS         CORSConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port            int
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver   string // postgres | memory
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig is optional; an empty Addr disables the preference cache and
// falls back to an in-process rate limiter.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	PreferenceTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
	SSEExpiration    string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type SMSConfig struct {
	Endpoint string
	APIKey   string
	Sender   string
}

type WebhookConfig struct {
	Timeout       time.Duration
	SigningSecret string
}

// KafkaConfig is optional; no brokers means the consumer is not started
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type NotificationConfig struct {
	WorkerCount       int
	QueueSize         int
	DeliveryTimeout   time.Duration
	MaxParallelSends  int
	EscalationSweep   time.Duration
	EscalationLease   time.Duration
	EscalationBatch   int
	DigestSweep       time.Duration
	DigestBatch       int
	DigestHour        int
	TestSendLimit     int
	TestSendWindow    time.Duration
	HeartbeatInterval time.Duration
	SSEBufferSize     int
}

// IngestConfig protects the internal submit endpoints
type IngestConfig struct {
	ServiceKeyHash string // bcrypt hash of the shared service key
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}
	var err error

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	config.App = AppConfig{
		Port:            appPort,
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: shutdownTimeout,
	}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	config.Database = DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "postgres"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "guardian"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Redis configuration
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	prefTTL, err := getEnvDuration("REDIS_PREFERENCE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	config.Redis = RedisConfig{
		Addr:          getEnv("REDIS_ADDR", ""),
		Password:      getEnv("REDIS_PASSWORD", ""),
		DB:            redisDB,
		PreferenceTTL: prefTTL,
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
		SSEExpiration:    getEnv("JWT_SSE_EXPIRATION_TIME", "5m"),
	}

	// SMTP configuration
	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "alerts@aicostguardian.local"),
		FromName: getEnv("SMTP_FROM_NAME", "AI Cost Guardian"),
	}

	config.SMS = SMSConfig{
		Endpoint: getEnv("SMS_ENDPOINT", ""),
		APIKey:   getEnv("SMS_API_KEY", ""),
		Sender:   getEnv("SMS_SENDER", "Guardian"),
	}

	webhookTimeout, err := getEnvDuration("WEBHOOK_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	config.Webhook = WebhookConfig{
		Timeout:       webhookTimeout,
		SigningSecret: getEnv("WEBHOOK_SIGNING_SECRET", ""),
	}

	config.Kafka = KafkaConfig{
		Brokers: getEnvSlice("KAFKA_BROKERS"),
		Topic:   getEnv("KAFKA_TOPIC", "notification-candidates"),
		GroupID: getEnv("KAFKA_GROUP_ID", "notification-policy"),
	}

	// Notification pipeline
	n := NotificationConfig{}
	if n.WorkerCount, err = getEnvInt("NOTIFICATION_WORKERS", 4); err != nil {
		return nil, err
	}
	if n.QueueSize, err = getEnvInt("NOTIFICATION_QUEUE_SIZE", 1000); err != nil {
		return nil, err
	}
	if n.DeliveryTimeout, err = getEnvDuration("NOTIFICATION_DELIVERY_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if n.MaxParallelSends, err = getEnvInt("NOTIFICATION_MAX_PARALLEL_SENDS", 6); err != nil {
		return nil, err
	}
	if n.EscalationSweep, err = getEnvDuration("NOTIFICATION_ESCALATION_SWEEP", 30*time.Second); err != nil {
		return nil, err
	}
	if n.EscalationLease, err = getEnvDuration("NOTIFICATION_ESCALATION_LEASE", 2*time.Minute); err != nil {
		return nil, err
	}
	if n.EscalationBatch, err = getEnvInt("NOTIFICATION_ESCALATION_BATCH", 100); err != nil {
		return nil, err
	}
	if n.DigestSweep, err = getEnvDuration("NOTIFICATION_DIGEST_SWEEP", time.Minute); err != nil {
		return nil, err
	}
	if n.DigestBatch, err = getEnvInt("NOTIFICATION_DIGEST_BATCH", 500); err != nil {
		return nil, err
	}
	if n.DigestHour, err = getEnvInt("NOTIFICATION_DIGEST_HOUR", 9); err != nil {
		return nil, err
	}
	if n.TestSendLimit, err = getEnvInt("NOTIFICATION_TEST_LIMIT", 5); err != nil {
		return nil, err
	}
	if n.TestSendWindow, err = getEnvDuration("NOTIFICATION_TEST_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if n.HeartbeatInterval, err = getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if n.SSEBufferSize, err = getEnvInt("SSE_BUFFER_SIZE", 10); err != nil {
		return nil, err
	}
	config.Notification = n

	config.Ingest = IngestConfig{
		ServiceKeyHash: getEnv("INGEST_SERVICE_KEY_HASH", ""),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Ingest.ServiceKeyHash == "" {
		return fmt.Errorf("INGEST_SERVICE_KEY_HASH is required")
	}
	if c.Notification.DigestHour < 0 || c.Notification.DigestHour > 23 {
		return fmt.Errorf("NOTIFICATION_DIGEST_HOUR must be between 0 and 23")
	}
	if c.Notification.WorkerCount < 1 {
		return fmt.Errorf("NOTIFICATION_WORKERS must be at least 1")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
