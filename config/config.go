package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"healthadmin-backend/logger"
)

// Audit sink kinds accepted by AUDIT_SINK.
const (
	AuditSinkDB    = "db"
	AuditSinkKafka = "kafka"
	AuditSinkAMQP  = "amqp"
	AuditSinkLog   = "log"
)

// Config holds all configuration for the application.
type Config struct {
	// Server
	Port            string
	AllowedOrigins  string
	BodyLimitBytes  int
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Audit
	AuditSink       string
	KafkaBroker     string
	KafkaAuditTopic string
	AMQPURL         string
	AMQPAuditQueue  string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal in containers; the environment still applies.
	_ = godotenv.Load()

	bodyLimit := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimit <= 0 {
		bodyLimit = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "*"),
		BodyLimitBytes:  bodyLimit,
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		DBHost:     getEnv("DB_HOST", "db"),
		DBPort:     envInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "UTC"),

		JWTSecret: firstNonEmpty(os.Getenv("JWT_SECRET_KEY"), os.Getenv("JWT_SECRET")),
		JWTTTL:    time.Duration(envInt("JWT_TTL_HOURS", 24)) * time.Hour,

		AuditSink:       strings.ToLower(getEnv("AUDIT_SINK", AuditSinkDB)),
		KafkaBroker:     getEnv("KAFKA_BROKER", ""),
		KafkaAuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "healthadmin.audit"),
		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPAuditQueue:  getEnv("AMQP_AUDIT_QUEUE", "healthadmin.audit"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:     getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	switch c.AuditSink {
	case AuditSinkDB, AuditSinkLog:
	case AuditSinkKafka:
		if c.KafkaBroker == "" {
			return fmt.Errorf("KAFKA_BROKER is required for AUDIT_SINK=kafka")
		}
	case AuditSinkAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required for AUDIT_SINK=amqp")
		}
	default:
		return fmt.Errorf("unknown AUDIT_SINK %q", c.AuditSink)
	}
	return nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone)
}

// LoggerConfig returns the logger configuration from the main config.
func (c *Config) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
