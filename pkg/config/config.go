package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: history falls back to memory when URL is empty)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Prediction backend
	Prediction PredictionConfig

	// Sessions
	Session SessionConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// PredictionConfig selects and tunes the PredictionService implementation
type PredictionConfig struct {
	Service      string        // stub, remote
	BackendURL   string        // remote only
	StubDelay    time.Duration // fixed latency of the stub
	StubFixtures string        // optional YAML of canned per-symbol results
	Timeout      time.Duration // per-request timeout for the remote backend
	RatePerSec   int           // outbound request rate for the remote backend
	MaxRetries   int
}

// SessionConfig holds session registry limits
type SessionConfig struct {
	IdleTTL         time.Duration
	MaxSessions     int
	SubmitRateLimit int // submissions per minute per session, 0 = unlimited
	ReaperSchedule  string
}

// Service implementations
const (
	ServiceStub   = "stub"
	ServiceRemote = "remote"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Prediction: PredictionConfig{
			Service:      strings.ToLower(getEnv("PREDICTION_SERVICE", ServiceStub)),
			BackendURL:   getEnv("PREDICTION_BACKEND_URL", ""),
			StubDelay:    getEnvAsDuration("PREDICTION_STUB_LATENCY", "2s"),
			StubFixtures: getEnv("PREDICTION_STUB_FIXTURES", ""),
			Timeout:      getEnvAsDuration("PREDICTION_TIMEOUT", "30s"),
			RatePerSec:   getEnvAsInt("PREDICTION_RATE_PER_SEC", 5),
			MaxRetries:   getEnvAsInt("PREDICTION_MAX_RETRIES", 3),
		},

		Session: SessionConfig{
			IdleTTL:         getEnvAsDuration("SESSION_IDLE_TTL", "30m"),
			MaxSessions:     getEnvAsInt("SESSION_MAX", 1000),
			SubmitRateLimit: getEnvAsInt("SUBMIT_RATE_LIMIT", 30),
			ReaperSchedule:  getEnv("SESSION_REAPER_SCHEDULE", "0 * * * * *"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Prediction.Service {
	case ServiceStub:
	case ServiceRemote:
		if c.Prediction.BackendURL == "" {
			return fmt.Errorf("PREDICTION_BACKEND_URL is required when PREDICTION_SERVICE=remote")
		}
	default:
		return fmt.Errorf("PREDICTION_SERVICE must be one of: stub, remote")
	}

	if c.Prediction.StubDelay < 0 {
		return fmt.Errorf("PREDICTION_STUB_LATENCY must not be negative")
	}

	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("SESSION_MAX must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
