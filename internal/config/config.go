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
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	Gradebook GradebookConfig

	// GradingUserID is the identity grades are pushed as. Submissions
	// graded by anyone else are treated as manual overrides.
	GradingUserID string

	Sweep SweepConfig

	KafkaBrokers []string
}

type GradebookConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type SweepConfig struct {
	// Schedule is a standard cron expression.
	Schedule string
	// TrailingWindow keeps sweeping programs this long past their end
	// date.
	TrailingWindow time.Duration
	Workers        int
}

// Load reads configuration from the environment, with an optional .env
// file for local runs.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		Gradebook: GradebookConfig{
			BaseURL: os.Getenv("GRADEBOOK_BASE_URL"),
			Token:   os.Getenv("GRADEBOOK_TOKEN"),
			Timeout: getEnvDuration("GRADEBOOK_TIMEOUT", 30*time.Second),
		},

		GradingUserID: os.Getenv("GRADING_USER_ID"),

		Sweep: SweepConfig{
			Schedule:       getEnv("SWEEP_SCHEDULE", "0 2 * * *"),
			TrailingWindow: time.Duration(getEnvInt("SWEEP_TRAILING_DAYS", 30)) * 24 * time.Hour,
			Workers:        getEnvInt("SWEEP_WORKERS", 4),
		},

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Gradebook.BaseURL == "" {
		return fmt.Errorf("GRADEBOOK_BASE_URL is required")
	}
	if c.GradingUserID == "" {
		return fmt.Errorf("GRADING_USER_ID is required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
