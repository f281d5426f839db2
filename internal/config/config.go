package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default lookback windows for the sensor snapshot reader. Demo businesses
// are seeded once with static data, so they use a 1-year window to keep
// that data visible; everyone else gets 24 hours.
const (
	DefaultWindowHours     = 24
	DefaultDemoWindowHours = 8760
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
	KafkaEnabled bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Scoring configuration.
	WindowHours       int
	DemoWindowHours   int
	DemoBusinessNames []string
	RankingWorkers    int
	RankingLimit      int
	TrendDays         int
	RebuildSchedule   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parseDuration("CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("RANKING_WORKERS", 8)
	if err != nil {
		return nil, err
	}

	windowHours, err := parsePositiveInt("WINDOW_HOURS", DefaultWindowHours)
	if err != nil {
		return nil, err
	}

	demoWindowHours, err := parsePositiveInt("DEMO_WINDOW_HOURS", DefaultDemoWindowHours)
	if err != nil {
		return nil, err
	}

	limit, err := parsePositiveInt("RANKING_LIMIT", 10)
	if err != nil {
		return nil, err
	}

	trendDays, err := parsePositiveInt("TREND_DAYS", 7)
	if err != nil {
		return nil, err
	}

	redisDB, err := parseNonNegativeInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	brokers := splitList(os.Getenv("KAFKA_BROKERS"))

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		CacheTTL:      cacheTTL,

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "sensor-generation-events"),
		KafkaGroupID: envOrDefault("KAFKA_GROUP_ID", "compliance-engine"),
		KafkaEnabled: len(brokers) > 0,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WindowHours:       windowHours,
		DemoWindowHours:   demoWindowHours,
		DemoBusinessNames: splitList(os.Getenv("DEMO_BUSINESS_NAMES")),
		RankingWorkers:    workers,
		RankingLimit:      limit,
		TrendDays:         trendDays,
		RebuildSchedule:   envOrDefault("REBUILD_SCHEDULE", "0 3 * * *"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

// envOrDefault returns the environment variable's value, or the default when unset.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
