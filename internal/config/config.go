package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreSheets   = "sheets"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	StoreBackend      string
	SheetID           string
	SheetName         string
	GoogleCredsBase64 string
	DatabaseURL       string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	TelegramBotToken      string
	TelegramWebhookSecret string
	TelegramAPIBaseURL    string
	TelegramAllowedChats  []int64

	AdminJWTSecret string

	ClockUTCOffsetHours int
	RateLimitRPS        float64
	RateLimitBurst      int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:      strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreSheets))),
		SheetID:           getEnv("SHEET_ID", ""),
		SheetName:         getEnv("SHEET_NAME", "Sheet1"),
		GoogleCredsBase64: getEnv("GCREDS_JSON_BASE64", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramWebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		TelegramAPIBaseURL:    getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		TelegramAllowedChats:  getEnvAsInt64List("TELEGRAM_ALLOWED_CHAT_IDS"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		ClockUTCOffsetHours: getEnvAsInt("CLOCK_UTC_OFFSET_HOURS", -3),
		RateLimitRPS:        getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:      getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// Validate checks that the selected store backend has what it needs.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case StoreSheets:
		if c.SheetID == "" {
			errs = append(errs, errors.New("SHEET_ID is required for the sheets store"))
		}
		if c.GoogleCredsBase64 == "" {
			errs = append(errs, errors.New("GCREDS_JSON_BASE64 is required for the sheets store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.ClockUTCOffsetHours < -12 || c.ClockUTCOffsetHours > 14 {
		errs = append(errs, fmt.Errorf("CLOCK_UTC_OFFSET_HOURS out of range: %d", c.ClockUTCOffsetHours))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsInt64List parses a comma separated id list, skipping bad entries.
func getEnvAsInt64List(key string) []int64 {
	var out []int64
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}
