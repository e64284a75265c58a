package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Platform PlatformConfig
	Polling  PollingConfig
	Receipts ReceiptsConfig
	Notify   NotifyConfig
	Security SecurityConfig
	LogLevel string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// PlatformConfig holds the remote voting platform API configuration
type PlatformConfig struct {
	BaseURL     string
	APIKey      string
	HTTPTimeout time.Duration
}

// PollingConfig holds settlement polling configuration
type PollingConfig struct {
	Interval time.Duration
	MaxWait  time.Duration
}

// ReceiptsConfig holds settlement receipt storage configuration
type ReceiptsConfig struct {
	DBPath     string
	AttemptTTL time.Duration
}

// NotifyConfig holds Telegram notification configuration
type NotifyConfig struct {
	TelegramToken string
	AdminChatID   int64
}

// SecurityConfig holds inbound API authentication configuration
type SecurityConfig struct {
	APIKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
		},
		Platform: PlatformConfig{
			BaseURL:     getEnv("PLATFORM_BASE_URL", ""),
			APIKey:      getEnv("PLATFORM_API_KEY", ""),
			HTTPTimeout: parseDuration(getEnv("PLATFORM_HTTP_TIMEOUT", "10s"), 10*time.Second),
		},
		Polling: PollingConfig{
			Interval: parseDuration(getEnv("POLL_INTERVAL", "3s"), 3*time.Second),
			MaxWait:  parseDuration(getEnv("POLL_MAX_WAIT", "5m"), 5*time.Minute),
		},
		Receipts: ReceiptsConfig{
			DBPath:     getEnv("RECEIPTS_DB_PATH", "./db/receipts.db"),
			AttemptTTL: parseDuration(getEnv("ATTEMPT_TTL", "1h"), time.Hour),
		},
		Notify: NotifyConfig{
			TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
			AdminChatID:   parseInt64(getEnv("TELEGRAM_ADMIN_CHAT_ID", "0"), 0),
		},
		Security: SecurityConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	// Validate required fields
	if config.Platform.BaseURL == "" {
		return nil, fmt.Errorf("PLATFORM_BASE_URL is required")
	}
	if config.Polling.Interval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive")
	}

	return config, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseInt64 parses string to int64 with default value
func parseInt64(value string, defaultValue int64) int64 {
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// parseDuration parses string to time.Duration with default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
