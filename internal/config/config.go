package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken  string
	APIBaseURL     string
	DatabaseURL    string
	LogLevel       string
	WebhookURL     string
	WebhookSecret  string
	Port           string
	MigrationsPath string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first if present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		APIBaseURL:     getEnvOrDefault("API_BASE_URL", "http://localhost:5000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		WebhookSecret:  os.Getenv("WEBHOOK_SECRET"),
		Port:           getEnvOrDefault("PORT", "8080"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
	}

	// Required environment variables
	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}
	if cfg.UseWebhook() && cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET environment variable is required when WEBHOOK_URL is set")
	}

	return cfg, nil
}

// UseWebhook reports whether updates arrive by webhook instead of polling
func (c *Config) UseWebhook() bool {
	return c.WebhookURL != ""
}

// WebhookEndpoint is the URL registered with Telegram: WEBHOOK_URL, the public
// address of the webhook route, followed by the secret path segment.
func (c *Config) WebhookEndpoint() string {
	return strings.TrimRight(c.WebhookURL, "/") + "/" + url.PathEscape(c.WebhookSecret)
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
