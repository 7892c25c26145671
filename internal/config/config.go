package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Storage configuration
	DatabasePath string

	// Analysis cache configuration
	EnableAICache bool
	CacheTTL      time.Duration
	SweepSchedule string // cron expression for the optional expiry sweep

	// Quota configuration
	MaxAnalysesPerUserPerDay int

	// Batch driver configuration
	AnalysisBatchSize  int
	AnalysisBatchDelay time.Duration
	CostPerAnalysisUSD float64

	// AI provider configuration
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	MockAIProvider bool

	// Platform API credentials
	YouTubeAPIKey      string
	RedditClientID     string
	RedditClientSecret string

	// Report notification configuration
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	ReportWebhookURL  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DatabasePath: getEnv("DATABASE_PATH", "commentiq.db"),

		EnableAICache: getBoolEnv("ENABLE_AI_CACHE", true),
		CacheTTL:      time.Duration(getIntEnv("CACHE_TTL_HOURS", 24)) * time.Hour,
		SweepSchedule: getEnv("CACHE_SWEEP_SCHEDULE", "0 0 * * * *"),

		MaxAnalysesPerUserPerDay: getIntEnv("ANALYSIS_MAX_PER_USER_PER_DAY", 100),

		AnalysisBatchSize:  getIntEnv("ANALYSIS_BATCH_SIZE", 10),
		AnalysisBatchDelay: time.Duration(getIntEnv("ANALYSIS_BATCH_DELAY_MS", 500)) * time.Millisecond,
		CostPerAnalysisUSD: getFloatEnv("ANALYSIS_COST_PER_COMMENT_USD", 0.01),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		MockAIProvider: getBoolEnv("MOCK_AI_PROVIDER", false),

		YouTubeAPIKey:      getEnv("YOUTUBE_API_KEY", ""),
		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),

		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		ReportWebhookURL:  getEnv("REPORT_WEBHOOK_URL", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !c.MockAIProvider && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required unless MOCK_AI_PROVIDER is set")
	}

	if c.MaxAnalysesPerUserPerDay <= 0 {
		return fmt.Errorf("ANALYSIS_MAX_PER_USER_PER_DAY must be positive")
	}

	if c.AnalysisBatchSize <= 0 {
		return fmt.Errorf("ANALYSIS_BATCH_SIZE must be positive")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_HOURS must be positive")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
