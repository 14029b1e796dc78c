// Package config loads service configuration from the environment and from
// an optional scoring override file.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Redis cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// HTTP API
	APIPort int

	// LLM report generation
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTimeout     time.Duration
	ReportInterval time.Duration

	// Collector
	CollectorBaseURL string
	CollectorDelay   time.Duration

	// Realtime quote feed
	RealtimeURL     string
	RealtimeEnabled bool

	// Simulated trading
	TradeBudget float64

	// Scheduling (cron expressions, seconds field included)
	PipelineSchedule   string
	ReevaluateSchedule string
	SyncSchedule       string

	// Scoring overrides file (optional)
	ScoringFile string
}

// LoadFromEnv loads configuration from environment variables, reading a
// local .env file first when present.
func LoadFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBName:     getEnvOrDefault("DB_NAME", "stockgravity"),
		DBUser:     getEnvOrDefault("DB_USER", "postgres"),
		DBPassword: getEnvOrDefault("DB_PASSWORD", ""),

		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,

		APIPort: getEnvInt("API_PORT", 8080),

		LLMBaseURL:     getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:      getEnvOrDefault("LLM_API_KEY", ""),
		LLMModel:       getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		ReportInterval: time.Duration(getEnvInt("REPORT_INTERVAL_SECONDS", 3)) * time.Second,

		CollectorBaseURL: getEnvOrDefault("COLLECTOR_BASE_URL", "https://finance.naver.com"),
		CollectorDelay:   time.Duration(getEnvInt("COLLECTOR_DELAY_MS", 300)) * time.Millisecond,

		RealtimeURL:     getEnvOrDefault("REALTIME_WS_URL", ""),
		RealtimeEnabled: getEnvOrDefault("REALTIME_ENABLED", "false") == "true",

		TradeBudget: getEnvFloat("TRADE_BUDGET", 1_000_000),

		PipelineSchedule:   getEnvOrDefault("PIPELINE_SCHEDULE", "0 30 16 * * MON-FRI"),
		ReevaluateSchedule: getEnvOrDefault("REEVALUATE_SCHEDULE", "0 0 17 * * MON-FRI"),
		SyncSchedule:       getEnvOrDefault("SYNC_SCHEDULE", "0 15 17 * * MON-FRI"),

		ScoringFile: getEnvOrDefault("SCORING_FILE", ""),
	}
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
