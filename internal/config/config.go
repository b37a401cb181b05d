// Package config loads the pipeline's configuration from environment
// variables (optionally via a .env file), with typed defaults for every
// knob.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the pipeline needs to run: where to store data,
// how to reach the market-data provider, and the tunable knobs for rate
// limiting, batching, and recommendation ranking.
type Config struct {
	DBPath string // SQLite file path

	MarketDataBaseURL string
	MarketDataAPIKey  string
	MarketDataSpacing time.Duration // minimum delay between market-data calls

	ModelServiceURL string // inference endpoint for the external predictive model

	ScrapeDefaultSpacing time.Duration // fallback per-domain delay absent a Crawl-delay

	MarketDataBatchSize int // batch size for splitting the full stock universe each market-data job run

	DailyRecommendationTarget int           // max recommendations persisted per user per run
	RecommendationDeadline    time.Duration // wall-clock budget shared by the whole recommendation job run

	RiskWeightVolatility  float64
	RiskWeightUncertainty float64
	RiskWeightMarket      float64
	RiskThresholdLow      float64
	RiskThresholdMedium   float64

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from the environment, loading a .env file first
// if one is present (a missing .env is not an error).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath: getEnv("OPENALPHA_DB_PATH", "./data/openalpha.db"),

		MarketDataBaseURL: getEnv("MARKETDATA_BASE_URL", "https://api.marketdata.example/v1"),
		MarketDataAPIKey:  getEnv("MARKETDATA_API_KEY", ""),
		MarketDataSpacing: getEnvAsDuration("MARKETDATA_SPACING", 12*time.Second),

		ModelServiceURL: getEnv("MODEL_SERVICE_URL", "http://localhost:9100"),

		ScrapeDefaultSpacing: getEnvAsDuration("SCRAPE_DEFAULT_SPACING", 1*time.Second),

		MarketDataBatchSize: getEnvAsInt("MARKETDATA_BATCH_SIZE", 50),

		DailyRecommendationTarget: getEnvAsInt("RECOMMENDATION_DAILY_TARGET", 10),
		RecommendationDeadline:    getEnvAsDuration("RECOMMENDATION_DEADLINE", 60*time.Second),

		RiskWeightVolatility:  getEnvAsFloat("RISK_WEIGHT_VOLATILITY", 0.40),
		RiskWeightUncertainty: getEnvAsFloat("RISK_WEIGHT_UNCERTAINTY", 0.40),
		RiskWeightMarket:      getEnvAsFloat("RISK_WEIGHT_MARKET", 0.20),
		RiskThresholdLow:      getEnvAsFloat("RISK_THRESHOLD_LOW", 0.33),
		RiskThresholdMedium:   getEnvAsFloat("RISK_THRESHOLD_MEDIUM", 0.66),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the few invariants that would otherwise surface as
// confusing runtime failures deep in a job.
func (c *Config) Validate() error {
	if c.MarketDataAPIKey == "" {
		return fmt.Errorf("MARKETDATA_API_KEY is required")
	}
	if c.MarketDataBatchSize <= 0 {
		return fmt.Errorf("MARKETDATA_BATCH_SIZE must be positive")
	}
	if c.DailyRecommendationTarget <= 0 {
		return fmt.Errorf("RECOMMENDATION_DAILY_TARGET must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
