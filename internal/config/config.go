package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL string

	// CORS
	AllowedOrigins []string

	// Display
	DisplayCurrency string // ISO 4217 code used for formatted comparison cells

	// Market data refresher
	MarketRefreshEnabled  bool
	MarketRefreshSchedule string        // Cron expression (e.g., "0 */6 * * *")
	ScraperTimeout        time.Duration // Timeout for one indicator fetch cycle
	IndicatorsURL         string        // Central-bank indicators page to scrape
}

func Load() *Config {
	env := getEnv("ENV", "development")

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  env,

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/finchoice?sslmode=disable"),

		// CORS
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		// Display
		DisplayCurrency: getEnv("DISPLAY_CURRENCY", "RUB"),

		// Market data refresher
		MarketRefreshEnabled:  getBoolEnv("MARKET_REFRESH_ENABLED", true),
		MarketRefreshSchedule: getEnv("MARKET_REFRESH_SCHEDULE", "0 */6 * * *"), // Every 6 hours
		ScraperTimeout:        getDurationEnv("SCRAPER_TIMEOUT", 2*time.Minute),
		IndicatorsURL:         getEnv("INDICATORS_URL", "https://www.cbr.ru/eng/key-indicators/"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
