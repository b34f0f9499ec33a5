package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	// HTTP
	HTTPAddr string

	// Journal defaults
	DefaultRiskPercent decimal.Decimal // Used when a trade is created without an explicit risk %
	StartingBalance    decimal.Decimal // Balance a new account is seeded with when none is given

	// Database
	DBPath string

	// Logging
	LogLevel string // Parsed by the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	if cfg.HTTPAddr == "" {
		errs = append(errs, "HTTP_ADDR must be set")
	}

	riskPercent, err := getEnvAsDecimal("DEFAULT_RISK_PERCENT", "1")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_RISK_PERCENT: %v", err))
	} else if !riskPercent.IsPositive() || riskPercent.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, "DEFAULT_RISK_PERCENT must be in (0, 100]")
	}
	cfg.DefaultRiskPercent = riskPercent

	startingBalance, err := getEnvAsDecimal("STARTING_BALANCE", "10000")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STARTING_BALANCE: %v", err))
	} else if startingBalance.IsNegative() {
		errs = append(errs, "STARTING_BALANCE cannot be negative")
	}
	cfg.StartingBalance = startingBalance

	cfg.DBPath = getEnv("DB_PATH", "./data/trade_journal.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key, defaultValue string) (decimal.Decimal, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
