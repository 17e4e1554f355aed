/*
Package config loads server configuration from the environment.

PURPOSE:
  Central place for all tunables. Values come from, in order of
  precedence:
  1. Command-line flags (cmd/server/main.go)
  2. Environment variables (optionally from a .env file via godotenv)
  3. Defaults below

VARIABLES:
  PORT                   HTTP server port (default 8080)
  DB_PATH                SQLite database path (default records.db)
  SCHEDULER_ENABLED      Enable the monthly generation scheduler (default true)
  SCHEDULER_INTERVAL     Check interval, Go duration syntax (default 1h)
  SCHEDULER_TENANTS      Comma-separated tenant IDs for automated runs
  DEFAULT_FEE_AMOUNT     Default monthly tuition amount for automated fee runs
                         (0 disables automated fee generation)

SEE ALSO:
  - cmd/server/main.go: Flag overrides and wiring
*/
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/skolara/records-engine/billing"
)

// Config holds all server settings.
type Config struct {
	Port             int
	DBPath           string
	SchedulerEnabled bool
	SchedulerTick    time.Duration
	SchedulerTenants []billing.TenantID
	DefaultFeeAmount billing.Money
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables win over .env entries.
func Load() Config {
	// Ignore the error: a missing .env file is the normal case.
	_ = godotenv.Load()

	cfg := Config{
		Port:             envInt("PORT", 8080),
		DBPath:           envString("DB_PATH", "records.db"),
		SchedulerEnabled: envBool("SCHEDULER_ENABLED", true),
		SchedulerTick:    envDuration("SCHEDULER_INTERVAL", time.Hour),
		DefaultFeeAmount: billing.NewMoney(envFloat("DEFAULT_FEE_AMOUNT", 0)),
	}

	for _, t := range strings.Split(envString("SCHEDULER_TENANTS", ""), ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			cfg.SchedulerTenants = append(cfg.SchedulerTenants, billing.TenantID(t))
		}
	}

	return cfg
}

// FeeComponents builds the component map for automated fee runs. Empty
// when no default amount is configured.
func (c Config) FeeComponents() billing.ComponentMap {
	if !c.DefaultFeeAmount.IsPositive() {
		return nil
	}
	return billing.ComponentMap{"tuition": c.DefaultFeeAmount}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
