package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the QueueSmart service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	SessionSecret     string
	SessionTTL        time.Duration
	PromotionInterval time.Duration
	SeedDemoData      bool
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is applied first when present. The
// loader applies defaults for optional fields while validating required
// values. An empty SQLiteDSN selects the in-memory store.
func Load() (Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:          8080,
		SQLiteDSN:         "",
		SessionTTL:        24 * time.Hour,
		PromotionInterval: 10 * time.Second,
		SeedDemoData:      false,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("QUEUESMART_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "QUEUESMART_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("QUEUESMART_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("QUEUESMART_SESSION_SECRET")); secret == "" {
		missing = append(missing, "QUEUESMART_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("QUEUESMART_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "QUEUESMART_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if intervalValue := strings.TrimSpace(os.Getenv("QUEUESMART_PROMOTION_INTERVAL")); intervalValue != "" {
		interval, err := time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "QUEUESMART_PROMOTION_INTERVAL")
		} else {
			cfg.PromotionInterval = interval
		}
	}

	if seedValue := strings.TrimSpace(os.Getenv("QUEUESMART_SEED_DEMO_DATA")); seedValue != "" {
		seed, err := strconv.ParseBool(seedValue)
		if err != nil {
			invalid = append(invalid, "QUEUESMART_SEED_DEMO_DATA")
		} else {
			cfg.SeedDemoData = seed
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
