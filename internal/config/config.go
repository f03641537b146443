// Package config reads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Server
	Port    int
	DevMode bool

	// Database
	DatabasePath string

	// FRED-style provider
	ProviderBaseURL       string
	ProviderAPIKey        string
	ProviderTimeout       time.Duration
	ExpectedBytesPerDay   int64
	SanityAbsoluteCapByte int64
	SanityTolerance       float64

	// Scheduled import
	ImportCron         string
	ImportOnStartup    bool
	RetryMaxAttempts   int
	RetryDelay         time.Duration
	LeaseHoldAtMost    time.Duration
	LeaseHoldAtLeast   time.Duration
	LeaseName          string

	// Outbox
	OutboxScanInterval   time.Duration
	OutboxScanJitter     time.Duration
	OutboxRetentionDays  int

	// Broker
	BrokerAddrs     []string
	BrokerTopic     string
	BrokerDLQTopic  string
	BrokerGroup     string
	BrokerMaxRetry  int

	// Cache
	RedisAddr       string
	CacheNamespace  string
	CacheNullValues bool

	// Logging
	LogLevel string

	ProcessID string
}

// Load reads configuration from environment variables, applying an optional
// .env file first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	hostname, _ := os.Hostname()

	cfg := &Config{
		Port:         getEnvAsInt("HTTP_PORT", 8080),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		DatabasePath: getEnv("DATABASE_PATH", "./data/fxrates.db"),

		ProviderBaseURL:       getEnv("FRED_BASE_URL", "https://api.stlouisfed.org/fred"),
		ProviderAPIKey:        getEnv("FRED_API_KEY", ""),
		ProviderTimeout:       getEnvAsSeconds("FRED_TIMEOUT_SECONDS", 30),
		ExpectedBytesPerDay:   int64(getEnvAsInt("IMPORT_EXPECTED_BYTES_PER_DAY", 20)),
		SanityAbsoluteCapByte: int64(getEnvAsInt("IMPORT_SANITY_ABSOLUTE_CAP_BYTES", 300*1024)),
		SanityTolerance:       getEnvAsFloat("IMPORT_SANITY_TOLERANCE", 4.0),

		ImportCron:       getEnv("EXCHANGE_RATE_IMPORT_CRON", "0 23 * * *"),
		ImportOnStartup:  getEnvAsBool("EXCHANGE_RATE_IMPORT_ON_STARTUP", true),
		RetryMaxAttempts: getEnvAsInt("EXCHANGE_RATE_IMPORT_RETRY_MAX_ATTEMPTS", 3),
		RetryDelay:       getEnvAsMinutes("EXCHANGE_RATE_IMPORT_RETRY_DELAY_MINUTES", 5),
		LeaseHoldAtMost:  getEnvAsMinutes("EXCHANGE_RATE_IMPORT_LEASE_HOLD_AT_MOST_MINUTES", 15),
		LeaseHoldAtLeast: getEnvAsMinutes("EXCHANGE_RATE_IMPORT_LEASE_HOLD_AT_LEAST_MINUTES", 1),
		LeaseName:        getEnv("EXCHANGE_RATE_IMPORT_LEASE_NAME", "exchangeRateImport"),

		OutboxScanInterval:  getEnvAsSeconds("OUTBOX_SCAN_INTERVAL_SECONDS", 10),
		OutboxScanJitter:    getEnvAsSeconds("OUTBOX_SCAN_JITTER_SECONDS", 15),
		OutboxRetentionDays: getEnvAsInt("OUTBOX_RETENTION_DAYS", 30),

		BrokerAddrs:    getEnvAsList("BROKER_ADDRS", []string{"localhost:9092"}),
		BrokerTopic:    getEnv("BROKER_TOPIC", "currency.enabled"),
		BrokerDLQTopic: getEnv("BROKER_DLQ_TOPIC", "currency.enabled.dlq"),
		BrokerGroup:    getEnv("BROKER_CONSUMER_GROUP", "fxrates-importer"),
		BrokerMaxRetry: getEnvAsInt("BROKER_MAX_RETRY", 5),

		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		CacheNamespace:  getEnv("CACHE_NAMESPACE", "fxrates"),
		CacheNullValues: getEnvAsBool("CACHE_NULL_VALUES", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		ProcessID: getEnv("PROCESS_ID", hostname),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required configuration and documented ranges.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.ProviderAPIKey == "" {
		return fmt.Errorf("FRED_API_KEY is required")
	}
	if c.ProviderTimeout < time.Second || c.ProviderTimeout > 120*time.Second {
		return fmt.Errorf("FRED_TIMEOUT_SECONDS must be between 1 and 120")
	}
	if c.RetryMaxAttempts < 1 || c.RetryMaxAttempts > 10 {
		return fmt.Errorf("EXCHANGE_RATE_IMPORT_RETRY_MAX_ATTEMPTS must be between 1 and 10")
	}
	if c.RetryDelay < time.Minute || c.RetryDelay > 60*time.Minute {
		return fmt.Errorf("EXCHANGE_RATE_IMPORT_RETRY_DELAY_MINUTES must be between 1 and 60")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Second
}

func getEnvAsMinutes(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultValue)) * time.Minute
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	start := 0
	for i := 0; i <= len(value); i++ {
		if i == len(value) || value[i] == ',' {
			if i > start {
				out = append(out, value[start:i])
			}
			start = i + 1
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
