package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all engine configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string

	// Persistent tier
	DatabaseURL  string // empty disables the database; the file fallback serves alone
	RedisURL     string // optional rate-limiter storage
	FallbackPath string
	StoreTTL     time.Duration

	// Memory tier
	CacheSize     int
	CacheTTL      time.Duration
	SweepInterval time.Duration

	// Provider chain
	ProviderTimeout time.Duration
	MaxConcurrent   int
	RetryAttempts   int
	RetryDelay      time.Duration
	Coalesce        bool // per-key in-flight deduplication

	// Batch writes
	BatchSize     int
	BatchDebounce time.Duration

	// Maintenance
	GCInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:          getEnv("ENV", "development"),
		ServerAddr:   getEnv("SERVER_ADDR", ":3000"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		RedisURL:     getEnv("REDIS_URL", ""),
		FallbackPath: getEnv("FALLBACK_PATH", "data/geocache-fallback.json"),
		StoreTTL:     getEnvDuration("STORE_TTL", 7*24*time.Hour),

		CacheSize:     getEnvInt("CACHE_SIZE", 1000),
		CacheTTL:      getEnvDuration("CACHE_TTL", 10*time.Minute),
		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),

		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 5*time.Second),
		MaxConcurrent:   getEnvInt("MAX_CONCURRENT", 50),
		RetryAttempts:   getEnvInt("RETRY_ATTEMPTS", 3),
		RetryDelay:      getEnvDuration("RETRY_DELAY", time.Second),
		Coalesce:        getEnv("COALESCE", "") != "",

		BatchSize:     getEnvInt("BATCH_SIZE", 50),
		BatchDebounce: getEnvDuration("BATCH_DEBOUNCE", 2*time.Second),

		GCInterval: getEnvDuration("GC_INTERVAL", time.Hour),
	}
}

// Validate rejects configurations the engine cannot run with. Called once
// at startup; a failure here is fatal, unlike anything on the lookup path.
func (c *Config) Validate() error {
	if c.CacheSize < 1 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %v", c.CacheTTL)
	}
	if c.StoreTTL < c.CacheTTL {
		return fmt.Errorf("STORE_TTL (%v) must not be shorter than CACHE_TTL (%v)", c.StoreTTL, c.CacheTTL)
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT must be positive, got %d", c.MaxConcurrent)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be positive, got %d", c.RetryAttempts)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.BatchDebounce <= 0 {
		return fmt.Errorf("BATCH_DEBOUNCE must be positive, got %v", c.BatchDebounce)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %v", c.ProviderTimeout)
	}
	if c.FallbackPath == "" {
		return fmt.Errorf("FALLBACK_PATH must not be empty")
	}
	return nil
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
