package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/log"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var (
	validBackends  = []string{BackendFile, BackendSQLite, BackendMemory}
	validProviders = []string{ProviderGemini, ProviderOpenAI}
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Storage
	DataBackend  string
	DataDir      string
	SQLiteDBPath string
	StoreSlot    string

	// Viewer time zone for "this month"
	Timezone string

	// AI narration
	AIProvider string
	AIAPIKey   string
	AIModel    string
	AIBaseURL  string

	InsightCacheTTL  time.Duration
	InsightCacheSize int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", BackendFile)),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		StoreSlot:    getEnv("STORE_SLOT", "transactions"),

		Timezone: getEnv("TIMEZONE", "Local"),

		AIProvider: strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini)),
		AIAPIKey:   getEnv("AI_API_KEY", os.Getenv("API_KEY")),
		AIModel:    getEnv("AI_MODEL", ""),
		AIBaseURL:  getEnv("AI_BASE_URL", ""),

		InsightCacheTTL:  getEnvDuration("INSIGHT_CACHE_TTL", 10*time.Minute),
		InsightCacheSize: getEnvInt("INSIGHT_CACHE_SIZE", 32),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

// AIEnabled reports whether a credential for the narration service is set.
func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

// Location resolves Timezone. "Local" and the empty string mean the process
// zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoggerConfig derives the logger settings. Validate reports bad values.
func (c *Config) LoggerConfig() log.Config {
	cfg := log.DefaultConfig()
	if level, err := log.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = level
	}
	if c.LogFormat != "" {
		cfg.Format = c.LogFormat
	}
	return cfg
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	switch c.DataBackend {
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	}

	if c.StoreSlot == "" {
		errors = append(errors, "store slot name cannot be empty")
	} else if strings.ContainsAny(c.StoreSlot, `/\`) || c.StoreSlot == "." || c.StoreSlot == ".." {
		errors = append(errors, fmt.Sprintf("invalid store slot '%s': must be a plain name", c.StoreSlot))
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if !slices.Contains(validProviders, c.AIProvider) {
		errors = append(errors, fmt.Sprintf("invalid AI provider '%s': must be one of %v", c.AIProvider, validProviders))
	}
	if c.AIBaseURL != "" {
		if u, err := url.Parse(c.AIBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AI base URL '%s': %v", c.AIBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid AI base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.InsightCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid insight cache size %d: must be at least 1", c.InsightCacheSize))
	}
	if c.InsightCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid insight cache TTL %v: must be at least 1 second", c.InsightCacheTTL))
	} else if c.InsightCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid insight cache TTL %v: must be at most 24 hours", c.InsightCacheTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
