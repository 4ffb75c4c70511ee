// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) for the webhook server and the fetch job.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ValidationMode selects which settings Load requires.
type ValidationMode int

const (
	// ServerMode requires LINE credentials.
	ServerMode ValidationMode = iota
	// FetchMode requires the Google API key instead.
	FetchMode
)

// Config holds all application configuration
type Config struct {
	// LINE Bot Configuration
	LineChannelToken  string
	LineChannelSecret string

	// Server Configuration
	Port            string
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFile   string
	LogToFile bool

	// Catalog
	StoresPath         string // output of the store pass, input of the review pass
	CatalogPath        string // CSV consumed by the bot and produced by the review pass
	CatalogRemoteURL   string // fallback download when CatalogPath is missing
	CatalogRemoteToken string // optional bearer token for CatalogRemoteURL
	FullReviewsPath    string // optional side output of the review pass

	// External APIs
	GoogleAPIKey       string
	GoogleTranslateKey string // falls back to GoogleAPIKey when empty
	GeminiAPIKey       string
	GroqAPIKey         string
	GeminiModel        string
	GroqModel          string

	// Fetch cache
	CachePath string
	CacheTTL  time.Duration

	// Rate Limits (Token Bucket Algorithm)
	UserRateBurst  float64
	UserRateRefill float64 // tokens per second

	R2          R2Config
	Sentry      SentryConfig
	BetterStack BetterStackConfig
	Metrics     MetricsConfig
}

// R2Config configures catalog snapshots on Cloudflare R2.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	SnapshotKey     string
	LockKey         string
	LockTTL         time.Duration
}

// Endpoint returns the S3-compatible endpoint for the account.
func (r R2Config) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.AccountID)
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool
	Token       string
	Host        string
	Environment string
	SampleRate  float64
}

// BetterStackConfig configures remote log shipping.
type BetterStackConfig struct {
	Enabled bool
	Token   string
}

// MetricsConfig configures /metrics Basic Auth.
type MetricsConfig struct {
	AuthEnabled bool
	Username    string
	Password    string
}

// Load reads configuration for the webhook server.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates it
// for the given mode. It attempts to load a .env file first.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),

		Port:            getEnv(EnvPort, "10000"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		LogLevel:  getEnv(EnvLogLevel, "info"),
		LogFile:   getEnv(EnvLogFile, "main.log"),
		LogToFile: getBoolEnv(EnvLogToFile, false),

		StoresPath:         getEnv(EnvStoresPath, "TaichungEats.csv"),
		CatalogPath:        getEnv(EnvCatalogPath, "TaichungEats_reviews.csv"),
		CatalogRemoteURL:   getEnv(EnvCatalogRemoteURL, ""),
		CatalogRemoteToken: getEnv(EnvCatalogRemoteToken, ""),
		FullReviewsPath:    getEnv(EnvFullReviewsPath, "full_reviews.csv"),

		GoogleAPIKey:       getEnv(EnvGoogleAPIKey, ""),
		GoogleTranslateKey: getEnv(EnvGoogleTranslateKey, ""),
		GeminiAPIKey:       getEnv(EnvGeminiAPIKey, ""),
		GroqAPIKey:         getEnv(EnvGroqAPIKey, ""),
		GeminiModel:        getEnv(EnvGeminiModel, ""),
		GroqModel:          getEnv(EnvGroqModel, ""),

		CachePath: getEnv(EnvCachePath, "data/fetch_cache.db"),
		CacheTTL:  getDurationEnv(EnvCacheTTL, 168*time.Hour), // 7 days

		UserRateBurst:  getFloatEnv(EnvUserRateBurst, 15.0),
		UserRateRefill: getFloatEnv(EnvUserRateRefill, 0.5),

		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			SnapshotKey:     getEnv(EnvR2SnapshotKey, "snapshots/catalog.csv.zst"),
			LockKey:         getEnv(EnvR2LockKey, "locks/fetch.lock"),
			LockTTL:         getDurationEnv(EnvR2LockTTL, 2*time.Hour),
		},
		Sentry: SentryConfig{
			Enabled:     getBoolEnv(EnvSentryEnabled, false),
			Token:       getEnv(EnvSentryToken, ""),
			Host:        getEnv(EnvSentryHost, ""),
			Environment: getEnv(EnvSentryEnvironment, "production"),
			SampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),
		},
		BetterStack: BetterStackConfig{
			Enabled: getBoolEnv(EnvBetterStackEnabled, false),
			Token:   getEnv(EnvBetterStackToken, ""),
		},
		Metrics: MetricsConfig{
			AuthEnabled: getBoolEnv(EnvMetricsAuthEnabled, false),
			Username:    getEnv(EnvMetricsUsername, "prometheus"),
			Password:    getEnv(EnvMetricsPassword, ""),
		},
	}

	if cfg.GoogleTranslateKey == "" {
		cfg.GoogleTranslateKey = cfg.GoogleAPIKey
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings required by the webhook server.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks required configuration values for the given mode.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	switch mode {
	case ServerMode:
		if c.LineChannelToken == "" {
			errs = append(errs, errors.New(EnvLineChannelAccessToken+" is required"))
		}
		if c.LineChannelSecret == "" {
			errs = append(errs, errors.New(EnvLineChannelSecret+" is required"))
		}
		if c.Port == "" {
			errs = append(errs, errors.New(EnvPort+" is required"))
		}
		if c.UserRateBurst <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvUserRateBurst, c.UserRateBurst))
		}
		if c.UserRateRefill <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvUserRateRefill, c.UserRateRefill))
		}
	case FetchMode:
		if c.GoogleAPIKey == "" {
			errs = append(errs, errors.New(EnvGoogleAPIKey+" is required"))
		}
		if c.StoresPath == "" {
			errs = append(errs, errors.New(EnvStoresPath+" is required"))
		}
		if c.CacheTTL <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvCacheTTL, c.CacheTTL))
		}
	}

	if c.CatalogPath == "" {
		errs = append(errs, errors.New(EnvCatalogPath+" is required"))
	}
	if c.LogToFile && c.LogFile == "" {
		errs = append(errs, errors.New(EnvLogFile+" is required when "+EnvLogToFile+" is set"))
	}
	if c.R2.Enabled {
		if c.R2.AccountID == "" || c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.BucketName == "" {
			errs = append(errs, errors.New("R2 is enabled but account, credentials or bucket is missing"))
		}
	}
	if c.Sentry.Enabled && (c.Sentry.Token == "" || c.Sentry.Host == "") {
		errs = append(errs, errors.New(EnvSentryToken+" and "+EnvSentryHost+" are required when Sentry is enabled"))
	}
	if c.BetterStack.Enabled && c.BetterStack.Token == "" {
		errs = append(errs, errors.New(EnvBetterStackToken+" is required when Better Stack is enabled"))
	}
	if c.Metrics.AuthEnabled && c.Metrics.Password == "" {
		errs = append(errs, errors.New(EnvMetricsPassword+" is required when metrics auth is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv accepts the usual strconv.ParseBool spellings
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
