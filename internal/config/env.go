// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required for server)
	EnvLineChannelAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "LINE_CHANNEL_SECRET"

	// Server
	EnvPort            = "PORT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Logging
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFile   = "LOG_FILE"
	EnvLogToFile = "LOG_TO_FILE"

	// Catalog
	EnvStoresPath         = "STORES_PATH"
	EnvCatalogPath        = "CATALOG_PATH"
	EnvCatalogRemoteURL   = "CATALOG_REMOTE_URL"
	EnvCatalogRemoteToken = "CATALOG_REMOTE_TOKEN"
	EnvFullReviewsPath    = "FULL_REVIEWS_PATH"

	// External APIs (fetch job)
	EnvGoogleAPIKey       = "GOOGLE_API_KEY"
	EnvGoogleTranslateKey = "GOOGLE_TRANSLATE_KEY"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvGroqAPIKey         = "GROQ_API_KEY"
	EnvGeminiModel        = "GEMINI_TRANSLATE_MODEL"
	EnvGroqModel          = "GROQ_TRANSLATE_MODEL"

	// Fetch cache
	EnvCachePath = "CACHE_PATH"
	EnvCacheTTL  = "CACHE_TTL"

	// Rate Limits
	EnvUserRateBurst  = "USER_RATE_BURST"
	EnvUserRateRefill = "USER_RATE_REFILL"

	// R2 Snapshot Feature
	EnvR2Enabled         = "R2_ENABLED"
	EnvR2AccountID       = "R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"
	EnvR2SnapshotKey     = "R2_SNAPSHOT_KEY"
	EnvR2LockKey         = "R2_LOCK_KEY"
	EnvR2LockTTL         = "R2_LOCK_TTL"

	// Sentry Feature
	EnvSentryEnabled     = "SENTRY_ENABLED"
	EnvSentryToken       = "SENTRY_TOKEN"
	EnvSentryHost        = "SENTRY_HOST"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackEnabled = "BETTERSTACK_ENABLED"
	EnvBetterStackToken   = "BETTERSTACK_TOKEN"

	// Metrics Auth Feature
	EnvMetricsAuthEnabled = "METRICS_AUTH_ENABLED"
	EnvMetricsUsername    = "METRICS_USERNAME"
	EnvMetricsPassword    = "METRICS_PASSWORD"
)
