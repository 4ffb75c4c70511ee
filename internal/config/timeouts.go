// Package config provides centralized timeout constants for the application.
//
// LINE expects a quick 200 OK on the webhook. Every dialogue turn is a
// handful of in-memory lookups plus one Reply API call, so the processing
// budget is small. The batch side talks to the Google Places and
// Translation APIs, which enforce per-second quotas.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing bounds a single webhook request including the reply call.
	WebhookProcessing = 25 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite must cover WebhookProcessing plus serialization.
	WebhookHTTPWrite = 30 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Fetch job timeouts
const (
	// QuotaRequestTimeout is the per-request timeout for Places API calls.
	QuotaRequestTimeout = 10 * time.Second

	// QuotaBackoff is the fixed wait after a 429 or OVER_QUERY_LIMIT answer.
	QuotaBackoff = 60 * time.Second

	// QuotaMaxAttempts is the total number of attempts per quota-guarded call.
	QuotaMaxAttempts = 3

	// DetailFetchDelay is the politeness delay after every place details call.
	DetailFetchDelay = 600 * time.Millisecond

	// ReviewFetchDelay is the delay between stores in the review pass.
	ReviewFetchDelay = 100 * time.Millisecond

	// CatalogDownload bounds the remote catalog download at startup.
	CatalogDownload = 30 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// RateLimiterCleanupInterval is how often inactive user rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute

	// MetricsUpdateInterval is how often catalog gauges are refreshed.
	MetricsUpdateInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
