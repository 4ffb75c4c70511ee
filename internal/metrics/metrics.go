// Package metrics defines the Prometheus metrics of the webhook server and
// the fetch job. All Record methods are safe on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// Dialogue metrics
	IntentsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterUsers   prometheus.Gauge

	// Catalog metrics
	CatalogRecords    prometheus.Gauge
	CatalogLoadsTotal *prometheus.CounterVec

	// Places API metrics (fetch job)
	PlacesRequestsTotal   *prometheus.CounterVec
	PlacesDurationSeconds *prometheus.HistogramVec
	QuotaRetriesTotal     *prometheus.CounterVec

	// Translation metrics (fetch job)
	TranslationsTotal *prometheus.CounterVec

	// Cache metrics (fetch job)
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		WebhookDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eats_webhook_duration_seconds",
				Help:    "Webhook event handling duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"event_type"}, // message, postback, follow
		),
		WebhookRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_webhook_events_total",
				Help: "Total webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // success, error, ignored, rate_limited
		),

		IntentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_dialogue_intents_total",
				Help: "Classified dialogue turns by intent kind",
			},
			[]string{"intent"},
		),

		HTTPErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_http_errors_total",
				Help: "Total HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // invalid_signature, reply_failed, ...
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_rate_limiter_dropped_total",
				Help: "Requests rejected by a rate limiter",
			},
			[]string{"limiter"},
		),
		RateLimiterUsers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "eats_rate_limiter_active_users",
				Help: "Users currently tracked by the per-user limiter",
			},
		),

		CatalogRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "eats_catalog_records",
				Help: "Store records held in memory",
			},
		),
		CatalogLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_catalog_loads_total",
				Help: "Catalog loads by source",
			},
			[]string{"source"}, // file, remote, snapshot, empty
		),

		PlacesRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_places_requests_total",
				Help: "Places API calls by operation and result",
			},
			[]string{"operation", "result"}, // result: ok, OVER_QUERY_LIMIT, REQUEST_FAILED, HTTP_4xx
		),
		PlacesDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eats_places_duration_seconds",
				Help:    "Places API call duration including quota backoff",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 60, 180},
			},
			[]string{"operation"},
		),
		QuotaRetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_quota_retries_total",
				Help: "Backoff sleeps caused by 429 or OVER_QUERY_LIMIT",
			},
			[]string{"operation"},
		),

		TranslationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_translations_total",
				Help: "Review translations by provider and status",
			},
			[]string{"provider", "status"},
		),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_cache_hits_total",
				Help: "Fetch cache hits by cache name",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eats_cache_misses_total",
				Help: "Fetch cache misses by cache name",
			},
			[]string{"cache"},
		),
	}
}

// RecordWebhook records one handled webhook event.
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	if m == nil {
		return
	}
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordIntent counts a classified dialogue turn.
func (m *Metrics) RecordIntent(intent string) {
	if m == nil {
		return
	}
	m.IntentsTotal.WithLabelValues(intent).Inc()
}

// RecordHTTPError records an HTTP error by type and module.
func (m *Metrics) RecordHTTPError(errorType, module string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordRateLimiterDrop counts a rejected request.
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiter).Inc()
}

// SetRateLimiterUsers updates the tracked-user gauge.
func (m *Metrics) SetRateLimiterUsers(count int) {
	if m == nil {
		return
	}
	m.RateLimiterUsers.Set(float64(count))
}

// RecordCatalogLoad records a completed catalog load.
func (m *Metrics) RecordCatalogLoad(source string, records int) {
	if m == nil {
		return
	}
	m.CatalogLoadsTotal.WithLabelValues(source).Inc()
	m.CatalogRecords.Set(float64(records))
}

// RecordPlacesRequest records one quota-guarded Places API call.
func (m *Metrics) RecordPlacesRequest(operation, result string, duration float64) {
	if m == nil {
		return
	}
	m.PlacesRequestsTotal.WithLabelValues(operation, result).Inc()
	m.PlacesDurationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordQuotaRetry counts a backoff sleep.
func (m *Metrics) RecordQuotaRetry(operation string) {
	if m == nil {
		return
	}
	m.QuotaRetriesTotal.WithLabelValues(operation).Inc()
}

// RecordTranslation records a translation attempt.
func (m *Metrics) RecordTranslation(provider, status string) {
	if m == nil {
		return
	}
	m.TranslationsTotal.WithLabelValues(provider, status).Inc()
}

// RecordCacheHit records a fetch cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a fetch cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}
