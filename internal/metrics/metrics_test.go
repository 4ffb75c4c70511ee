package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	require.NotNil(t, m)

	assert.NotNil(t, m.WebhookDurationSeconds)
	assert.NotNil(t, m.WebhookRequestsTotal)
	assert.NotNil(t, m.IntentsTotal)
	assert.NotNil(t, m.HTTPErrorsTotal)
	assert.NotNil(t, m.RateLimiterDropped)
	assert.NotNil(t, m.CatalogRecords)
	assert.NotNil(t, m.PlacesRequestsTotal)
	assert.NotNil(t, m.QuotaRetriesTotal)
	assert.NotNil(t, m.TranslationsTotal)
	assert.NotNil(t, m.CacheHitsTotal)
}

func TestRecorders(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.RecordWebhook("message", "success", 0.02)
	m.RecordIntent("listing")
	m.RecordIntent("listing")
	m.RecordHTTPError("invalid_signature", "webhook")
	m.RecordRateLimiterDrop("user")
	m.SetRateLimiterUsers(4)
	m.RecordCatalogLoad("file", 120)
	m.RecordPlacesRequest("search_text", "ok", 0.3)
	m.RecordQuotaRetry("search_text")
	m.RecordTranslation("google", "success")
	m.RecordCacheHit("place_details")
	m.RecordCacheMiss("translation")

	assert.InDelta(t, 2, testutil.ToFloat64(m.IntentsTotal.WithLabelValues("listing")), 0)
	assert.InDelta(t, 120, testutil.ToFloat64(m.CatalogRecords), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.RateLimiterUsers), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.QuotaRetriesTotal.WithLabelValues("search_text")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordWebhook("message", "success", 0.1)
		m.RecordIntent("menu")
		m.RecordCatalogLoad("empty", 0)
		m.RecordPlacesRequest("details", "ok", 0.1)
		m.RecordTranslation("gemini", "error")
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_ = New(registry)
	assert.Panics(t, func() { _ = New(registry) })
}
