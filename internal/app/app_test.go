package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/taichung-eats-linebot/internal/catalog"
	"github.com/garyellow/taichung-eats-linebot/internal/config"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
	"github.com/garyellow/taichung-eats-linebot/internal/ratelimit"
	"github.com/garyellow/taichung-eats-linebot/internal/webhook"
)

type nopReplier struct{}

func (nopReplier) ReplyMessage(*messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error) {
	return &messaging_api.ReplyMessageResponse{}, nil
}

func setupTestApp(t *testing.T, cat *catalog.Catalog) *Application {
	t.Helper()

	log := logger.NewWithWriter("error", io.Discard)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	wh, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: "secret",
		Replier:       nopReplier{},
		Metrics:       m,
		Logger:        log,
	})
	require.NoError(t, err)

	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{Name: "user", Burst: 1, RefillRate: 1})
	t.Cleanup(limiter.Stop)

	app := &Application{
		cfg:            &config.Config{Metrics: config.MetricsConfig{AuthEnabled: true, Username: "prometheus", Password: "pw"}},
		logger:         log,
		metrics:        m,
		registry:       registry,
		catalog:        cat,
		userLimiter:    limiter,
		webhookHandler: wh,
	}
	app.router = app.newRouter()
	return app
}

func serve(app *Application, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, httptest.NewRequest(method, path, body))
	return w
}

func TestLivenessCheck(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t, catalog.NewFromRecords(nil))

	w := serve(app, http.MethodGet, "/livez", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp["status"])
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestReadinessCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte("店名,美食類型,區域\n阿明早餐,早餐,西區\n"), 0o644))

	cat := catalog.New(logger.NewWithWriter("error", io.Discard), []catalog.Source{catalog.FileSource{Path: path}})
	app := setupTestApp(t, cat)

	w := serve(app, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, cat.Load(context.Background()))

	w = serve(app, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status  string `json:"status"`
		Catalog struct {
			Source  string `json:"source"`
			Records int    `json:"records"`
		} `json:"catalog"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, catalog.SourceFile, resp.Catalog.Source)
	assert.Equal(t, 1, resp.Catalog.Records)
}

func TestReadinessCheck_EmptyCatalogIsReady(t *testing.T) {
	t.Parallel()

	cat := catalog.New(logger.NewWithWriter("error", io.Discard), nil)
	require.NoError(t, cat.Load(context.Background()))
	app := setupTestApp(t, cat)

	w := serve(app, http.MethodHead, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t, catalog.NewFromRecords(nil))
	app.metrics.RecordIntent("menu")

	w := serve(app, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("prometheus", "pw")
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "menu")
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t, catalog.NewFromRecords(nil))

	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"events":[]}`))
	req.Header.Set("X-Line-Signature", "bogus")
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t, catalog.NewFromRecords(nil))

	w := serve(app, http.MethodGet, "/webhook", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
