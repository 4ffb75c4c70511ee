// Package scraper holds the outbound HTTP plumbing of the fetch job: the
// quota-guarded fetcher used for the Places and translation APIs, and a
// plain client for downloading the catalog.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/garyellow/taichung-eats-linebot/internal/config"
	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
	"github.com/garyellow/taichung-eats-linebot/internal/metrics"
	"github.com/garyellow/taichung-eats-linebot/internal/ratelimit"
)

// maxResponseBytes caps a single API response.
const maxResponseBytes = 8 << 20

// Request is one API call. Body is sent again on every attempt.
type Request struct {
	Op     string // label for logs and metrics, e.g. "search_text"
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// QuotaFetcher issues API requests and retries quota rejections.
//
// It sorts failures three ways and callers branch on them:
//   - no response (DNS, connect, timeout): apperrors.ErrRequestFailed, no retry
//   - HTTP 429 or an over-quota status in the body: sleep the backoff and
//     retry; apperrors.ErrOverQuota once attempts run out
//   - any other status >= 400: *apperrors.HTTPStatusError, no retry
type QuotaFetcher struct {
	client      *http.Client
	timeout     time.Duration
	backoff     time.Duration
	maxAttempts int
	pacer       *ratelimit.Limiter
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// QuotaOption configures a QuotaFetcher.
type QuotaOption func(*QuotaFetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) QuotaOption {
	return func(f *QuotaFetcher) { f.client = c }
}

// WithRequestTimeout sets the per-attempt timeout.
func WithRequestTimeout(d time.Duration) QuotaOption {
	return func(f *QuotaFetcher) { f.timeout = d }
}

// WithBackoff sets the sleep between quota retries.
func WithBackoff(d time.Duration) QuotaOption {
	return func(f *QuotaFetcher) { f.backoff = d }
}

// WithMaxAttempts sets how many times a quota rejection is tried.
func WithMaxAttempts(n int) QuotaOption {
	return func(f *QuotaFetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithPacer makes every attempt wait for a token first.
func WithPacer(l *ratelimit.Limiter) QuotaOption {
	return func(f *QuotaFetcher) { f.pacer = l }
}

// WithMetrics records request outcomes.
func WithMetrics(m *metrics.Metrics) QuotaOption {
	return func(f *QuotaFetcher) { f.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) QuotaOption {
	return func(f *QuotaFetcher) { f.logger = l.WithModule("quota_fetcher") }
}

// NewQuotaFetcher returns a fetcher with a 10s request timeout, 60s backoff
// and 3 attempts unless overridden.
func NewQuotaFetcher(opts ...QuotaOption) *QuotaFetcher {
	f := &QuotaFetcher{
		client:      &http.Client{},
		timeout:     config.QuotaRequestTimeout,
		backoff:     config.QuotaBackoff,
		maxAttempts: config.QuotaMaxAttempts,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.NewWithWriter("error", io.Discard)
	}
	return f
}

// Do runs req and returns the response body of the first non-quota answer.
func (f *QuotaFetcher) Do(ctx context.Context, req Request) ([]byte, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	target := redact(req.URL)

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if f.pacer != nil {
			if err := f.pacer.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrRequestFailed, req.Op, err)
			}
		}

		start := time.Now()
		status, body, err := f.once(ctx, req)
		if err != nil {
			f.metrics.RecordPlacesRequest(req.Op, "REQUEST_FAILED", time.Since(start).Seconds())
			f.logger.WithError(err).WithField("op", req.Op).Warn("Request failed")
			return nil, fmt.Errorf("%w: %s %s: %w", apperrors.ErrRequestFailed, req.Op, target, err)
		}

		if status == http.StatusTooManyRequests || isOverQuota(body) {
			f.metrics.RecordPlacesRequest(req.Op, "OVER_QUERY_LIMIT", time.Since(start).Seconds())
			if attempt == f.maxAttempts {
				break
			}
			f.metrics.RecordQuotaRetry(req.Op)
			f.logger.WithField("op", req.Op).
				WithField("attempt", attempt).
				WithField("backoff", f.backoff.String()).
				Warn("Over quota; backing off")
			if err := Sleep(ctx, f.backoff); err != nil {
				return nil, err
			}
			continue
		}

		if status >= http.StatusBadRequest {
			statusErr := apperrors.NewHTTPStatusError(target, status)
			f.metrics.RecordPlacesRequest(req.Op, statusErr.Code(), time.Since(start).Seconds())
			return nil, statusErr
		}

		f.metrics.RecordPlacesRequest(req.Op, "ok", time.Since(start).Seconds())
		return body, nil
	}

	return nil, fmt.Errorf("%w: %s after %d attempts", apperrors.ErrOverQuota, req.Op, f.maxAttempts)
}

func (f *QuotaFetcher) once(ctx context.Context, req Request) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return 0, nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, data, nil
}

// isOverQuota detects quota rejections that arrive with a non-429 status,
// either the legacy top-level status or the google.rpc error status.
func isOverQuota(body []byte) bool {
	if len(body) == 0 || body[0] != '{' {
		return false
	}
	var payload struct {
		Status string `json:"status"`
		Error  struct {
			Status string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return false
	}
	return payload.Status == "OVER_QUERY_LIMIT" || payload.Error.Status == "RESOURCE_EXHAUSTED"
}

// redact drops the query string, which may carry an API key.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
